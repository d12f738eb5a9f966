package scheduler

import "fmt"

// TimeInterval is half open, [TimeStart, TimeEnd).
type TimeInterval struct {
	TimeStart int64
	TimeEnd   int64
}

func (interval TimeInterval) GetDuration() int64 {
	return interval.TimeEnd - interval.TimeStart
}

func (interval TimeInterval) Overlaps(other TimeInterval) bool {
	return max(interval.TimeStart, other.TimeStart) < min(interval.TimeEnd, other.TimeEnd)
}

func (interval TimeInterval) Contains(timestamp int64) bool {
	return interval.TimeStart <= timestamp && timestamp < interval.TimeEnd
}

func (interval TimeInterval) String() string {
	return fmt.Sprintf(
		"[%d-%d)",

		interval.TimeStart,
		interval.TimeEnd,
	)
}
