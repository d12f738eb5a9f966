package scheduler

import (
	"fmt"
	"strings"
)

// ScheduledWork is created once per task and not modified afterwards.
type ScheduledWork struct {
	TimeInterval

	TaskID       string
	ContractorID string
	Team         Team
}

func (work *ScheduledWork) String() string {
	return fmt.Sprintf(
		"ScheduledWork{TaskID: %q, ContractorID: %q, %s, %s}",

		work.TaskID,
		work.ContractorID,
		work.Team.String(),
		work.TimeInterval.String(),
	)
}

// Schedule is the result of a scheduling run, works are in booking order.
type Schedule struct {
	Works    []*ScheduledWork
	Makespan int64

	// FallbackTasks lists, ascending, the tasks whose team search had to
	// enumerate a range because the finish time was not monotone.
	FallbackTasks []string

	byTaskID map[string]*ScheduledWork
}

func newSchedule(capacity int) *Schedule {
	return &Schedule{
		Works:    make([]*ScheduledWork, 0, capacity),
		byTaskID: make(map[string]*ScheduledWork, capacity),
	}
}

func (s *Schedule) add(work *ScheduledWork) {
	s.Works = append(s.Works, work)
	s.byTaskID[work.TaskID] = work
	s.Makespan = max(s.Makespan, work.TimeEnd)
}

func (s *Schedule) Work(taskID string) (*ScheduledWork, bool) {
	work, exists := s.byTaskID[taskID]

	return work, exists
}

func (s *Schedule) Len() int {
	return len(s.Works)
}

func (s *Schedule) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Schedule{Makespan: %d\n", s.Makespan))

	for ix, work := range s.Works {
		sb.WriteString(
			fmt.Sprintf(
				"\t%d: %s\n",

				ix+1,
				work.String(),
			),
		)
	}

	if len(s.FallbackTasks) > 0 {
		sb.WriteString(fmt.Sprintf("\tFallbackTasks: %v\n", s.FallbackTasks))
	}

	sb.WriteString("}")

	return sb.String()
}
