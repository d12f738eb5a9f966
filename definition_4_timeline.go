package scheduler

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	goerrors "github.com/TudorHulban/go-errors"
)

const _NoAvailability = int64(-1)

// checkpoint holds the workers in use from Time until the next checkpoint.
type checkpoint struct {
	Time  int64
	InUse uint16
}

type timelineKey struct {
	ContractorID string
	Kind         ResourceKind
}

// ResourceTimeline tracks, per contractor and resource kind, how many workers are
// booked over time. It is owned by a single scheduling run and is not safe for
// concurrent mutation. Concurrent reads are safe between bookings.
type ResourceTimeline struct {
	capacities  map[timelineKey]uint16
	checkpoints map[timelineKey][]checkpoint
}

func NewResourceTimeline(contractors []*Contractor) (*ResourceTimeline, error) {
	result := ResourceTimeline{
		capacities:  make(map[timelineKey]uint16),
		checkpoints: make(map[timelineKey][]checkpoint),
	}

	seen := make(map[string]bool, len(contractors))

	for _, contractor := range contractors {
		if contractor == nil {
			return nil,
				goerrors.ErrValidation{
					Caller: "NewResourceTimeline",
					Issue: goerrors.ErrNilInput{
						InputName: "Contractor",
					},
				}
		}

		if seen[contractor.ID] {
			return nil,
				goerrors.ErrValidation{
					Caller: "NewResourceTimeline",
					Issue: goerrors.ErrInvalidInput{
						InputName:  "Contractor.ID",
						InputValue: contractor.ID,
						Issue:      errors.New("duplicate contractor ID"),
					},
				}
		}

		seen[contractor.ID] = true

		for kind, capacity := range contractor.Capacity {
			key := timelineKey{
				ContractorID: contractor.ID,
				Kind:         kind,
			}

			result.capacities[key] = capacity
			result.checkpoints[key] = []checkpoint{{Time: 0, InUse: 0}}
		}
	}

	return &result,
		nil
}

func (t *ResourceTimeline) getCheckpoints(key timelineKey) []checkpoint {
	if checkpoints, exists := t.checkpoints[key]; exists {
		return checkpoints
	}

	return []checkpoint{{Time: 0, InUse: 0}}
}

// segmentIndex returns the index of the checkpoint in force at timestamp.
func segmentIndex(checkpoints []checkpoint, timestamp int64) int {
	ix := sort.Search(
		len(checkpoints),
		func(i int) bool {
			return checkpoints[i].Time > timestamp
		},
	)

	return max(ix-1, 0)
}

// maxInUse returns the peak booked count over the interval.
func maxInUse(checkpoints []checkpoint, interval TimeInterval) uint16 {
	var result uint16

	for ix := segmentIndex(checkpoints, interval.TimeStart); ix < len(checkpoints); ix++ {
		if checkpoints[ix].Time >= interval.TimeEnd {
			break
		}

		result = max(result, checkpoints[ix].InUse)
	}

	return result
}

type ParamsBook struct {
	TimeInterval

	ContractorID string
	Team         Team
}

// Book marks the team as occupied over the interval. The booking is atomic:
// nothing is written when any kind would exceed its capacity.
func (t *ResourceTimeline) Book(params *ParamsBook) error {
	if params.TimeStart < 0 || params.TimeStart > params.TimeEnd {
		return goerrors.ErrInvalidInput{
			Caller:     "Book",
			InputName:  "TimeInterval",
			InputValue: params.TimeInterval.String(),
		}
	}

	if params.TimeStart == params.TimeEnd {
		return nil
	}

	kinds := params.Team.Kinds()

	for _, kind := range kinds {
		count := params.Team[kind]
		if count == 0 {
			continue
		}

		key := timelineKey{
			ContractorID: params.ContractorID,
			Kind:         kind,
		}

		peak := maxInUse(t.getCheckpoints(key), params.TimeInterval)

		if int(peak)+int(count) > int(t.capacities[key]) {
			return fmt.Errorf(
				"booking %d %q workers of contractor %q over %s exceeds capacity %d (in use %d)",

				count,
				kind,
				params.ContractorID,
				params.TimeInterval.String(),
				t.capacities[key],
				peak,
			)
		}
	}

	for _, kind := range kinds {
		count := params.Team[kind]
		if count == 0 {
			continue
		}

		key := timelineKey{
			ContractorID: params.ContractorID,
			Kind:         kind,
		}

		checkpoints := slices.Clone(t.getCheckpoints(key))

		checkpoints, ixStart := insertCheckpoint(checkpoints, params.TimeStart)
		checkpoints, _ = insertCheckpoint(checkpoints, params.TimeEnd)

		for ix := ixStart; ix < len(checkpoints) && checkpoints[ix].Time < params.TimeEnd; ix++ {
			checkpoints[ix].InUse = checkpoints[ix].InUse + count
		}

		t.checkpoints[key] = compactCheckpoints(checkpoints)
	}

	return nil
}

// insertCheckpoint splits the segment in force at timestamp, if needed.
func insertCheckpoint(checkpoints []checkpoint, timestamp int64) ([]checkpoint, int) {
	ix := segmentIndex(checkpoints, timestamp)

	if checkpoints[ix].Time == timestamp {
		return checkpoints, ix
	}

	return slices.Insert(
			checkpoints,
			ix+1,
			checkpoint{
				Time:  timestamp,
				InUse: checkpoints[ix].InUse,
			},
		),
		ix + 1
}

// compactCheckpoints drops checkpoints that do not change the in use count.
func compactCheckpoints(checkpoints []checkpoint) []checkpoint {
	result := checkpoints[:1]

	for _, current := range checkpoints[1:] {
		if current.InUse == result[len(result)-1].InUse {
			continue
		}

		result = append(result, current)
	}

	return result
}

func (t *ResourceTimeline) String() string {
	keys := make([]timelineKey, 0, len(t.checkpoints))

	for key := range t.checkpoints {
		keys = append(keys, key)
	}

	slices.SortFunc(
		keys,
		func(a, b timelineKey) int {
			if a.ContractorID != b.ContractorID {
				return strings.Compare(a.ContractorID, b.ContractorID)
			}

			return strings.Compare(string(a.Kind), string(b.Kind))
		},
	)

	var sb strings.Builder

	sb.WriteString("ResourceTimeline{\n")

	for _, key := range keys {
		sb.WriteString(
			fmt.Sprintf(
				"\t%s/%s (capacity %d):",

				key.ContractorID,
				key.Kind,
				t.capacities[key],
			),
		)

		for _, cp := range t.checkpoints[key] {
			sb.WriteString(fmt.Sprintf(" (%d,%d)", cp.Time, cp.InUse))
		}

		sb.WriteString("\n")
	}

	sb.WriteString("}")

	return sb.String()
}
