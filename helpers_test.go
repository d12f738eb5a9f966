package scheduler

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const (
	_Carpenter   ResourceKind = "carpenter"
	_Electrician ResourceKind = "electrician"
	_Welder      ResourceKind = "welder"
	_Plumber     ResourceKind = "plumber"
)

func newTestGraph(t *testing.T, tasks ...*Task) *TaskGraph {
	t.Helper()

	graph, errCr := NewTaskGraph(
		&ParamsNewTaskGraph{
			Tasks: tasks,
		},
	)
	require.NoError(t, errCr)
	require.NotNil(t, graph)

	return graph
}

func newTestContractor(t *testing.T, id string, capacity map[ResourceKind]uint16) *Contractor {
	t.Helper()

	contractor, errCr := NewContractor(
		&ParamsNewContractor{
			ID:       id,
			Name:     "Contractor " + id,
			Capacity: capacity,
		},
	)
	require.NoError(t, errCr)

	return contractor
}

func constantDuration(duration int64) EstimatorFunc {
	return func(_ *Task, _ Team) (int64, error) {
		return duration, nil
	}
}

// inverseDuration returns work / team size, at least one time unit.
func inverseDuration(work int64) EstimatorFunc {
	return func(_ *Task, team Team) (int64, error) {
		size := int64(team.Size())
		if size == 0 {
			return work, nil
		}

		return max(work/size, 1), nil
	}
}

type testScheduler struct {
	*Scheduler

	hook     *test.Hook
	registry metrics.Registry
}

func newTestScheduler(t *testing.T, params *ParamsNewScheduler) *testScheduler {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)

	registry := metrics.NewRegistry()

	params.Logger = logrus.NewEntry(logger)
	params.Metrics = registry

	scheduler, errCr := NewScheduler(params)
	require.NoError(t, errCr)

	return &testScheduler{
		Scheduler: scheduler,
		hook:      hook,
		registry:  registry,
	}
}

func (s *testScheduler) counter(name string) int64 {
	return metrics.GetOrRegisterCounter(name, s.registry).Count()
}

// checkPrecedence verifies every task starts after all its predecessors finished.
func checkPrecedence(graph *TaskGraph, schedule *Schedule) error {
	if schedule.Len() != graph.Len() {
		return fmt.Errorf("scheduled %d tasks out of %d", schedule.Len(), graph.Len())
	}

	for _, id := range graph.IDs() {
		task, _ := graph.Task(id)
		work, _ := schedule.Work(id)

		for _, predecessorID := range task.Predecessors {
			predecessor, exists := schedule.Work(predecessorID)
			if !exists {
				return fmt.Errorf("predecessor %q of %q not scheduled", predecessorID, id)
			}

			if work.TimeStart < predecessor.TimeEnd {
				return fmt.Errorf(
					"task %q starts at %d before predecessor %q finishes at %d",

					id,
					work.TimeStart,
					predecessorID,
					predecessor.TimeEnd,
				)
			}
		}
	}

	return nil
}

// checkCapacity verifies that, at every work start, the workers in use per contractor
// and kind do not exceed capacity. Load only increases at starts, so this covers all instants.
func checkCapacity(contractors []*Contractor, schedule *Schedule) error {
	byID := make(map[string]*Contractor, len(contractors))

	for _, contractor := range contractors {
		byID[contractor.ID] = contractor
	}

	for _, probe := range schedule.Works {
		inUse := make(map[ResourceKind]int)

		for _, work := range schedule.Works {
			if work.ContractorID != probe.ContractorID || !work.Contains(probe.TimeStart) {
				continue
			}

			for kind, count := range work.Team {
				inUse[kind] = inUse[kind] + int(count)
			}
		}

		for kind, count := range inUse {
			if capacity := byID[probe.ContractorID].GetCapacity(kind); count > int(capacity) {
				return fmt.Errorf(
					"contractor %q uses %d %q workers at %d, capacity %d",

					probe.ContractorID,
					count,
					kind,
					probe.TimeStart,
					capacity,
				)
			}
		}
	}

	return nil
}

// checkTeamBounds verifies every booked team is within the narrowed task ranges.
func checkTeamBounds(graph *TaskGraph, spec ScheduleSpec, schedule *Schedule) error {
	for _, work := range schedule.Works {
		task, _ := graph.Task(work.TaskID)

		ranges, errRanges := GetRequiredRanges(task, spec)
		if errRanges != nil {
			return errRanges
		}

		if len(ranges) != len(work.Team) {
			return fmt.Errorf("task %q booked with %s", work.TaskID, work.Team.String())
		}

		for kind, requirement := range ranges {
			count := work.Team[kind]

			if count < requirement.Min || count > requirement.Max {
				return fmt.Errorf(
					"task %q booked %d %q workers, range %s",

					work.TaskID,
					count,
					kind,
					requirement.String(),
				)
			}
		}
	}

	return nil
}

type randomProblem struct {
	Tasks       []*Task
	Contractors []*Contractor
}

// newRandomProblem builds a feasible problem: edges only go from lower to higher
// task index and every contractor can host the minimum team of any task.
func newRandomProblem(seed int64) *randomProblem {
	rng := rand.New(rand.NewSource(seed))

	kinds := []ResourceKind{_Carpenter, _Electrician, _Welder}

	numberTasks := 1 + rng.Intn(12)

	result := randomProblem{
		Tasks: make([]*Task, numberTasks),
	}

	for ix := range numberTasks {
		task := Task{
			ID:           fmt.Sprintf("task-%02d", ix),
			Requirements: make(map[ResourceKind]WorkerRange),
			Volume:       float64(10 + rng.Intn(90)),
		}

		for predecessor := range ix {
			if rng.Intn(4) == 0 {
				task.Predecessors = append(task.Predecessors, result.Tasks[predecessor].ID)
			}
		}

		for _, kind := range kinds {
			if rng.Intn(2) == 0 {
				continue
			}

			minimum := uint16(1 + rng.Intn(2))

			task.Requirements[kind] = WorkerRange{
				Min: minimum,
				Max: minimum + uint16(rng.Intn(4)),
			}
		}

		result.Tasks[ix] = &task
	}

	numberContractors := 1 + rng.Intn(3)

	for ix := range numberContractors {
		capacity := make(map[ResourceKind]uint16, len(kinds))

		for _, kind := range kinds {
			capacity[kind] = uint16(2 + rng.Intn(4))
		}

		result.Contractors = append(
			result.Contractors,
			&Contractor{
				ID:       fmt.Sprintf("contractor-%d", ix),
				Capacity: capacity,
			},
		)
	}

	return &result
}
