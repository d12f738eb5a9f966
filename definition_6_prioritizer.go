package scheduler

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"
)

type ParamsPrioritize struct {
	Graph       *TaskGraph
	Contractors []*Contractor
	Spec        ScheduleSpec

	Estimator     WorkTimeEstimator
	OracleTimeout time.Duration
}

// Prioritizer returns task IDs such that iterating the list in reverse visits every
// task after all its predecessors, highest priority first.
type Prioritizer interface {
	Prioritize(ctx context.Context, params *ParamsPrioritize) ([]string, error)
}

const (
	_White uint8 = iota
	_Gray
	_Black
)

// taskArena indexes the graph by position in the sorted ID list.
type taskArena struct {
	ids        []string
	successors [][]int
}

func newTaskArena(graph *TaskGraph) *taskArena {
	ids := graph.IDs()

	positions := make(map[string]int, len(ids))

	for ix, id := range ids {
		positions[id] = ix
	}

	result := taskArena{
		ids:        ids,
		successors: make([][]int, len(ids)),
	}

	for ix, id := range ids {
		task, _ := graph.Task(id)

		for _, successorID := range task.Successors() {
			result.successors[ix] = append(result.successors[ix], positions[successorID])
		}
	}

	return &result
}

type frame struct {
	node int
	next int
}

// postOrder returns the task positions with every task after all its successors.
// Traversal is iterative, a successor found on the current path closes a cycle.
func (arena *taskArena) postOrder() ([]int, error) {
	colors := make([]uint8, len(arena.ids))
	result := make([]int, 0, len(arena.ids))

	for root := range arena.ids {
		if colors[root] != _White {
			continue
		}

		colors[root] = _Gray
		stack := []frame{{node: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.next < len(arena.successors[top.node]) {
				child := arena.successors[top.node][top.next]
				top.next++

				switch colors[child] {
				case _Gray:
					return nil,
						ErrGraphCycle{
							Caller: "postOrder",
							TaskID: arena.ids[child],
						}

				case _White:
					colors[child] = _Gray
					stack = append(stack, frame{node: child})
				}

				continue
			}

			colors[top.node] = _Black
			result = append(result, top.node)
			stack = stack[:len(stack)-1]
		}
	}

	return result,
		nil
}

// HEFTPrioritizer orders tasks by upward rank: own duration with the default team
// plus the highest rank among successors.
type HEFTPrioritizer struct{}

func (HEFTPrioritizer) Prioritize(ctx context.Context, params *ParamsPrioritize) ([]string, error) {
	arena := newTaskArena(params.Graph)

	order, errCycle := arena.postOrder()
	if errCycle != nil {
		return nil,
			errCycle
	}

	ranks := make([]int64, len(arena.ids))

	for _, node := range order {
		task, _ := params.Graph.Task(arena.ids[node])

		duration, errDuration := estimateDefaultDuration(ctx, task, params)
		if errDuration != nil {
			return nil,
				errDuration
		}

		var successorsRank int64

		for _, successor := range arena.successors[node] {
			successorsRank = max(successorsRank, ranks[successor])
		}

		ranks[node] = duration + successorsRank
	}

	positions := make([]int, len(arena.ids))

	for ix := range positions {
		positions[ix] = ix
	}

	// ascending rank, ties by descending ID, the orchestrator walks it backwards
	slices.SortStableFunc(
		positions,
		func(a, b int) int {
			if ranks[a] != ranks[b] {
				return cmp.Compare(ranks[a], ranks[b])
			}

			return strings.Compare(arena.ids[b], arena.ids[a])
		},
	)

	result := make([]string, len(positions))

	for ix, position := range positions {
		result[ix] = arena.ids[position]
	}

	return result,
		nil
}

func estimateDefaultDuration(ctx context.Context, task *Task, params *ParamsPrioritize) (int64, error) {
	if override := getOverrideDuration(task, params.Spec); override > 0 {
		return override,
			nil
	}

	selection, errSelect := SelectContractor(
		&ParamsSelectContractor{
			Contractors: params.Contractors,
			Task:        task,
			Spec:        params.Spec,
		},
	)
	if errSelect != nil {
		return 0,
			errSelect
	}

	return callEstimator(
		ctx,
		&paramsCallEstimator{
			Estimator: params.Estimator,
			Task:      task,
			Team:      selection.DefaultTeam,
			Timeout:   params.OracleTimeout,
		},
	)
}
