package scheduler

import (
	"errors"
	"fmt"
	"slices"

	goerrors "github.com/TudorHulban/go-errors"
)

// TaskGraph is read only once built.
// Acyclicity is checked when the graph is prioritized.
type TaskGraph struct {
	tasks map[string]*Task
	ids   []string // sorted
}

type ParamsNewTaskGraph struct {
	Tasks []*Task
}

func NewTaskGraph(params *ParamsNewTaskGraph) (*TaskGraph, error) {
	if params == nil || len(params.Tasks) == 0 {
		return nil,
			goerrors.ErrValidation{
				Caller: "NewTaskGraph",
				Issue: goerrors.ErrNilInput{
					InputName: "Tasks",
				},
			}
	}

	result := TaskGraph{
		tasks: make(map[string]*Task, len(params.Tasks)),
		ids:   make([]string, 0, len(params.Tasks)),
	}

	for _, task := range params.Tasks {
		if task == nil {
			return nil,
				goerrors.ErrValidation{
					Caller: "NewTaskGraph",
					Issue: goerrors.ErrNilInput{
						InputName: "Task",
					},
				}
		}

		if errValidation := task.IsValid(); errValidation != nil {
			return nil,
				errValidation
		}

		if _, exists := result.tasks[task.ID]; exists {
			return nil,
				goerrors.ErrInvalidInput{
					Caller:     "NewTaskGraph",
					InputName:  "Task.ID",
					InputValue: task.ID,
					Issue:      errors.New("duplicate task ID"),
				}
		}

		task.successors = nil

		result.tasks[task.ID] = task
		result.ids = append(result.ids, task.ID)
	}

	slices.Sort(result.ids)

	for _, id := range result.ids {
		task := result.tasks[id]

		for _, predecessorID := range task.Predecessors {
			if predecessorID == task.ID {
				return nil,
					goerrors.ErrInvalidInput{
						Caller:     "NewTaskGraph",
						InputName:  "Task.Predecessors",
						InputValue: predecessorID,
						Issue:      errors.New("task depends on itself"),
					}
			}

			predecessor, exists := result.tasks[predecessorID]
			if !exists {
				return nil,
					goerrors.ErrInvalidInput{
						Caller:     "NewTaskGraph",
						InputName:  "Task.Predecessors",
						InputValue: predecessorID,
						Issue: fmt.Errorf(
							"task %q depends on unknown task",
							task.ID,
						),
					}
			}

			if !slices.Contains(predecessor.successors, task.ID) {
				predecessor.successors = append(predecessor.successors, task.ID)
			}
		}
	}

	for _, task := range result.tasks {
		slices.Sort(task.successors)
	}

	return &result,
		nil
}

func (g *TaskGraph) Task(id string) (*Task, bool) {
	task, exists := g.tasks[id]

	return task, exists
}

// IDs returns task IDs in ascending order.
func (g *TaskGraph) IDs() []string {
	return slices.Clone(g.ids)
}

func (g *TaskGraph) Len() int {
	return len(g.ids)
}

// Sources returns the tasks without predecessors, ascending by ID.
func (g *TaskGraph) Sources() []string {
	result := make([]string, 0)

	for _, id := range g.ids {
		if len(g.tasks[id].Predecessors) == 0 {
			result = append(result, id)
		}
	}

	return result
}

// Sinks returns the tasks without successors, ascending by ID.
func (g *TaskGraph) Sinks() []string {
	result := make([]string, 0)

	for _, id := range g.ids {
		if len(g.tasks[id].successors) == 0 {
			result = append(result, id)
		}
	}

	return result
}
