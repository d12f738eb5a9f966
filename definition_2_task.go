package scheduler

import (
	"fmt"
	"slices"
	"strings"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/asaskevich/govalidator"
)

type Task struct {
	ID           string                       `valid:"required"`
	Name         string                       `valid:"-"`
	Predecessors []string                     `valid:"-"`
	Requirements map[ResourceKind]WorkerRange `valid:"-"`

	// Volume is only read by estimators that need a work amount.
	Volume float64 `valid:"-"`

	// PinnedDuration, when positive, replaces the duration oracle for this task.
	PinnedDuration int64 `valid:"-"`

	successors []string
}

func (task *Task) IsValid() error {
	if _, errValidation := govalidator.ValidateStruct(task); errValidation != nil {
		return goerrors.ErrValidation{
			Caller: "IsValid - Task",
			Issue:  errValidation,
		}
	}

	if task.PinnedDuration < 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - Task",
			Issue: goerrors.ErrNegativeInput{
				InputName: "PinnedDuration",
			},
		}
	}

	if task.Volume < 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - Task",
			Issue: goerrors.ErrNegativeInput{
				InputName: "Volume",
			},
		}
	}

	for kind, requirement := range task.Requirements {
		if len(kind) == 0 {
			return goerrors.ErrValidation{
				Caller: "IsValid - Task",
				Issue: goerrors.ErrNilInput{
					InputName: "Requirements - resource kind",
				},
			}
		}

		if errRange := requirement.IsValid(); errRange != nil {
			return goerrors.ErrValidation{
				Caller: fmt.Sprintf("IsValid - Task %q, kind %q", task.ID, kind),
				Issue:  errRange,
			}
		}
	}

	return nil
}

// Successors is populated by the task graph.
func (task *Task) Successors() []string {
	return task.successors
}

func (task *Task) GetNeededResourceKinds() []ResourceKind {
	result := make([]ResourceKind, 0, len(task.Requirements))

	for kind := range task.Requirements {
		result = append(result, kind)
	}

	slices.Sort(result)

	return result
}

func (task *Task) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Task{ID: %q", task.ID))

	if len(task.Predecessors) > 0 {
		sb.WriteString(fmt.Sprintf(", Predecessors: %v", task.Predecessors))
	}

	for _, kind := range task.GetNeededResourceKinds() {
		sb.WriteString(
			fmt.Sprintf(
				", %s: %s",

				kind,
				task.Requirements[kind].String(),
			),
		)
	}

	if task.PinnedDuration > 0 {
		sb.WriteString(fmt.Sprintf(", PinnedDuration: %d", task.PinnedDuration))
	}

	sb.WriteString("}")

	return sb.String()
}
