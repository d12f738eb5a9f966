package scheduler

import (
	"errors"
	"fmt"
	"io"

	goerrors "github.com/TudorHulban/go-errors"
	"gopkg.in/yaml.v3"
)

// WorkSpec holds the caller's per task scheduling options.
type WorkSpec struct {
	// AssignedTime, when positive, overrides the duration oracle.
	AssignedTime int64 `yaml:"assigned_time"`

	// ResourceOverrides narrow the task's [min, max] team bounds per kind.
	ResourceOverrides map[ResourceKind]WorkerRange `yaml:"resource_overrides"`
}

// ScheduleSpec maps task IDs to their options. A nil spec is valid and empty.
type ScheduleSpec map[string]WorkSpec

func (spec ScheduleSpec) Get(taskID string) WorkSpec {
	if spec == nil {
		return WorkSpec{}
	}

	return spec[taskID]
}

func (spec ScheduleSpec) Validate() error {
	for taskID, workSpec := range spec {
		if len(taskID) == 0 {
			return goerrors.ErrValidation{
				Caller: "Validate - ScheduleSpec",
				Issue: goerrors.ErrNilInput{
					InputName: "task ID",
				},
			}
		}

		if workSpec.AssignedTime < 0 {
			return goerrors.ErrValidation{
				Caller: fmt.Sprintf("Validate - ScheduleSpec, task %q", taskID),
				Issue: goerrors.ErrNegativeInput{
					InputName: "AssignedTime",
				},
			}
		}

		for kind, override := range workSpec.ResourceOverrides {
			if errRange := override.IsValid(); errRange != nil {
				return goerrors.ErrValidation{
					Caller: fmt.Sprintf("Validate - ScheduleSpec, task %q, kind %q", taskID, kind),
					Issue:  errRange,
				}
			}
		}
	}

	return nil
}

// validateAgainst checks that every entry names a task of the graph.
func (spec ScheduleSpec) validateAgainst(graph *TaskGraph) error {
	for taskID := range spec {
		if _, exists := graph.Task(taskID); !exists {
			return goerrors.ErrInvalidInput{
				Caller:     "Validate - ScheduleSpec",
				InputName:  "task ID",
				InputValue: taskID,
				Issue:      errors.New("spec references unknown task"),
			}
		}
	}

	return nil
}

// LoadScheduleSpecYAML decodes documents of the form:
//
//	task-1:
//	  assigned_time: 40
//	task-2:
//	  resource_overrides:
//	    welder: {min: 2, max: 3}
func LoadScheduleSpecYAML(r io.Reader) (ScheduleSpec, error) {
	var result ScheduleSpec

	if errDecode := yaml.NewDecoder(r).Decode(&result); errDecode != nil {
		if errors.Is(errDecode, io.EOF) {
			return ScheduleSpec{},
				nil
		}

		return nil,
			fmt.Errorf("decode schedule spec: %w", errDecode)
	}

	if errValidation := result.Validate(); errValidation != nil {
		return nil,
			errValidation
	}

	return result,
		nil
}
