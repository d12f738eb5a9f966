package scheduler

import (
	"fmt"
	"strings"
)

// ErrGraphCycle is fatal, no schedule is produced.
type ErrGraphCycle struct {
	Caller string
	TaskID string // task on which the back edge was detected
}

func (e ErrGraphCycle) Error() string {
	return fmt.Sprintf(
		"%s: task graph is not acyclic, cycle closes on task %q",

		e.Caller,
		e.TaskID,
	)
}

// ErrNoFeasibleContractor is fatal, the whole run is aborted.
type ErrNoFeasibleContractor struct {
	TaskID        string
	ResourceKinds []ResourceKind
}

func (e ErrNoFeasibleContractor) Error() string {
	kinds := make([]string, len(e.ResourceKinds))

	for ix, kind := range e.ResourceKinds {
		kinds[ix] = string(kind)
	}

	return fmt.Sprintf(
		"no single contractor can supply the minimum team for task %q (kinds: %s)",

		e.TaskID,
		strings.Join(kinds, ", "),
	)
}

// ErrOracle wraps failures of the duration oracle, including non positive durations
// and calls exceeding the oracle timeout.
type ErrOracle struct {
	TaskID   string
	Team     Team
	Duration int64

	Issue error
}

func (e ErrOracle) Error() string {
	if e.Issue != nil {
		return fmt.Sprintf(
			"duration oracle failed for task %q with team %s: %s",

			e.TaskID,
			e.Team.String(),
			e.Issue,
		)
	}

	return fmt.Sprintf(
		"duration oracle returned invalid duration %d for task %q with team %s",

		e.Duration,
		e.TaskID,
		e.Team.String(),
	)
}

func (e ErrOracle) Unwrap() error {
	return e.Issue
}

// ErrOptimizerNonConvergence is soft.
// It is logged and reported through Schedule.FallbackTasks, never returned.
type ErrOptimizerNonConvergence struct {
	TaskID       string
	ResourceKind ResourceKind
}

func (e ErrOptimizerNonConvergence) Error() string {
	return fmt.Sprintf(
		"finish time of task %q is not monotone in %q team size, enumerated whole range",

		e.TaskID,
		e.ResourceKind,
	)
}
