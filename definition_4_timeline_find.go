package scheduler

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// InUseAt returns the workers of the kind booked at the contractor at timestamp.
func (t *ResourceTimeline) InUseAt(contractorID string, kind ResourceKind, timestamp int64) uint16 {
	checkpoints := t.getCheckpoints(
		timelineKey{
			ContractorID: contractorID,
			Kind:         kind,
		},
	)

	return checkpoints[segmentIndex(checkpoints, timestamp)].InUse
}

// GetAvailability returns how many workers of the kind stay free over the whole interval.
func (t *ResourceTimeline) GetAvailability(contractorID string, kind ResourceKind, interval TimeInterval) uint16 {
	key := timelineKey{
		ContractorID: contractorID,
		Kind:         kind,
	}

	peak := maxInUse(t.getCheckpoints(key), interval)

	if peak >= t.capacities[key] {
		return 0
	}

	return t.capacities[key] - peak
}

type ParamsFindMinStart struct {
	Task         *Task
	ContractorID string
	Team         Team
	Duration     int64

	// Scheduled holds the works booked so far, by task ID.
	Scheduled map[string]*ScheduledWork
}

// getPredecessorsFinish returns the latest finish of the task predecessors, zero when none.
func getPredecessorsFinish(task *Task, scheduled map[string]*ScheduledWork) (int64, error) {
	var result int64

	for _, predecessorID := range task.Predecessors {
		work, exists := scheduled[predecessorID]
		if !exists {
			return 0,
				fmt.Errorf(
					"predecessor %q of task %q is not scheduled",

					predecessorID,
					task.ID,
				)
		}

		result = max(result, work.TimeEnd)
	}

	return result,
		nil
}

// FindMinStartTime returns the earliest time at which all predecessors finished and
// every kind of the team is available continuously for the duration.
func (t *ResourceTimeline) FindMinStartTime(params *ParamsFindMinStart) (int64, error) {
	earliest, errPredecessors := getPredecessorsFinish(params.Task, params.Scheduled)
	if errPredecessors != nil {
		return _NoAvailability,
			errPredecessors
	}

	candidates := []int64{earliest}

	for _, kind := range params.Team.Kinds() {
		count := params.Team[kind]
		if count == 0 {
			continue
		}

		key := timelineKey{
			ContractorID: params.ContractorID,
			Kind:         kind,
		}

		if count > t.capacities[key] {
			return _NoAvailability,
				fmt.Errorf(
					"team needs %d %q workers, contractor %q has capacity %d",

					count,
					kind,
					params.ContractorID,
					t.capacities[key],
				)
		}

		for _, cp := range t.getCheckpoints(key) {
			if cp.Time > earliest {
				candidates = append(candidates, cp.Time)
			}
		}
	}

	slices.Sort(candidates)
	candidates = slices.Compact(candidates)

	for _, candidate := range candidates {
		if t.canHost(params.ContractorID, params.Team, TimeInterval{TimeStart: candidate, TimeEnd: candidate + params.Duration}) {
			return candidate,
				nil
		}
	}

	// the last checkpoint of every kind has nothing in use, so this is not reachable
	// for teams within capacity.
	return _NoAvailability,
		fmt.Errorf(
			"no start time found for task %q on contractor %q",

			params.Task.ID,
			params.ContractorID,
		)
}

func (t *ResourceTimeline) canHost(contractorID string, team Team, interval TimeInterval) bool {
	for kind, count := range team {
		if count == 0 {
			continue
		}

		if t.GetAvailability(contractorID, kind, interval) < count {
			return false
		}
	}

	return true
}

type ParamsScheduleTask struct {
	Task         *Task
	ContractorID string
	Team         Team
	Scheduled    map[string]*ScheduledWork

	// OverrideDuration, when positive, is used instead of the estimator.
	OverrideDuration int64
	Estimator        WorkTimeEstimator
	OracleTimeout    time.Duration
}

// ScheduleTask computes where the task would run with the team. It only reads the
// timeline, the booking is done by Book.
func (t *ResourceTimeline) ScheduleTask(ctx context.Context, params *ParamsScheduleTask) (TimeInterval, error) {
	duration := params.OverrideDuration

	if duration <= 0 {
		estimated, errEstimate := callEstimator(
			ctx,
			&paramsCallEstimator{
				Estimator: params.Estimator,
				Task:      params.Task,
				Team:      params.Team,
				Timeout:   params.OracleTimeout,
			},
		)
		if errEstimate != nil {
			return TimeInterval{},
				errEstimate
		}

		duration = estimated
	}

	start, errFind := t.FindMinStartTime(
		&ParamsFindMinStart{
			Task:         params.Task,
			ContractorID: params.ContractorID,
			Team:         params.Team,
			Duration:     duration,
			Scheduled:    params.Scheduled,
		},
	)
	if errFind != nil {
		return TimeInterval{},
			errFind
	}

	return TimeInterval{
			TimeStart: start,
			TimeEnd:   start + duration,
		},
		nil
}
