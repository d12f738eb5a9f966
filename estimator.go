package scheduler

import (
	"context"
	"math"
	"time"
)

// WorkTimeEstimator is the duration oracle.
// It must be a deterministic function of (task, team).
type WorkTimeEstimator interface {
	Estimate(ctx context.Context, task *Task, team Team) (int64, error)
}

// EstimatorFunc adapts a plain function to WorkTimeEstimator.
type EstimatorFunc func(task *Task, team Team) (int64, error)

func (fn EstimatorFunc) Estimate(_ context.Context, task *Task, team Team) (int64, error) {
	return fn(task, team)
}

// VolumeEstimator divides the task volume by the productivity of the team.
// Kinds missing from Productivity count one unit of volume per worker per time unit.
type VolumeEstimator struct {
	Productivity map[ResourceKind]float64
}

func (e VolumeEstimator) Estimate(_ context.Context, task *Task, team Team) (int64, error) {
	var throughput float64

	for kind, count := range team {
		productivity, exists := e.Productivity[kind]
		if !exists {
			productivity = 1
		}

		throughput = throughput + productivity*float64(count)
	}

	if throughput <= 0 {
		return int64(math.Ceil(task.Volume)),
			nil
	}

	return int64(math.Ceil(task.Volume / throughput)),
		nil
}

type paramsCallEstimator struct {
	Estimator WorkTimeEstimator
	Task      *Task
	Team      Team
	Timeout   time.Duration
}

type responseEstimate struct {
	duration int64
	err      error
}

// callEstimator bounds the oracle call by the timeout when one is set, even if the
// estimator ignores its context. Every failure is returned as ErrOracle.
func callEstimator(ctx context.Context, params *paramsCallEstimator) (int64, error) {
	if params.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	if ctx.Done() == nil {
		duration, errEstimate := params.Estimator.Estimate(ctx, params.Task, params.Team)

		return validateEstimate(
			params,
			responseEstimate{
				duration: duration,
				err:      errEstimate,
			},
		)
	}

	chResponse := make(chan responseEstimate, 1)

	go func() {
		duration, errEstimate := params.Estimator.Estimate(ctx, params.Task, params.Team)

		chResponse <- responseEstimate{
			duration: duration,
			err:      errEstimate,
		}
	}()

	select {
	case <-ctx.Done():
		return 0,
			ErrOracle{
				TaskID: params.Task.ID,
				Team:   params.Team.Clone(),
				Issue:  ctx.Err(),
			}

	case response := <-chResponse:
		return validateEstimate(params, response)
	}
}

func validateEstimate(params *paramsCallEstimator, response responseEstimate) (int64, error) {
	if response.err != nil {
		return 0,
			ErrOracle{
				TaskID: params.Task.ID,
				Team:   params.Team.Clone(),
				Issue:  response.err,
			}
	}

	if response.duration <= 0 {
		return 0,
			ErrOracle{
				TaskID:   params.Task.ID,
				Team:     params.Team.Clone(),
				Duration: response.duration,
			}
	}

	return response.duration,
		nil
}

// getOverrideDuration returns the ScheduleSpec assigned time, else the task pinned duration, else zero.
func getOverrideDuration(task *Task, spec ScheduleSpec) int64 {
	if assigned := spec.Get(task.ID).AssignedTime; assigned > 0 {
		return assigned
	}

	return task.PinnedDuration
}
