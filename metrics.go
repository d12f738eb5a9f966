package scheduler

import (
	"context"

	"github.com/rcrowley/go-metrics"
)

const (
	MetricTasksBooked          = "scheduler.tasks.booked"
	MetricOracleCalls          = "scheduler.oracle.calls"
	MetricOptimizerEvaluations = "scheduler.optimizer.evaluations"
	MetricOptimizerFallbacks   = "scheduler.optimizer.fallbacks"
	MetricMakespan             = "scheduler.makespan"
	MetricRun                  = "scheduler.run"
)

type schedulerMetrics struct {
	tasksBooked          metrics.Counter
	oracleCalls          metrics.Counter
	optimizerEvaluations metrics.Counter
	optimizerFallbacks   metrics.Counter
	makespan             metrics.Gauge
	run                  metrics.Timer
}

func newSchedulerMetrics(registry metrics.Registry) *schedulerMetrics {
	return &schedulerMetrics{
		tasksBooked:          metrics.GetOrRegisterCounter(MetricTasksBooked, registry),
		oracleCalls:          metrics.GetOrRegisterCounter(MetricOracleCalls, registry),
		optimizerEvaluations: metrics.GetOrRegisterCounter(MetricOptimizerEvaluations, registry),
		optimizerFallbacks:   metrics.GetOrRegisterCounter(MetricOptimizerFallbacks, registry),
		makespan:             metrics.GetOrRegisterGauge(MetricMakespan, registry),
		run:                  metrics.GetOrRegisterTimer(MetricRun, registry),
	}
}

// countingEstimator counts oracle calls, go-metrics counters are safe for concurrent use.
type countingEstimator struct {
	WorkTimeEstimator

	calls metrics.Counter
}

func (e countingEstimator) Estimate(ctx context.Context, task *Task, team Team) (int64, error) {
	e.calls.Inc(1)

	return e.WorkTimeEstimator.Estimate(ctx, task, team)
}
