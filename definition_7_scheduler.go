package scheduler

import (
	"context"
	"slices"
	"time"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
)

type TaskState uint8

const (
	TaskUnscheduled TaskState = iota
	TaskTeamSelected
	TaskTeamOptimized
	TaskBooked
)

func (s TaskState) String() string {
	switch s {
	case TaskUnscheduled:
		return "Unscheduled"
	case TaskTeamSelected:
		return "TeamSelected"
	case TaskTeamOptimized:
		return "TeamOptimized"
	case TaskBooked:
		return "Booked"
	}

	return "Unknown"
}

type ParamsNewScheduler struct {
	Estimator   WorkTimeEstimator
	Optimizer   ResourceOptimizer // defaults to a DichotomyOptimizer
	Prioritizer Prioritizer       // defaults to HEFTPrioritizer

	Logger  *logrus.Entry
	Metrics metrics.Registry

	// OracleTimeout bounds each estimator call when positive.
	OracleTimeout time.Duration

	// MaxParallel bounds concurrent team evaluations of the default optimizer.
	MaxParallel int
}

// Scheduler holds no state between runs, concurrent Schedule calls are safe
// as long as the estimator and optimizer are.
type Scheduler struct {
	estimator   WorkTimeEstimator
	optimizer   ResourceOptimizer
	prioritizer Prioritizer

	logger  *logrus.Entry
	metrics *schedulerMetrics

	oracleTimeout time.Duration
}

func NewScheduler(params *ParamsNewScheduler) (*Scheduler, error) {
	if params == nil || params.Estimator == nil {
		return nil,
			goerrors.ErrServiceValidation{
				ServiceName: "Scheduler",
				Caller:      "NewScheduler",
				Issue: goerrors.ErrNilInput{
					InputName: "Estimator",
				},
			}
	}

	if params.OracleTimeout < 0 {
		return nil,
			goerrors.ErrServiceValidation{
				ServiceName: "Scheduler",
				Caller:      "NewScheduler",
				Issue: goerrors.ErrNegativeInput{
					InputName: "OracleTimeout",
				},
			}
	}

	result := Scheduler{
		estimator:     params.Estimator,
		optimizer:     params.Optimizer,
		prioritizer:   params.Prioritizer,
		logger:        params.Logger,
		oracleTimeout: params.OracleTimeout,
	}

	if result.optimizer == nil {
		result.optimizer = NewDichotomyOptimizer(
			&ParamsNewDichotomyOptimizer{
				MaxParallel: params.MaxParallel,
			},
		)
	}

	if result.prioritizer == nil {
		result.prioritizer = HEFTPrioritizer{}
	}

	if result.logger == nil {
		result.logger = logrus.NewEntry(logrus.StandardLogger())
	}

	result.metrics = newSchedulerMetrics(
		ternary(
			params.Metrics == nil,

			metrics.NewRegistry(),
			params.Metrics,
		),
	)

	return &result,
		nil
}

type ParamsSchedule struct {
	Graph       *TaskGraph
	Contractors []*Contractor
	Spec        ScheduleSpec
}

func (p *ParamsSchedule) IsValid() error {
	if p == nil || p.Graph == nil {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsSchedule",
			Issue: goerrors.ErrNilInput{
				InputName: "Graph",
			},
		}
	}

	if len(p.Contractors) == 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsSchedule",
			Issue: goerrors.ErrNilInput{
				InputName: "Contractors",
			},
		}
	}

	if errSpec := p.Spec.Validate(); errSpec != nil {
		return errSpec
	}

	return p.Spec.validateAgainst(p.Graph)
}

// Schedule books every task of the graph, highest priority first.
// A failed run returns no schedule.
func (s *Scheduler) Schedule(ctx context.Context, params *ParamsSchedule) (*Schedule, error) {
	if errValidation := params.IsValid(); errValidation != nil {
		return nil,
			errValidation
	}

	defer s.metrics.run.UpdateSince(time.Now())

	logger := s.logger.WithField("run_id", ulid.Make().String())
	defer traceExit(logger)

	estimator := countingEstimator{
		WorkTimeEstimator: s.estimator,
		calls:             s.metrics.oracleCalls,
	}

	timeline, errTimeline := NewResourceTimeline(params.Contractors)
	if errTimeline != nil {
		return nil,
			errTimeline
	}

	order, errPrioritize := s.prioritizer.Prioritize(
		ctx,
		&ParamsPrioritize{
			Graph:         params.Graph,
			Contractors:   params.Contractors,
			Spec:          params.Spec,
			Estimator:     estimator,
			OracleTimeout: s.oracleTimeout,
		},
	)
	if errPrioritize != nil {
		return nil,
			errors.Wrap(errPrioritize, "prioritize tasks")
	}

	if errOrder := checkOrder(params.Graph, order); errOrder != nil {
		return nil,
			errOrder
	}

	logger.WithField("tasks", len(order)).Debug("tasks prioritized")

	result := newSchedule(len(order))

	for ix := len(order) - 1; ix >= 0; ix-- {
		if errCtx := ctx.Err(); errCtx != nil {
			return nil,
				errors.Wrap(errCtx, "scheduling interrupted")
		}

		task, _ := params.Graph.Task(order[ix])

		response, errScheduleOne := s.scheduleOne(
			ctx,
			&paramsScheduleOne{
				Task:        task,
				Contractors: params.Contractors,
				Spec:        params.Spec,
				Timeline:    timeline,
				Scheduled:   result.byTaskID,
				Estimator:   estimator,
				Logger:      logger.WithField("task_id", task.ID),
			},
		)
		if errScheduleOne != nil {
			return nil,
				errors.Wrapf(errScheduleOne, "schedule task %q", task.ID)
		}

		result.add(response.Work)

		if response.FellBack {
			result.FallbackTasks = append(result.FallbackTasks, task.ID)
		}
	}

	slices.Sort(result.FallbackTasks)

	s.metrics.makespan.Update(result.Makespan)

	logger.WithFields(
		logrus.Fields{
			"tasks":     result.Len(),
			"makespan":  result.Makespan,
			"fallbacks": len(result.FallbackTasks),
		},
	).Info("schedule complete")

	return result,
		nil
}

type paramsScheduleOne struct {
	Task        *Task
	Contractors []*Contractor
	Spec        ScheduleSpec
	Timeline    *ResourceTimeline
	Scheduled   map[string]*ScheduledWork
	Estimator   WorkTimeEstimator
	Logger      *logrus.Entry
}

type responseScheduleOne struct {
	Work     *ScheduledWork
	FellBack bool
}

func (s *Scheduler) scheduleOne(ctx context.Context, params *paramsScheduleOne) (*responseScheduleOne, error) {
	state := TaskUnscheduled

	selection, errSelect := SelectContractor(
		&ParamsSelectContractor{
			Contractors: params.Contractors,
			Task:        params.Task,
			Spec:        params.Spec,
		},
	)
	if errSelect != nil {
		return nil,
			errSelect
	}

	state = transition(params.Logger, state, TaskTeamSelected)

	logger := params.Logger.WithField("contractor_id", selection.Contractor.ID)

	paramsTask := ParamsScheduleTask{
		Task:             params.Task,
		ContractorID:     selection.Contractor.ID,
		Scheduled:        params.Scheduled,
		OverrideDuration: getOverrideDuration(params.Task, params.Spec),
		Estimator:        params.Estimator,
		OracleTimeout:    s.oracleTimeout,
	}

	optimized, errOptimize := s.optimizer.Optimize(
		ctx,
		&ParamsOptimize{
			TaskID:  params.Task.ID,
			MinTeam: selection.MinTeam,
			MaxTeam: selection.MaxTeam,

			GetFinishTime: func(ctx context.Context, team Team) (int64, error) {
				s.metrics.optimizerEvaluations.Inc(1)

				candidate := paramsTask
				candidate.Team = team

				interval, errSchedule := params.Timeline.ScheduleTask(ctx, &candidate)
				if errSchedule != nil {
					return 0,
						errSchedule
				}

				return interval.TimeEnd,
					nil
			},
		},
	)
	if errOptimize != nil {
		return nil,
			errOptimize
	}

	if errBounds := checkTeamWithinBounds(optimized.Team, selection.MinTeam, selection.MaxTeam); errBounds != nil {
		return nil,
			errBounds
	}

	if optimized.FellBack {
		s.metrics.optimizerFallbacks.Inc(1)

		for _, kind := range optimized.NonMonotoneKinds {
			logger.WithError(
				ErrOptimizerNonConvergence{
					TaskID:       params.Task.ID,
					ResourceKind: kind,
				},
			).Warn("team search fell back to enumeration")
		}
	}

	state = transition(logger, state, TaskTeamOptimized)

	paramsTask.Team = optimized.Team

	interval, errSchedule := params.Timeline.ScheduleTask(ctx, &paramsTask)
	if errSchedule != nil {
		return nil,
			errSchedule
	}

	if errBook := params.Timeline.Book(
		&ParamsBook{
			TimeInterval: interval,
			ContractorID: selection.Contractor.ID,
			Team:         optimized.Team,
		},
	); errBook != nil {
		return nil,
			errBook
	}

	s.metrics.tasksBooked.Inc(1)

	transition(
		logger.WithFields(
			logrus.Fields{
				"team":   optimized.Team.Key(),
				"start":  interval.TimeStart,
				"finish": interval.TimeEnd,
			},
		),
		state,
		TaskBooked,
	)

	return &responseScheduleOne{
			Work: &ScheduledWork{
				TimeInterval: interval,
				TaskID:       params.Task.ID,
				ContractorID: selection.Contractor.ID,
				Team:         optimized.Team.Clone(),
			},
			FellBack: optimized.FellBack,
		},
		nil
}

func transition(logger *logrus.Entry, from, to TaskState) TaskState {
	logger.WithFields(
		logrus.Fields{
			"from": from.String(),
			"to":   to.String(),
		},
	).Debug("task state changed")

	return to
}

// checkOrder makes sure a prioritizer returned every task exactly once.
func checkOrder(graph *TaskGraph, order []string) error {
	if len(order) != graph.Len() {
		return errors.Errorf(
			"prioritizer returned %d tasks, graph has %d",

			len(order),
			graph.Len(),
		)
	}

	seen := make(map[string]bool, len(order))

	for _, id := range order {
		if _, exists := graph.Task(id); !exists || seen[id] {
			return errors.Errorf(
				"prioritizer returned unknown or repeated task %q",

				id,
			)
		}

		seen[id] = true
	}

	return nil
}
