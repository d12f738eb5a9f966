package scheduler

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// evaluator memoizes finish times per team and keeps the best team seen.
// The best team is chosen by finish, then size, then key, so it does not depend
// on the order in which concurrent evaluations complete.
type evaluator struct {
	getFinishTime FinishTimeFunc
	maxParallel   int

	mu         sync.Mutex
	cache      map[string]int64
	best       Team
	bestFinish int64
}

func newEvaluator(fn FinishTimeFunc, maxParallel int) *evaluator {
	return &evaluator{
		getFinishTime: fn,
		maxParallel:   maxParallel,
		cache:         make(map[string]int64),
	}
}

func (e *evaluator) evaluate(ctx context.Context, team Team) (int64, error) {
	key := team.Key()

	e.mu.Lock()
	cached, exists := e.cache[key]
	e.mu.Unlock()

	if exists {
		return cached,
			nil
	}

	finish, errFinish := e.getFinishTime(ctx, team)
	if errFinish != nil {
		return 0,
			errFinish
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cache[key] = finish

	if e.best == nil ||
		finish < e.bestFinish ||
		(finish == e.bestFinish && team.isSmallerThan(e.best)) {
		e.best = team.Clone()
		e.bestFinish = finish
	}

	return finish,
		nil
}

// evaluateMany evaluates the teams concurrently, results are in input order.
func (e *evaluator) evaluateMany(ctx context.Context, teams []Team) ([]int64, error) {
	result := make([]int64, len(teams))

	g, ctxGroup := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)

	for ix, team := range teams {
		g.Go(
			func() error {
				finish, errEval := e.evaluate(ctxGroup, team)
				if errEval != nil {
					return errEval
				}

				result[ix] = finish

				return nil
			},
		)
	}

	if errWait := g.Wait(); errWait != nil {
		return nil,
			errWait
	}

	return result,
		nil
}

func (e *evaluator) getBest() (Team, int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.best.Clone(), e.bestFinish
}
