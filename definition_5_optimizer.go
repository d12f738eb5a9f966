package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

const (
	_DefaultMaxPasses = 8
)

// FinishTimeFunc predicts the task finish for a candidate team.
// It must not mutate any state, the optimizer may call it concurrently.
type FinishTimeFunc func(ctx context.Context, team Team) (int64, error)

type ParamsOptimize struct {
	TaskID  string
	MinTeam Team
	MaxTeam Team

	GetFinishTime FinishTimeFunc
}

type ResponseOptimize struct {
	Team       Team
	FinishTime int64

	// FellBack is set when at least one kind was found non monotone
	// and its whole range was enumerated.
	FellBack         bool
	NonMonotoneKinds []ResourceKind
}

func (r *ResponseOptimize) String() string {
	var sb strings.Builder

	sb.WriteString(
		fmt.Sprintf(
			"ResponseOptimize{Team: %s, FinishTime: %d",

			r.Team.String(),
			r.FinishTime,
		),
	)

	if r.FellBack {
		sb.WriteString(fmt.Sprintf(", FellBack on: %v", r.NonMonotoneKinds))
	}

	sb.WriteString("}")

	return sb.String()
}

// ResourceOptimizer picks a concrete team between the given bounds.
type ResourceOptimizer interface {
	Optimize(ctx context.Context, params *ParamsOptimize) (*ResponseOptimize, error)
}

// DichotomyOptimizer runs a coordinate descent over resource kinds, bisecting
// each kind's count while the others stay fixed.
// Bisection assumes the finish time does not increase with the team size. When an
// evaluation contradicts this, the kind's range is enumerated instead.
type DichotomyOptimizer struct {
	MaxPasses   int
	MaxParallel int
}

type ParamsNewDichotomyOptimizer struct {
	MaxPasses   int
	MaxParallel int
}

func NewDichotomyOptimizer(params *ParamsNewDichotomyOptimizer) *DichotomyOptimizer {
	result := DichotomyOptimizer{
		MaxPasses:   _DefaultMaxPasses,
		MaxParallel: runtime.NumCPU(),
	}

	if params == nil {
		return &result
	}

	if params.MaxPasses > 0 {
		result.MaxPasses = params.MaxPasses
	}

	if params.MaxParallel > 0 {
		result.MaxParallel = params.MaxParallel
	}

	return &result
}

func (o *DichotomyOptimizer) Optimize(ctx context.Context, params *ParamsOptimize) (*ResponseOptimize, error) {
	eval := newEvaluator(params.GetFinishTime, max(o.MaxParallel, 1))

	current := params.MaxTeam.Clone()
	kinds := current.Kinds()

	nonMonotone := make(map[ResourceKind]bool)

	for pass := 0; pass < max(o.MaxPasses, 1); pass++ {
		var changed bool

		for _, kind := range kinds {
			count, isMonotone, errSearch := o.searchKind(
				ctx,
				&paramsSearchKind{
					Evaluator: eval,
					Current:   current,
					Kind:      kind,
					Min:       params.MinTeam[kind],
					Max:       params.MaxTeam[kind],
				},
			)
			if errSearch != nil {
				return nil,
					errSearch
			}

			if !isMonotone {
				nonMonotone[kind] = true
			}

			if count != current[kind] {
				current[kind] = count
				changed = true
			}
		}

		if !changed {
			break
		}
	}

	// covers teams without kinds and makes sure the final descent point is recorded
	if _, errEval := eval.evaluate(ctx, current); errEval != nil {
		return nil,
			errEval
	}

	best, bestFinish := eval.getBest()

	result := ResponseOptimize{
		Team:       best,
		FinishTime: bestFinish,
		FellBack:   len(nonMonotone) > 0,
	}

	for _, kind := range kinds {
		if nonMonotone[kind] {
			result.NonMonotoneKinds = append(result.NonMonotoneKinds, kind)
		}
	}

	return &result,
		nil
}

type paramsSearchKind struct {
	Evaluator *evaluator
	Current   Team
	Kind      ResourceKind
	Min       uint16
	Max       uint16
}

func (p *paramsSearchKind) teamWith(count uint16) Team {
	result := p.Current.Clone()
	result[p.Kind] = count

	return result
}

// searchKind returns the smallest count reaching the finish time obtained at Max.
// The second return is false when monotonicity did not hold and the range was enumerated.
func (o *DichotomyOptimizer) searchKind(ctx context.Context, params *paramsSearchKind) (uint16, bool, error) {
	if params.Min >= params.Max {
		return params.Max, true, nil
	}

	bounds, errBounds := params.Evaluator.evaluateMany(
		ctx,
		[]Team{
			params.teamWith(params.Min),
			params.teamWith(params.Max),
		},
	)
	if errBounds != nil {
		return 0, false, errBounds
	}

	finishLow, finishHigh := bounds[0], bounds[1]

	if finishLow < finishHigh {
		return o.enumerateKind(ctx, params)
	}

	if finishLow == finishHigh {
		if params.Max-params.Min < 2 {
			return params.Min, true, nil
		}

		// equal ends only leave a flat range, any other middle value breaks monotonicity
		finishMiddle, errEval := params.Evaluator.evaluate(
			ctx,
			params.teamWith(params.Min+(params.Max-params.Min)/2),
		)
		if errEval != nil {
			return 0, false, errEval
		}

		if finishMiddle != finishLow {
			return o.enumerateKind(ctx, params)
		}

		return params.Min, true, nil
	}

	low, high := params.Min, params.Max

	for high-low > 1 {
		middle := low + (high-low)/2

		finishMiddle, errEval := params.Evaluator.evaluate(ctx, params.teamWith(middle))
		if errEval != nil {
			return 0, false, errEval
		}

		if finishMiddle > finishLow || finishMiddle < finishHigh {
			return o.enumerateKind(ctx, params)
		}

		if finishMiddle <= finishHigh {
			high = middle

			continue
		}

		low = middle
		finishLow = finishMiddle
	}

	return high, true, nil
}

// enumerateKind evaluates every count of the kind and keeps the fastest, smallest on ties.
func (o *DichotomyOptimizer) enumerateKind(ctx context.Context, params *paramsSearchKind) (uint16, bool, error) {
	candidates := make([]Team, 0, int(params.Max-params.Min)+1)

	for count := int(params.Min); count <= int(params.Max); count++ {
		candidates = append(candidates, params.teamWith(uint16(count)))
	}

	finishTimes, errEval := params.Evaluator.evaluateMany(ctx, candidates)
	if errEval != nil {
		return 0, false, errEval
	}

	bestIx := 0

	for ix, finish := range finishTimes {
		if finish < finishTimes[bestIx] {
			bestIx = ix
		}
	}

	return candidates[bestIx][params.Kind], false, nil
}
