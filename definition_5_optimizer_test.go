package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func finishTimesByCount(kind ResourceKind, finishTimes map[uint16]int64) FinishTimeFunc {
	return func(_ context.Context, team Team) (int64, error) {
		return finishTimes[team[kind]], nil
	}
}

func TestDichotomyOptimizer(t *testing.T) {
	tests := []struct {
		name          string
		minTeam       Team
		maxTeam       Team
		getFinishTime FinishTimeFunc

		expectedTeam        Team
		expectedFinish      int64
		expectedNonMonotone []ResourceKind
	}{
		{
			name:    "1. Finish decreasing with team size picks the largest team",
			minTeam: Team{_Welder: 1},
			maxTeam: Team{_Welder: 5},
			getFinishTime: func(_ context.Context, team Team) (int64, error) {
				return 100 / int64(team[_Welder]), nil
			},

			expectedTeam:   Team{_Welder: 5},
			expectedFinish: 20,
		},
		{
			name:    "2. Plateau picks the smallest team reaching it",
			minTeam: Team{_Welder: 1},
			maxTeam: Team{_Welder: 5},
			getFinishTime: func(_ context.Context, team Team) (int64, error) {
				return max(100/int64(team[_Welder]), 50), nil
			},

			expectedTeam:   Team{_Welder: 2},
			expectedFinish: 50,
		},
		{
			name:    "3. Constant finish picks the minimum",
			minTeam: Team{_Welder: 1},
			maxTeam: Team{_Welder: 5},
			getFinishTime: func(_ context.Context, _ Team) (int64, error) {
				return 10, nil
			},

			expectedTeam:   Team{_Welder: 1},
			expectedFinish: 10,
		},
		{
			name:    "4. Dip in the middle falls back to enumeration",
			minTeam: Team{_Welder: 1},
			maxTeam: Team{_Welder: 5},
			getFinishTime: finishTimesByCount(
				_Welder,
				map[uint16]int64{1: 100, 2: 30, 3: 60, 4: 70, 5: 80},
			),

			expectedTeam:        Team{_Welder: 2},
			expectedFinish:      30,
			expectedNonMonotone: []ResourceKind{_Welder},
		},
		{
			name:    "5. Finish increasing with team size falls back to enumeration",
			minTeam: Team{_Welder: 1},
			maxTeam: Team{_Welder: 4},
			getFinishTime: func(_ context.Context, team Team) (int64, error) {
				return 10 * int64(team[_Welder]), nil
			},

			expectedTeam:        Team{_Welder: 1},
			expectedFinish:      10,
			expectedNonMonotone: []ResourceKind{_Welder},
		},
		{
			name:    "6. Two kinds",
			minTeam: Team{_Welder: 1, _Carpenter: 1},
			maxTeam: Team{_Welder: 4, _Carpenter: 3},
			getFinishTime: func(_ context.Context, team Team) (int64, error) {
				return 120/int64(team[_Welder]) + 60/int64(team[_Carpenter]), nil
			},

			expectedTeam:   Team{_Welder: 4, _Carpenter: 3},
			expectedFinish: 50,
		},
		{
			name:    "7. Fixed bounds",
			minTeam: Team{_Welder: 3},
			maxTeam: Team{_Welder: 3},
			getFinishTime: func(_ context.Context, _ Team) (int64, error) {
				return 7, nil
			},

			expectedTeam:   Team{_Welder: 3},
			expectedFinish: 7,
		},
		{
			name:    "8. No kinds",
			minTeam: Team{},
			maxTeam: Team{},
			getFinishTime: func(_ context.Context, _ Team) (int64, error) {
				return 4, nil
			},

			expectedTeam:   Team{},
			expectedFinish: 4,
		},
		{
			name:    "9. Equal ends with a dip inside fall back to enumeration",
			minTeam: Team{_Welder: 1},
			maxTeam: Team{_Welder: 5},
			getFinishTime: finishTimesByCount(
				_Welder,
				map[uint16]int64{1: 100, 2: 70, 3: 50, 4: 70, 5: 100},
			),

			expectedTeam:        Team{_Welder: 3},
			expectedFinish:      50,
			expectedNonMonotone: []ResourceKind{_Welder},
		},
		{
			name:    "10. Equal ends two apart",
			minTeam: Team{_Welder: 2},
			maxTeam: Team{_Welder: 3},
			getFinishTime: func(_ context.Context, _ Team) (int64, error) {
				return 12, nil
			},

			expectedTeam:   Team{_Welder: 2},
			expectedFinish: 12,
		},
	}

	for _, tt := range tests {
		for _, maxParallel := range []int{1, 8} {
			t.Run(
				fmt.Sprintf("%s, parallel %d", tt.name, maxParallel),
				func(t *testing.T) {
					optimizer := NewDichotomyOptimizer(
						&ParamsNewDichotomyOptimizer{
							MaxParallel: maxParallel,
						},
					)

					response, errOptimize := optimizer.Optimize(
						context.Background(),
						&ParamsOptimize{
							TaskID:        "t",
							MinTeam:       tt.minTeam,
							MaxTeam:       tt.maxTeam,
							GetFinishTime: tt.getFinishTime,
						},
					)
					require.NoError(t, errOptimize)
					require.Equal(t, tt.expectedTeam, response.Team, response.String())
					require.Equal(t, tt.expectedFinish, response.FinishTime)
					require.Equal(t, len(tt.expectedNonMonotone) > 0, response.FellBack)
					require.Equal(t, tt.expectedNonMonotone, response.NonMonotoneKinds)
				},
			)
		}
	}
}

func TestDichotomyOptimizerEvaluations(t *testing.T) {
	var calls atomic.Int64

	optimizer := NewDichotomyOptimizer(nil)
	require.Equal(t, _DefaultMaxPasses, optimizer.MaxPasses)
	require.Positive(t, optimizer.MaxParallel)

	response, errOptimize := optimizer.Optimize(
		context.Background(),
		&ParamsOptimize{
			TaskID:  "t",
			MinTeam: Team{_Welder: 1},
			MaxTeam: Team{_Welder: 64},
			GetFinishTime: func(_ context.Context, team Team) (int64, error) {
				calls.Add(1)

				return 6400 / int64(team[_Welder]), nil
			},
		},
	)
	require.NoError(t, errOptimize)
	require.Equal(t, Team{_Welder: 64}, response.Team)

	// memoized bisection, far fewer calls than enumerating 64 counts
	require.LessOrEqual(t, calls.Load(), int64(10))
}

func TestDichotomyOptimizerError(t *testing.T) {
	errFinish := errors.New("oracle down")

	optimizer := NewDichotomyOptimizer(nil)

	response, errOptimize := optimizer.Optimize(
		context.Background(),
		&ParamsOptimize{
			TaskID:  "t",
			MinTeam: Team{_Welder: 1},
			MaxTeam: Team{_Welder: 5},
			GetFinishTime: func(_ context.Context, team Team) (int64, error) {
				if team[_Welder] == 3 {
					return 0, errFinish
				}

				return 100 / int64(team[_Welder]), nil
			},
		},
	)
	require.ErrorIs(t, errOptimize, errFinish)
	require.Nil(t, response)
}
