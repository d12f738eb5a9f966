package scheduler

import (
	"context"
	"math/rand"
	"slices"
)

// RandomizedTopologicalPrioritizer draws a random topological order from Seed.
// The same seed and graph always give the same order.
type RandomizedTopologicalPrioritizer struct {
	Seed int64
}

func (p RandomizedTopologicalPrioritizer) Prioritize(_ context.Context, params *ParamsPrioritize) ([]string, error) {
	arena := newTaskArena(params.Graph)

	if _, errCycle := arena.postOrder(); errCycle != nil {
		return nil,
			errCycle
	}

	rng := rand.New(rand.NewSource(p.Seed))

	inDegree := make([]int, len(arena.ids))

	for _, successors := range arena.successors {
		for _, successor := range successors {
			inDegree[successor]++
		}
	}

	ready := make([]int, 0)

	for node, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, node)
		}
	}

	forward := make([]int, 0, len(arena.ids))

	for len(ready) > 0 {
		pick := rng.Intn(len(ready))
		node := ready[pick]

		ready = slices.Delete(ready, pick, pick+1)
		forward = append(forward, node)

		for _, successor := range arena.successors[node] {
			inDegree[successor]--

			if inDegree[successor] == 0 {
				ready = append(ready, successor)
			}
		}

		slices.Sort(ready)
	}

	result := make([]string, len(forward))

	for ix, node := range forward {
		result[len(forward)-1-ix] = arena.ids[node]
	}

	return result,
		nil
}
