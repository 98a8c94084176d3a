package malleable_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"malleableSched/internal/generate"
	"malleableSched/internal/malleable"
)

// drawInstance draws a small random instance made of disjoint chains.
func drawInstance(t *rapid.T) *malleable.Instance {
	n := rapid.IntRange(1, 12).Draw(t, "jobs")
	m := rapid.IntRange(1, 5).Draw(t, "machines")
	omega := rapid.IntRange(1, n).Draw(t, "omega")
	cfg := generate.Config{
		Jobs:     n,
		Machines: m,
		MinTime:  1,
		MaxTime:  rapid.IntRange(1, 40).Draw(t, "maxTime"),
		Omega:    omega,
		MinChain: 1,
		MaxChain: n,
		Concave:  rapid.Bool().Draw(t, "concave"),
	}
	seed := rapid.Int64().Draw(t, "seed")
	inst, err := generate.Instance(cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return inst
}

func mustInstance(t *testing.T, machines int, jobs []malleable.Job, constraints []malleable.Constraint) *malleable.Instance {
	t.Helper()
	inst, err := malleable.NewInstance(machines, jobs, constraints, 0)
	require.NoError(t, err)
	return inst
}

// diamond: 1 -> {2, 3} -> 4 on two machines.
func diamond(t *testing.T) *malleable.Instance {
	return mustInstance(t, 2,
		[]malleable.Job{
			{ID: 1, Times: []int{4, 2}},
			{ID: 2, Times: []int{6, 4}},
			{ID: 3, Times: []int{3, 3}},
			{ID: 4, Times: []int{2, 1}},
		},
		[]malleable.Constraint{{Before: 1, After: 2}, {Before: 1, After: 3}, {Before: 2, After: 4}, {Before: 3, After: 4}},
	)
}
