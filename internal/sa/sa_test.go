package sa_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"malleableSched/internal/generate"
	"malleableSched/internal/malleable"
	"malleableSched/internal/sa"
)

func newSolver(t require.TestingT, cfg sa.Config, seed int64) *sa.Solver {
	s, err := sa.New(cfg, rand.New(rand.NewSource(seed)), nil)
	require.NoError(t, err)
	return s
}

func instance(t *testing.T, m int, jobs []malleable.Job, constraints []malleable.Constraint) *malleable.Instance {
	t.Helper()
	inst, err := malleable.NewInstance(m, jobs, constraints, 0)
	require.NoError(t, err)
	return inst
}

func TestChainStartsOnAllProcessors(t *testing.T) {
	inst := instance(t, 3,
		[]malleable.Job{{ID: 1, Times: []int{12, 7, 5}}, {ID: 2, Times: []int{9, 6, 4}}},
		[]malleable.Constraint{{Before: 1, After: 2}})

	res, err := newSolver(t, sa.DefaultConfig(), 1).Solve(context.Background(), inst)
	require.NoError(t, err)
	require.NoError(t, res.Schedule.Validate(inst))
	require.Equal(t, 9, res.Makespan)
}

func TestAnnealingWidensLongJob(t *testing.T) {
	inst := instance(t, 2,
		[]malleable.Job{{ID: 1, Times: []int{10, 5}}, {ID: 2, Times: []int{1, 1}}}, nil)

	for _, nb := range []sa.Neighborhood{sa.NeighborhoodStep, sa.NeighborhoodResample} {
		cfg := sa.DefaultConfig()
		cfg.Neighborhood = nb
		res, err := newSolver(t, cfg, 7).Solve(context.Background(), inst)
		require.NoError(t, err)
		require.NoError(t, res.Schedule.Validate(inst))
		require.Equal(t, 6, res.Makespan, nb)
		require.Equal(t, 2, res.Schedule.ByJob(inst.N())[0].Count, nb)
	}
}

func TestSingleMachineKeepsInitialAllotment(t *testing.T) {
	inst := instance(t, 1,
		[]malleable.Job{{ID: 1, Times: []int{3}}, {ID: 2, Times: []int{4}}},
		[]malleable.Constraint{{Before: 1, After: 2}})

	res, err := newSolver(t, sa.DefaultConfig(), 1).Solve(context.Background(), inst)
	require.NoError(t, err)
	require.Equal(t, 7, res.Makespan)
	require.Zero(t, res.Iterations)
}

func TestCancelledContext(t *testing.T) {
	inst := instance(t, 2, []malleable.Job{{ID: 1, Times: []int{4, 3}}, {ID: 2, Times: []int{4, 3}}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newSolver(t, sa.DefaultConfig(), 1).Solve(ctx, inst)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, "context", res.Meta["stopped"])
	require.NoError(t, res.Schedule.Validate(inst))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, sa.DefaultConfig().Validate())

	broken := []func(*sa.Config){
		func(c *sa.Config) { c.Iterations, c.IterationsPerJob = 0, 0 },
		func(c *sa.Config) { c.InitialTemp = 0 },
		func(c *sa.Config) { c.FinalTemp = c.InitialTemp },
		func(c *sa.Config) { c.Alpha = 1 },
		func(c *sa.Config) { c.Neighborhood = "swap" },
	}
	for i, mutate := range broken {
		cfg := sa.DefaultConfig()
		mutate(&cfg)
		require.Error(t, cfg.Validate(), "case %d", i)
	}

	_, err := sa.New(sa.DefaultConfig(), nil, nil)
	require.Error(t, err)
}

func TestRandomInstances(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := generate.DefaultConfig()
		cfg.Jobs = rapid.IntRange(1, 12).Draw(t, "jobs")
		cfg.Machines = rapid.IntRange(1, 5).Draw(t, "machines")
		cfg.Omega = rapid.IntRange(1, cfg.Jobs).Draw(t, "omega")
		cfg.MaxChain = cfg.Jobs
		cfg.Concave = rapid.Bool().Draw(t, "concave")
		inst, err := generate.Instance(cfg, rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed"))))
		require.NoError(t, err)

		saCfg := sa.DefaultConfig()
		saCfg.IterationsPerJob = 20
		seed := rapid.Int64().Draw(t, "sa_seed")

		res, err := newSolver(t, saCfg, seed).Solve(context.Background(), inst)
		require.NoError(t, err)
		require.NoError(t, res.Schedule.Validate(inst))
		require.GreaterOrEqual(t, res.Makespan, inst.LowerBound())

		saCfg.Compact = true
		compacted, err := newSolver(t, saCfg, seed).Solve(context.Background(), inst)
		require.NoError(t, err)
		require.NoError(t, compacted.Schedule.Validate(inst))
		require.LessOrEqual(t, compacted.Makespan, res.Makespan)
	})
}
