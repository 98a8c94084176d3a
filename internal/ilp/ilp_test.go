package ilp_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"malleableSched/internal/generate"
	"malleableSched/internal/ilp"
	"malleableSched/internal/linprog"
	"malleableSched/internal/malleable"
	"malleableSched/internal/opt"
)

func newSolver(t require.TestingT, cfg ilp.Config, solver linprog.Solver) *ilp.Solver {
	s, err := ilp.New(cfg, solver, nil)
	require.NoError(t, err)
	return s
}

func chainInstance(t *testing.T) *malleable.Instance {
	inst, err := malleable.NewInstance(3,
		[]malleable.Job{{ID: 1, Times: []int{12, 7, 5}}, {ID: 2, Times: []int{9, 6, 4}}},
		[]malleable.Constraint{{Before: 1, After: 2}}, 0)
	require.NoError(t, err)
	return inst
}

func TestSingleJob(t *testing.T) {
	inst, err := malleable.NewInstance(3, []malleable.Job{{ID: 1, Times: []int{8, 5, 3}}}, nil, 0)
	require.NoError(t, err)

	res, err := newSolver(t, ilp.DefaultConfig(), linprog.Simplex{}).Solve(context.Background(), inst)
	require.NoError(t, err)
	require.NoError(t, res.Schedule.Validate(inst))
	require.Equal(t, 3, res.Makespan)
	require.InDelta(t, 3.0, res.Meta["lp_bound"], 1e-6)
}

func TestChainOnAllProcessors(t *testing.T) {
	inst := chainInstance(t)

	res, err := newSolver(t, ilp.DefaultConfig(), linprog.Simplex{}).Solve(context.Background(), inst)
	require.NoError(t, err)
	require.NoError(t, res.Schedule.Validate(inst))
	require.Equal(t, 9, res.Makespan)
	require.Equal(t, 2, res.Meta["slices"])
}

func TestInfeasibleRelaxation(t *testing.T) {
	stub := linprog.SolverFunc(func(context.Context, *linprog.Model) (linprog.Solution, error) {
		return linprog.Solution{}, linprog.ErrInfeasible
	})

	_, err := newSolver(t, ilp.DefaultConfig(), stub).Solve(context.Background(), chainInstance(t))
	require.ErrorIs(t, err, linprog.ErrInfeasible)
}

func TestSolverErrorIsSurfaced(t *testing.T) {
	stub := linprog.SolverFunc(func(context.Context, *linprog.Model) (linprog.Solution, error) {
		return linprog.Solution{}, &linprog.SolverError{Err: errors.New("singular basis")}
	})

	_, err := newSolver(t, ilp.DefaultConfig(), stub).Solve(context.Background(), chainInstance(t))
	var solverErr *linprog.SolverError
	require.ErrorAs(t, err, &solverErr)
}

func TestEmptySharesFallBackToOneProcessor(t *testing.T) {
	calls := 0
	stub := linprog.SolverFunc(func(_ context.Context, m *linprog.Model) (linprog.Solution, error) {
		calls++
		return linprog.Solution{Values: make([]float64, m.NumVariables())}, nil
	})
	inst := chainInstance(t)

	res, err := newSolver(t, ilp.DefaultConfig(), stub).Solve(context.Background(), inst)
	require.NoError(t, err)
	// one relaxation per machine count
	require.Equal(t, inst.Machines, calls)
	require.NoError(t, res.Schedule.Validate(inst))
	require.Equal(t, 21, res.Makespan)
}

func TestConfigValidate(t *testing.T) {
	cfg := ilp.DefaultConfig()
	cfg.Rho = 0
	_, err := ilp.New(cfg, linprog.Simplex{}, nil)
	require.Error(t, err)

	cfg = ilp.DefaultConfig()
	cfg.ExtraSlices = -1
	require.Error(t, cfg.Validate())

	_, err = ilp.New(ilp.DefaultConfig(), nil, nil)
	require.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSolver(t, ilp.DefaultConfig(), linprog.Simplex{}).Solve(ctx, chainInstance(t))
	require.ErrorIs(t, err, context.Canceled)
}

func drawInstance(t *rapid.T) *malleable.Instance {
	n := rapid.IntRange(1, 6).Draw(t, "jobs")
	cfg := generate.Config{
		Jobs:     n,
		Machines: rapid.IntRange(1, 3).Draw(t, "machines"),
		MinTime:  1,
		MaxTime:  rapid.IntRange(1, 20).Draw(t, "maxTime"),
		Omega:    rapid.IntRange(1, n).Draw(t, "omega"),
		MinChain: 1,
		MaxChain: n,
		Concave:  rapid.Bool().Draw(t, "concave"),
	}
	inst, err := generate.Instance(cfg, rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed"))))
	require.NoError(t, err)
	return inst
}

func TestRandomInstances(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		inst := drawInstance(t)

		res, err := newSolver(t, ilp.DefaultConfig(), linprog.Simplex{}).Solve(context.Background(), inst)
		require.NoError(t, err)
		require.NoError(t, res.Schedule.Validate(inst))
		require.GreaterOrEqual(t, res.Makespan, inst.LowerBound())

		compactCfg := ilp.DefaultConfig()
		compactCfg.Compact = true
		compacted, err := newSolver(t, compactCfg, linprog.Simplex{}).Solve(context.Background(), inst)
		require.NoError(t, err)
		require.NoError(t, compacted.Schedule.Validate(inst))
		require.LessOrEqual(t, compacted.Makespan, res.Makespan)
	})
}

func TestMoreProcessorsNeverHurt(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		inst := drawInstance(t)
		wider, err := inst.WithMachines(inst.Machines + 1)
		require.NoError(t, err)
		solver := newSolver(t, ilp.DefaultConfig(), linprog.Simplex{})

		narrow, err := solver.Solve(context.Background(), inst)
		require.NoError(t, err)
		wide, err := solver.Solve(context.Background(), wider)
		require.NoError(t, err)
		require.NoError(t, wide.Schedule.Validate(wider))
		require.LessOrEqual(t, wide.Makespan, narrow.Makespan)
	})
}

// A seven job chain whose slice relaxation is highly degenerate.
func TestLongChainFinishes(t *testing.T) {
	times := [][]int{
		{19, 11, 7, 4}, {17, 10, 8, 7}, {14, 7, 5, 4}, {9, 5, 3, 3},
		{20, 10, 7, 5}, {6, 3, 2, 2}, {11, 6, 4, 3},
	}
	jobs := make([]malleable.Job, len(times))
	var chain []malleable.Constraint
	for i, p := range times {
		jobs[i] = malleable.Job{ID: i + 1, Times: p}
		if i > 0 {
			chain = append(chain, malleable.Constraint{Before: i, After: i + 1})
		}
	}
	inst, err := malleable.NewInstance(4, jobs, chain, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := newSolver(t, ilp.DefaultConfig(), linprog.Simplex{}).Solve(ctx, inst)
	require.NoError(t, err)
	require.NoError(t, res.Schedule.Validate(inst))
	// a chain runs every job on all processors
	require.Equal(t, 4+7+4+3+5+2+3, res.Makespan)
}

func TestCancelledDuringRelaxation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stub := linprog.SolverFunc(func(ctx context.Context, _ *linprog.Model) (linprog.Solution, error) {
		cancel()
		return linprog.Solution{}, ctx.Err()
	})

	res, err := newSolver(t, ilp.DefaultConfig(), stub).Solve(ctx, chainInstance(t))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, "context", res.Meta["stopped"])
}

type fixed struct {
	sched *malleable.Schedule
}

func (f fixed) Name() string { return "fixed" }

func (f fixed) Solve(context.Context, *malleable.Instance) (opt.Result, error) {
	return opt.Result{Schedule: f.sched, Makespan: f.sched.Makespan()}, nil
}

func TestIncumbentWinsWhenShorter(t *testing.T) {
	inst := chainInstance(t)
	zeros := linprog.SolverFunc(func(_ context.Context, m *linprog.Model) (linprog.Solution, error) {
		return linprog.Solution{Values: make([]float64, m.NumVariables())}, nil
	})
	short := &malleable.Schedule{Machines: inst.Machines}
	short.Place(inst, 0, 0, 3)
	short.Place(inst, 1, 5, 3)

	s := newSolver(t, ilp.DefaultConfig(), zeros)
	s.Incumbent = fixed{sched: short}
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)
	require.Equal(t, 9, res.Makespan)
	require.Equal(t, "fixed", res.Meta["incumbent"])

	s.Incumbent = fixed{sched: res.Schedule.OnMachines(inst.Machines)}
	s.LP = linprog.Simplex{}
	res, err = s.Solve(context.Background(), inst)
	require.NoError(t, err)
	require.Equal(t, 9, res.Makespan)
	require.NotContains(t, res.Meta, "incumbent", "ties keep the rounded schedule")
}
