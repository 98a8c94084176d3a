package engine_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"malleableSched/internal/engine"
	"malleableSched/internal/generate"
	"malleableSched/internal/malleable"
)

func TestNew(t *testing.T) {
	for _, name := range engine.Names {
		op, err := engine.New(name, engine.Options{Compact: true}, nil)
		require.NoError(t, err)
		require.Equal(t, name, op.Name())
	}

	_, err := engine.New("ga", engine.Options{}, nil)
	require.Error(t, err)
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

func makespans(t require.TestingT, inst *malleable.Instance, o engine.Options) map[string]int {
	out := make(map[string]int)
	for _, name := range []string{engine.DP, engine.LP, engine.ILP} {
		op, err := engine.New(name, o, nil)
		require.NoError(t, err)
		res, err := op.Solve(context.Background(), inst)
		require.NoError(t, err)
		require.NoError(t, res.Schedule.Validate(inst))
		out[name] = res.Makespan
	}
	return out
}

func TestQualityOrdering(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		got := makespans(t, drawInstance(t), engine.Options{})
		require.GreaterOrEqual(t, got[engine.DP], got[engine.LP])
		require.GreaterOrEqual(t, got[engine.LP], got[engine.ILP])
	})
}

// Over a fixed sample of generated instances the summed makespans keep the
// documented order.
func TestQualityOrderingOverSample(t *testing.T) {
	cfg := generate.DefaultConfig()
	cfg.Jobs, cfg.Machines, cfg.Omega, cfg.MaxChain = 6, 3, 2, 6
	total := make(map[string]int)
	for seed := int64(0); seed < 12; seed++ {
		inst, err := generate.Instance(cfg, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		for name, v := range makespans(t, inst, engine.Options{Compact: seed%2 == 0}) {
			total[name] += v
		}
	}
	require.GreaterOrEqual(t, total[engine.DP], total[engine.LP])
	require.GreaterOrEqual(t, total[engine.LP], total[engine.ILP])
}

func TestMoreProcessorsNeverHurt(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		inst := drawInstance(t)
		wider, err := inst.WithMachines(inst.Machines + 1)
		require.NoError(t, err)

		narrow := makespans(t, inst, engine.Options{})
		wide := makespans(t, wider, engine.Options{})
		for name, v := range narrow {
			require.LessOrEqual(t, wide[name], v, name)
		}
	})
}

func TestStandaloneSkipsIncumbents(t *testing.T) {
	inst, err := malleable.NewInstance(2, []malleable.Job{{ID: 1, Times: []int{6, 3}}}, nil, 0)
	require.NoError(t, err)
	for _, name := range []string{engine.LP, engine.ILP} {
		op, err := engine.New(name, engine.Options{Standalone: true}, nil)
		require.NoError(t, err)
		res, err := op.Solve(context.Background(), inst)
		require.NoError(t, err)
		require.Equal(t, 3, res.Makespan)
		require.NotContains(t, res.Meta, "incumbent", name)
	}
}
