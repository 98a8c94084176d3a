// Package engine constructs the scheduling engines by name.
package engine

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"malleableSched/internal/dp"
	"malleableSched/internal/ilp"
	"malleableSched/internal/linprog"
	"malleableSched/internal/lp"
	"malleableSched/internal/opt"
	"malleableSched/internal/sa"
)

const (
	DP  = "dp"
	LP  = "lp"
	ILP = "ilp"
	SA  = "sa"
)

// Names lists the engines in the order they are usually reported.
var Names = []string{DP, LP, ILP, SA}

type Options struct {
	// Compact applies compaction to LP, ILP and SA schedules.
	Compact bool
	// StrictWidth makes DP fail when the declared width is exceeded.
	StrictWidth bool
	// Solver backs the LP based engines; nil selects linprog.Simplex.
	Solver linprog.Solver
	// Seed feeds the SA random source.
	Seed int64
	// Standalone leaves out the incumbents: by default LP is checked against
	// DP and ILP against LP, so the reported makespans keep that order.
	Standalone bool
}

func New(name string, o Options, log *zap.Logger) (opt.Optimizer, error) {
	solver := o.Solver
	if solver == nil {
		solver = linprog.Simplex{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("engine", name))

	switch name {
	case DP:
		cfg := dp.DefaultConfig()
		cfg.StrictWidth = o.StrictWidth
		s, err := dp.New(cfg, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case LP:
		return newLP(o, solver, log)
	case ILP:
		cfg := ilp.DefaultConfig()
		cfg.Compact = o.Compact
		s, err := ilp.New(cfg, solver, log)
		if err != nil {
			return nil, err
		}
		if !o.Standalone {
			inc, err := newLP(o, solver, log.With(zap.String("incumbent", LP)))
			if err != nil {
				return nil, err
			}
			s.Incumbent = inc
		}
		return s, nil
	case SA:
		cfg := sa.DefaultConfig()
		cfg.Compact = o.Compact
		s, err := sa.New(cfg, rand.New(rand.NewSource(o.Seed)), log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("неизвестный алгоритм %q (ожидается dp|lp|ilp|sa)", name)
}

func newLP(o Options, solver linprog.Solver, log *zap.Logger) (*lp.Solver, error) {
	cfg := lp.DefaultConfig()
	cfg.Compact = o.Compact
	s, err := lp.New(cfg, solver, log)
	if err != nil {
		return nil, err
	}
	if !o.Standalone {
		inc, err := dp.New(dp.DefaultConfig(), log.With(zap.String("incumbent", DP)))
		if err != nil {
			return nil, err
		}
		s.Incumbent = inc
	}
	return s, nil
}
