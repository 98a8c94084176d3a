package ilp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"malleableSched/internal/linprog"
	"malleableSched/internal/malleable"
	"malleableSched/internal/opt"
)

// Solver - релаксация по временным слотам (исторически «ILP»). Модель решается
// как LP, без условий целочисленности, один раз для каждого числа процессоров
// m' = 1..m; расписание получается пороговым округлением и списочным
// планированием по слотам.
type Solver struct {
	Cfg Config
	LP  linprog.Solver
	Log *zap.Logger
	// Incumbent, если задан, решает тот же экземпляр; его расписание
	// возвращается, когда оно короче найденного округлением.
	Incumbent opt.Optimizer
}

// New возвращает новый ILP-солвер с валидацией конфигурации.
func New(cfg Config, solver linprog.Solver, log *zap.Logger) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if solver == nil {
		return nil, fmt.Errorf("LP-решатель не задан (nil)")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Solver{Cfg: cfg, LP: solver, Log: log}, nil
}

func (s *Solver) Name() string { return "ilp" }

// candidate is the rounded relaxation on one machine count.
type candidate struct {
	sched    *malleable.Schedule
	slices   int
	lengths  int
	bound    float64
	barriers bool
}

func (s *Solver) Solve(ctx context.Context, inst *malleable.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}

	var (
		best    *malleable.Schedule
		winner  candidate
		machine int
		solves  int
	)
	partial := func() opt.Result {
		res := opt.Result{Schedule: best, Iterations: solves, Meta: map[string]any{"stopped": "context"}}
		res.Finish(start)
		return res
	}

	for m := 1; m <= inst.Machines; m++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			return partial(), err
		}
		sub := inst
		if m < inst.Machines {
			var err error
			if sub, err = inst.WithMachines(m); err != nil {
				return opt.Result{Iterations: solves, Duration: time.Since(start)}, err
			}
		}
		solves++
		c, err := s.relax(ctx, sub)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return partial(), ctxErr
			}
			if errors.Is(err, linprog.ErrInfeasible) {
				s.Log.Debug("ilp relaxation infeasible", zap.Int("machines", m), zap.Error(err))
				continue
			}
			return opt.Result{Iterations: solves, Duration: time.Since(start)}, err
		}
		if best == nil || c.sched.Makespan() < best.Makespan() {
			best, winner, machine = c.sched.OnMachines(inst.Machines), c, m
		}
	}

	incumbent := ""
	if s.Incumbent != nil {
		res, err := s.Incumbent.Solve(ctx, inst)
		switch {
		case ctx.Err() != nil:
			return partial(), ctx.Err()
		case err != nil:
			s.Log.Warn("ilp incumbent failed", zap.String("incumbent", s.Incumbent.Name()), zap.Error(err))
		case best == nil || res.Schedule.Makespan() < best.Makespan():
			best, incumbent = res.Schedule.Clone(), s.Incumbent.Name()
		}
	}

	if best == nil {
		return opt.Result{Iterations: solves, Duration: time.Since(start)},
			fmt.Errorf("ilp: no feasible slice relaxation: %w", linprog.ErrInfeasible)
	}

	res := opt.Result{
		Schedule:   best,
		Iterations: solves,
		Meta: map[string]any{
			"slices":     winner.slices,
			"lp_bound":   winner.bound,
			"compacted":  s.Cfg.Compact,
			"rho":        s.Cfg.Rho,
			"slice_lens": winner.lengths,
			"barriers":   winner.barriers,
			"machines":   machine,
		},
	}
	if incumbent != "" {
		res.Meta["incumbent"] = incumbent
	}
	res.Finish(start)
	s.Log.Info("ilp solved",
		zap.Int("makespan", res.Makespan),
		zap.Int("solves", solves),
		zap.Int("machines", machine),
	)
	return res, nil
}

// relax solves the slice relaxation of inst once and rounds it. The rounded
// counts are placed twice, behind slice barriers and as a plain list in
// topological order, and the shorter schedule wins.
func (s *Solver) relax(ctx context.Context, inst *malleable.Instance) (candidate, error) {
	slices := sliceCount(inst) + s.Cfg.ExtraSlices
	r := buildRelaxation(inst, slices)
	s.Log.Debug("ilp relaxation built",
		zap.Int("machines", inst.Machines),
		zap.Int("slices", slices),
		zap.Int("lengths", len(r.types)),
		zap.Int("variables", r.model.NumVariables()),
		zap.Int("constraints", r.model.NumConstraints()),
	)

	sol, err := r.model.Solve(ctx, s.LP)
	if err != nil {
		if errors.Is(err, linprog.ErrInfeasible) {
			err = fmt.Errorf("ilp: relaxation over %d slices: %w", slices, err)
		}
		return candidate{}, err
	}
	s.Log.Debug("ilp relaxation solved", zap.Int("machines", inst.Machines), zap.Float64("objective", sol.Objective))

	counts, groups := r.round(inst, sol, s.Cfg.Rho)
	c := candidate{slices: slices, lengths: len(r.types), bound: sol.Objective}
	for _, g := range [][]int{groups, nil} {
		sched, err := malleable.ListSchedule(inst, counts, g)
		if err != nil {
			return candidate{}, err
		}
		if s.Cfg.Compact {
			sched = malleable.Compact(inst, sched)
		}
		if c.sched == nil || sched.Makespan() < c.sched.Makespan() {
			c.sched, c.barriers = sched, g != nil
		}
	}
	return c, nil
}
