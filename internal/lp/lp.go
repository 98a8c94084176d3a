package lp

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

// Solver - бинарный поиск по длине расписания T с LP-релаксацией на сдвинутых
// геометрических окнах и округлением по наибольшей доле.
//
// Поиск повторяется для каждого числа процессоров m' = 1..m: расписание на m'
// процессорах допустимо и на m, поэтому результат не ухудшается с ростом m.
type Solver struct {
	Cfg Config
	LP  linprog.Solver
	Log *zap.Logger
	// Incumbent, если задан, решает тот же экземпляр; его расписание
	// возвращается, когда оно короче найденного округлением.
	Incumbent opt.Optimizer
}

// New возвращает новый LP-солвер с валидацией конфигурации.
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

func (s *Solver) Name() string { return "lp" }

// search is the outcome of the binary search on one machine count.
type search struct {
	best   *malleable.Schedule
	bestT  int
	T      int
	lb, ub int
	probes int
}

// Solve ищет для каждого m' наименьшее T, при котором релаксация допустима,
// и возвращает лучшее из расписаний, полученных округлением во всех
// допустимых точках.
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
		winner  search
		machine int
		probes  int
	)
	for m := 1; m <= inst.Machines; m++ {
		sub := inst
		if m < inst.Machines {
			var err error
			if sub, err = inst.WithMachines(m); err != nil {
				return opt.Result{Iterations: probes, Duration: time.Since(start)}, err
			}
		}
		run, err := s.search(ctx, sub)
		probes += run.probes
		if err != nil {
			// Для поддержки отмены через context
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.partial(best, probes, start), ctxErr
			}
			if errors.Is(err, linprog.ErrInfeasible) {
				s.Log.Debug("lp search infeasible", zap.Int("machines", m))
				continue
			}
			return opt.Result{Iterations: probes, Duration: time.Since(start)}, err
		}
		if best == nil || run.best.Makespan() < best.Makespan() {
			best, winner, machine = run.best.OnMachines(inst.Machines), run, m
		}
	}

	incumbent := ""
	if s.Incumbent != nil {
		res, err := s.Incumbent.Solve(ctx, inst)
		switch {
		case ctx.Err() != nil:
			return s.partial(best, probes, start), ctx.Err()
		case err != nil:
			s.Log.Warn("lp incumbent failed", zap.String("incumbent", s.Incumbent.Name()), zap.Error(err))
		case best == nil || res.Schedule.Makespan() < best.Makespan():
			best, incumbent = res.Schedule.Clone(), s.Incumbent.Name()
		}
	}

	if best == nil {
		return opt.Result{Iterations: probes, Duration: time.Since(start)},
			fmt.Errorf("lp: no feasible relaxation in [%d, %d]: %w", inst.LowerBound(), inst.SequentialBound(), linprog.ErrInfeasible)
	}

	res := opt.Result{
		Schedule:   best,
		Iterations: probes,
		Meta: map[string]any{
			"T":           winner.T,
			"best_T":      winner.bestT,
			"machines":    machine,
			"lower_bound": inst.LowerBound(),
			"upper_bound": inst.SequentialBound(),
			"compacted":   s.Cfg.Compact,
		},
	}
	if incumbent != "" {
		res.Meta["incumbent"] = incumbent
	}
	res.Finish(start)
	s.Log.Info("lp solved",
		zap.Int("makespan", res.Makespan),
		zap.Int("probes", probes),
		zap.Int("machines", machine),
	)
	return res, nil
}

// search runs the binary search on T for one instance. The best schedule is
// compacted when the configuration asks for it.
func (s *Solver) search(ctx context.Context, inst *malleable.Instance) (search, error) {
	run := search{lb: inst.LowerBound(), ub: inst.SequentialBound()}
	chains := inst.ChainCover()
	probed := make(map[int]bool)

	probe := func(T int) (bool, error) {
		run.probes++
		probed[T] = true
		sched, err := s.probe(ctx, inst, T, run.lb, chains)
		if errors.Is(err, linprog.ErrInfeasible) {
			s.Log.Debug("lp probe infeasible", zap.Int("machines", inst.Machines), zap.Int("T", T))
			return false, nil
		}
		if err != nil {
			return false, err
		}
		s.Log.Debug("lp probe feasible",
			zap.Int("machines", inst.Machines),
			zap.Int("T", T),
			zap.Int("makespan", sched.Makespan()),
		)
		if run.best == nil || sched.Makespan() < run.best.Makespan() {
			run.best, run.bestT = sched, T
		}
		return true, nil
	}

	lo, hi := run.lb, run.ub
	for lo < hi && run.probes < s.Cfg.MaxProbes {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			return run, err
		}
		mid := lo + (hi-lo)/2
		ok, err := probe(mid)
		if err != nil {
			return run, err
		}
		if ok {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if !probed[hi] {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		if _, err := probe(hi); err != nil {
			return run, err
		}
	}
	run.T = hi

	if run.best == nil {
		return run, linprog.ErrInfeasible
	}
	if s.Cfg.Compact {
		run.best = malleable.Compact(inst, run.best)
	}
	return run, nil
}

func (s *Solver) partial(best *malleable.Schedule, probes int, start time.Time) opt.Result {
	res := opt.Result{
		Schedule:   best,
		Iterations: probes,
		Meta:       map[string]any{"stopped": "context"},
	}
	res.Finish(start)
	return res
}

// probe solves the relaxation at T and rounds it into a schedule.
func (s *Solver) probe(ctx context.Context, inst *malleable.Instance, T, lb int, chains [][]int) (*malleable.Schedule, error) {
	if T < lb {
		return nil, linprog.ErrInfeasible
	}
	r := buildRelaxation(inst, T, s.Cfg.Windows, chains)
	if r == nil {
		return nil, linprog.ErrInfeasible
	}
	sol, err := r.model.Solve(ctx, s.LP)
	if err != nil {
		return nil, err
	}
	return malleable.ListSchedule(inst, r.round(sol), r.groups)
}
