package sa

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"malleableSched/internal/malleable"
	"malleableSched/internal/opt"
)

// Solver - имитация отжига по распределениям процессоров. Состояние - число
// процессоров каждой работы, стоимость - makespan списочного расписания.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
	Log *zap.Logger
}

// New возвращает новый SA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
func New(cfg Config, rng *rand.Rand, log *zap.Logger) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Solver{Cfg: cfg, Rng: rng, Log: log}, nil
}

func (s *Solver) Name() string { return "sa" }

// Solve отжигает распределение, начиная с самого быстрого числа процессоров
// в пределах m/ширина для каждой работы.
func (s *Solver) Solve(ctx context.Context, inst *malleable.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	n := inst.N()
	maxIter := s.Cfg.Iterations
	if maxIter <= 0 {
		maxIter = s.Cfg.IterationsPerJob * n
	}

	share := max(inst.Machines/inst.PrecedenceWidth(), 1)
	curr := make([]int, n)
	for i := range curr {
		curr[i] = inst.FastestCount(i, share)
	}
	cand := make([]int, n)

	currSched, err := malleable.ListSchedule(inst, curr, nil)
	if err != nil {
		return opt.Result{}, err
	}
	currCost := currSched.Makespan()
	best := currSched
	bestCost := currCost
	accepted := 0

	T := s.Cfg.InitialTemp
	iter := 0
	for ; iter < maxIter && T > s.Cfg.FinalTemp; iter++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			res := opt.Result{
				Schedule:   best,
				Iterations: iter,
				Meta: map[string]any{
					"stopped": "context",
					"T":       T,
				},
			}
			res.Finish(start)
			return res, err
		}

		copy(cand, curr)
		if !s.neighbor(cand, inst.Machines) {
			break
		}

		candSched, err := malleable.ListSchedule(inst, cand, nil)
		if err != nil {
			return opt.Result{}, err
		}
		candCost := candSched.Makespan()

		delta := candCost - currCost
		accept := delta <= 0
		if !accept {
			// Критерий Метрополиса
			accept = s.Rng.Float64() < math.Exp(-float64(delta)/T)
		}

		if accept {
			curr, cand = cand, curr
			currCost = candCost
			accepted++

			if currCost < bestCost {
				bestCost = currCost
				best = candSched
				s.Log.Debug("improved", zap.Int("iter", iter), zap.Int("makespan", bestCost), zap.Float64("T", T))
			}
		}

		T *= s.Cfg.Alpha
	}

	if s.Cfg.Compact {
		best = malleable.Compact(inst, best)
	}

	res := opt.Result{
		Schedule:   best,
		Iterations: iter,
		Meta: map[string]any{
			"initial_temp": s.Cfg.InitialTemp,
			"final_temp":   s.Cfg.FinalTemp,
			"alpha":        s.Cfg.Alpha,
			"neighborhood": string(s.Cfg.Neighborhood),
			"accepted":     accepted,
			"compacted":    s.Cfg.Compact,
		},
	}
	res.Finish(start)
	s.Log.Info("sa finished", zap.Int("makespan", res.Makespan), zap.Int("iterations", iter))
	return res, nil
}

// neighbor меняет число процессоров одной случайной работы. false, если
// менять нечего (m = 1).
func (s *Solver) neighbor(counts []int, m int) bool {
	if m < 2 {
		return false
	}
	i := s.Rng.Intn(len(counts))
	switch s.Cfg.Neighborhood {
	case NeighborhoodResample:
		// любое другое значение из 1..m
		k := s.Rng.Intn(m-1) + 1
		if k >= counts[i] {
			k++
		}
		counts[i] = k
	default:
		switch {
		case counts[i] == 1:
			counts[i] = 2
		case counts[i] == m:
			counts[i] = m - 1
		case s.Rng.Intn(2) == 0:
			counts[i]--
		default:
			counts[i]++
		}
	}
	return true
}
