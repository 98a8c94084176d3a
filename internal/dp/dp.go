package dp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"malleableSched/internal/malleable"
	"malleableSched/internal/opt"
)

// ErrWidthExceeded возвращается в режиме StrictWidth, если ширина порядка
// больше объявленной в экземпляре.
var ErrWidthExceeded = errors.New("dp: precedence width exceeds declared width")

// Solver - динамическое программирование по дереву последовательно-параллельной
// декомпозиции порядка предшествования. Детерминирован, внешний решатель не нужен.
type Solver struct {
	Cfg Config
	Log *zap.Logger
}

// New возвращает новый DP-солвер с валидацией конфигурации. nil-логгер заменяется на zap.NewNop().
func New(cfg Config, log *zap.Logger) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Solver{Cfg: cfg, Log: log}, nil
}

func (s *Solver) Name() string { return "dp" }

// Solve строит дерево декомпозиции, вычисляет фронты снизу вверх и
// восстанавливает расписание с непрерывными блоками процессоров.
func (s *Solver) Solve(ctx context.Context, inst *malleable.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}

	width := inst.PrecedenceWidth()
	if inst.Width > 0 && width > inst.Width {
		if s.Cfg.StrictWidth {
			return opt.Result{}, fmt.Errorf("%w: width %d, declared %d", ErrWidthExceeded, width, inst.Width)
		}
		s.Log.Warn("precedence width exceeds declared width, decomposition degrades",
			zap.Int("width", width),
			zap.Int("declared", inst.Width),
		)
	}

	b := &builder{inst: inst, cut: s.Cfg.Cut}
	root := b.build(inst.TopoOrder())

	m := inst.Machines
	nodes, artificial := 0, 0
	for _, n := range root.postOrder() {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			return opt.Result{
				Iterations: nodes,
				Duration:   time.Since(start),
				Meta:       map[string]any{"stopped": "context"},
			}, err
		}
		n.evaluate(inst, m)
		nodes++
		artificial += n.artificial
	}

	s.Log.Debug("dp front computed",
		zap.Int("nodes", nodes),
		zap.Int("artificial_pairs", artificial),
		zap.Ints("front", root.front[1:]),
	)

	sched := &malleable.Schedule{Machines: m}
	root.place(inst, sched, m, 0, 0)

	res := opt.Result{
		Schedule:   sched,
		Iterations: nodes,
		Meta: map[string]any{
			"width":            width,
			"artificial_pairs": artificial,
		},
	}
	res.Finish(start)
	return res, nil
}
