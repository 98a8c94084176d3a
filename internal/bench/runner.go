package bench

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"malleableSched/internal/engine"
	"malleableSched/internal/generate"
	"malleableSched/internal/linprog"
	"malleableSched/internal/opt"
	"malleableSched/internal/tracing"
)

type Engine struct {
	Name    string
	Factory func() (opt.Optimizer, error)
}

// Case is a generator setting; run i solves the instance drawn with seed
// InstanceSeed+i.
type Case struct {
	Name         string
	Gen          generate.Config
	InstanceSeed int64
}

type Record struct {
	Engine   string
	Case     string
	Jobs     int
	Machines int
	Width    int
	Runs     int
	Timeouts int
	Failures int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	MakespanBest int
	MakespanMean float64
	MakespanStd  float64

	LowerBoundMean float64
}

type Runner struct {
	Runs          int
	PerRunTimeout time.Duration // 0 = no timeout
	Concurrency   int
	Log           *zap.Logger
}

type outcome struct {
	res opt.Result
	lb  int
	err error
}

// solve runs op on the instance drawn with seed. Once runCtx is done the run
// counts as timed out, and solve still waits for op to observe the
// cancellation so no engine outlives its run.
func solve(runCtx context.Context, op opt.Optimizer, c Case, seed int64, log *zap.Logger) outcome {
	inst, err := generate.Instance(c.Gen, rand.New(rand.NewSource(seed)))
	if err != nil {
		return outcome{err: err}
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := tracing.Solve(runCtx, op, inst, log)
		if err == nil {
			err = res.Schedule.Validate(inst)
		}
		done <- outcome{res: res, lb: inst.LowerBound(), err: err}
	}()
	select {
	case o := <-done:
		return o
	case <-runCtx.Done():
		<-done
		return outcome{err: runCtx.Err()}
	}
}

func (r Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r Runner) RunCase(ctx context.Context, c Case, eng Engine) (Record, error) {
	log := r.logger().With(zap.String("engine", eng.Name), zap.String("case", c.Name))
	ctx, span := tracing.Start(ctx, "bench "+c.Name,
		attribute.String("engine", eng.Name),
		attribute.Int("jobs", c.Gen.Jobs),
		attribute.Int("machines", c.Gen.Machines),
		attribute.Int("runs", r.Runs))
	defer span.End()

	makespans := make([]int, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	bounds := make([]int, 0, r.Runs)
	rec := Record{
		Engine:   eng.Name,
		Case:     c.Name,
		Jobs:     c.Gen.Jobs,
		Machines: c.Gen.Machines,
		Width:    c.Gen.Omega,
		Runs:     r.Runs,
	}

	for i := 0; i < r.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return Record{}, err
		}
		op, err := eng.Factory()
		if err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		o := solve(runCtx, op, c, c.InstanceSeed+int64(i), log)
		dur := time.Since(start)
		timedOut := ctx.Err() == nil && runCtx.Err() != nil
		cancel()
		err = o.err

		var solverErr *linprog.SolverError
		switch {
		case err != nil && timedOut:
			rec.Timeouts++
			log.Warn("run timed out", zap.Int("run", i), zap.Duration("timeout", r.PerRunTimeout))
			continue
		case errors.Is(err, linprog.ErrInfeasible), errors.As(err, &solverErr):
			rec.Failures++
			log.Warn("run failed", zap.Int("run", i), zap.Error(err))
			continue
		case err != nil:
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}

		makespans = append(makespans, o.res.Makespan)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		bounds = append(bounds, o.lb)
	}

	msStats := CalcStats(makespans)
	tStats := CalcStats(timesMs)

	rec.TimeBestMs = tStats.Best
	rec.TimeMeanMs = tStats.Mean
	rec.TimeStdMs = tStats.Std
	rec.MakespanBest = msStats.Best
	rec.MakespanMean = msStats.Mean
	rec.MakespanStd = msStats.Std
	rec.LowerBoundMean = CalcStats(bounds).Mean

	log.Info("case finished",
		zap.Int("makespan_best", rec.MakespanBest),
		zap.Float64("time_mean_ms", rec.TimeMeanMs),
		zap.Int("timeouts", rec.Timeouts),
		zap.Int("failures", rec.Failures))
	return rec, nil
}

// RunAll runs every case against every engine, at most Concurrency at once.
// Records come back in case-major order.
func (r Runner) RunAll(ctx context.Context, cases []Case, engines []Engine) ([]Record, error) {
	records := make([]Record, len(cases)*len(engines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Concurrency, 1))
	for ci, c := range cases {
		for ei, eng := range engines {
			slot := ci*len(engines) + ei
			c, eng := c, eng
			g.Go(func() error {
				rec, err := r.RunCase(gctx, c, eng)
				if err != nil {
					return fmt.Errorf("%s/%s: %w", c.Name, eng.Name, err)
				}
				records[slot] = rec
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// RunGrid runs a parsed grid and writes its CSV when Output is set.
func RunGrid(ctx context.Context, g *Grid, log *zap.Logger) ([]Record, error) {
	timeout, err := g.PerRunTimeout()
	if err != nil {
		return nil, err
	}
	cases := make([]Case, len(g.Cases))
	for i, cs := range g.Cases {
		cases[i] = cs.Case(g.BaseSeed)
	}
	engines := make([]Engine, len(g.Engines))
	for i, name := range g.Engines {
		name := name
		engines[i] = Engine{Name: name, Factory: func() (opt.Optimizer, error) {
			return engine.New(name, engine.Options{Compact: g.Compact, Seed: g.BaseSeed}, log)
		}}
	}

	runner := Runner{Runs: g.Runs, PerRunTimeout: timeout, Concurrency: g.Concurrency, Log: log}
	records, err := runner.RunAll(ctx, cases, engines)
	if err != nil {
		return nil, err
	}
	if g.Output != "" {
		if err := WriteCSV(g.Output, records); err != nil {
			return records, err
		}
	}
	return records, nil
}

func WriteCSV(path string, records []Record) error {
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"engine", "case", "jobs", "machines", "width", "runs", "timeouts", "failures",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"makespan_best", "makespan_mean", "makespan_std",
		"lower_bound_mean",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		if err := w.Write(r.row()); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (r Record) row() []string {
	ms := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
	mean := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return []string{
		r.Engine,
		r.Case,
		strconv.Itoa(r.Jobs),
		strconv.Itoa(r.Machines),
		strconv.Itoa(r.Width),
		strconv.Itoa(r.Runs),
		strconv.Itoa(r.Timeouts),
		strconv.Itoa(r.Failures),

		ms(r.TimeBestMs),
		ms(r.TimeMeanMs),
		ms(r.TimeStdMs),

		strconv.Itoa(r.MakespanBest),
		mean(r.MakespanMean),
		mean(r.MakespanStd),

		mean(r.LowerBoundMean),
	}
}
