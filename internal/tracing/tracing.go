// Package tracing wires OpenTelemetry around engine runs: a span per solve,
// run counters and a duration histogram on the global providers.
package tracing

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"malleableSched/internal/malleable"
	"malleableSched/internal/opt"
)

const instrumentation = "malleableSched"

// Setup installs a tracer provider that pretty prints finished spans to w.
// The returned function flushes and shuts the provider down.
func Setup(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Start opens a span on the global tracer.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, name, trace.WithAttributes(attrs...))
}

// Solve runs op on inst inside a span, logs start and completion to log (nil
// discards) and records the run in the solve.count, solve.errors and
// solve.duration instruments. A failed run is logged at warn level.
func Solve(ctx context.Context, op opt.Optimizer, inst *malleable.Instance, log *zap.Logger) (opt.Result, error) {
	ctx, span := Start(ctx, "solve "+op.Name(),
		attribute.String("engine", op.Name()),
		attribute.Int("jobs", inst.N()),
		attribute.Int("machines", inst.Machines),
	)
	defer span.End()

	logger := log
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Starting solve",
		zap.String("engine", op.Name()),
		zap.Int("jobs", inst.N()),
		zap.Int("machines", inst.Machines))

	meter := otel.GetMeterProvider().Meter(instrumentation)
	runs, _ := meter.Int64Counter("solve.count")
	durations, _ := meter.Float64Histogram("solve.duration")
	runs.Add(ctx, 1)

	startTime := time.Now()
	res, err := op.Solve(ctx, inst)
	duration := time.Since(startTime)
	durations.Record(ctx, duration.Seconds())

	if err != nil {
		failures, _ := meter.Int64Counter("solve.errors")
		failures.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("Solve failed",
			zap.String("engine", op.Name()),
			zap.Duration("duration", duration),
			zap.Error(err))
		return res, err
	}

	span.SetAttributes(
		attribute.Int("makespan", res.Makespan),
		attribute.Int("iterations", res.Iterations),
	)
	logger.Debug("Solve completed",
		zap.String("engine", op.Name()),
		zap.Int("makespan", res.Makespan),
		zap.Duration("duration", duration))
	return res, nil
}
