// Package opt declares the contract shared by the scheduling engines.
package opt

import (
	"context"
	"time"

	"malleableSched/internal/malleable"
)

// Optimizer turns a validated instance into a feasible schedule.
type Optimizer interface {
	Name() string
	Solve(ctx context.Context, inst *malleable.Instance) (Result, error)
}

type Result struct {
	Schedule   *malleable.Schedule
	Makespan   int
	Iterations int
	Duration   time.Duration
	Meta       map[string]any
}

// Finish fills Makespan and Duration from the schedule and the start time.
func (r *Result) Finish(started time.Time) {
	r.Makespan = r.Schedule.Makespan()
	r.Duration = time.Since(started)
}
