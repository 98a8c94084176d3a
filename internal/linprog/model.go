// Package linprog is a small linear-program builder. Models are solved by a
// Solver; Simplex is a bounded two-phase simplex over gonum matrices.
package linprog

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInfeasible means the model has no feasible assignment.
	ErrInfeasible = errors.New("linprog: infeasible")
	// ErrInvalidModel is returned for malformed variable bounds or coefficients.
	ErrInvalidModel = errors.New("linprog: invalid model")
	// ErrUnbounded and ErrIterationLimit reach callers wrapped in SolverError.
	ErrUnbounded      = errors.New("linprog: unbounded")
	ErrIterationLimit = errors.New("linprog: iteration limit reached")
)

// SolverError wraps a numerical failure of the backend that is not a proof
// of infeasibility.
type SolverError struct {
	Err error
}

func (e *SolverError) Error() string { return "linprog: solver failure: " + e.Err.Error() }

func (e *SolverError) Unwrap() error { return e.Err }

type Var int

type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression, the sum of its terms. Repeated variables add up.
type Expr []Term

// Plus returns e + coef*v.
func (e Expr) Plus(v Var, coef float64) Expr {
	return append(e, Term{Var: v, Coef: coef})
}

type Relation int

const (
	LessEq Relation = iota
	Equal
	GreaterEq
)

func (r Relation) String() string {
	switch r {
	case LessEq:
		return "<="
	case Equal:
		return "="
	case GreaterEq:
		return ">="
	}
	return fmt.Sprintf("Relation(%d)", int(r))
}

type Sense int

const (
	Minimize Sense = iota
	Maximize
)

type Constraint struct {
	Expr  Expr
	Rel   Relation
	Bound float64
}

type Model struct {
	lower       []float64
	upper       []float64
	constraints []Constraint
	objective   Expr
	sense       Sense
}

func NewModel() *Model {
	return &Model{}
}

// AddVariable declares a variable with lower <= v <= upper. upper may be
// math.Inf(1); lower must be finite.
func (m *Model) AddVariable(lower, upper float64) Var {
	m.lower = append(m.lower, lower)
	m.upper = append(m.upper, upper)
	return Var(len(m.lower) - 1)
}

func (m *Model) AddConstraint(e Expr, rel Relation, bound float64) {
	m.constraints = append(m.constraints, Constraint{Expr: e, Rel: rel, Bound: bound})
}

// SetObjective replaces the objective. A model without one is a pure
// feasibility problem.
func (m *Model) SetObjective(e Expr, sense Sense) {
	m.objective = e
	m.sense = sense
}

func (m *Model) NumVariables() int { return len(m.lower) }

func (m *Model) NumConstraints() int { return len(m.constraints) }

func (m *Model) Bounds(v Var) (lower, upper float64) {
	return m.lower[v], m.upper[v]
}

func (m *Model) Constraints() []Constraint { return m.constraints }

func (m *Model) Objective() (Expr, Sense) { return m.objective, m.sense }

// Validate checks bounds and coefficients.
func (m *Model) Validate() error {
	for v := range m.lower {
		lo, hi := m.lower[v], m.upper[v]
		if math.IsNaN(lo) || math.IsInf(lo, 0) {
			return fmt.Errorf("%w: variable %d has lower bound %v", ErrInvalidModel, v, lo)
		}
		if math.IsNaN(hi) || math.IsInf(hi, -1) {
			return fmt.Errorf("%w: variable %d has upper bound %v", ErrInvalidModel, v, hi)
		}
	}
	check := func(e Expr, where string) error {
		for _, t := range e {
			if t.Var < 0 || int(t.Var) >= len(m.lower) {
				return fmt.Errorf("%w: %s references unknown variable %d", ErrInvalidModel, where, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("%w: %s has coefficient %v", ErrInvalidModel, where, t.Coef)
			}
		}
		return nil
	}
	for i, c := range m.constraints {
		if err := check(c.Expr, fmt.Sprintf("constraint %d", i)); err != nil {
			return err
		}
		if math.IsNaN(c.Bound) || math.IsInf(c.Bound, 0) {
			return fmt.Errorf("%w: constraint %d has bound %v", ErrInvalidModel, i, c.Bound)
		}
	}
	return check(m.objective, "objective")
}

// Solve runs the model through s.
func (m *Model) Solve(ctx context.Context, s Solver) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}
	return s.Solve(ctx, m)
}

// Check reports the first bound or constraint that values violates by more
// than tol, scaled by the magnitude of the bound.
func (m *Model) Check(values []float64, tol float64) error {
	if len(values) != len(m.lower) {
		return fmt.Errorf("%d values for %d variables", len(values), len(m.lower))
	}
	for v, x := range values {
		if x < m.lower[v]-tol*(1+math.Abs(m.lower[v])) || x > m.upper[v]+tol*(1+math.Abs(m.upper[v])) {
			return fmt.Errorf("variable %d = %v outside [%v, %v]", v, x, m.lower[v], m.upper[v])
		}
	}
	for i, c := range m.constraints {
		lhs := c.Expr.Eval(values)
		slack := tol * (1 + math.Abs(c.Bound))
		var ok bool
		switch c.Rel {
		case LessEq:
			ok = lhs <= c.Bound+slack
		case GreaterEq:
			ok = lhs >= c.Bound-slack
		default:
			ok = math.Abs(lhs-c.Bound) <= slack
		}
		if !ok {
			return fmt.Errorf("constraint %d: %v %s %v violated", i, lhs, c.Rel, c.Bound)
		}
	}
	return nil
}

// Eval returns the value of e under values.
func (e Expr) Eval(values []float64) float64 {
	total := 0.0
	for _, t := range e {
		total += t.Coef * values[t.Var]
	}
	return total
}

type Solution struct {
	Objective float64
	Values    []float64
}

func (s Solution) Value(v Var) float64 {
	return s.Values[v]
}

// Solver solves a validated model. A cancelled ctx stops the solve with
// ctx.Err().
type Solver interface {
	Solve(ctx context.Context, m *Model) (Solution, error)
}

// SolverFunc adapts a function to Solver.
type SolverFunc func(ctx context.Context, m *Model) (Solution, error)

func (f SolverFunc) Solve(ctx context.Context, m *Model) (Solution, error) { return f(ctx, m) }
