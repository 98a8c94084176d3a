package linprog

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	defaultTolerance = 1e-9
	// smallest column entry accepted as a pivot
	pivotTolerance = 1e-7
	// phase 1 optimum above this, relative to max |b|, proves infeasibility
	feasibilityTolerance = 1e-7
	// accepted violation of a returned solution, relative to each bound
	checkTolerance = 1e-6
	// consecutive degenerate pivots before entering columns follow Bland's rule
	blandAfter = 8
	// pivots between two context checks
	checkEvery = 32

	defaultIterationFactor = 25
	defaultMaxCells        = 1 << 25
)

// Simplex solves models with a dense two-phase tableau simplex on gonum
// matrices. Variables are shifted to their lower bound, finite upper bounds
// become rows and every inequality receives its own slack column.
//
// Phase 1 starts from the slack and artificial identity basis and minimises
// the sum of the artificials; the model is reported infeasible only when that
// optimum stays positive. Entering columns follow Dantzig's rule and switch to
// Bland's rule on runs of degenerate pivots, so the method does not cycle.
// Pivot elements below 1e-7 are never used; they blow up the tableau and
// with it the guarantee of Bland's rule.
// The pivot count is capped and the context is checked between pivots.
type Simplex struct {
	// Tolerance on reduced costs and pivots; 0 selects 1e-9.
	Tolerance float64
	// MaxIterations caps the pivots of both phases together; 0 selects
	// 25 * (rows + columns) + 1000.
	MaxIterations int
	// MaxCells caps the size of the dense tableau; 0 selects 1 << 25.
	MaxCells int
}

type standardForm struct {
	c      []float64
	rows   [][]float64 // dense rows over cols columns
	b      []float64
	slack  []int // slack column of every row, -1 for equalities
	cols   int
	column []int // model variable -> column, -1 when fixed at its lower bound
}

func (s Simplex) Solve(ctx context.Context, m *Model) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = defaultTolerance
	}

	sf, err := toStandardForm(m, tol)
	if err != nil {
		return Solution{}, err
	}

	values := make([]float64, m.NumVariables())
	copy(values, m.lower)
	if len(sf.b) > 0 {
		x, err := s.solveStandard(ctx, sf, tol)
		if err != nil {
			return Solution{}, err
		}
		for v, col := range sf.column {
			if col >= 0 {
				values[v] += x[col]
			}
		}
	}
	if err := m.Check(values, checkTolerance); err != nil {
		return Solution{}, &SolverError{Err: err}
	}

	obj, _ := m.Objective()
	return Solution{Objective: obj.Eval(values), Values: values}, nil
}

// solveStandard minimises c x subject to A x = b, x >= 0.
func (s Simplex) solveStandard(ctx context.Context, sf *standardForm, tol float64) ([]float64, error) {
	rows, n := len(sf.b), sf.cols

	basis := make([]int, rows)
	var artificial []int // rows that need an artificial column
	bmax := 1.0
	for i, row := range sf.rows {
		if sf.b[i] < 0 {
			floats.Scale(-1, row)
			sf.b[i] = -sf.b[i]
		}
		bmax = math.Max(bmax, sf.b[i])
		if c := sf.slack[i]; c >= 0 && row[c] == 1 {
			basis[i] = c
			continue
		}
		basis[i] = n + len(artificial)
		artificial = append(artificial, i)
	}

	cols := n + len(artificial)
	maxCells := s.MaxCells
	if maxCells <= 0 {
		maxCells = defaultMaxCells
	}
	if (rows+1)*(cols+1) > maxCells {
		return nil, &SolverError{Err: fmt.Errorf("tableau of %d x %d exceeds %d cells", rows+1, cols+1, maxCells)}
	}
	limit := s.MaxIterations
	if limit <= 0 {
		limit = defaultIterationFactor*(rows+cols) + 1000
	}

	tb := &tableau{
		t:      mat.NewDense(rows+1, cols+1, nil),
		rows:   rows,
		cols:   cols,
		basis:  basis,
		barred: make([]bool, cols),
		tol:    tol,
		limit:  limit,
	}
	for i, row := range sf.rows {
		r := tb.t.RawRowView(i)
		copy(r, row)
		r[cols] = sf.b[i]
	}
	for a, i := range artificial {
		tb.t.Set(i, n+a, 1)
	}

	if len(artificial) > 0 {
		obj := tb.t.RawRowView(rows)
		for a := range artificial {
			obj[n+a] = 1
		}
		for _, i := range artificial {
			floats.Sub(obj, tb.t.RawRowView(i))
		}
		if err := tb.run(ctx); err != nil {
			return nil, err
		}
		if residual := tb.artificialSum(n); residual > feasibilityTolerance*bmax {
			return nil, ErrInfeasible
		}
		tb.evictArtificials(n)
		for j := n; j < cols; j++ {
			tb.barred[j] = true
		}
	}

	obj := tb.t.RawRowView(rows)
	for j := range obj {
		obj[j] = 0
	}
	copy(obj, sf.c)
	for i, b := range tb.basis {
		if b < n && sf.c[b] != 0 {
			floats.AddScaled(obj, -sf.c[b], tb.t.RawRowView(i))
		}
	}
	if err := tb.run(ctx); err != nil {
		return nil, err
	}

	x := make([]float64, n)
	for i, b := range tb.basis {
		if b < n {
			x[b] = math.Max(tb.t.At(i, cols), 0)
		}
	}
	return x, nil
}

type tableau struct {
	t      *mat.Dense // rows+1 x cols+1: last row reduced costs, last column rhs
	rows   int
	cols   int
	basis  []int
	barred []bool // columns that may not enter
	tol    float64
	limit  int
	iters  int
}

// run pivots until no column improves the objective row. It returns
// ctx.Err() on cancellation and a SolverError when unbounded or out of
// pivots.
func (tb *tableau) run(ctx context.Context) error {
	obj := tb.t.RawRowView(tb.rows)
	degenerate := 0
	for {
		if tb.iters%checkEvery == 0 {
			// Для поддержки отмены через context
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		bland := degenerate >= blandAfter
		enter, best := -1, -tb.tol
		for j := 0; j < tb.cols; j++ {
			if tb.barred[j] || obj[j] >= best {
				continue
			}
			enter, best = j, obj[j]
			if bland {
				break
			}
		}
		if enter < 0 {
			return nil
		}

		leave, ratio := -1, math.Inf(1)
		for i := 0; i < tb.rows; i++ {
			a := tb.t.At(i, enter)
			if a <= pivotTolerance {
				continue
			}
			q := math.Max(tb.t.At(i, tb.cols), 0) / a
			switch {
			case leave < 0 || q < ratio-tb.tol:
				leave, ratio = i, q
			case q > ratio+tb.tol:
			case bland && tb.basis[i] < tb.basis[leave],
				!bland && a > tb.t.At(leave, enter):
				// ties: Bland's smallest index, otherwise the larger pivot
				leave, ratio = i, math.Min(ratio, q)
			}
		}
		if leave < 0 {
			return &SolverError{Err: fmt.Errorf("column %d: %w", enter, ErrUnbounded)}
		}
		if tb.iters >= tb.limit {
			return &SolverError{Err: fmt.Errorf("%d pivots: %w", tb.iters, ErrIterationLimit)}
		}
		tb.iters++
		if ratio <= tb.tol {
			degenerate++
		} else {
			degenerate = 0
		}
		tb.pivot(leave, enter)
	}
}

func (tb *tableau) pivot(r, c int) {
	pr := tb.t.RawRowView(r)
	floats.Scale(1/pr[c], pr)
	pr[c] = 1
	for i := 0; i <= tb.rows; i++ {
		if i == r {
			continue
		}
		row := tb.t.RawRowView(i)
		if f := row[c]; f != 0 {
			floats.AddScaled(row, -f, pr)
			row[c] = 0
		}
	}
	tb.basis[r] = c
}

func (tb *tableau) artificialSum(n int) float64 {
	total := 0.0
	for i, b := range tb.basis {
		if b >= n {
			total += math.Max(tb.t.At(i, tb.cols), 0)
		}
	}
	return total
}

// evictArtificials pivots every artificial still basic at zero out of the
// basis. A row with no structural entry left is redundant and keeps its
// artificial, which can no longer move.
func (tb *tableau) evictArtificials(n int) {
	for i, b := range tb.basis {
		if b < n {
			continue
		}
		row := tb.t.RawRowView(i)
		enter, size := -1, tb.tol
		for j := 0; j < n; j++ {
			if a := math.Abs(row[j]); a > size {
				enter, size = j, a
			}
		}
		if enter < 0 {
			continue
		}
		row[tb.cols] = 0
		tb.pivot(i, enter)
	}
}

func toStandardForm(m *Model, tol float64) (*standardForm, error) {
	n := m.NumVariables()
	obj, sense := m.Objective()
	cost := make([]float64, n)
	for _, t := range obj {
		cost[t.Var] += t.Coef
	}
	if sense == Maximize {
		for v := range cost {
			cost[v] = -cost[v]
		}
	}

	type row struct {
		coef  map[int]float64
		rel   Relation
		bound float64
	}
	var rows []row
	used := make([]bool, n)

	for v := 0; v < n; v++ {
		lo, hi := m.lower[v], m.upper[v]
		if hi < lo-tol {
			return nil, fmt.Errorf("%w: variable %d has bounds [%v, %v]", ErrInfeasible, v, lo, hi)
		}
		if !math.IsInf(hi, 1) {
			rows = append(rows, row{coef: map[int]float64{v: 1}, rel: LessEq, bound: math.Max(hi-lo, 0)})
			used[v] = true
		}
	}

	for i, c := range m.Constraints() {
		coef := make(map[int]float64, len(c.Expr))
		bound := c.Bound
		for _, t := range c.Expr {
			coef[int(t.Var)] += t.Coef
			bound -= t.Coef * m.lower[t.Var]
		}
		for v, a := range coef {
			if a == 0 {
				delete(coef, v)
			}
		}
		if len(coef) == 0 {
			if !constantHolds(c.Rel, bound, tol) {
				return nil, fmt.Errorf("%w: constraint %d reduces to 0 %s %v", ErrInfeasible, i, c.Rel, bound)
			}
			continue
		}
		for v := range coef {
			used[v] = true
		}
		rows = append(rows, row{coef: coef, rel: c.Rel, bound: bound})
	}

	sf := &standardForm{column: make([]int, n)}
	for v := 0; v < n; v++ {
		if !used[v] {
			if cost[v] < 0 {
				return nil, &SolverError{Err: fmt.Errorf("variable %d: %w", v, ErrUnbounded)}
			}
			sf.column[v] = -1
			continue
		}
		sf.column[v] = sf.cols
		sf.c = append(sf.c, cost[v])
		sf.cols++
	}

	slack := sf.cols
	for _, r := range rows {
		if r.rel != Equal {
			sf.cols++
			sf.c = append(sf.c, 0)
		}
	}
	for _, r := range rows {
		dense := make([]float64, sf.cols)
		for v, a := range r.coef {
			dense[sf.column[v]] = a
		}
		switch r.rel {
		case LessEq:
			dense[slack] = 1
			sf.slack = append(sf.slack, slack)
			slack++
		case GreaterEq:
			dense[slack] = -1
			sf.slack = append(sf.slack, slack)
			slack++
		default:
			sf.slack = append(sf.slack, -1)
		}
		sf.rows = append(sf.rows, dense)
		sf.b = append(sf.b, r.bound)
	}
	return sf, nil
}

func constantHolds(rel Relation, bound, tol float64) bool {
	switch rel {
	case LessEq:
		return 0 <= bound+tol
	case GreaterEq:
		return 0 >= bound-tol
	default:
		return math.Abs(bound) <= tol
	}
}
