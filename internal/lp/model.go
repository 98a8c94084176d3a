package lp

import (
	"math"

	"malleableSched/internal/linprog"
	"malleableSched/internal/malleable"
)

// relaxation is the window relaxation for one candidate makespan.
type relaxation struct {
	model  *linprog.Model
	counts [][]int         // admissible processor counts per job
	share  [][]linprog.Var // share[j][i] belongs to counts[j][i]
	bounds []float64       // window boundaries b_1..b_W
	groups []int           // window of every job by release
}

// boundaries returns b_i = T(1 - 2^-i) for i = 1..windows.
func boundaries(T, windows int) []float64 {
	out := make([]float64, windows)
	for i := range out {
		out[i] = float64(T) * (1 - math.Pow(2, -float64(i+1)))
	}
	return out
}

// buildRelaxation returns nil when some job has no count finishing within T.
func buildRelaxation(inst *malleable.Instance, T, windows int, chains [][]int) *relaxation {
	n, m := inst.N(), inst.Machines
	r := &relaxation{
		model:  linprog.NewModel(),
		counts: make([][]int, n),
		share:  make([][]linprog.Var, n),
		bounds: boundaries(T, windows),
		groups: make([]int, n),
	}

	duration := make([]linprog.Expr, n)
	work := make([]linprog.Expr, n)
	for j := 0; j < n; j++ {
		var sum linprog.Expr
		for k := 1; k <= m; k++ {
			p := inst.Time(j, k)
			if p > T {
				continue
			}
			// share <= 1 follows from the equality below
			v := r.model.AddVariable(0, math.Inf(1))
			r.counts[j] = append(r.counts[j], k)
			r.share[j] = append(r.share[j], v)
			sum = sum.Plus(v, 1)
			duration[j] = duration[j].Plus(v, float64(p))
			work[j] = work[j].Plus(v, float64(k*p))
		}
		if len(sum) == 0 {
			return nil
		}
		r.model.AddConstraint(sum, linprog.Equal, 1)
	}

	for _, chain := range chains {
		var total linprog.Expr
		for _, j := range chain {
			total = append(total, duration[j]...)
		}
		r.model.AddConstraint(total, linprog.LessEq, float64(T))
	}

	var all linprog.Expr
	for j := 0; j < n; j++ {
		all = append(all, work[j]...)
	}
	r.model.AddConstraint(all, linprog.LessEq, float64(m*T))

	fastest := inst.FastestTimes()
	release := inst.Releases(fastest)
	tail := inst.Tails(fastest)
	for _, b := range r.bounds {
		var prefix, suffix linprog.Expr
		for j := 0; j < n; j++ {
			if float64(T-tail[j]) <= b {
				prefix = append(prefix, work[j]...)
			}
			if float64(release[j]) >= float64(T)-b {
				suffix = append(suffix, work[j]...)
			}
		}
		if len(prefix) > 0 {
			r.model.AddConstraint(prefix, linprog.LessEq, float64(m)*b)
		}
		if len(suffix) > 0 {
			r.model.AddConstraint(suffix, linprog.LessEq, float64(m)*b)
		}
	}

	for j := 0; j < n; j++ {
		for _, b := range r.bounds {
			if float64(release[j]) >= b {
				r.groups[j]++
			}
		}
	}
	return r
}

// round picks for every job the count with the largest share, ties to the
// lower count.
func (r *relaxation) round(sol linprog.Solution) []int {
	counts := make([]int, len(r.counts))
	for j := range r.counts {
		best := -1.0
		for i, v := range r.share[j] {
			if x := sol.Value(v); x > best+shareTolerance {
				best = x
				counts[j] = r.counts[j][i]
			}
		}
	}
	return counts
}

const shareTolerance = 1e-9
