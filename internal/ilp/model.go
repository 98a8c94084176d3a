package ilp

import (
	"math"
	"sort"

	"malleableSched/internal/linprog"
	"malleableSched/internal/malleable"
)

// relaxation assigns jobs fractionally to (count, slice) pairs. Every slice
// picks fractionally one length out of the distinct processing times.
type relaxation struct {
	model  *linprog.Model
	slices int
	counts [][]int           // efficient processor counts per job
	assign [][][]linprog.Var // assign[j][i][s] for counts[j][i] in slice s
	types  []int             // distinct slice lengths
	length [][]linprog.Var   // length[s][t] picks types[t] for slice s
}

// efficientCounts keeps the counts that are strictly faster than every
// smaller count.
func efficientCounts(inst *malleable.Instance, j int) []int {
	counts := []int{1}
	for k := 2; k <= inst.Machines; k++ {
		if inst.Time(j, k) < inst.Time(j, counts[len(counts)-1]) {
			counts = append(counts, k)
		}
	}
	return counts
}

// sliceCount returns the number of slices that fit the layered schedule
// running every job on one processor, at most m jobs per slice.
func sliceCount(inst *malleable.Instance) int {
	layers := make(map[int]int)
	for _, d := range inst.Depths() {
		layers[d]++
	}
	total := 0
	for _, size := range layers {
		total += (size + inst.Machines - 1) / inst.Machines
	}
	return total
}

func buildRelaxation(inst *malleable.Instance, slices int) *relaxation {
	n, m := inst.N(), inst.Machines
	r := &relaxation{
		model:  linprog.NewModel(),
		slices: slices,
		counts: make([][]int, n),
		assign: make([][][]linprog.Var, n),
	}

	seen := make(map[int]bool)
	for j := 0; j < n; j++ {
		r.counts[j] = efficientCounts(inst, j)
		for _, k := range r.counts[j] {
			if p := inst.Time(j, k); !seen[p] {
				seen[p] = true
				r.types = append(r.types, p)
			}
		}
	}
	sort.Ints(r.types)

	// share <= 1 follows from the per-job equality
	perSlice := make([][]linprog.Expr, n) // perSlice[j][s]: total share of j in s
	for j := 0; j < n; j++ {
		r.assign[j] = make([][]linprog.Var, len(r.counts[j]))
		perSlice[j] = make([]linprog.Expr, slices)
		var total linprog.Expr
		for i := range r.counts[j] {
			r.assign[j][i] = make([]linprog.Var, slices)
			for s := 0; s < slices; s++ {
				v := r.model.AddVariable(0, math.Inf(1))
				r.assign[j][i][s] = v
				total = total.Plus(v, 1)
				perSlice[j][s] = perSlice[j][s].Plus(v, 1)
			}
		}
		r.model.AddConstraint(total, linprog.Equal, 1)
	}

	length := make([]linprog.Expr, slices) // length[s]: fractional length of slice s
	var objective linprog.Expr
	pickAtLeast := make([][]linprog.Expr, slices) // pickAtLeast[s][t]: length of slice s reaches types[t]
	for s := 0; s < slices; s++ {
		var pick linprog.Expr
		zs := make([]linprog.Var, len(r.types))
		r.length = append(r.length, zs)
		for t, v := range r.types {
			zs[t] = r.model.AddVariable(0, math.Inf(1))
			pick = pick.Plus(zs[t], 1)
			length[s] = length[s].Plus(zs[t], float64(v))
			objective = objective.Plus(zs[t], float64(v))
		}
		r.model.AddConstraint(pick, linprog.LessEq, 1)

		pickAtLeast[s] = make([]linprog.Expr, len(r.types))
		var tail linprog.Expr
		for t := len(r.types) - 1; t >= 0; t-- {
			tail = tail.Plus(zs[t], 1)
			pickAtLeast[s][t] = append(linprog.Expr{}, tail...)
		}

		var capacity linprog.Expr
		for j := 0; j < n; j++ {
			for i, k := range r.counts[j] {
				capacity = capacity.Plus(r.assign[j][i][s], float64(k))
			}
		}
		r.model.AddConstraint(capacity, linprog.LessEq, float64(m))
	}

	// a count runs in a slice only as far as the slice is at least its time long,
	// and a job's time averaged over its counts in a slice fits the slice length
	for j := 0; j < n; j++ {
		for i, k := range r.counts[j] {
			t := sort.SearchInts(r.types, inst.Time(j, k))
			for s := 0; s < slices; s++ {
				fit := linprog.Expr{{Var: r.assign[j][i][s], Coef: 1}}
				for _, term := range pickAtLeast[s][t] {
					fit = fit.Plus(term.Var, -term.Coef)
				}
				r.model.AddConstraint(fit, linprog.LessEq, 0)
			}
		}
		for s := 0; s < slices; s++ {
			var average linprog.Expr
			for i, k := range r.counts[j] {
				average = average.Plus(r.assign[j][i][s], float64(inst.Time(j, k)))
			}
			for _, term := range length[s] {
				average = average.Plus(term.Var, -term.Coef)
			}
			r.model.AddConstraint(average, linprog.LessEq, 0)
		}
	}

	// by the end of slice s, b has started no more than a had finished before s
	for _, e := range inst.TransitiveReduction() {
		a, b := e[0], e[1]
		var before linprog.Expr // shares of b minus shares of a over earlier slices
		for s := 0; s < slices; s++ {
			row := append(append(linprog.Expr{}, before...), perSlice[b][s]...)
			r.model.AddConstraint(row, linprog.LessEq, 0)
			before = append(before, perSlice[b][s]...)
			for _, t := range perSlice[a][s] {
				before = before.Plus(t.Var, -t.Coef)
			}
		}
	}

	r.model.SetObjective(objective, linprog.Minimize)
	return r
}
