package ilp

import (
	"math"

	"malleableSched/internal/linprog"
	"malleableSched/internal/malleable"
)

const shareTolerance = 1e-9

// round turns the fractional assignment into a processor count and a slice
// per job. Counts whose share reaches rho are heavy; among them the one whose
// time is closest to the fractional duration wins, ties to fewer processors.
// Each job goes to its heaviest slice, lifted above its predecessors' slices.
func (r *relaxation) round(inst *malleable.Instance, sol linprog.Solution, rho float64) (counts, slices []int) {
	n := inst.N()
	counts = make([]int, n)
	slices = make([]int, n)

	for j := 0; j < n; j++ {
		share := make([]float64, len(r.counts[j]))
		inSlice := make([]float64, r.slices)
		duration := 0.0
		for i, k := range r.counts[j] {
			for s, v := range r.assign[j][i] {
				x := sol.Value(v)
				share[i] += x
				inSlice[s] += x
			}
			duration += share[i] * float64(inst.Time(j, k))
		}

		heavy := make([]int, 0, len(share))
		for _, threshold := range []float64{rho - shareTolerance, shareTolerance} {
			for i, x := range share {
				if x >= threshold {
					heavy = append(heavy, i)
				}
			}
			if len(heavy) > 0 {
				break
			}
		}
		if len(heavy) == 0 {
			heavy = append(heavy, 0)
		}

		best, gap := heavy[0], math.Inf(1)
		for _, i := range heavy {
			if d := math.Abs(float64(inst.Time(j, r.counts[j][i])) - duration); d < gap-shareTolerance {
				best, gap = i, d
			}
		}
		counts[j] = r.counts[j][best]

		top := 0
		for s, x := range inSlice {
			if x > inSlice[top]+shareTolerance {
				top = s
			}
		}
		slices[j] = top
	}

	for _, j := range inst.TopoOrder() {
		for _, p := range inst.Predecessors(j) {
			if slices[p]+1 > slices[j] {
				slices[j] = slices[p] + 1
			}
		}
	}
	return counts, slices
}
