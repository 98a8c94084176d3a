package dp

import (
	"math"

	"malleableSched/internal/malleable"
)

// evaluate fills the Pareto front of n for q = 1..m from its children.
func (n *node) evaluate(inst *malleable.Instance, m int) {
	n.front = make([]int, m+1)
	n.front[0] = math.MaxInt
	switch n.kind {
	case leaf:
		n.count = make([]int, m+1)
		for q := 1; q <= m; q++ {
			k := inst.FastestCount(n.job, q)
			n.count[q] = k
			n.front[q] = inst.Time(n.job, k)
		}
	case series:
		for q := 1; q <= m; q++ {
			n.front[q] = n.left.front[q] + n.right.front[q]
		}
	case parallel:
		n.split = make([]int, m+1)
		for q := 1; q <= m; q++ {
			best := n.left.front[q] + n.right.front[q]
			split := 0
			for a := 1; a < q; a++ {
				if v := max(n.left.front[a], n.right.front[q-a]); v <= best {
					if v < best || split == 0 {
						best, split = v, a
					}
				}
			}
			n.front[q] = best
			n.split[q] = split
		}
	}
}

// place reconstructs the subtree schedule on the processor block
// [offset, offset+q) starting at start.
func (n *node) place(inst *malleable.Instance, s *malleable.Schedule, q, start, offset int) {
	switch n.kind {
	case leaf:
		k := n.count[q]
		e := s.Place(inst, n.job, start, k)
		e.Processors = make([]int, k)
		for p := range e.Processors {
			e.Processors[p] = offset + p
		}
	case parallel:
		if a := n.split[q]; a > 0 {
			n.left.place(inst, s, a, start, offset)
			n.right.place(inst, s, q-a, start, offset+a)
			return
		}
		fallthrough
	case series:
		n.left.place(inst, s, q, start, offset)
		n.right.place(inst, s, q, start+n.left.front[q], offset)
	}
}
