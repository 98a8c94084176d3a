package dp

import (
	"github.com/gammazero/deque"

	"malleableSched/internal/malleable"
)

type kind int

const (
	leaf kind = iota
	series
	parallel
)

// node of the binary composition tree. In a series node every job of left
// runs before every job of right; the two sides of a parallel node are
// independent.
type node struct {
	kind        kind
	job         int
	left, right *node
	// artificial counts the ordered pairs added by a forced series cut
	artificial int

	front []int // front[q]: best makespan on at most q processors
	count []int // leaf: processor count chosen for q
	split []int // parallel: processors given to left for q, 0 for series
}

type builder struct {
	inst *malleable.Instance
	cut  CutPolicy
}

// build decomposes jobs, given in topological order.
func (b *builder) build(jobs []int) *node {
	if len(jobs) == 1 {
		return &node{kind: leaf, job: jobs[0]}
	}

	if first, rest := b.component(jobs); len(rest) > 0 {
		return &node{kind: parallel, left: b.build(first), right: b.build(rest)}
	}

	k, added := b.seriesCut(jobs)
	return &node{
		kind:       series,
		left:       b.build(jobs[:k]),
		right:      b.build(jobs[k:]),
		artificial: added,
	}
}

// component returns the connected component of jobs[0] in the comparability
// graph and the remaining jobs, both in the order of jobs.
func (b *builder) component(jobs []int) (first, rest []int) {
	in := make(map[int]bool, len(jobs))
	in[jobs[0]] = true
	var queue deque.Deque[int]
	queue.PushBack(jobs[0])
	for queue.Len() > 0 {
		j := queue.PopFront()
		for _, o := range jobs {
			if !in[o] && b.inst.Comparable(j, o) {
				in[o] = true
				queue.PushBack(o)
			}
		}
	}
	for _, j := range jobs {
		if in[j] {
			first = append(first, j)
		} else {
			rest = append(rest, j)
		}
	}
	return first, rest
}

// seriesCut returns the prefix length k that is placed before the suffix and
// the number of incomparable pairs the cut orders. A true series split adds
// none; prime orders are cut according to the configured policy.
func (b *builder) seriesCut(jobs []int) (int, int) {
	n := len(jobs)
	added := make([]int, n)
	for k := 1; k < n; k++ {
		for _, a := range jobs[:k] {
			for _, c := range jobs[k:] {
				if !b.inst.Less(a, c) {
					added[k]++
				}
			}
		}
		if added[k] == 0 {
			return k, 0
		}
	}

	best := 1
	for k := 2; k < n; k++ {
		switch b.cut {
		case CutBalanced:
			if abs(2*k-n) < abs(2*best-n) {
				best = k
			}
		default:
			if added[k] < added[best] {
				best = k
			}
		}
	}
	return best, added[best]
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// postOrder lists the tree children first, without recursion.
func (n *node) postOrder() []*node {
	var out []*node
	stack := []*node{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, top)
		if top.left != nil {
			stack = append(stack, top.left, top.right)
		}
	}
	// reversed root-right-left order is left-right-root
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
