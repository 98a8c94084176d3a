package malleable

import (
	"fmt"
	"sort"

	"github.com/gammazero/deque"
)

// kahn returns a topological order of the dense precedence graph. Ready jobs
// are released in index order so the result is deterministic.
func kahn(succ, pred [][]int) ([]int, error) {
	n := len(succ)
	inDegree := make([]int, n)
	var queue deque.Deque[int]
	for i := 0; i < n; i++ {
		inDegree[i] = len(pred[i])
		if inDegree[i] == 0 {
			queue.PushBack(i)
		}
	}

	order := make([]int, 0, n)
	for queue.Len() > 0 {
		node := queue.PopFront()
		order = append(order, node)

		var ready []int
		for _, s := range succ[node] {
			inDegree[s]--
			if inDegree[s] == 0 {
				ready = append(ready, s)
			}
		}
		sort.Ints(ready)
		for _, s := range ready {
			queue.PushBack(s)
		}
	}

	if len(order) != n {
		return nil, fmt.Errorf("%w (%d of %d jobs sorted)", ErrCyclicPrecedence, len(order), n)
	}
	return order, nil
}

func transitiveClosure(topo []int, succ [][]int) []bool {
	n := len(topo)
	closure := make([]bool, n*n)
	for t := n - 1; t >= 0; t-- {
		i := topo[t]
		row := closure[i*n : (i+1)*n]
		for _, s := range succ[i] {
			row[s] = true
			srow := closure[s*n : (s+1)*n]
			for j, ok := range srow {
				if ok {
					row[j] = true
				}
			}
		}
	}
	return closure
}

// TopoOrder returns the job indices in a deterministic topological order.
func (inst *Instance) TopoOrder() []int {
	out := make([]int, len(inst.topo))
	copy(out, inst.topo)
	return out
}

// Less reports whether job a must finish before job b starts (transitively).
func (inst *Instance) Less(a, b int) bool {
	return inst.closure[a*len(inst.Jobs)+b]
}

// Comparable reports whether a and b are ordered either way.
func (inst *Instance) Comparable(a, b int) bool {
	return inst.Less(a, b) || inst.Less(b, a)
}

// Predecessors returns the direct predecessors of job i.
func (inst *Instance) Predecessors(i int) []int { return inst.pred[i] }

// Successors returns the direct successors of job i.
func (inst *Instance) Successors(i int) []int { return inst.succ[i] }

// TransitiveReduction returns the direct edges that are not implied by others.
func (inst *Instance) TransitiveReduction() [][2]int {
	var edges [][2]int
	for _, a := range inst.topo {
		for _, b := range inst.succ[a] {
			implied := false
			for _, c := range inst.succ[a] {
				if c != b && inst.Less(c, b) {
					implied = true
					break
				}
			}
			if !implied {
				edges = append(edges, [2]int{a, b})
			}
		}
	}
	return edges
}

// ChainCover partitions the jobs into the minimum number of chains of the
// precedence order. Each chain is listed in precedence order.
func (inst *Instance) ChainCover() [][]int {
	n := len(inst.Jobs)
	matchRight := make([]int, n) // matchRight[b] = a means a directly before b in a chain
	matchLeft := make([]int, n)
	for i := range matchRight {
		matchRight[i] = -1
		matchLeft[i] = -1
	}

	var augment func(a int, visited []bool) bool
	augment = func(a int, visited []bool) bool {
		for _, b := range inst.topo {
			if !inst.Less(a, b) || visited[b] {
				continue
			}
			visited[b] = true
			if matchRight[b] == -1 || augment(matchRight[b], visited) {
				matchRight[b] = a
				matchLeft[a] = b
				return true
			}
		}
		return false
	}
	for _, a := range inst.topo {
		augment(a, make([]bool, n))
	}

	var chains [][]int
	for _, head := range inst.topo {
		if matchRight[head] != -1 {
			continue
		}
		chain := []int{head}
		for next := matchLeft[head]; next != -1; next = matchLeft[next] {
			chain = append(chain, next)
		}
		chains = append(chains, chain)
	}
	return chains
}

// PrecedenceWidth returns the size of a maximum antichain (Dilworth: minimum
// chain cover).
func (inst *Instance) PrecedenceWidth() int {
	return len(inst.ChainCover())
}

// Depths returns, per job, the number of jobs on the longest chain ending
// just before it.
func (inst *Instance) Depths() []int {
	depth := make([]int, len(inst.Jobs))
	for _, i := range inst.topo {
		for _, p := range inst.pred[i] {
			if depth[p]+1 > depth[i] {
				depth[i] = depth[p] + 1
			}
		}
	}
	return depth
}

// Releases returns the earliest start of every job when job i takes dur[i].
func (inst *Instance) Releases(dur []int) []int {
	release := make([]int, len(inst.Jobs))
	for _, i := range inst.topo {
		for _, p := range inst.pred[i] {
			if f := release[p] + dur[p]; f > release[i] {
				release[i] = f
			}
		}
	}
	return release
}

// Tails returns, per job, the longest path strictly after it.
func (inst *Instance) Tails(dur []int) []int {
	tail := make([]int, len(inst.Jobs))
	for t := len(inst.topo) - 1; t >= 0; t-- {
		i := inst.topo[t]
		for _, s := range inst.succ[i] {
			if v := dur[s] + tail[s]; v > tail[i] {
				tail[i] = v
			}
		}
	}
	return tail
}

// CriticalPath returns the length of the longest chain under dur.
func (inst *Instance) CriticalPath(dur []int) int {
	release := inst.Releases(dur)
	longest := 0
	for i := range release {
		if f := release[i] + dur[i]; f > longest {
			longest = f
		}
	}
	return longest
}

// FastestTimes returns MinTime for every job.
func (inst *Instance) FastestTimes() []int {
	out := make([]int, len(inst.Jobs))
	for i := range out {
		out[i] = inst.MinTime(i)
	}
	return out
}

// LowerBound returns max(critical path on fastest times, ceil(min work / m)).
func (inst *Instance) LowerBound() int {
	lb := inst.CriticalPath(inst.FastestTimes())
	work := 0
	for i := range inst.Jobs {
		work += inst.MinWork(i)
	}
	if w := (work + inst.Machines - 1) / inst.Machines; w > lb {
		lb = w
	}
	return lb
}

// SequentialBound returns the sum of single-processor times, the makespan of
// running every job alone on one processor.
func (inst *Instance) SequentialBound() int {
	total := 0
	for i := range inst.Jobs {
		total += inst.Time(i, 1)
	}
	return total
}
