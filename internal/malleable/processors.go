package malleable

import (
	"cmp"
	"fmt"

	"github.com/addrummond/heap"
)

type freeProcessor struct{ index int }

func (a *freeProcessor) Cmp(b *freeProcessor) int { return cmp.Compare(a.index, b.index) }

type heldProcessors struct {
	at    int
	procs []int
}

func (a *heldProcessors) Cmp(b *heldProcessors) int { return cmp.Compare(a.at, b.at) }

// AssignProcessors returns a copy of s in which every entry lists the concrete
// processors it runs on. Schedules whose entries all carry processors already
// are returned as a copy. Lowest free indices are handed out first.
func AssignProcessors(s *Schedule) (*Schedule, error) {
	complete := true
	for _, e := range s.Entries {
		if e.Processors == nil {
			complete = false
			break
		}
	}
	if complete {
		return s.Clone(), nil
	}

	out := s.Sorted()
	var free heap.Heap[freeProcessor, heap.Min]
	for p := 0; p < s.Machines; p++ {
		heap.PushOrderable(&free, freeProcessor{index: p})
	}
	var held heap.Heap[heldProcessors, heap.Min]
	available := s.Machines

	for i := range out.Entries {
		e := &out.Entries[i]
		for {
			next, ok := heap.Peek(&held)
			if !ok || next.at > e.Start {
				break
			}
			_, _ = heap.PopOrderable(&held)
			for _, p := range next.procs {
				heap.PushOrderable(&free, freeProcessor{index: p})
			}
			available += len(next.procs)
		}
		if e.Count > available {
			return nil, fmt.Errorf("%w: job %d needs %d processors at %d, %d free", ErrInvalidSchedule, e.ID, e.Count, e.Start, available)
		}
		procs := make([]int, 0, e.Count)
		for len(procs) < e.Count {
			p, _ := heap.PopOrderable(&free)
			procs = append(procs, p.index)
		}
		available -= e.Count
		e.Processors = procs
		heap.PushOrderable(&held, heldProcessors{at: e.Finish, procs: procs})
	}
	return out, nil
}
