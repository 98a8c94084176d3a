package malleable

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/addrummond/heap"
)

// ErrInvalidSchedule is matched by every schedule invariant violation.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Entry places one job: it runs on Count processors during [Start, Finish).
type Entry struct {
	Job    int // dense job index
	ID     int
	Start  int
	Count  int
	Finish int
	// Processors optionally lists the concrete processors used.
	Processors []int
}

type Schedule struct {
	Machines int
	Entries  []Entry
}

// Place appends a job placement, deriving its finish time from inst.
func (s *Schedule) Place(inst *Instance, job, start, count int) *Entry {
	s.Entries = append(s.Entries, Entry{
		Job:    job,
		ID:     inst.Jobs[job].ID,
		Start:  start,
		Count:  count,
		Finish: start + inst.Time(job, count),
	})
	return &s.Entries[len(s.Entries)-1]
}

func (s *Schedule) Makespan() int {
	if s == nil {
		return 0
	}
	makespan := 0
	for _, e := range s.Entries {
		if e.Finish > makespan {
			makespan = e.Finish
		}
	}
	return makespan
}

// ByJob returns the entries indexed by dense job index.
func (s *Schedule) ByJob(n int) []*Entry {
	out := make([]*Entry, n)
	for i := range s.Entries {
		e := &s.Entries[i]
		if e.Job >= 0 && e.Job < n {
			out[e.Job] = e
		}
	}
	return out
}

// Sorted returns a copy of the schedule with entries ordered by start time.
func (s *Schedule) Sorted() *Schedule {
	out := s.Clone()
	slices.SortStableFunc(out.Entries, func(a, b Entry) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.Job, b.Job)
	})
	return out
}

func (s *Schedule) Clone() *Schedule {
	out := &Schedule{Machines: s.Machines, Entries: make([]Entry, len(s.Entries))}
	copy(out.Entries, s.Entries)
	for i := range out.Entries {
		if p := out.Entries[i].Processors; p != nil {
			out.Entries[i].Processors = slices.Clone(p)
		}
	}
	return out
}

// OnMachines returns a copy of the schedule on m machines. The copy is valid
// for an instance on m >= s.Machines machines that keeps the processing times
// of the counts in use.
func (s *Schedule) OnMachines(m int) *Schedule {
	out := s.Clone()
	out.Machines = m
	return out
}

type release struct {
	at    int
	count int
}

func (a *release) Cmp(b *release) int {
	return cmp.Compare(a.at, b.at)
}

// Validate checks that s is a feasible schedule of inst: every job placed
// exactly once with a consistent finish time, precedence respected and at
// most Machines processors busy at any instant.
func (s *Schedule) Validate(inst *Instance) error {
	if s == nil {
		return fmt.Errorf("%w: schedule is nil", ErrInvalidSchedule)
	}
	if s.Machines != inst.Machines {
		return fmt.Errorf("%w: schedule has %d machines, instance %d", ErrInvalidSchedule, s.Machines, inst.Machines)
	}
	n := inst.N()
	if len(s.Entries) != n {
		return fmt.Errorf("%w: %d entries for %d jobs", ErrInvalidSchedule, len(s.Entries), n)
	}

	placed := make([]*Entry, n)
	for i := range s.Entries {
		e := &s.Entries[i]
		if e.Job < 0 || e.Job >= n {
			return fmt.Errorf("%w: unknown job index %d", ErrInvalidSchedule, e.Job)
		}
		if placed[e.Job] != nil {
			return fmt.Errorf("%w: job %d placed twice", ErrInvalidSchedule, e.ID)
		}
		placed[e.Job] = e
		if e.ID != inst.Jobs[e.Job].ID {
			return fmt.Errorf("%w: entry for index %d carries id %d, want %d", ErrInvalidSchedule, e.Job, e.ID, inst.Jobs[e.Job].ID)
		}
		if e.Count < 1 || e.Count > inst.Machines {
			return fmt.Errorf("%w: job %d uses %d processors", ErrInvalidSchedule, e.ID, e.Count)
		}
		if e.Start < 0 {
			return fmt.Errorf("%w: job %d starts at %d", ErrInvalidSchedule, e.ID, e.Start)
		}
		if want := e.Start + inst.Time(e.Job, e.Count); e.Finish != want {
			return fmt.Errorf("%w: job %d finishes at %d, want %d", ErrInvalidSchedule, e.ID, e.Finish, want)
		}
		if e.Processors != nil && len(e.Processors) != e.Count {
			return fmt.Errorf("%w: job %d lists %d processors for count %d", ErrInvalidSchedule, e.ID, len(e.Processors), e.Count)
		}
	}

	for a := 0; a < n; a++ {
		for _, b := range inst.Successors(a) {
			if placed[a].Finish > placed[b].Start {
				return fmt.Errorf("%w: job %d finishes at %d after successor %d starts at %d",
					ErrInvalidSchedule, placed[a].ID, placed[a].Finish, placed[b].ID, placed[b].Start)
			}
		}
	}

	sorted := s.Sorted()
	var running heap.Heap[release, heap.Min]
	busy := 0
	for _, e := range sorted.Entries {
		for {
			next, ok := heap.Peek(&running)
			if !ok || next.at > e.Start {
				break
			}
			_, _ = heap.PopOrderable(&running)
			busy -= next.count
		}
		busy += e.Count
		if busy > inst.Machines {
			return fmt.Errorf("%w: %d processors busy at time %d (machines %d)", ErrInvalidSchedule, busy, e.Start, inst.Machines)
		}
		heap.PushOrderable(&running, release{at: e.Finish, count: e.Count})
	}
	return nil
}
