package malleable

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInstance is matched by every validation failure.
	ErrInvalidInstance = errors.New("invalid instance")
	// ErrCyclicPrecedence is returned when the precedence relation has a cycle.
	ErrCyclicPrecedence = fmt.Errorf("%w: cyclic precedence", ErrInvalidInstance)
)

// Job is a malleable job. Times[k-1] is the processing time on k processors.
type Job struct {
	ID    int
	Times []int
}

// Constraint orders two jobs by id: Before must finish before After starts.
type Constraint struct {
	Before int
	After  int
}

type Instance struct {
	Machines    int
	Jobs        []Job
	Constraints []Constraint
	// Width is the declared bound on antichain size; 0 means undeclared.
	Width int

	index   map[int]int
	succ    [][]int
	pred    [][]int
	closure []bool
	topo    []int
}

func NewInstance(machines int, jobs []Job, constraints []Constraint, width int) (*Instance, error) {
	inst := &Instance{Machines: machines, Jobs: jobs, Constraints: constraints, Width: width}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Validate checks the instance and (re)builds the dense precedence structures.
func (inst *Instance) Validate() error {
	if inst == nil {
		return fmt.Errorf("%w: instance is nil", ErrInvalidInstance)
	}
	if inst.Machines <= 0 {
		return fmt.Errorf("%w: machines must be > 0 (got %d)", ErrInvalidInstance, inst.Machines)
	}
	if len(inst.Jobs) == 0 {
		return fmt.Errorf("%w: at least one job is required", ErrInvalidInstance)
	}
	if inst.Width < 0 {
		return fmt.Errorf("%w: width must be >= 0 (got %d)", ErrInvalidInstance, inst.Width)
	}

	index := make(map[int]int, len(inst.Jobs))
	for i, job := range inst.Jobs {
		if _, dup := index[job.ID]; dup {
			return fmt.Errorf("%w: duplicate job id %d", ErrInvalidInstance, job.ID)
		}
		index[job.ID] = i
		if len(job.Times) != inst.Machines {
			return fmt.Errorf("%w: job %d has %d processing times, want %d", ErrInvalidInstance, job.ID, len(job.Times), inst.Machines)
		}
		for k, p := range job.Times {
			if p <= 0 {
				return fmt.Errorf("%w: job %d: p(%d) must be > 0 (got %d)", ErrInvalidInstance, job.ID, k+1, p)
			}
		}
	}

	n := len(inst.Jobs)
	succ := make([][]int, n)
	pred := make([][]int, n)
	seen := make(map[[2]int]bool, len(inst.Constraints))
	for _, c := range inst.Constraints {
		a, ok := index[c.Before]
		if !ok {
			return fmt.Errorf("%w: constraint %d<%d references unknown job %d", ErrInvalidInstance, c.Before, c.After, c.Before)
		}
		b, ok := index[c.After]
		if !ok {
			return fmt.Errorf("%w: constraint %d<%d references unknown job %d", ErrInvalidInstance, c.Before, c.After, c.After)
		}
		if a == b {
			return fmt.Errorf("%w: job %d precedes itself", ErrCyclicPrecedence, c.Before)
		}
		if seen[[2]int{a, b}] {
			continue
		}
		seen[[2]int{a, b}] = true
		succ[a] = append(succ[a], b)
		pred[b] = append(pred[b], a)
	}

	inst.index = index
	inst.succ = succ
	inst.pred = pred

	topo, err := kahn(succ, pred)
	if err != nil {
		return err
	}
	inst.topo = topo
	inst.closure = transitiveClosure(topo, succ)
	return nil
}

// N returns the number of jobs.
func (inst *Instance) N() int { return len(inst.Jobs) }

// Index maps a job id to its dense index.
func (inst *Instance) Index(id int) (int, bool) {
	i, ok := inst.index[id]
	return i, ok
}

// Time returns the processing time of job i on k processors.
func (inst *Instance) Time(i, k int) int {
	return inst.Jobs[i].Times[k-1]
}

// Work returns k * p_i(k).
func (inst *Instance) Work(i, k int) int {
	return k * inst.Time(i, k)
}

// FastestCount returns the smallest processor count in 1..limit that minimises
// the processing time of job i.
func (inst *Instance) FastestCount(i, limit int) int {
	if limit > inst.Machines {
		limit = inst.Machines
	}
	best := 1
	for k := 2; k <= limit; k++ {
		if inst.Time(i, k) < inst.Time(i, best) {
			best = k
		}
	}
	return best
}

// MinTime returns the shortest processing time of job i on any count.
func (inst *Instance) MinTime(i int) int {
	return inst.Time(i, inst.FastestCount(i, inst.Machines))
}

// MinWork returns the smallest k*p(k) of job i.
func (inst *Instance) MinWork(i int) int {
	best := inst.Work(i, 1)
	for k := 2; k <= inst.Machines; k++ {
		if w := inst.Work(i, k); w < best {
			best = w
		}
	}
	return best
}

// WithMachines returns a copy of the instance on m machines. Processing time
// arrays are truncated, or extended by repeating their last value.
func (inst *Instance) WithMachines(m int) (*Instance, error) {
	jobs := make([]Job, len(inst.Jobs))
	for i, job := range inst.Jobs {
		times := make([]int, m)
		for k := range times {
			if k < len(job.Times) {
				times[k] = job.Times[k]
			} else {
				times[k] = job.Times[len(job.Times)-1]
			}
		}
		jobs[i] = Job{ID: job.ID, Times: times}
	}
	constraints := make([]Constraint, len(inst.Constraints))
	copy(constraints, inst.Constraints)
	return NewInstance(m, jobs, constraints, inst.Width)
}
