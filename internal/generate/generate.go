package generate

import (
	"fmt"
	"math/rand"
	"sort"

	"malleableSched/internal/malleable"
)

// Instance returns a random instance made of cfg.Omega disjoint chains, so its
// precedence width is exactly cfg.Omega. The declared width is set to Omega.
func Instance(cfg Config, rng *rand.Rand) (*malleable.Instance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	jobs := make([]malleable.Job, cfg.Jobs)
	for i := range jobs {
		var times []int
		if cfg.Concave {
			times = concaveTimes(cfg, rng)
		} else {
			times = arbitraryTimes(cfg, rng)
		}
		jobs[i] = malleable.Job{ID: i, Times: times}
	}

	return malleable.NewInstance(cfg.Machines, jobs, Chains(cfg, rng), cfg.Omega)
}

// Chains splits a random permutation of job ids 0..Jobs-1 into Omega chains
// with lengths in [MinChain, MaxChain] and links consecutive members.
func Chains(cfg Config, rng *rand.Rand) []malleable.Constraint {
	lengths := make([]int, cfg.Omega)
	for i := range lengths {
		lengths[i] = cfg.MinChain
	}
	for rest := cfg.Jobs - cfg.Omega*cfg.MinChain; rest > 0; rest-- {
		var open []int
		for i, l := range lengths {
			if l < cfg.MaxChain {
				open = append(open, i)
			}
		}
		lengths[open[rng.Intn(len(open))]]++
	}

	perm := rng.Perm(cfg.Jobs)
	var constraints []malleable.Constraint
	offset := 0
	for _, l := range lengths {
		chain := perm[offset : offset+l]
		sort.Ints(chain)
		for i := 1; i < len(chain); i++ {
			constraints = append(constraints, malleable.Constraint{Before: chain[i-1], After: chain[i]})
		}
		offset += l
	}
	return constraints
}

func concaveTimes(cfg Config, rng *rand.Rand) []int {
	p := cfg.MinTime + rng.Intn(cfg.MaxTime-cfg.MinTime+1)
	cutoff := 1 + rng.Intn(cfg.Machines)
	times := make([]int, cfg.Machines)
	for k := 1; k <= cfg.Machines; k++ {
		t := p / min(k, cutoff)
		if t < 1 {
			t = 1
		}
		times[k-1] = t
	}
	return times
}

func arbitraryTimes(cfg Config, rng *rand.Rand) []int {
	times := make([]int, cfg.Machines)
	for k := range times {
		times[k] = cfg.MinTime + rng.Intn(cfg.MaxTime-cfg.MinTime+1)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(times)))
	return times
}
