package malleable

import (
	"fmt"
	"sort"
)

// ListSchedule places every job i on counts[i] processors.
//
// Jobs are grouped by groups[i] (nil puts every job in group 0). Groups run
// behind barriers: no job of a group starts before all jobs of earlier groups
// have finished. Inside a group jobs are taken in topological order and start
// at the earliest time the capacity profile admits once their predecessors
// are done.
func ListSchedule(inst *Instance, counts []int, groups []int) (*Schedule, error) {
	n := inst.N()
	if len(counts) != n {
		return nil, fmt.Errorf("list schedule: %d counts for %d jobs", len(counts), n)
	}
	if groups == nil {
		groups = make([]int, n)
	}
	if len(groups) != n {
		return nil, fmt.Errorf("list schedule: %d groups for %d jobs", len(groups), n)
	}
	for i, k := range counts {
		if k < 1 || k > inst.Machines {
			return nil, fmt.Errorf("list schedule: job %d gets %d processors (machines %d)", inst.Jobs[i].ID, k, inst.Machines)
		}
		for _, p := range inst.Predecessors(i) {
			if groups[p] > groups[i] {
				return nil, fmt.Errorf("list schedule: job %d in group %d precedes job %d in group %d",
					inst.Jobs[p].ID, groups[p], inst.Jobs[i].ID, groups[i])
			}
		}
	}

	position := make([]int, n)
	order := inst.TopoOrder()
	for pos, i := range order {
		position[i] = pos
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if groups[ia] != groups[ib] {
			return groups[ia] < groups[ib]
		}
		return position[ia] < position[ib]
	})

	profile := NewProfile(inst.Machines)
	finish := make([]int, n)
	sched := &Schedule{Machines: inst.Machines}
	barrier, horizon := 0, 0
	for idx, i := range order {
		if idx > 0 && groups[i] != groups[order[idx-1]] {
			barrier = horizon
		}
		ready := barrier
		for _, p := range inst.Predecessors(i) {
			if finish[p] > ready {
				ready = finish[p]
			}
		}
		dur := inst.Time(i, counts[i])
		start := profile.EarliestStart(ready, dur, counts[i])
		profile.Add(start, start+dur, counts[i])
		e := sched.Place(inst, i, start, counts[i])
		finish[i] = e.Finish
		if e.Finish > horizon {
			horizon = e.Finish
		}
	}
	return sched, nil
}
