package malleable

// Compact moves every job to the earliest start that respects its
// predecessors and the capacity left by jobs already moved, processing jobs
// in order of their original start. Counts never change, no job starts later
// than before and the makespan never grows. Concrete processor indices are
// dropped.
func Compact(inst *Instance, s *Schedule) *Schedule {
	sorted := s.Sorted()
	out := &Schedule{Machines: s.Machines, Entries: make([]Entry, 0, len(sorted.Entries))}
	profile := NewProfile(s.Machines)
	finish := make([]int, inst.N())

	for _, e := range sorted.Entries {
		ready := 0
		for _, p := range inst.Predecessors(e.Job) {
			if finish[p] > ready {
				ready = finish[p]
			}
		}
		dur := e.Finish - e.Start
		start := profile.EarliestStart(ready, dur, e.Count)
		if start > e.Start {
			start = e.Start
		}
		profile.Add(start, start+dur, e.Count)
		finish[e.Job] = start + dur
		out.Entries = append(out.Entries, Entry{
			Job:    e.Job,
			ID:     e.ID,
			Start:  start,
			Count:  e.Count,
			Finish: start + dur,
		})
	}
	return out
}
