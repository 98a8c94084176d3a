package malleable

import "sort"

// Profile is the step function of busy processors over time. Segment i covers
// [times[i], times[i+1]) and the last segment extends to infinity.
type Profile struct {
	capacity int
	times    []int
	busy     []int
}

func NewProfile(capacity int) *Profile {
	return &Profile{capacity: capacity, times: []int{0}, busy: []int{0}}
}

// segment returns the index of the segment containing t (t >= 0).
func (p *Profile) segment(t int) int {
	return sort.Search(len(p.times), func(i int) bool { return p.times[i] > t }) - 1
}

// split makes t a breakpoint and returns its segment index.
func (p *Profile) split(t int) int {
	i := p.segment(t)
	if p.times[i] == t {
		return i
	}
	p.times = append(p.times, 0)
	p.busy = append(p.busy, 0)
	copy(p.times[i+2:], p.times[i+1:])
	copy(p.busy[i+2:], p.busy[i+1:])
	p.times[i+1] = t
	p.busy[i+1] = p.busy[i]
	return i + 1
}

// Add reserves count processors during [start, finish).
func (p *Profile) Add(start, finish, count int) {
	if finish <= start {
		return
	}
	from := p.split(start)
	to := p.split(finish)
	for i := from; i < to; i++ {
		p.busy[i] += count
	}
}

// Peak returns the largest number of busy processors during [start, finish).
func (p *Profile) Peak(start, finish int) int {
	peak := 0
	for i := p.segment(start); i < len(p.times) && p.times[i] < finish; i++ {
		if p.busy[i] > peak {
			peak = p.busy[i]
		}
	}
	return peak
}

// Fits reports whether count more processors are free during [start, start+dur).
func (p *Profile) Fits(start, dur, count int) bool {
	return p.Peak(start, start+dur)+count <= p.capacity
}

// EarliestStart returns the first t >= ready at which count processors stay
// free for dur time units.
func (p *Profile) EarliestStart(ready, dur, count int) int {
	if p.Fits(ready, dur, count) {
		return ready
	}
	for i := p.segment(ready) + 1; i < len(p.times); i++ {
		if p.Fits(p.times[i], dur, count) {
			return p.times[i]
		}
	}
	// unreachable while count <= capacity: the last segment is always empty
	return p.times[len(p.times)-1]
}
