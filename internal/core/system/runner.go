package system

import (
	"sort"
	"time"
)

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order. Not safe for concurrent use; the engine loop
// owns it.
type Runner struct {
	systems []System
	sorted  bool

	ticks    uint64
	lastTick time.Duration
	slowest  time.Duration
	now      func() time.Time
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
		now:     time.Now,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Len counts registered systems.
func (r *Runner) Len() int { return len(r.systems) }

// Tick runs every system once, Events first and Cleanup last.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	start := r.now()
	for _, s := range r.systems {
		s.Update(dt)
	}
	r.record(r.now().Sub(start))
}

// TickPhase runs only the systems of one phase. It does not count as a tick.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

func (r *Runner) record(took time.Duration) {
	r.ticks++
	r.lastTick = took
	if took > r.slowest {
		r.slowest = took
	}
}

// Ticks counts completed Tick calls.
func (r *Runner) Ticks() uint64 { return r.ticks }

// LastTick is the wall time the previous Tick took.
func (r *Runner) LastTick() time.Duration { return r.lastTick }

// Slowest is the longest Tick so far.
func (r *Runner) Slowest() time.Duration { return r.slowest }

func (r *Runner) ensureSorted() {
	if r.sorted {
		return
	}
	sort.SliceStable(r.systems, func(i, j int) bool {
		return r.systems[i].Phase() < r.systems[j].Phase()
	})
	r.sorted = true
}
