package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type probe struct {
	name  string
	phase Phase
	log   *[]string
}

func (p probe) Phase() Phase { return p.phase }

func (p probe) Update(time.Duration) { *p.log = append(*p.log, p.name) }

func TestRunnerOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(probe{"cleanup", PhaseCleanup, &log})
	r.Register(probe{"collide", PhaseCollision, &log})
	r.Register(probe{"update-a", PhaseUpdate, &log})
	r.Register(probe{"events", PhaseEvents, &log})
	r.Register(probe{"update-b", PhaseUpdate, &log})
	require.Equal(t, 5, r.Len())

	r.Tick(time.Second / 60)
	require.Equal(t, []string{"events", "update-a", "update-b", "collide", "cleanup"}, log)

	log = nil
	r.TickPhase(PhaseUpdate, 0)
	require.Equal(t, []string{"update-a", "update-b"}, log)
}

func TestPhaseString(t *testing.T) {
	require.Equal(t, "collision", PhaseCollision.String())
	require.Equal(t, "unknown", Phase(42).String())
}

func TestRunnerTiming(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(probe{"u", PhaseUpdate, &log})

	clock := time.Unix(0, 0)
	steps := []time.Duration{3 * time.Millisecond, time.Millisecond}
	r.now = func() time.Time { return clock }
	r.Register(stepper{func() {
		clock = clock.Add(steps[0])
		steps = steps[1:]
	}})

	r.Tick(0)
	r.Tick(0)
	require.Equal(t, uint64(2), r.Ticks())
	require.Equal(t, time.Millisecond, r.LastTick())
	require.Equal(t, 3*time.Millisecond, r.Slowest())

	r.TickPhase(PhaseUpdate, 0)
	require.Equal(t, uint64(2), r.Ticks())
}

// stepper advances a fake clock from inside a tick.
type stepper struct{ step func() }

func (stepper) Phase() Phase { return PhaseCleanup }

func (s stepper) Update(time.Duration) { s.step() }
