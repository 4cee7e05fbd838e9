package system

import (
	"time"

	"github.com/l1jgo/stage/internal/core/event"
	coresys "github.com/l1jgo/stage/internal/core/system"
)

// EventDispatchSystem delivers the engine events emitted last tick.
// Phase 0 (Events).
type EventDispatchSystem struct {
	bus        *event.Bus
	dispatched int
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.dispatched += s.bus.DispatchAll()
}

// Dispatched counts events delivered since start.
func (s *EventDispatchSystem) Dispatched() int { return s.dispatched }
