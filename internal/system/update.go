package system

import (
	"time"

	"github.com/l1jgo/stage/internal/core/entity"
	coresys "github.com/l1jgo/stage/internal/core/system"
)

// UpdateSystem advances every active entity by one frame. Phase 1 (Update).
// Entities spawned during the pass run from the next tick.
type UpdateSystem struct {
	world *entity.World
	ticks uint64
}

func NewUpdateSystem(world *entity.World) *UpdateSystem {
	return &UpdateSystem{world: world}
}

func (s *UpdateSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *UpdateSystem) Update(dt time.Duration) {
	s.ticks++
	for _, e := range s.world.Active() {
		e.Update(dt)
	}
}

// Ticks counts completed update passes.
func (s *UpdateSystem) Ticks() uint64 { return s.ticks }
