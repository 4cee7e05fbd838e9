package system

import (
	"time"

	"github.com/l1jgo/stage/internal/core/collision"
	"github.com/l1jgo/stage/internal/core/entity"
	coresys "github.com/l1jgo/stage/internal/core/system"
)

// CollisionSystem runs the collision pass once per tick, after every entity
// has moved. Phase 2 (Collision).
type CollisionSystem struct {
	world  *entity.World
	engine *collision.Engine
	last   collision.Report
}

func NewCollisionSystem(world *entity.World, engine *collision.Engine) *CollisionSystem {
	return &CollisionSystem{world: world, engine: engine}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhaseCollision }

// Update passes every live entity, active or not, so entities that were
// deactivated this frame still receive their exits.
func (s *CollisionSystem) Update(_ time.Duration) {
	s.last = s.engine.Detect(s.world.Live())
}

// LastReport is the result of the most recent pass.
func (s *CollisionSystem) LastReport() collision.Report { return s.last }
