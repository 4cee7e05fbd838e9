package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/stage/internal/core/entity"
	coresys "github.com/l1jgo/stage/internal/core/system"
)

// Collector frees script instances dropped during the tick.
type Collector interface {
	Collect() int
}

// CleanupSystem collects dropped script handles, then flushes reclaimed
// entities out of the world. Phase 5 (Cleanup).
type CleanupSystem struct {
	world   *entity.World
	scripts Collector
	log     *zap.Logger
}

// NewCleanupSystem creates the system. scripts may be nil when no scripting
// runtime is loaded.
func NewCleanupSystem(world *entity.World, scripts Collector, log *zap.Logger) *CleanupSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &CleanupSystem{world: world, scripts: scripts, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	collected := 0
	if s.scripts != nil {
		collected = s.scripts.Collect()
	}
	if n := s.world.FlushReclaimed(); n > 0 || collected > 0 {
		s.log.Debug("cleanup", zap.Int("scripts", collected), zap.Int("entities", n))
	}
}
