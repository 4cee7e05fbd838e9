package system

import (
	"time"

	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/entity"
	coresys "github.com/l1jgo/stage/internal/core/system"
)

// RenderSystem submits the draw list to a renderer, lowest DrawOrder first.
// A renderer with a Reset method is reset before each frame.
// Phase 3 (PostUpdate).
type RenderSystem struct {
	world    *entity.World
	renderer component.Renderer
	drawn    int
}

func NewRenderSystem(world *entity.World, r component.Renderer) *RenderSystem {
	return &RenderSystem{world: world, renderer: r}
}

func (s *RenderSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RenderSystem) Update(_ time.Duration) {
	if r, ok := s.renderer.(interface{ Reset() }); ok {
		r.Reset()
	}
	list := s.world.DrawList()
	for _, e := range list {
		e.Draw(s.renderer)
	}
	s.drawn = len(list)
}

// Drawn is the number of entities submitted last frame.
func (s *RenderSystem) Drawn() int { return s.drawn }
