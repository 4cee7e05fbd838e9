// Package render holds headless component.Renderer implementations: a draw
// call counter and a character-cell canvas for debug dumps.
package render

import (
	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/geom"
)

// Stats counts draw submissions per variant. Reset it between frames.
type Stats struct {
	Sprites int
	Tiles   int // non-empty tiles across all maps
	Shapes  int
	Texts   int
}

var _ component.Renderer = (*Stats)(nil)

func (s *Stats) DrawSprite(geom.Vec2, *component.Visual) { s.Sprites++ }
func (s *Stats) DrawShape(geom.Vec2, *component.Shape)   { s.Shapes++ }
func (s *Stats) DrawText(geom.Vec2, *component.Text)     { s.Texts++ }

func (s *Stats) DrawTiles(_ geom.Vec2, m *component.TileMap) {
	for _, t := range m.Tiles {
		if t != 0 {
			s.Tiles++
		}
	}
}

// Total is the number of draw calls, counting each tile.
func (s *Stats) Total() int { return s.Sprites + s.Tiles + s.Shapes + s.Texts }

func (s *Stats) Reset() { *s = Stats{} }
