package component

import "github.com/l1jgo/stage/internal/core/geom"

// Renderer receives draw submissions. The core never touches a graphics API;
// the host application implements this.
type Renderer interface {
	DrawSprite(pos geom.Vec2, v *Visual)
	DrawTiles(pos geom.Vec2, m *TileMap)
	DrawShape(pos geom.Vec2, s *Shape)
	DrawText(pos geom.Vec2, t *Text)
}
