package component

import "github.com/l1jgo/stage/internal/core/geom"

// Shape is a drawable primitive. It has no collision role; pair it with a
// Collider for that.
type Shape struct {
	Primitive ShapeKind
	Radius    float64
	Size      geom.Vec2
	Color     uint32 // 0xRRGGBBAA
	Filled    bool
}

func (*Shape) Kind() Kind { return KindShape }
func (*Shape) sealed()    {}

func NewCircleShape(radius float64, color uint32) *Shape {
	return &Shape{Primitive: ShapeCircle, Radius: radius, Color: color, Filled: true}
}

func NewRectShape(w, h float64, color uint32) *Shape {
	return &Shape{Primitive: ShapeRect, Size: geom.V(w, h), Color: color, Filled: true}
}

func (s *Shape) document() map[string]any {
	doc := map[string]any{
		"primitive": s.Primitive.String(),
		"color":     s.Color,
		"filled":    s.Filled,
	}
	if s.Primitive == ShapeRect {
		doc["size"] = []float64{s.Size.X, s.Size.Y}
	} else {
		doc["radius"] = s.Radius
	}
	return doc
}
