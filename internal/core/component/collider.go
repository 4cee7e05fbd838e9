package component

import "github.com/l1jgo/stage/internal/core/geom"

// ShapeKind selects the geometry of a collider or shape primitive.
type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota
	ShapeRect
)

func (s ShapeKind) String() string {
	if s == ShapeRect {
		return "rect"
	}
	return "circle"
}

// CollisionFunc is a Go-side collision callback. self is the collider
// component, peer the other entity.
type CollisionFunc func(self *Component, peer Owner)

// Collider participates in collision testing. Its world-space bounds are
// derived from the owner's position plus Offset and refreshed by the owner's
// position watcher.
type Collider struct {
	Shape  ShapeKind
	Radius float64   // ShapeCircle
	Size   geom.Vec2 // ShapeRect, centered on the anchor
	Offset geom.Vec2

	// Layer is the set of layers this collider sits on; Mask the layers it
	// collides with. Zero means all.
	Layer uint32
	Mask  uint32

	OnEnter CollisionFunc
	OnStay  CollisionFunc
	OnExit  CollisionFunc

	anchor     geom.Vec2
	bounds     geom.Rect
	recomputes int
}

func (*Collider) Kind() Kind { return KindCollider }
func (*Collider) sealed()    {}

// NewCircleCollider creates a circle collider centered on the owner.
func NewCircleCollider(radius float64) *Collider {
	return &Collider{Shape: ShapeCircle, Radius: radius}
}

// NewBoxCollider creates a w×h box centered on the owner.
func NewBoxCollider(w, h float64) *Collider {
	return &Collider{Shape: ShapeRect, Size: geom.V(w, h)}
}

// Recompute derives world-space bounds from the owner position.
func (c *Collider) Recompute(pos geom.Vec2) {
	c.anchor = pos.Add(c.Offset)
	switch c.Shape {
	case ShapeRect:
		half := c.Size.Scale(0.5)
		c.bounds = geom.Rect{Min: c.anchor.Sub(half), Max: c.anchor.Add(half)}
	default:
		c.bounds = c.circle().Bounds()
	}
	c.recomputes++
}

// Bounds is the world-space bounding box as of the last recompute.
func (c *Collider) Bounds() geom.Rect { return c.bounds }

// Center is the world-space anchor as of the last recompute.
func (c *Collider) Center() geom.Vec2 { return c.anchor }

// Recomputes counts bounds refreshes since creation.
func (c *Collider) Recomputes() int { return c.recomputes }

func (c *Collider) circle() geom.Circle {
	return geom.Circle{Center: c.anchor, Radius: c.Radius}
}

func (c *Collider) accepts(o *Collider) bool {
	return matches(c.Mask, o.Layer) && matches(o.Mask, c.Layer)
}

func matches(mask, layer uint32) bool {
	return mask == 0 || layer == 0 || mask&layer != 0
}

func (c *Collider) overlaps(o *Collider) bool {
	switch {
	case c.Shape == ShapeCircle && o.Shape == ShapeCircle:
		return c.circle().Overlaps(o.circle())
	case c.Shape == ShapeCircle:
		return c.circle().OverlapsRect(o.bounds)
	case o.Shape == ShapeCircle:
		return o.circle().OverlapsRect(c.bounds)
	default:
		return c.bounds.Overlaps(o.bounds)
	}
}

func (c *Collider) fire(self *Component, p Phase, peer Owner) {
	var fn CollisionFunc
	switch p {
	case PhaseEnter:
		fn = c.OnEnter
	case PhaseStay:
		fn = c.OnStay
	case PhaseExit:
		fn = c.OnExit
	}
	if fn != nil {
		fn(self, peer)
	}
}

func (c *Collider) document() map[string]any {
	doc := map[string]any{
		"shape":  c.Shape.String(),
		"offset": []float64{c.Offset.X, c.Offset.Y},
		"layer":  c.Layer,
		"mask":   c.Mask,
	}
	if c.Shape == ShapeRect {
		doc["size"] = []float64{c.Size.X, c.Size.Y}
	} else {
		doc["radius"] = c.Radius
	}
	return doc
}
