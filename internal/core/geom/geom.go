// Package geom holds the few 2D primitives the core needs for collision
// bounds. It is not a general math library.
package geom

import "math"

type Vec2 struct {
	X, Y float64
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }

func (v Vec2) DistSq(o Vec2) float64 {
	d := v.Sub(o)
	return d.X*d.X + d.Y*d.Y
}

// Rect is an axis-aligned box. Min is inclusive, Max exclusive for tiling,
// but overlap tests treat touching edges as overlapping.
type Rect struct {
	Min, Max Vec2
}

// RectAt builds a rect from its top-left corner and size.
func RectAt(x, y, w, h float64) Rect {
	return Rect{Min: Vec2{x, y}, Max: Vec2{x + w, y + h}}
}

func (r Rect) W() float64 { return r.Max.X - r.Min.X }
func (r Rect) H() float64 { return r.Max.Y - r.Min.Y }

func (r Rect) Translate(d Vec2) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X &&
		r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Clamp returns the point inside r closest to p.
func (r Rect) Clamp(p Vec2) Vec2 {
	return Vec2{
		X: math.Max(r.Min.X, math.Min(p.X, r.Max.X)),
		Y: math.Max(r.Min.Y, math.Min(p.Y, r.Max.Y)),
	}
}

type Circle struct {
	Center Vec2
	Radius float64
}

func (c Circle) Overlaps(o Circle) bool {
	rs := c.Radius + o.Radius
	return c.Center.DistSq(o.Center) <= rs*rs
}

func (c Circle) OverlapsRect(r Rect) bool {
	return c.Center.DistSq(r.Clamp(c.Center)) <= c.Radius*c.Radius
}

// Bounds is the enclosing rect of the circle.
func (c Circle) Bounds() Rect {
	return Rect{
		Min: Vec2{c.Center.X - c.Radius, c.Center.Y - c.Radius},
		Max: Vec2{c.Center.X + c.Radius, c.Center.Y + c.Radius},
	}
}
