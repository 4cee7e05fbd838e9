// Package component defines the closed set of component variants an entity
// can carry and the dispatch over them.
//
// The variant set is fixed. Every dispatch site is a type switch over the
// sealed Variant interface and treats an unknown variant as a contract
// violation, so adding a variant means visiting each switch in this package.
package component

import (
	"time"

	"github.com/google/uuid"

	"github.com/l1jgo/stage/internal/core/contract"
	"github.com/l1jgo/stage/internal/core/geom"
	"github.com/l1jgo/stage/internal/core/lifetime"
)

// Kind is the component type tag.
type Kind uint8

const (
	KindCollider Kind = iota
	KindVisual
	KindTileMap
	KindShape
	KindText
	KindScript
)

var kindNames = [...]string{
	KindCollider: "collider",
	KindVisual:   "visual",
	KindTileMap:  "tilemap",
	KindShape:    "shape",
	KindText:     "text",
	KindScript:   "script",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind maps a type tag name back to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// Owner is the non-owning back-reference from a component to its entity.
type Owner interface {
	ID() uuid.UUID
	Position() geom.Vec2
	Lifetime() *lifetime.Lifetime
}

// Variant is the per-kind payload. It is sealed: only types in this package
// implement it.
type Variant interface {
	Kind() Kind
	sealed()
}

// Component is a typed behavior/data unit attached to at most one entity.
type Component struct {
	ID     uuid.UUID
	Active bool

	owner Owner
	v     Variant
}

// New wraps a variant payload in an active, unattached component.
func New(v Variant) *Component {
	if !contract.Require(v != nil, "component: nil variant") {
		return nil
	}
	return &Component{ID: uuid.New(), Active: true, v: v}
}

func (c *Component) Kind() Kind       { return c.v.Kind() }
func (c *Component) Variant() Variant { return c.v }
func (c *Component) Owner() Owner     { return c.owner }

// Collider returns the collider payload if c is a collider.
func (c *Component) Collider() (*Collider, bool) {
	v, ok := c.v.(*Collider)
	return v, ok
}

// Script returns the script payload if c is a script behavior.
func (c *Component) Script() (*Script, bool) {
	v, ok := c.v.(*Script)
	return v, ok
}

// Attach binds the component to its owner. A component already owned by
// another entity is a contract violation.
func (c *Component) Attach(o Owner) bool {
	if !contract.Require(o != nil, "component %s: attach to nil owner", c.ID) {
		return false
	}
	if !contract.Require(c.owner == nil, "component %s: already attached to %s", c.ID, ownerID(c.owner)) {
		return false
	}
	c.owner = o
	switch v := c.v.(type) {
	case *Collider:
		v.Recompute(o.Position())
	case *Script:
		v.bind(o)
	case *Visual, *TileMap, *Shape, *Text:
	default:
		return contract.Require(false, "component %s: unknown variant %T", c.ID, c.v)
	}
	return true
}

// Release tears the component down after it has been detached or its owner
// destroyed. Script handles go back to the runtime.
func (c *Component) Release() {
	switch v := c.v.(type) {
	case *Script:
		v.drop()
	case *Collider:
		v.OnEnter, v.OnStay, v.OnExit = nil, nil, nil
	case *Visual, *TileMap, *Shape, *Text:
	default:
		contract.Require(false, "component %s: unknown variant %T", c.ID, c.v)
	}
	c.owner = nil
}

// Update advances the component by dt. Inactive components are skipped.
func (c *Component) Update(dt time.Duration) {
	if !c.Active {
		return
	}
	switch v := c.v.(type) {
	case *Visual:
		v.advance(dt)
	case *Script:
		v.call(c.owner, HandlerUpdate, dt.Seconds())
	case *Collider, *TileMap, *Shape, *Text:
	default:
		contract.Require(false, "component %s: unknown variant %T", c.ID, c.v)
	}
}

// Draw submits the component to r at the owner's position. Inactive
// components and non-visual variants draw nothing.
func (c *Component) Draw(r Renderer) {
	if !c.Active || c.owner == nil {
		return
	}
	pos := c.owner.Position()
	switch v := c.v.(type) {
	case *Visual:
		r.DrawSprite(pos, v)
	case *TileMap:
		r.DrawTiles(pos, v)
	case *Shape:
		r.DrawShape(pos, v)
	case *Text:
		r.DrawText(pos, v)
	case *Collider, *Script:
	default:
		contract.Require(false, "component %s: unknown variant %T", c.ID, c.v)
	}
}

// DetectCollision tests two collider components. Either side being
// inactive, or not a collider, reports false.
func DetectCollision(a, b *Component) bool {
	if !contract.Require(a != nil && b != nil, "detect collision: nil component") {
		return false
	}
	if !a.Active || !b.Active {
		return false
	}
	ca, ok := a.Collider()
	if !ok {
		return false
	}
	cb, ok := b.Collider()
	if !ok {
		return false
	}
	return ca.accepts(cb) && ca.overlaps(cb)
}

// Dispatch invokes a named handler on a script component with args. Non-script
// and inactive components ignore it.
func (c *Component) Dispatch(handler string, args ...any) error {
	if !c.Active {
		return nil
	}
	s, ok := c.Script()
	if !ok {
		return nil
	}
	return s.call(c.owner, handler, args...)
}

// Phase identifies a collision transition.
type Phase uint8

const (
	PhaseEnter Phase = iota
	PhaseStay
	PhaseExit
)

func (p Phase) String() string {
	switch p {
	case PhaseEnter:
		return "enter"
	case PhaseStay:
		return "stay"
	case PhaseExit:
		return "exit"
	}
	return "unknown"
}

// Handler names dispatched to script behaviors by the engine.
const (
	HandlerUpdate         = "update"
	HandlerCollisionEnter = "on_collision_enter"
	HandlerCollisionStay  = "on_collision_stay"
	HandlerCollisionExit  = "on_collision_exit"
)

// NotifyCollision delivers a collision transition against peer. Colliders
// run their Go callbacks; scripts get the matching on_collision_* handler.
func (c *Component) NotifyCollision(p Phase, peer Owner) {
	if !c.Active {
		return
	}
	switch v := c.v.(type) {
	case *Collider:
		v.fire(c, p, peer)
	case *Script:
		v.call(c.owner, collisionHandler(p), peer)
	case *Visual, *TileMap, *Shape, *Text:
	default:
		contract.Require(false, "component %s: unknown variant %T", c.ID, c.v)
	}
}

func collisionHandler(p Phase) string {
	switch p {
	case PhaseEnter:
		return HandlerCollisionEnter
	case PhaseStay:
		return HandlerCollisionStay
	}
	return HandlerCollisionExit
}

// Document exposes the component as a plain key-value map.
func (c *Component) Document() map[string]any {
	doc := map[string]any{
		"id":     c.ID.String(),
		"type":   c.Kind().String(),
		"active": c.Active,
	}
	switch v := c.v.(type) {
	case *Collider:
		doc["payload"] = v.document()
	case *Visual:
		doc["payload"] = v.document()
	case *TileMap:
		doc["payload"] = v.document()
	case *Shape:
		doc["payload"] = v.document()
	case *Text:
		doc["payload"] = v.document()
	case *Script:
		doc["payload"] = v.document()
	default:
		contract.Require(false, "component %s: unknown variant %T", c.ID, c.v)
	}
	return doc
}

func ownerID(o Owner) string {
	if o == nil {
		return "<none>"
	}
	return o.ID().String()
}
