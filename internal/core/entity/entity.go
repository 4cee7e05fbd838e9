// Package entity holds the scene graph aggregate: an identified entity that
// owns an ordered set of components, a watched position, tags, collision
// state buffers and its pub/sub subscriptions.
package entity

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/contract"
	"github.com/l1jgo/stage/internal/core/event"
	"github.com/l1jgo/stage/internal/core/geom"
	"github.com/l1jgo/stage/internal/core/lifetime"
	"github.com/l1jgo/stage/internal/core/watch"
)

var (
	// ErrCapacity is returned when an entity cannot grow its component set.
	ErrCapacity = errors.New("component capacity exceeded")
	// ErrDestroyed is returned, in resilient mode, for mutations of a
	// destroyed entity.
	ErrDestroyed = errors.New("entity destroyed")
	// ErrAttached is returned, in resilient mode, when the component already
	// belongs to an entity.
	ErrAttached = errors.New("component already attached")
)

// Unsubscriber is the part of the pub/sub bus an entity needs to revoke its
// own subscriptions on destroy.
type Unsubscriber interface {
	Unsubscribe(topic string, e *Entity, handler string) bool
}

// Env is the engine context entities are created in.
type Env struct {
	Bus    Unsubscriber
	Events *event.Bus
	Log    *zap.Logger

	// InitialComponents is the starting capacity of the component slice.
	InitialComponents int
	// MaxComponents caps components per entity. Zero means unbounded.
	MaxComponents int
}

func (env *Env) logger() *zap.Logger {
	if env == nil || env.Log == nil {
		return zap.NewNop()
	}
	return env.Log
}

// Subscription is the entity side of a pub/sub registration.
type Subscription struct {
	Topic   string
	Handler string
}

// Entity is a uniquely identified aggregate of components. Single-goroutine
// access only (game loop).
type Entity struct {
	Name       string
	DrawOrder  int
	Active     bool
	Visible    bool
	Persistent bool

	id        uuid.UUID
	env       *Env
	position  *watch.Subject[geom.Vec2]
	bounds    *boundsWatcher
	destroyed bool

	components []*component.Component
	tags       []string
	subs       []Subscription
	collisions buffers

	life *lifetime.Lifetime
}

// New creates an entity at the origin with a fresh identity, active and
// visible, with no components.
func New(env *Env) *Entity {
	return newEntity(env, nil)
}

func newEntity(env *Env, onReclaim func(*Entity)) *Entity {
	if env == nil {
		env = &Env{}
	}
	capacity := env.InitialComponents
	if capacity <= 0 {
		capacity = 4
	}
	e := &Entity{
		Active:     true,
		Visible:    true,
		id:         uuid.New(),
		env:        env,
		position:   watch.NewSubject(geom.Vec2{}),
		components: make([]*component.Component, 0, capacity),
		collisions: newBuffers(),
	}
	e.life = lifetime.New(func() {
		env.logger().Debug("entity reclaimed", zap.Stringer("entity", e.id))
		if onReclaim != nil {
			onReclaim(e)
		}
	})
	e.bounds = &boundsWatcher{e: e}
	e.position.Add(e.bounds)
	return e
}

func (e *Entity) ID() uuid.UUID                { return e.id }
func (e *Entity) Lifetime() *lifetime.Lifetime { return e.life }
func (e *Entity) Destroyed() bool              { return e.destroyed }

func (e *Entity) String() string {
	if e.Name != "" {
		return e.Name + "#" + e.id.String()
	}
	return e.id.String()
}

// --- Position ---

func (e *Entity) Position() geom.Vec2 { return e.position.Get() }

// SetPosition moves the entity; collider bounds follow through the position
// watcher.
func (e *Entity) SetPosition(p geom.Vec2) { e.position.Set(p) }

// Translate moves the entity by d.
func (e *Entity) Translate(d geom.Vec2) {
	e.position.Update(func(p *geom.Vec2) { *p = p.Add(d) })
}

// PositionSubject exposes the watched position for additional observers.
func (e *Entity) PositionSubject() *watch.Subject[geom.Vec2] { return e.position }

// boundsWatcher keeps collider bounds in sync with the entity position.
// Inactive colliders are recomputed too, so re-enabling one never exposes
// bounds from an older position.
type boundsWatcher struct {
	e *Entity
}

func (w *boundsWatcher) Changed(*watch.Subject[geom.Vec2]) { w.e.RefreshBounds() }

// RefreshBounds recomputes every collider, active or not. The position
// watcher calls it; call it directly after changing a collider's shape.
func (e *Entity) RefreshBounds() {
	pos := e.Position()
	for _, c := range e.components {
		if col, ok := c.Collider(); ok {
			col.Recompute(pos)
		}
	}
}

// --- Components ---

// AddComponent appends c; colliders get their bounds computed immediately.
func (e *Entity) AddComponent(c *component.Component) error {
	if !contract.Require(c != nil, "entity %s: add nil component", e.id) {
		return fmt.Errorf("add component to %s: nil component", e.id)
	}
	if !contract.Require(!e.destroyed, "entity %s: add component to destroyed entity", e.id) {
		return fmt.Errorf("add component %s: %w", c.ID, ErrDestroyed)
	}
	if limit := e.env.MaxComponents; limit > 0 && len(e.components) >= limit {
		return fmt.Errorf("add component %s to %s (max %d): %w", c.ID, e.id, limit, ErrCapacity)
	}
	if !c.Attach(e) {
		return fmt.Errorf("add component %s: %w", c.ID, ErrAttached)
	}
	e.components = append(e.components, c)
	return nil
}

// RemoveComponent detaches and releases the component with the given id,
// preserving the order of the rest. Reports false if no such component.
func (e *Entity) RemoveComponent(id uuid.UUID) bool {
	i := e.FindComponentIndex(id)
	if i < 0 {
		return false
	}
	c := e.components[i]
	e.components = slices.Delete(e.components, i, i+1)
	c.Release()
	return true
}

// FindComponentIndex returns the index of the component with id, or -1.
func (e *Entity) FindComponentIndex(id uuid.UUID) int {
	for i, c := range e.components {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Component returns the component with id.
func (e *Entity) Component(id uuid.UUID) (*component.Component, bool) {
	if i := e.FindComponentIndex(id); i >= 0 {
		return e.components[i], true
	}
	return nil, false
}

// Components returns the components in insertion order. The slice is
// owned by the entity; do not modify it.
func (e *Entity) Components() []*component.Component { return e.components }

// ComponentsOf returns the components of kind k in insertion order.
func (e *Entity) ComponentsOf(k component.Kind) []*component.Component {
	var out []*component.Component
	for _, c := range e.components {
		if c.Kind() == k {
			out = append(out, c)
		}
	}
	return out
}

// ActiveColliders returns the active collider components.
func (e *Entity) ActiveColliders() []*component.Component {
	var out []*component.Component
	for _, c := range e.components {
		if c.Active && c.Kind() == component.KindCollider {
			out = append(out, c)
		}
	}
	return out
}

// HasActiveCollider reports whether any collider component is active.
func (e *Entity) HasActiveCollider() bool {
	for _, c := range e.components {
		if c.Active && c.Kind() == component.KindCollider {
			return true
		}
	}
	return false
}

// --- Frame ---

// Update runs every active component in insertion order. Components added
// or removed by a script during the pass take effect next frame.
func (e *Entity) Update(dt time.Duration) {
	if e.destroyed || !e.Active {
		return
	}
	for _, c := range slices.Clone(e.components) {
		if e.destroyed {
			return
		}
		c.Update(dt)
	}
}

// Draw submits every active component when the entity is visible and active.
func (e *Entity) Draw(r component.Renderer) {
	if e.destroyed || !e.Active || !e.Visible {
		return
	}
	for _, c := range e.components {
		c.Draw(r)
	}
}

// Broadcast dispatches a named handler to every active script component.
// The first script error is returned after all scripts ran.
func (e *Entity) Broadcast(handler string, args ...any) error {
	if e.destroyed {
		return nil
	}
	var first error
	for _, c := range slices.Clone(e.components) {
		if err := c.Dispatch(handler, args...); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NotifyCollision forwards a collision transition to every component.
func (e *Entity) NotifyCollision(p component.Phase, peer *Entity) {
	if e.destroyed {
		return
	}
	for _, c := range slices.Clone(e.components) {
		c.NotifyCollision(p, peer)
	}
}

// --- Subscriptions ---

// TrackSubscription records a registration made on the bus. Duplicates are
// rejected.
func (e *Entity) TrackSubscription(topic, handler string) bool {
	if e.destroyed {
		return false
	}
	s := Subscription{Topic: topic, Handler: handler}
	if slices.Contains(e.subs, s) {
		return false
	}
	e.subs = append(e.subs, s)
	return true
}

// UntrackSubscription forgets a registration. Missing ones report false.
func (e *Entity) UntrackSubscription(topic, handler string) bool {
	i := slices.Index(e.subs, Subscription{Topic: topic, Handler: handler})
	if i < 0 {
		return false
	}
	e.subs = slices.Delete(e.subs, i, i+1)
	return true
}

// Subscriptions returns a copy of the active registrations.
func (e *Entity) Subscriptions() []Subscription { return slices.Clone(e.subs) }

// --- Destruction ---

// Destroy revokes every subscription, releases every component, drops the
// collision buffers and position watchers, and marks the entity destroyed.
// Native memory is reclaimed now, or once the scripting runtime lets go of
// its last handle. Calling Destroy twice is a no-op.
func (e *Entity) Destroy() {
	if e.destroyed {
		return
	}
	for _, s := range slices.Clone(e.subs) {
		if e.env.Bus != nil {
			e.env.Bus.Unsubscribe(s.Topic, e, s.Handler)
		}
	}
	e.subs = nil

	for _, c := range e.components {
		c.Release()
	}
	e.components = nil

	e.collisions.reset()
	e.position.Clear()
	e.destroyed = true
	e.Active = false

	e.env.logger().Debug("entity destroyed", zap.Stringer("entity", e.id), zap.String("name", e.Name))
	event.Emit(e.env.Events, event.EntityDestroyed{EntityID: e.id, Name: e.Name, Persistent: e.Persistent})
	e.life.Destroy()
}

// Document exposes the entity as a plain key-value map.
func (e *Entity) Document() map[string]any {
	pos := e.Position()
	comps := make([]map[string]any, 0, len(e.components))
	for _, c := range e.components {
		comps = append(comps, c.Document())
	}
	return map[string]any{
		"id":         e.id.String(),
		"name":       e.Name,
		"position":   []float64{pos.X, pos.Y},
		"draw_order": e.DrawOrder,
		"active":     e.Active,
		"visible":    e.Visible,
		"persistent": e.Persistent,
		"tags":       e.Tags(),
		"components": comps,
	}
}
