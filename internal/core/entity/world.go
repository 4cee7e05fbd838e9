package entity

import (
	"sort"

	"github.com/google/uuid"

	"github.com/l1jgo/stage/internal/core/event"
)

// World is the top-level entity container. It keeps entities in creation
// order and a reclaim queue flushed by CleanupSystem each tick: destroyed
// entities stay listed until their native memory may be reclaimed.
type World struct {
	env          *Env
	entities     []*Entity
	index        map[uuid.UUID]*Entity
	reclaimQueue []*Entity
}

func NewWorld(env *Env) *World {
	if env == nil {
		env = &Env{}
	}
	return &World{
		env:          env,
		entities:     make([]*Entity, 0, 256),
		index:        make(map[uuid.UUID]*Entity, 256),
		reclaimQueue: make([]*Entity, 0, 64),
	}
}

func (w *World) Env() *Env { return w.env }

// Spawn creates and registers a new entity.
func (w *World) Spawn() *Entity {
	e := newEntity(w.env, w.queueReclaim)
	w.entities = append(w.entities, e)
	w.index[e.id] = e
	event.Emit(w.env.Events, event.EntitySpawned{EntityID: e.id})
	return e
}

func (w *World) queueReclaim(e *Entity) {
	w.reclaimQueue = append(w.reclaimQueue, e)
}

// Get returns a registered entity, including destroyed ones awaiting
// reclamation.
func (w *World) Get(id uuid.UUID) (*Entity, bool) {
	e, ok := w.index[id]
	return e, ok
}

// Len counts registered entities.
func (w *World) Len() int { return len(w.entities) }

// Each calls fn for every live entity in creation order.
func (w *World) Each(fn func(*Entity)) {
	for _, e := range w.entities {
		if !e.destroyed {
			fn(e)
		}
	}
}

// Live returns every entity not yet destroyed, in creation order.
func (w *World) Live() []*Entity {
	out := make([]*Entity, 0, len(w.entities))
	w.Each(func(e *Entity) { out = append(out, e) })
	return out
}

// Active returns the live, active entities in creation order.
func (w *World) Active() []*Entity {
	out := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		if !e.destroyed && e.Active {
			out = append(out, e)
		}
	}
	return out
}

// WithTag returns live entities carrying tag.
func (w *World) WithTag(tag string) []*Entity {
	var out []*Entity
	w.Each(func(e *Entity) {
		if e.HasTag(tag) {
			out = append(out, e)
		}
	})
	return out
}

// DrawList returns the entities to render, sorted by DrawOrder. Ties keep
// creation order.
func (w *World) DrawList() []*Entity {
	out := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		if !e.destroyed && e.Active && e.Visible {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DrawOrder < out[j].DrawOrder })
	return out
}

// FlushReclaimed unregisters every reclaimed entity. Called by
// CleanupSystem at the end of each tick. Returns how many were removed.
func (w *World) FlushReclaimed() int {
	if len(w.reclaimQueue) == 0 {
		return 0
	}
	n := 0
	for _, e := range w.reclaimQueue {
		if _, ok := w.index[e.id]; ok {
			delete(w.index, e.id)
			n++
		}
	}
	w.reclaimQueue = w.reclaimQueue[:0]
	kept := w.entities[:0]
	for _, e := range w.entities {
		if _, ok := w.index[e.id]; ok {
			kept = append(kept, e)
		}
	}
	clear(w.entities[len(kept):])
	w.entities = kept
	return n
}
