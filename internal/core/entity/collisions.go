package entity

import "sort"

// buffers is the double-buffered collision state: pair key → peer.
type buffers struct {
	current  map[string]*Entity
	previous map[string]*Entity
}

func newBuffers() buffers {
	return buffers{
		current:  make(map[string]*Entity, 4),
		previous: make(map[string]*Entity, 4),
	}
}

func (b *buffers) reset() {
	clear(b.current)
	clear(b.previous)
}

// MarkCollision records an overlap with peer under key for this frame.
// A key already marked this frame reports false.
func (e *Entity) MarkCollision(key string, peer *Entity) bool {
	if _, ok := e.collisions.current[key]; ok {
		return false
	}
	e.collisions.current[key] = peer
	return true
}

// Contact is one pair key with the peer recorded under it.
type Contact struct {
	Key  string
	Peer *Entity
}

// CollisionDiff lists the contacts that entered (current only), stayed
// (both) and exited (previous only) this frame, each sorted by key. Peers are
// captured up front, so the result stays valid if a handler destroys e.
func (e *Entity) CollisionDiff() (entered, stayed, exited []Contact) {
	for k, p := range e.collisions.current {
		if _, ok := e.collisions.previous[k]; ok {
			stayed = append(stayed, Contact{Key: k, Peer: p})
		} else {
			entered = append(entered, Contact{Key: k, Peer: p})
		}
	}
	for k, p := range e.collisions.previous {
		if _, ok := e.collisions.current[k]; !ok {
			exited = append(exited, Contact{Key: k, Peer: p})
		}
	}
	sortContacts(entered)
	sortContacts(stayed)
	sortContacts(exited)
	return entered, stayed, exited
}

func sortContacts(cs []Contact) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Key < cs[j].Key })
}

// CurrentPeer returns the peer recorded under key this frame.
func (e *Entity) CurrentPeer(key string) *Entity { return e.collisions.current[key] }

// PreviousPeer returns the peer recorded under key last frame.
func (e *Entity) PreviousPeer(key string) *Entity { return e.collisions.previous[key] }

// SwapCollisions makes this frame's state the previous state and starts an
// empty current state. Keys are never carried over.
func (e *Entity) SwapCollisions() {
	b := &e.collisions
	b.previous, b.current = b.current, b.previous
	clear(b.current)
}

// CurrentCollisions returns a copy of this frame's pair keys.
func (e *Entity) CurrentCollisions() map[string]*Entity { return copyBuf(e.collisions.current) }

// PreviousCollisions returns a copy of last frame's pair keys.
func (e *Entity) PreviousCollisions() map[string]*Entity { return copyBuf(e.collisions.previous) }

// CollidingWith reports whether peer was overlapping as of the last pass.
func (e *Entity) CollidingWith(peer *Entity) bool {
	for _, p := range e.collisions.previous {
		if p == peer {
			return true
		}
	}
	return false
}

func copyBuf(m map[string]*Entity) map[string]*Entity {
	out := make(map[string]*Entity, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
