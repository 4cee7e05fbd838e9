// Package lifetime decouples logical destruction of an object from the
// moment its native resources are reclaimed.
//
// An object starts Native: destroying it reclaims at once. Once the scripting
// runtime takes a handle (Retain) it becomes RuntimeShared and reclamation
// waits until every handle has been released.
package lifetime

import "github.com/l1jgo/stage/internal/core/contract"

// Mode is the ownership state.
type Mode uint8

const (
	Native        Mode = iota // owned by the engine alone
	RuntimeShared             // the scripting runtime holds handles
)

func (m Mode) String() string {
	switch m {
	case Native:
		return "native"
	case RuntimeShared:
		return "runtime_shared"
	}
	return "unknown"
}

// Lifetime tracks ownership for one object. Zero value is not usable; use New.
type Lifetime struct {
	mode      Mode
	refs      int
	destroyed bool
	reclaimed bool
	reclaim   func()
}

// New creates a Native lifetime. reclaim runs exactly once, when the object
// is destroyed and no runtime handle remains.
func New(reclaim func()) *Lifetime {
	return &Lifetime{reclaim: reclaim}
}

func (l *Lifetime) Mode() Mode      { return l.mode }
func (l *Lifetime) Refs() int       { return l.refs }
func (l *Lifetime) Destroyed() bool { return l.destroyed }
func (l *Lifetime) Reclaimed() bool { return l.reclaimed }

// Retain records a runtime handle.
func (l *Lifetime) Retain() {
	if !contract.Require(!l.reclaimed, "retain after reclaim") {
		return
	}
	l.mode = RuntimeShared
	l.refs++
}

// Release drops a runtime handle. The last release of a destroyed object
// reclaims it. Reports whether reclamation happened.
func (l *Lifetime) Release() bool {
	if !contract.Require(l.mode == RuntimeShared && l.refs > 0, "release without retain") {
		return false
	}
	l.refs--
	if l.refs == 0 {
		l.mode = Native
	}
	return l.tryReclaim()
}

// Destroy marks logical destruction. Reports whether the object was
// reclaimed immediately.
func (l *Lifetime) Destroy() bool {
	if l.destroyed {
		return false
	}
	l.destroyed = true
	return l.tryReclaim()
}

func (l *Lifetime) tryReclaim() bool {
	if !l.destroyed || l.reclaimed {
		return false
	}
	switch l.mode {
	case Native:
		l.reclaimed = true
		if l.reclaim != nil {
			l.reclaim()
		}
		return true
	case RuntimeShared:
		return false
	}
	contract.Require(false, "unknown lifetime mode %d", l.mode)
	return false
}
