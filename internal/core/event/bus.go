package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered engine event queue. Events emitted in tick N are
// dispatched in tick N+1: SwapBuffers() then DispatchAll() are run at tick
// start by EventDispatchSystem. Unlike the pub/sub bus, nothing here reaches
// scripts; it feeds engine systems such as persistence and logging.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []queued
	back     []queued
	handlers map[reflect.Type][]func(any)
}

type queued struct {
	t  reflect.Type
	ev any
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]queued, 0, 64),
		back:     make([]queued, 0, 64),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Emit queues an event into the back buffer (dispatched next tick).
// A nil bus drops the event, so emitters need not check.
func Emit[T any](b *Bus, event T) {
	if b == nil {
		return
	}
	b.back = append(b.back, queued{t: reflect.TypeOf((*T)(nil)).Elem(), ev: event})
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Called once at tick start.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	clear(b.back)
	b.back = b.back[:0]
}

// DispatchAll delivers front-buffer events in emission order. Returns the
// number of events dispatched.
func (b *Bus) DispatchAll() int {
	for _, q := range b.front {
		for _, h := range b.handlers[q.t] {
			h(q.ev)
		}
	}
	return len(b.front)
}

// Pending counts events waiting for the next swap.
func (b *Bus) Pending() int { return len(b.back) }
