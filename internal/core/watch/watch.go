// Package watch is the subject/observer primitive used to keep derived state
// in sync with a mutable source value.
package watch

// Watcher is notified after its subject's value changes. The registration
// identity is the watcher value itself, so implementations should use
// pointer receivers.
type Watcher[T any] interface {
	Changed(s *Subject[T])
}

// WatcherFunc adapts a function to Watcher. Register it by pointer
// (&fn) so Add and Remove can match it.
type WatcherFunc[T any] func(s *Subject[T])

func (f *WatcherFunc[T]) Changed(s *Subject[T]) { (*f)(s) }

// Subject holds a value and the ordered watchers that observe it.
// Single-goroutine access only (game loop).
type Subject[T any] struct {
	value    T
	watchers []Watcher[T]
}

// NewSubject creates a subject holding v with no watchers.
func NewSubject[T any](v T) *Subject[T] {
	return &Subject[T]{value: v}
}

func (s *Subject[T]) Get() T { return s.value }

// Set stores v and notifies every watcher once.
func (s *Subject[T]) Set(v T) {
	s.value = v
	s.Notify()
}

// Update mutates the value in place and notifies every watcher once.
func (s *Subject[T]) Update(fn func(v *T)) {
	fn(&s.value)
	s.Notify()
}

// Add registers w. An identical registration is rejected so a watcher is
// never notified twice for one change.
func (s *Subject[T]) Add(w Watcher[T]) bool {
	if w == nil {
		return false
	}
	for _, cur := range s.watchers {
		if cur == w {
			return false
		}
	}
	s.watchers = append(s.watchers, w)
	return true
}

// Remove drops the first registration equal to w, keeping the order of the
// rest. Reports whether anything was removed.
func (s *Subject[T]) Remove(w Watcher[T]) bool {
	for i, cur := range s.watchers {
		if cur == w {
			copy(s.watchers[i:], s.watchers[i+1:])
			s.watchers[len(s.watchers)-1] = nil
			s.watchers = s.watchers[:len(s.watchers)-1]
			return true
		}
	}
	return false
}

// Clear drops every registration.
func (s *Subject[T]) Clear() {
	clear(s.watchers)
	s.watchers = s.watchers[:0]
}

// Len returns the number of registered watchers.
func (s *Subject[T]) Len() int { return len(s.watchers) }

// Notify calls every watcher in registration order. It walks a snapshot, so
// watchers added or removed from inside a callback take effect on the next
// notification.
func (s *Subject[T]) Notify() {
	if len(s.watchers) == 0 {
		return
	}
	snapshot := make([]Watcher[T], len(s.watchers))
	copy(snapshot, s.watchers)
	for _, w := range snapshot {
		w.Changed(s)
	}
}
