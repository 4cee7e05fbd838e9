// Package pubsub is the topic-based bus entities use to talk without holding
// references to each other. Delivery is synchronous and lands on the
// subscriber's script behaviors.
package pubsub

import (
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/l1jgo/stage/internal/core/contract"
	"github.com/l1jgo/stage/internal/core/entity"
)

// Subscription is one (topic, entity, handler) registration.
type Subscription struct {
	Topic   string
	Entity  *entity.Entity
	Handler string
}

// Bus maps topics to their subscribers. Mutated only from the game loop
// goroutine. No locks.
type Bus struct {
	topics map[string][]Subscription
	log    *zap.Logger
}

func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		topics: make(map[string][]Subscription, 32),
		log:    log,
	}
}

// Subscribe registers handler on e for topic, on both the bus and the
// entity. Re-subscribing the same triple is a no-op and reports false.
func (b *Bus) Subscribe(topic string, e *entity.Entity, handler string) bool {
	if !contract.Require(e != nil, "subscribe %q: nil entity", topic) {
		return false
	}
	if e.Destroyed() {
		return false
	}
	s := Subscription{Topic: topic, Entity: e, Handler: handler}
	if slices.Contains(b.topics[topic], s) {
		return false
	}
	b.topics[topic] = append(b.topics[topic], s)
	e.TrackSubscription(topic, handler)
	return true
}

// Unsubscribe removes the registration from both sides. A registration that
// does not exist reports false and changes nothing.
func (b *Bus) Unsubscribe(topic string, e *entity.Entity, handler string) bool {
	if e == nil {
		return false
	}
	subs := b.topics[topic]
	i := slices.Index(subs, Subscription{Topic: topic, Entity: e, Handler: handler})
	if i < 0 {
		return false
	}
	// Publish may still be walking the old slice; never mutate it in place.
	next := make([]Subscription, 0, len(subs)-1)
	next = append(next, subs[:i]...)
	next = append(next, subs[i+1:]...)
	if len(next) == 0 {
		delete(b.topics, topic)
	} else {
		b.topics[topic] = next
	}
	e.UntrackSubscription(topic, handler)
	return true
}

// UnsubscribeAll revokes every registration held by e.
func (b *Bus) UnsubscribeAll(e *entity.Entity) int {
	if e == nil {
		return 0
	}
	n := 0
	for _, s := range e.Subscriptions() {
		if b.Unsubscribe(s.Topic, e, s.Handler) {
			n++
		}
	}
	return n
}

// Publish delivers (topic, payload) to the named handler of every current
// subscriber. The subscriber set is fixed when Publish starts: handlers that
// subscribe or unsubscribe during delivery affect the next publish only.
// Publishing to a topic nobody listens to is a no-op. Returns the number of
// deliveries made.
func (b *Bus) Publish(topic string, payload any) int {
	subs := b.topics[topic]
	if len(subs) == 0 {
		return 0
	}
	snapshot := slices.Clone(subs)
	delivered := 0
	for _, s := range snapshot {
		if s.Entity.Destroyed() {
			continue
		}
		if err := s.Entity.Broadcast(s.Handler, topic, payload); err != nil {
			b.log.Warn("pubsub handler failed",
				zap.String("topic", topic),
				zap.String("handler", s.Handler),
				zap.Stringer("entity", s.Entity),
				zap.Error(err))
		}
		delivered++
	}
	return delivered
}

// Subscribers returns a copy of topic's registrations in subscription order.
func (b *Bus) Subscribers(topic string) []Subscription {
	return slices.Clone(b.topics[topic])
}

// Topics returns the topics with at least one subscriber, sorted.
func (b *Bus) Topics() []string {
	out := make([]string, 0, len(b.topics))
	for t := range b.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
