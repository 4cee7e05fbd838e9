package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/stage/internal/core/collision"
	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/event"
	"github.com/l1jgo/stage/internal/core/geom"
	"github.com/l1jgo/stage/internal/core/pubsub"
	coresys "github.com/l1jgo/stage/internal/core/system"
	"github.com/l1jgo/stage/internal/persist"
	"github.com/l1jgo/stage/internal/render"
)

type memStore struct {
	saved   map[uuid.UUID]persist.EntityRow
	deleted []uuid.UUID
	failDel bool
}

func newMemStore() *memStore { return &memStore{saved: map[uuid.UUID]persist.EntityRow{}} }

func (m *memStore) SaveAll(_ context.Context, rows []persist.EntityRow) error {
	for _, r := range rows {
		m.saved[r.ID] = r
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	if m.failDel {
		return errors.New("db down")
	}
	m.deleted = append(m.deleted, id)
	delete(m.saved, id)
	return nil
}

type memJournal struct {
	entries []persist.JournalEntry
}

func (j *memJournal) Append(_ context.Context, entries []persist.JournalEntry) error {
	j.entries = append(j.entries, entries...)
	return nil
}

func (j *memJournal) kinds() []string {
	out := make([]string, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, e.Kind)
	}
	return out
}

type countingCollector struct{ calls int }

func (c *countingCollector) Collect() int {
	c.calls++
	return 0
}

// stack wires every system over one world the way the binary does.
type stack struct {
	events  *event.Bus
	world   *entity.World
	runner  *coresys.Runner
	collide *CollisionSystem
	persist *PersistenceSystem
	render  *RenderSystem
	stats   *render.Stats
	store   *memStore
	journal *memJournal
}

func newStack(t *testing.T, saveEvery int) *stack {
	t.Helper()
	events := event.NewBus()
	bus := pubsub.New(nil)
	world := entity.NewWorld(&entity.Env{Bus: bus, Events: events})
	s := &stack{
		events:  events,
		world:   world,
		runner:  coresys.NewRunner(),
		stats:   &render.Stats{},
		store:   newMemStore(),
		journal: &memJournal{},
	}
	s.collide = NewCollisionSystem(world, collision.NewEngine(collision.Config{}, events, nil))
	s.persist = NewPersistenceSystem(world, events, s.store, s.journal, zap.NewNop(), saveEvery)
	s.render = NewRenderSystem(world, s.stats)

	// registration order is deliberately scrambled; phases decide
	s.runner.Register(NewCleanupSystem(world, nil, nil))
	s.runner.Register(s.persist)
	s.runner.Register(s.render)
	s.runner.Register(s.collide)
	s.runner.Register(NewUpdateSystem(world))
	s.runner.Register(NewEventDispatchSystem(events))
	return s
}

func (s *stack) ball(t *testing.T, name string, x float64) *entity.Entity {
	t.Helper()
	e := s.world.Spawn()
	e.Name = name
	e.SetPosition(geom.V(x, 0))
	require.NoError(t, e.AddComponent(component.New(component.NewCircleCollider(1))))
	require.NoError(t, e.AddComponent(component.New(component.NewCircleShape(1, 0))))
	return e
}

func TestUpdateSystemSkipsInactive(t *testing.T) {
	w := entity.NewWorld(nil)
	a, b := w.Spawn(), w.Spawn()
	va := component.NewAnimation([]string{"0", "1"}, 10*time.Millisecond, true)
	vb := component.NewAnimation([]string{"0", "1"}, 10*time.Millisecond, true)
	require.NoError(t, a.AddComponent(component.New(va)))
	require.NoError(t, b.AddComponent(component.New(vb)))
	b.Active = false

	sys := NewUpdateSystem(w)
	sys.Update(10 * time.Millisecond)
	require.Equal(t, 1, va.FrameIndex())
	require.Equal(t, 0, vb.FrameIndex())
	require.Equal(t, uint64(1), sys.Ticks())
}

func TestTickPipeline(t *testing.T) {
	s := newStack(t, 1)
	a := s.ball(t, "a", 0)
	b := s.ball(t, "b", 10)
	a.Persistent = true

	s.runner.Tick(time.Second / 60)
	require.Zero(t, s.collide.LastReport().Enter)
	require.Equal(t, 2, s.render.Drawn())
	require.Equal(t, 2, s.stats.Shapes, "stats reset every frame")

	b.SetPosition(geom.V(1, 0))
	s.runner.Tick(time.Second / 60)
	require.Equal(t, 2, s.collide.LastReport().Enter)
	require.Contains(t, s.store.saved, a.ID())
	require.NotContains(t, s.store.saved, b.ID())

	// collision events reach the journal one tick later
	s.runner.Tick(time.Second / 60)
	require.Equal(t, []string{"spawn", "spawn", "enter"}, s.journal.kinds())
	require.Equal(t, a.ID(), s.journal.entries[0].EntityA)
}

func TestDestroyedPersistentEntityIsDeleted(t *testing.T) {
	s := newStack(t, 1)
	a := s.ball(t, "a", 0)
	a.Persistent = true
	s.runner.Tick(0)
	require.Contains(t, s.store.saved, a.ID())

	a.Destroy()
	// destroy event delivered and flushed; cleanup drops the entity
	s.runner.Tick(0)
	_, ok := s.world.Get(a.ID())
	require.False(t, ok)
	require.Equal(t, []uuid.UUID{a.ID()}, s.store.deleted)
	require.NotContains(t, s.store.saved, a.ID())
}

func TestFailedDeleteIsRetried(t *testing.T) {
	s := newStack(t, 1)
	a := s.ball(t, "a", 0)
	a.Persistent = true
	s.store.failDel = true

	a.Destroy()
	s.runner.Tick(0)
	s.runner.Tick(0)
	require.Empty(t, s.store.deleted)

	s.store.failDel = false
	s.runner.Tick(0)
	require.Equal(t, []uuid.UUID{a.ID()}, s.store.deleted)
}

func TestSaveInterval(t *testing.T) {
	s := newStack(t, 3)
	a := s.ball(t, "a", 0)
	a.Persistent = true

	s.runner.Tick(0)
	s.runner.Tick(0)
	require.Empty(t, s.store.saved)
	s.runner.Tick(0)
	require.Len(t, s.store.saved, 1)
}

func TestCleanupCollectsScripts(t *testing.T) {
	w := entity.NewWorld(nil)
	e := w.Spawn()
	c := &countingCollector{}
	sys := NewCleanupSystem(w, c, nil)

	e.Destroy()
	require.Equal(t, 1, w.Len())
	sys.Update(0)
	require.Equal(t, 1, c.calls)
	require.Zero(t, w.Len())
}

func TestEventDispatchSystem(t *testing.T) {
	bus := event.NewBus()
	var seen int
	event.Subscribe(bus, func(event.EntitySpawned) { seen++ })
	sys := NewEventDispatchSystem(bus)

	event.Emit(bus, event.EntitySpawned{})
	require.Zero(t, seen)
	sys.Update(0)
	require.Equal(t, 1, seen)
	sys.Update(0)
	require.Equal(t, 1, sys.Dispatched())
}
