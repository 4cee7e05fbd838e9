package system

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/event"
	coresys "github.com/l1jgo/stage/internal/core/system"
	"github.com/l1jgo/stage/internal/persist"
)

// EntityStore is the storage side of PersistenceSystem.
type EntityStore interface {
	SaveAll(ctx context.Context, rows []persist.EntityRow) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Journal records engine events.
type Journal interface {
	Append(ctx context.Context, entries []persist.JournalEntry) error
}

// PersistenceSystem periodically saves every live entity flagged Persistent,
// deletes the stored copy of persistent entities once destroyed, and
// journals spawn, destroy and collision events. Phase 4 (Persist).
type PersistenceSystem struct {
	world   *entity.World
	store   EntityStore
	journal Journal
	log     *zap.Logger

	tickCount int
	interval  int // auto-save every N ticks

	deleted []uuid.UUID
	entries []persist.JournalEntry
}

// NewPersistenceSystem subscribes to events and saves every intervalTicks
// ticks. journal may be nil.
func NewPersistenceSystem(world *entity.World, events *event.Bus, store EntityStore, journal Journal, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	s := &PersistenceSystem{
		world:    world,
		store:    store,
		journal:  journal,
		log:      log,
		interval: intervalTicks,
	}
	event.Subscribe(events, func(ev event.EntitySpawned) {
		s.record(persist.JournalEntry{Kind: "spawn", EntityA: ev.EntityID})
	})
	event.Subscribe(events, func(ev event.EntityDestroyed) {
		if ev.Persistent {
			s.deleted = append(s.deleted, ev.EntityID)
		}
		s.record(persist.JournalEntry{Kind: "destroy", EntityA: ev.EntityID, Detail: ev.Name})
	})
	event.Subscribe(events, func(ev event.CollisionEntered) {
		s.record(persist.JournalEntry{Kind: "enter", EntityA: ev.A, EntityB: ev.B, Detail: ev.Key})
	})
	event.Subscribe(events, func(ev event.CollisionExited) {
		s.record(persist.JournalEntry{Kind: "exit", EntityA: ev.A, EntityB: ev.B, Detail: ev.Key})
	})
	return s
}

func (s *PersistenceSystem) record(e persist.JournalEntry) {
	if s.journal != nil {
		s.entries = append(s.entries, e)
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush saves immediately. Called for graceful shutdown.
func (s *PersistenceSystem) Flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var rows []persist.EntityRow
	s.world.Each(func(e *entity.Entity) {
		if e.Persistent {
			rows = append(rows, persist.RowOf(e))
		}
	})
	if err := s.store.SaveAll(ctx, rows); err != nil {
		s.log.Error("save entities failed", zap.Int("count", len(rows)), zap.Error(err))
	} else if len(rows) > 0 {
		s.log.Debug("entities saved", zap.Int("count", len(rows)))
	}

	kept := s.deleted[:0]
	for _, id := range s.deleted {
		if err := s.store.Delete(ctx, id); err != nil {
			s.log.Error("delete entity failed", zap.Stringer("entity", id), zap.Error(err))
			kept = append(kept, id) // retry next flush
		}
	}
	s.deleted = kept

	if s.journal != nil && len(s.entries) > 0 {
		if err := s.journal.Append(ctx, s.entries); err != nil {
			s.log.Error("journal append failed", zap.Int("count", len(s.entries)), zap.Error(err))
			return
		}
		s.entries = s.entries[:0]
	}
}

// PendingJournal counts journal entries not yet written.
func (s *PersistenceSystem) PendingJournal() int { return len(s.entries) }
