package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// JournalEntry records one engine event: a spawn, destroy, or collision
// transition.
type JournalEntry struct {
	Kind    string // "spawn", "destroy", "enter", "exit"
	EntityA uuid.UUID
	EntityB uuid.UUID // uuid.Nil when the event has one subject
	Detail  string
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Append atomically writes a batch of entries in a single transaction.
func (r *JournalRepo) Append(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.InTx(ctx, "journal", func(tx pgx.Tx) error {
		for _, e := range entries {
			var peer *uuid.UUID
			if e.EntityB != uuid.Nil {
				peer = &e.EntityB
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO entity_journal (kind, entity_a, entity_b, detail)
				 VALUES ($1, $2, $3, $4)`,
				e.Kind, e.EntityA, peer, e.Detail,
			); err != nil {
				return fmt.Errorf("journal insert: %w", err)
			}
		}
		return nil
	})
}

// Count returns the number of journal entries of kind.
func (r *JournalRepo) Count(ctx context.Context, kind string) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM entity_journal WHERE kind = $1`, kind,
	).Scan(&n)
	return n, err
}
