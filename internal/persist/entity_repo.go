package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/l1jgo/stage/internal/core/entity"
)

// EntityRow is one persisted entity document.
type EntityRow struct {
	ID      uuid.UUID
	Name    string
	Doc     map[string]any
	SavedAt time.Time
}

// RowOf captures the current state of e.
func RowOf(e *entity.Entity) EntityRow {
	return EntityRow{ID: e.ID(), Name: e.Name, Doc: e.Document()}
}

type EntityRepo struct {
	db *DB
}

func NewEntityRepo(db *DB) *EntityRepo {
	return &EntityRepo{db: db}
}

// SaveAll upserts every row in a single transaction.
func (r *EntityRepo) SaveAll(ctx context.Context, rows []EntityRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		doc, err := json.Marshal(row.Doc)
		if err != nil {
			return fmt.Errorf("encode entity %s: %w", row.ID, err)
		}
		batch.Queue(
			`INSERT INTO entities (id, name, doc, saved_at)
			 VALUES ($1, $2, $3, now())
			 ON CONFLICT (id) DO UPDATE
			 SET name = EXCLUDED.name, doc = EXCLUDED.doc, saved_at = now()`,
			row.ID, row.Name, doc,
		)
	}
	return r.db.InTx(ctx, "save entities", func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save entities: %w", err)
		}
		return nil
	})
}

// LoadAll returns every stored entity, oldest save first.
func (r *EntityRepo) LoadAll(ctx context.Context) ([]EntityRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, name, doc, saved_at FROM entities ORDER BY saved_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EntityRow
	for rows.Next() {
		var row EntityRow
		var doc []byte
		if err := rows.Scan(&row.ID, &row.Name, &doc, &row.SavedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(doc, &row.Doc); err != nil {
			return nil, fmt.Errorf("decode entity %s: %w", row.ID, err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Delete removes a stored entity. Deleting a missing id is not an error.
func (r *EntityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM entities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete entity %s: %w", id, err)
	}
	return nil
}
