package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/stage/internal/config"
	"github.com/l1jgo/stage/internal/core/component"
	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/geom"
)

func TestRowOf(t *testing.T) {
	e := entity.New(nil)
	e.Name = "crate"
	e.SetPosition(geom.V(3, 4))
	require.NoError(t, e.AddComponent(component.New(component.NewBoxCollider(2, 2))))

	row := RowOf(e)
	require.Equal(t, e.ID(), row.ID)
	require.Equal(t, "crate", row.Name)
	require.Equal(t, []float64{3, 4}, row.Doc["position"])
}

// openTestDB connects to STAGE_TEST_DSN, skipping when it is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("STAGE_TEST_DSN")
	if dsn == "" {
		t.Skip("STAGE_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := config.Defaults().Database
	cfg.DSN = dsn
	db, err := NewDB(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Ping(ctx))
	require.NoError(t, RunMigrations(ctx, db.Pool))
	return db
}

func TestEntityRepoRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewEntityRepo(db)

	e := entity.New(nil)
	e.Name = "saved"
	e.Persistent = true
	require.NoError(t, repo.SaveAll(ctx, []EntityRow{RowOf(e)}))
	e.SetPosition(geom.V(1, 2))
	require.NoError(t, repo.SaveAll(ctx, []EntityRow{RowOf(e)}), "second save upserts")

	rows, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	var found *EntityRow
	for i := range rows {
		if rows[i].ID == e.ID() {
			found = &rows[i]
		}
	}
	require.NotNil(t, found)
	require.Equal(t, []any{1.0, 2.0}, found.Doc["position"])

	require.NoError(t, repo.Delete(ctx, e.ID()))
	require.NoError(t, repo.Delete(ctx, e.ID()))

	v, err := SchemaVersion(ctx, db.Pool)
	require.NoError(t, err)
	require.GreaterOrEqual(t, v, int64(1))
}

func TestJournalAppend(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	j := NewJournalRepo(db)

	before, err := j.Count(ctx, "enter")
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, []JournalEntry{
		{Kind: "enter", EntityA: uuid.New(), EntityB: uuid.New(), Detail: "a|b"},
		{Kind: "spawn", EntityA: uuid.New()},
	}))
	after, err := j.Count(ctx, "enter")
	require.NoError(t, err)
	require.Equal(t, before+1, after)
}
