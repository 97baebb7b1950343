package entries

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/spendkeeper/internal/client/models"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/timex"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "entries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

var ts = time.Date(2025, 1, 2, 3, 4, 5, 600, time.UTC)

func sample(id, owner string, day int) *models.Entry {
	return &models.Entry{
		ID:           id,
		Owner:        owner,
		Date:         timex.DateOf(2025, 1, day),
		Description:  "lunch",
		Amount:       decimal.RequireFromString("-12.50"),
		MainCategory: "Food",
		SubCategory:  "Lunch",
		SyncState:    models.StateNew,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

func TestUpsert_InsertAndUpdate(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	e := sample("id1", "alice", 1)
	require.NoError(t, r.Upsert(ctx, e))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Owner)
	assert.Equal(t, "2025-01-01", got.Date.String())
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("-12.5")))
	assert.Equal(t, models.StateNew, got.SyncState)
	assert.False(t, got.Synced)
	assert.True(t, got.CreatedAt.Equal(ts))

	e.Description = "dinner"
	e.SyncState = models.StateSynced
	e.Synced = true
	require.NoError(t, r.Upsert(ctx, e))

	got, err = r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "dinner", got.Description)
	assert.True(t, got.Synced)
}

func TestGetByID_Missing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	got, err := r.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListByOwner(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, sample("a1", "alice", 1)))
	require.NoError(t, r.Upsert(ctx, sample("a2", "alice", 3)))
	require.NoError(t, r.Upsert(ctx, sample("b1", "bob", 2)))

	got, err := r.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a2", got[0].ID, "newest date first")

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = db.Exec(`DROP INDEX ` + OwnerIndex)
	require.NoError(t, err)
	_, err = r.ListByOwner(ctx, "alice")
	assert.Error(t, err)
}

func TestUpdateSyncState(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, sample("a1", "alice", 1)))

	later := ts.Add(time.Hour)
	require.NoError(t, r.UpdateSyncState(ctx, "alice", "a1", models.StateSynced, true, later))

	got, err := r.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.StateSynced, got.SyncState)
	assert.True(t, got.Synced)
	assert.True(t, got.UpdatedAt.Equal(later))

	err = r.UpdateSyncState(ctx, "bob", "a1", models.StateSynced, true, later)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteByOwner(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, sample("a1", "alice", 1)))
	require.NoError(t, r.Upsert(ctx, sample("a2", "alice", 2)))
	require.NoError(t, r.Upsert(ctx, sample("b1", "bob", 2)))

	n, err := r.DeleteByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "bob", all[0].Owner)
}

func TestMigrations_ReindexKeepsRows(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, sample("a1", "alice", 1)))

	// re-running is a no-op for a current store
	require.NoError(t, migrations.Up(ctx, db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_entries_%'`).Scan(&n))
	assert.Equal(t, 6, n)

	got, err := r.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
