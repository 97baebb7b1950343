package settings

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/spendkeeper/internal/client/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

func TestSettings_CRUD(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	got, err := r.Get(ctx, Token)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, r.Set(ctx, Token, "t1"))
	require.NoError(t, r.Set(ctx, Token, "t2"))
	require.NoError(t, r.Set(ctx, Email, "a@x.com"))

	got, err = r.Get(ctx, Token)
	require.NoError(t, err)
	assert.Equal(t, "t2", got)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{Token: "t2", Email: "a@x.com"}, all)

	require.NoError(t, r.Delete(ctx, Token))
	got, err = r.Get(ctx, Token)
	require.NoError(t, err)
	assert.Empty(t, got)
}
