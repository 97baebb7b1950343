package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/client/models"
	"github.com/dmitrijs2005/spendkeeper/internal/client/repositories/entries"
	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/timex"
	"github.com/shopspring/decimal"
)

// LegacyStoreName is the shared store used before stores were split per owner.
const LegacyStoreName = "expenses.db"

// legacyColumns maps the columns read from the legacy store to the value used
// when an older schema lacks them.
var legacyColumns = []struct{ name, fallback string }{
	{"id", "''"},
	{"owner", "''"},
	{"date", "''"},
	{"description", "''"},
	{"amount", "'0'"},
	{"main_category", "''"},
	{"sub_category", "''"},
	{"sync_state", "'new'"},
	{"created_at", "''"},
	{"updated_at", "''"},
}

func (m *Manager) legacyPath() string {
	return filepath.Join(m.dir, LegacyStoreName)
}

// importLegacy copies rows with no owner or a matching owner from the legacy
// store into db, then deletes the legacy store. Rows already present in db
// are left alone.
func (m *Manager) importLegacy(ctx context.Context, db *sql.DB, owner string) (int, error) {
	path := m.legacyPath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	rows, err := readLegacy(ctx, path, owner)
	if err != nil {
		return 0, err
	}

	imported := 0
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := entries.NewSQLiteRepository(tx)
		for _, e := range rows {
			existing, err := repo.GetByID(ctx, e.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := repo.Upsert(ctx, e); err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := removeStore(path); err != nil {
		return imported, fmt.Errorf("remove legacy store: %w", err)
	}
	return imported, nil
}

func readLegacy(ctx context.Context, path, owner string) ([]*models.Entry, error) {
	db, err := sql.Open(DriverName, dsn(path))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	present, err := tableColumns(ctx, db, "entries")
	if err != nil {
		return nil, err
	}
	if !present["id"] {
		// nothing recognisable to import
		return nil, nil
	}

	selects := make([]string, 0, len(legacyColumns))
	for _, c := range legacyColumns {
		if present[c.name] {
			selects = append(selects, "COALESCE(CAST("+c.name+" AS TEXT), "+c.fallback+")")
		} else {
			selects = append(selects, c.fallback)
		}
	}

	q := "SELECT " + strings.Join(selects, ", ") + " FROM entries"
	rs, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	now := time.Now().UTC()
	var out []*models.Entry
	for rs.Next() {
		var id, rowOwner, date, desc, amount, mainCat, subCat, state, created, updated string
		if err := rs.Scan(&id, &rowOwner, &date, &desc, &amount, &mainCat, &subCat, &state, &created, &updated); err != nil {
			return nil, err
		}
		if id == "" || (rowOwner != "" && rowOwner != owner) {
			continue
		}
		out = append(out, legacyEntry(owner, id, date, desc, amount, mainCat, subCat, state, created, updated, now))
	}
	return out, rs.Err()
}

func legacyEntry(owner, id, date, desc, amount, mainCat, subCat, state, created, updated string, now time.Time) *models.Entry {
	e := &models.Entry{
		ID:           id,
		Owner:        owner,
		Description:  desc,
		MainCategory: mainCat,
		SubCategory:  subCat,
		SyncState:    models.SyncState(state),
		Amount:       decimal.Zero,
		CreatedAt:    parseLegacyTime(created, now),
		UpdatedAt:    parseLegacyTime(updated, now),
	}
	if !e.SyncState.Valid() {
		e.SyncState = models.StateNew
	}
	e.Synced = e.SyncState == models.StateSynced

	if d, err := timex.ParseDate(date); err == nil {
		e.Date = d
	} else {
		e.Date = timex.NewDate(e.CreatedAt)
	}
	if a, err := decimal.NewFromString(strings.TrimSpace(amount)); err == nil {
		e.Amount = a
	}
	return e
}

func parseLegacyTime(s string, fallback time.Time) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
