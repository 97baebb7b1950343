package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/client/models"
	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/shopspring/decimal"
)

// OwnerIndex is the secondary index ListByOwner depends on.
const OwnerIndex = "idx_entries_owner"

const entryColumns = `id, owner, date, description, amount, main_category, sub_category,
	sync_state, synced, created_at, updated_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// FormatTime is the text form timestamps are stored in.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.Entry, error) {
	var (
		e                models.Entry
		amount           decimal.Decimal
		state            string
		created, updated string
	)
	if err := row.Scan(&e.ID, &e.Owner, &e.Date, &e.Description, &amount, &e.MainCategory, &e.SubCategory,
		&state, &e.Synced, &created, &updated); err != nil {
		return nil, err
	}
	e.Amount = amount
	e.SyncState = models.SyncState(state)

	var err error
	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("entry %s created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("entry %s updated_at: %w", e.ID, err)
	}
	return &e, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert writes every column; on conflict the stored row is replaced.
func (r *SQLiteRepository) Upsert(ctx context.Context, e *models.Entry) error {
	query := `INSERT INTO entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			date = excluded.date,
			description = excluded.description,
			amount = excluded.amount,
			main_category = excluded.main_category,
			sub_category = excluded.sub_category,
			sync_state = excluded.sync_state,
			synced = excluded.synced,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Owner, e.Date, e.Description, e.Amount.String(), e.MainCategory, e.SubCategory,
		string(e.SyncState), e.Synced, FormatTime(e.CreatedAt), FormatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner string) ([]*models.Entry, error) {
	return r.list(ctx, `SELECT `+entryColumns+` FROM entries INDEXED BY `+OwnerIndex+`
		WHERE owner = ? ORDER BY date DESC, created_at DESC`, owner)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]*models.Entry, error) {
	return r.list(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY date DESC, created_at DESC`)
}

func (r *SQLiteRepository) UpdateSyncState(ctx context.Context, owner, id string, state models.SyncState, synced bool, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE entries SET sync_state = ?, synced = ?, updated_at = ? WHERE id = ? AND owner = ?`,
		string(state), synced, FormatTime(updatedAt), id, owner)
	if err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}
	return dbx.RequireAffected(res)
}

func (r *SQLiteRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE owner = ?`, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
