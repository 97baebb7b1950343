package expenses

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts or updates by (user_id, id). A row that is already deleted
// stays deleted. xmax is zero only for a freshly inserted tuple.
func (r *PostgresRepository) Upsert(ctx context.Context, e *models.Expense) (bool, error) {
	query :=
		`INSERT INTO expenses (id, user_id, date, description, amount, main_category, sub_category, deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (user_id, id) DO UPDATE
		 SET date = EXCLUDED.date,
		     description = EXCLUDED.description,
		     amount = EXCLUDED.amount,
		     main_category = EXCLUDED.main_category,
		     sub_category = EXCLUDED.sub_category,
		     deleted = expenses.deleted OR EXCLUDED.deleted,
		     updated_at = EXCLUDED.updated_at
		 RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		e.ID, e.UserID, e.Date, e.Description, e.Amount, e.MainCategory, e.SubCategory,
		e.Deleted, e.CreatedAt, e.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return inserted, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Expense, error) {
	query :=
		`SELECT id, user_id, date, description, amount, main_category, sub_category, deleted, created_at, updated_at
		 FROM expenses
		 WHERE user_id = $1 AND NOT deleted
		 ORDER BY date DESC, updated_at DESC`

	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Expense
	for rows.Next() {
		e := &models.Expense{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Description, &e.Amount,
			&e.MainCategory, &e.SubCategory, &e.Deleted, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// SoftDelete flags the row as deleted. Unknown ids and rows of other users
// yield common.ErrorNotFound.
func (r *PostgresRepository) SoftDelete(ctx context.Context, userID, id string) error {
	query :=
		`UPDATE expenses SET deleted = TRUE, updated_at = NOW()
		 WHERE user_id = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return dbx.RequireAffected(res)
}
