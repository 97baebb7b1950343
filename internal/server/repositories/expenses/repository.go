package expenses

import (
	"context"

	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

type Repository interface {
	// Upsert stores e keyed by (UserID, ID) and reports whether a new row was
	// created.
	Upsert(ctx context.Context, e *models.Expense) (inserted bool, err error)
	// ListByUser returns non-deleted rows, newest date first. limit <= 0
	// means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Expense, error)
	SoftDelete(ctx context.Context, userID, id string) error
}
