package entries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/client/models"
)

// Repository describes storage operations for Entry objects.
type Repository interface {
	// Upsert inserts the entry or replaces every column of the row with the
	// same id.
	Upsert(ctx context.Context, e *models.Entry) error

	// GetByID returns the row with the given id whatever its owner, or
	// nil, nil when there is none.
	GetByID(ctx context.Context, id string) (*models.Entry, error)

	// ListByOwner reads through the owner index. It fails when the index
	// is missing instead of silently scanning.
	ListByOwner(ctx context.Context, owner string) ([]*models.Entry, error)

	// ListAll returns every row in the store.
	ListAll(ctx context.Context) ([]*models.Entry, error)

	// UpdateSyncState sets the sync columns of one owned row. A missing row
	// yields common.ErrorNotFound.
	UpdateSyncState(ctx context.Context, owner, id string, state models.SyncState, synced bool, updatedAt time.Time) error

	// DeleteByOwner physically removes the owner's rows.
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}
