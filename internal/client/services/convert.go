package services

import (
	"github.com/dmitrijs2005/spendkeeper/internal/client/models"
	"github.com/dmitrijs2005/spendkeeper/internal/dto"
)

func entryToDTO(e *models.Entry) dto.Expense {
	return dto.Expense{
		ID:           e.ID,
		Date:         e.Date,
		Description:  e.Description,
		Amount:       e.Amount,
		MainCategory: e.MainCategory,
		SubCategory:  e.SubCategory,
		Deleted:      e.IsDeleted(),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// entryFromDTO builds the local copy of a remote row. Owner and timestamps
// are settled by Put.
func entryFromDTO(x dto.Expense) *models.Entry {
	return &models.Entry{
		ID:           x.ID,
		Date:         x.Date,
		Description:  x.Description,
		Amount:       x.Amount,
		MainCategory: x.MainCategory,
		SubCategory:  x.SubCategory,
		SyncState:    models.StateSynced,
		CreatedAt:    x.CreatedAt,
	}
}
