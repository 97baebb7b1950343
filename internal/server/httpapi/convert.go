package httpapi

import (
	"github.com/dmitrijs2005/spendkeeper/internal/dto"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

func userToDTO(u *models.User) dto.User {
	return dto.User{ID: u.ID, Email: u.Email, Name: u.Name}
}

func expenseToDTO(e *models.Expense) dto.Expense {
	return dto.Expense{
		ID:           e.ID,
		Date:         e.Date,
		Description:  e.Description,
		Amount:       e.Amount,
		MainCategory: e.MainCategory,
		SubCategory:  e.SubCategory,
		Deleted:      e.Deleted,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func expenseFromDTO(e dto.Expense) *models.Expense {
	return &models.Expense{
		ID:           e.ID,
		Date:         e.Date,
		Description:  e.Description,
		Amount:       e.Amount,
		MainCategory: e.MainCategory,
		SubCategory:  e.SubCategory,
		Deleted:      e.Deleted,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func summaryToDTO(s *models.SubmitSummary) dto.SubmitResponse {
	resp := dto.SubmitResponse{
		Success:  true,
		Message:  "expenses processed",
		Inserted: s.Inserted,
		Updated:  s.Updated,
		Failed:   s.Failed,
		Results:  make([]dto.ItemResult, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		item := dto.ItemResult{ID: r.ID, Status: string(r.Status)}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}
