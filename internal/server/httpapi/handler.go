package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dto"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

type userService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, *models.Token, error)
	Login(ctx context.Context, email, password string) (*models.User, *models.Token, error)
	Authenticate(token string) (string, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type expenseService interface {
	List(ctx context.Context, userID string) ([]*models.Expense, error)
	Submit(ctx context.Context, userID string, items []*models.Expense) *models.SubmitSummary
	Delete(ctx context.Context, userID, id string) error
	Export(ctx context.Context, userID string) (*models.Export, error)
	Ping(ctx context.Context) error
}

type handlers struct {
	users    userService
	expenses expenseService
	now      func() time.Time
}

func (h *handlers) Health(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	if err := h.expenses.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error(r.Context(), "health check failed", "error", err)
		writeJSON(w, r, http.StatusServiceUnavailable, dto.HealthResponse{
			Success: false, Message: "database unavailable", Timestamp: now,
		})
		return
	}
	writeJSON(w, r, http.StatusOK, dto.HealthResponse{Success: true, Message: "ok", Timestamp: now})
}

func (h *handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	user, token, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, r, http.StatusCreated, dto.AuthResponse{
		Success: true, User: userToDTO(user), Token: token.Value, ExpiresAt: token.ExpiresAt,
	})
}

func (h *handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.AuthResponse{
		Success: true, User: userToDTO(user), Token: token.Value, ExpiresAt: token.ExpiresAt,
	})
}

func (h *handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), UserID(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.MeResponse{Success: true, User: userToDTO(user)})
}

func (h *handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	rows, err := h.expenses.List(r.Context(), UserID(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	resp := dto.ExpensesResponse{Success: true, Expenses: make([]dto.Expense, 0, len(rows))}
	for _, e := range rows {
		resp.Expenses = append(resp.Expenses, expenseToDTO(e))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *handlers) SubmitExpenses(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	items := make([]*models.Expense, 0, len(req.Expenses))
	for _, e := range req.Expenses {
		items = append(items, expenseFromDTO(e))
	}

	summary := h.expenses.Submit(r.Context(), UserID(r.Context()), items)
	writeJSON(w, r, http.StatusOK, summaryToDTO(summary))
}

func (h *handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		HandleError(w, r, fmt.Errorf("%w: id query parameter is required", common.ErrValidation))
		return
	}

	if err := h.expenses.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.StatusResponse{Success: true})
}

func (h *handlers) ExportExpenses(w http.ResponseWriter, r *http.Request) {
	exp, err := h.expenses.Export(r.Context(), UserID(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ExportResponse{
		Success: true, Key: exp.Key, URL: exp.URL, Rows: exp.Rows, Expires: exp.ExpiresAt,
	})
}
