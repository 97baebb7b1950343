// Package dto holds the JSON bodies exchanged between the client and the
// HTTP API.
package dto

import (
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/timex"
	"github.com/shopspring/decimal"
)

func init() {
	// amounts travel as JSON numbers, e.g. -50 rather than "-50"
	decimal.MarshalJSONWithoutQuotes = true
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success   bool      `json:"success"`
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MeResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

// AmountScale is the number of decimal places the server stores.
const AmountScale = 2

// AmountFits reports whether d survives storage without rounding.
func AmountFits(d decimal.Decimal) bool {
	return d.Equal(d.Round(AmountScale))
}

// Expense is an entry as seen by the server. Sync bookkeeping stays local;
// only the deleted flag crosses the wire so tombstones can propagate.
type Expense struct {
	ID           string          `json:"id"`
	Date         timex.Date      `json:"date"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	MainCategory string          `json:"main_category"`
	SubCategory  string          `json:"sub_category"`
	Deleted      bool            `json:"deleted,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ExpensesResponse struct {
	Success  bool      `json:"success"`
	Expenses []Expense `json:"expenses"`
}

type SubmitRequest struct {
	Expenses []Expense `json:"expenses"`
}

// Item statuses reported by POST /expenses.
const (
	StatusInserted = "inserted"
	StatusUpdated  = "updated"
	StatusFailed   = "failed"
)

type ItemResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type SubmitResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Inserted int          `json:"inserted"`
	Updated  int          `json:"updated"`
	Failed   int          `json:"failed"`
	Results  []ItemResult `json:"results,omitempty"`
}

// Accepted lists the ids the server stored.
func (r *SubmitResponse) Accepted() []string {
	ids := make([]string, 0, len(r.Results))
	for _, it := range r.Results {
		if it.Status == StatusInserted || it.Status == StatusUpdated {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type ExportResponse struct {
	Success bool      `json:"success"`
	Key     string    `json:"key"`
	URL     string    `json:"url"`
	Rows    int       `json:"rows"`
	Expires time.Time `json:"expires_at"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
