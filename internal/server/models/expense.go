package models

import (
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/timex"
	"github.com/shopspring/decimal"
)

// Expense is one ledger row as stored server side. Rows are keyed by
// (UserID, ID).
type Expense struct {
	ID           string
	UserID       string
	Date         timex.Date
	Description  string
	Amount       decimal.Decimal
	MainCategory string
	SubCategory  string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UpsertStatus string

const (
	UpsertInserted UpsertStatus = "inserted"
	UpsertUpdated  UpsertStatus = "updated"
	UpsertFailed   UpsertStatus = "failed"
)

// UpsertResult is the outcome for a single row of a submitted batch.
type UpsertResult struct {
	ID     string
	Status UpsertStatus
	Err    error
}

// SubmitSummary aggregates a batch upsert.
type SubmitSummary struct {
	Inserted int
	Updated  int
	Failed   int
	Results  []UpsertResult
}

// Export describes an uploaded CSV snapshot of a user's ledger.
type Export struct {
	Key       string
	URL       string
	Rows      int
	ExpiresAt time.Time
}
