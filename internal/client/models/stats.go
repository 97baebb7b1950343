package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Stats aggregates an owner's ledger. Sums and the category histogram cover
// non-deleted entries; States counts every row.
type Stats struct {
	Total       int
	Active      int
	Deleted     int
	PendingSync int
	Income      decimal.Decimal
	Expenses    decimal.Decimal
	Categories  map[string]int
	States      map[SyncState]int
}

func NewStats() *Stats {
	return &Stats{
		Income:     decimal.Zero,
		Expenses:   decimal.Zero,
		Categories: map[string]int{},
		States:     map[SyncState]int{},
	}
}

// Add folds e into the aggregate.
func (s *Stats) Add(e *Entry) {
	s.Total++
	s.States[e.SyncState]++
	if e.NeedsSync() {
		s.PendingSync++
	}
	if e.IsDeleted() {
		s.Deleted++
		return
	}

	s.Active++
	s.Categories[e.MainCategory]++
	switch {
	case e.IsIncome():
		s.Income = s.Income.Add(e.Amount)
	case e.IsExpense():
		s.Expenses = s.Expenses.Add(e.Amount.Abs())
	}
}

// Balance is income minus expenses.
func (s *Stats) Balance() decimal.Decimal {
	return s.Income.Sub(s.Expenses)
}

// IDError reports a per-id failure inside a batch operation.
type IDError struct {
	ID  string
	Err error
}

func (e IDError) Error() string { return fmt.Sprintf("%s: %v", e.ID, e.Err) }
func (e IDError) Unwrap() error { return e.Err }

// MarkResult is the outcome of marking a batch as synced.
type MarkResult struct {
	Marked int
	Errors []IDError
}
