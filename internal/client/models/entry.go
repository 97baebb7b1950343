// Package models holds the client-side ledger types.
package models

import (
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/timex"
	"github.com/shopspring/decimal"
)

// SyncState tags an entry's reconciliation status.
type SyncState string

const (
	StateNew     SyncState = "new"
	StateEdited  SyncState = "edited"
	StateSynced  SyncState = "synced"
	StateDeleted SyncState = "deleted"
)

// States lists every sync state in display order.
var States = []SyncState{StateNew, StateEdited, StateSynced, StateDeleted}

func (s SyncState) Valid() bool {
	switch s {
	case StateNew, StateEdited, StateSynced, StateDeleted:
		return true
	}
	return false
}

// Entry is a single income (positive amount) or expense (negative amount).
type Entry struct {
	ID           string
	Date         timex.Date
	Description  string
	Amount       decimal.Decimal
	MainCategory string
	SubCategory  string
	SyncState    SyncState
	Synced       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Owner        string
}

func (e *Entry) IsDeleted() bool { return e.SyncState == StateDeleted }

// IsDirty reports a local change the remote side has not seen yet.
func (e *Entry) IsDirty() bool {
	return e.SyncState == StateNew || e.SyncState == StateEdited
}

// NeedsSync reports whether the entry belongs in the next push. A tombstone
// stays pending until the remote delete has been acknowledged.
func (e *Entry) NeedsSync() bool {
	return !e.Synced || e.IsDirty()
}

func (e *Entry) IsIncome() bool  { return e.Amount.IsPositive() }
func (e *Entry) IsExpense() bool { return e.Amount.IsNegative() }
