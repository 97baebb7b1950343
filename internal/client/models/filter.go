package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/timex"
)

// EntryType selects entries by the sign of their amount.
type EntryType string

const (
	TypeAll     EntryType = "all"
	TypeIncome  EntryType = "income"
	TypeExpense EntryType = "expense"
)

func ParseEntryType(s string) (EntryType, error) {
	switch t := EntryType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", TypeAll:
		return TypeAll, nil
	case TypeIncome, TypeExpense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown entry type %q", common.ErrValidation, s)
	}
}

// Filter composes query predicates. Zero values match everything, except
// that deleted entries are excluded unless IncludeDeleted is set. From and To
// are inclusive.
type Filter struct {
	MainCategory   string
	SubCategory    string
	Type           EntryType
	From           timex.Date
	To             timex.Date
	IncludeDeleted bool
}

func (f Filter) Match(e *Entry) bool {
	if e.IsDeleted() && !f.IncludeDeleted {
		return false
	}
	if f.MainCategory != "" && e.MainCategory != f.MainCategory {
		return false
	}
	if f.SubCategory != "" && e.SubCategory != f.SubCategory {
		return false
	}
	switch f.Type {
	case TypeIncome:
		if !e.IsIncome() {
			return false
		}
	case TypeExpense:
		if !e.IsExpense() {
			return false
		}
	}
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false
	}
	return true
}
