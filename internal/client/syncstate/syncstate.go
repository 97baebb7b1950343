// Package syncstate is the transition table for an entry's sync state.
//
//	create            -> new
//	edit new          -> new
//	edit synced|edited -> edited
//	push new|edited   -> synced
//	delete *          -> deleted
//
// Deleted is absorbing: it is left only by physical purge.
package syncstate

import (
	"fmt"

	"github.com/dmitrijs2005/spendkeeper/internal/client/models"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
)

func OnCreate() models.SyncState { return models.StateNew }

// OnEdit returns the state after a local modification. An entry the remote
// side has never seen stays new.
func OnEdit(s models.SyncState) (models.SyncState, error) {
	switch s {
	case models.StateNew, "":
		return models.StateNew, nil
	case models.StateSynced, models.StateEdited:
		return models.StateEdited, nil
	case models.StateDeleted:
		return s, common.ErrEntryDeleted
	default:
		return s, fmt.Errorf("%w: unknown sync state %q", common.ErrValidation, s)
	}
}

// OnPushed returns the state after the remote side accepted the entry.
// A pushed tombstone stays deleted.
func OnPushed(s models.SyncState) models.SyncState {
	if s == models.StateDeleted {
		return s
	}
	return models.StateSynced
}

func OnDelete(models.SyncState) models.SyncState { return models.StateDeleted }

// MergeDecision says what a pull does with one remote row.
type MergeDecision int

const (
	Insert MergeDecision = iota
	Overwrite
	KeepLocal
)

func (d MergeDecision) String() string {
	switch d {
	case Insert:
		return "insert"
	case Overwrite:
		return "overwrite"
	default:
		return "keep_local"
	}
}

// Decide compares the local copy of a pulled id against the remote row.
// Only a clean synced row may be replaced; pending local changes and
// tombstones win until they are pushed.
func Decide(local *models.Entry) MergeDecision {
	switch {
	case local == nil:
		return Insert
	case local.SyncState == models.StateSynced:
		return Overwrite
	default:
		return KeepLocal
	}
}
