// Package services contains the client's ledger logic. Every operation takes
// the *storage.Session it runs against; nothing here keeps a current user.
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/client/models"
	"github.com/dmitrijs2005/spendkeeper/internal/client/repositories/entries"
	"github.com/dmitrijs2005/spendkeeper/internal/client/storage"
	"github.com/dmitrijs2005/spendkeeper/internal/client/syncstate"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/dto"
	"github.com/dmitrijs2005/spendkeeper/internal/idgen"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/timex"
	"github.com/shopspring/decimal"
)

// Confirmer is the human-in-the-loop gate in front of destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type EntryService struct {
	ids    *idgen.Generator
	logger logging.Logger
	now    func() time.Time
}

func NewEntryService(ids *idgen.Generator, logger logging.Logger) *EntryService {
	return &EntryService{
		ids:    ids,
		logger: logger.With("module", "entry_service"),
		now:    time.Now,
	}
}

func (s *EntryService) repo(db dbx.DBTX) entries.Repository {
	return entries.NewSQLiteRepository(db)
}

// Put materializes and stores e for the session owner. Missing id and date
// are filled in, the owner is always the session's, and the sync state
// follows the transition table unless the caller sets one explicitly.
func (s *EntryService) Put(ctx context.Context, sess *storage.Session, e *models.Entry) (*models.Entry, error) {
	if err := sess.Check(); err != nil {
		return nil, err
	}
	owner := sess.Owner()
	now := s.now().UTC()

	out := *e
	out.Owner = owner
	if out.ID == "" {
		id, err := s.ids.NewEntryID(owner)
		if err != nil {
			return nil, err
		}
		out.ID = id
	}
	if out.Date.IsZero() {
		out.Date = timex.NewDate(now)
	}
	if out.SyncState != "" && !out.SyncState.Valid() {
		return nil, fmt.Errorf("%w: unknown sync state %q", common.ErrValidation, out.SyncState)
	}
	if !dto.AmountFits(out.Amount) {
		return nil, fmt.Errorf("%w: amount %s has more than %d decimal places", common.ErrValidation, out.Amount, dto.AmountScale)
	}

	err := dbx.WithTx(ctx, sess.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)

		existing, err := repo.GetByID(ctx, out.ID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Owner != owner {
			return fmt.Errorf("entry %s: %w", out.ID, common.ErrorNotFound)
		}
		// a tombstone only leaves the store through Clear
		if existing != nil && existing.IsDeleted() {
			return fmt.Errorf("entry %s: %w", out.ID, common.ErrEntryDeleted)
		}

		switch {
		case e.SyncState != "":
		case existing != nil:
			state, err := syncstate.OnEdit(existing.SyncState)
			if err != nil {
				return fmt.Errorf("entry %s: %w", out.ID, err)
			}
			out.SyncState = state
		default:
			out.SyncState = syncstate.OnCreate()
		}
		out.Synced = out.SyncState == models.StateSynced

		switch {
		case existing != nil && !existing.CreatedAt.IsZero():
			out.CreatedAt = existing.CreatedAt
		case out.CreatedAt.IsZero():
			out.CreatedAt = now
		}
		out.UpdatedAt = now

		return repo.Upsert(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAll returns the owner's entries, newest date first. When the owner
// index cannot be used the store is scanned and filtered instead.
func (s *EntryService) GetAll(ctx context.Context, sess *storage.Session) ([]*models.Entry, error) {
	if err := sess.Check(); err != nil {
		return nil, err
	}
	owner := sess.Owner()
	repo := s.repo(sess.DB())

	rows, err := repo.ListByOwner(ctx, owner)
	if err != nil {
		s.logger.Warn(ctx, "owner index unavailable, scanning store", "error", err)
		if rows, err = repo.ListAll(ctx); err != nil {
			return nil, err
		}
	}
	return ownedBy(rows, owner), nil
}

func ownedBy(rows []*models.Entry, owner string) []*models.Entry {
	out := make([]*models.Entry, 0, len(rows))
	for _, e := range rows {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	return out
}

// GetByID returns nil, nil when the id is unknown or owned by someone else.
func (s *EntryService) GetByID(ctx context.Context, sess *storage.Session, id string) (*models.Entry, error) {
	if err := sess.Check(); err != nil {
		return nil, err
	}
	e, err := s.repo(sess.DB()).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil || e.Owner != sess.Owner() {
		return nil, nil
	}
	return e, nil
}

// Query filters the owner's entries, sorted by date then creation time,
// newest first.
func (s *EntryService) Query(ctx context.Context, sess *storage.Session, f models.Filter) ([]*models.Entry, error) {
	all, err := s.GetAll(ctx, sess)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Entry, 0, len(all))
	for _, e := range all {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// PendingSync returns entries the next push must carry.
func (s *EntryService) PendingSync(ctx context.Context, sess *storage.Session) ([]*models.Entry, error) {
	all, err := s.GetAll(ctx, sess)
	if err != nil {
		return nil, err
	}

	var out []*models.Entry
	for _, e := range all {
		if e.NeedsSync() {
			out = append(out, e)
		}
	}
	return out, nil
}

// MarkSynced flags each id as acknowledged by the remote side, one at a
// time. Unknown and foreign ids are reported per id; the rest still go
// through.
func (s *EntryService) MarkSynced(ctx context.Context, sess *storage.Session, ids []string) (*models.MarkResult, error) {
	if err := sess.Check(); err != nil {
		return nil, err
	}
	owner := sess.Owner()
	repo := s.repo(sess.DB())
	res := &models.MarkResult{}

	for _, id := range ids {
		e, err := repo.GetByID(ctx, id)
		if err != nil {
			res.Errors = append(res.Errors, models.IDError{ID: id, Err: err})
			continue
		}
		if e == nil || e.Owner != owner {
			res.Errors = append(res.Errors, models.IDError{ID: id, Err: common.ErrorNotFound})
			continue
		}

		state := syncstate.OnPushed(e.SyncState)
		if err := repo.UpdateSyncState(ctx, owner, id, state, true, s.now().UTC()); err != nil {
			res.Errors = append(res.Errors, models.IDError{ID: id, Err: err})
			continue
		}
		res.Marked++
	}
	return res, nil
}

// Delete turns the entry into a tombstone that is pushed on the next sync.
// Deleting a tombstone again is a no-op.
func (s *EntryService) Delete(ctx context.Context, sess *storage.Session, id string) error {
	if err := sess.Check(); err != nil {
		return err
	}
	owner := sess.Owner()

	return dbx.WithTx(ctx, sess.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		e, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e == nil || e.Owner != owner {
			return fmt.Errorf("entry %s: %w", id, common.ErrorNotFound)
		}
		if e.IsDeleted() {
			return nil
		}
		return repo.UpdateSyncState(ctx, owner, id, syncstate.OnDelete(e.SyncState), false, s.now().UTC())
	})
}

// Clear physically removes every entry of the owner once c confirms.
func (s *EntryService) Clear(ctx context.Context, sess *storage.Session, c Confirmer) (int64, error) {
	all, err := s.GetAll(ctx, sess)
	if err != nil {
		return 0, err
	}

	prompt := fmt.Sprintf("This permanently deletes %d local entries of %s, including unsynced changes.", len(all), sess.Owner())
	ok, err := c.Confirm(ctx, prompt)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, common.ErrAborted
	}

	n, err := s.repo(sess.DB()).DeleteByOwner(ctx, sess.Owner())
	if err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "local entries cleared", "owner", sess.Owner(), "count", n)
	return n, nil
}

// Stats aggregates the owner's ledger.
func (s *EntryService) Stats(ctx context.Context, sess *storage.Session) (*models.Stats, error) {
	all, err := s.GetAll(ctx, sess)
	if err != nil {
		return nil, err
	}

	st := models.NewStats()
	for _, e := range all {
		st.Add(e)
	}
	return st, nil
}

// NewEntry builds an unsaved entry from user input.
func NewEntry(date timex.Date, description string, amount decimal.Decimal, mainCategory, subCategory string) *models.Entry {
	return &models.Entry{
		Date:         date,
		Description:  description,
		Amount:       amount,
		MainCategory: mainCategory,
		SubCategory:  subCategory,
	}
}
