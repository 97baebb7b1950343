package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/client/models"
	"github.com/dmitrijs2005/spendkeeper/internal/client/repositories/entries"
	"github.com/dmitrijs2005/spendkeeper/internal/client/repositories/settings"
	"github.com/dmitrijs2005/spendkeeper/internal/client/storage"
	"github.com/dmitrijs2005/spendkeeper/internal/client/syncstate"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dto"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
)

// ErrRejected marks an entry the server refused inside an accepted batch.
var ErrRejected = errors.New("rejected by server")

// Remote is the server side of a reconciliation pass.
type Remote interface {
	FetchExpenses(ctx context.Context) ([]dto.Expense, error)
	PushExpenses(ctx context.Context, expenses []dto.Expense) (*dto.SubmitResponse, error)
	DeleteExpense(ctx context.Context, id string) error
}

// Result summarizes one reconciliation pass.
type Result struct {
	Pushed  int
	Pulled  int
	Errors  []models.IDError
	Skipped bool
}

// PullResult counts what a pull did with each remote row.
type PullResult struct {
	Inserted    int
	Overwritten int
	Kept        int
	Errors      []models.IDError
}

func (p PullResult) Pulled() int { return p.Inserted + p.Overwritten }

type Reconciler struct {
	entries *EntryService
	remote  Remote
	logger  logging.Logger
	now     func() time.Time
}

func NewReconciler(es *EntryService, remote Remote, logger logging.Logger) *Reconciler {
	return &Reconciler{
		entries: es,
		remote:  remote,
		logger:  logger.With("module", "reconciler"),
		now:     time.Now,
	}
}

// Reconcile pushes pending entries, marks what the server accepted and then
// pulls. A transport failure during push leaves every entry untouched.
func (r *Reconciler) Reconcile(ctx context.Context, sess *storage.Session) (Result, error) {
	var res Result

	pending, err := r.entries.PendingSync(ctx, sess)
	if err != nil {
		return res, err
	}
	if len(pending) == 0 {
		res.Skipped = true
		return res, nil
	}

	accepted, rejected, err := r.push(ctx, pending)
	if err != nil {
		r.logger.Warn(ctx, "push failed, nothing marked", "pending", len(pending), "error", err)
		return res, fmt.Errorf("push: %w", err)
	}
	res.Errors = append(res.Errors, rejected...)

	marked, err := r.entries.MarkSynced(ctx, sess, accepted)
	if err != nil {
		return res, err
	}
	res.Pushed = marked.Marked
	res.Errors = append(res.Errors, marked.Errors...)
	r.stamp(ctx, sess, settings.LastPushAt)

	r.logger.Info(ctx, "push complete", "pending", len(pending), "pushed", res.Pushed, "errors", len(res.Errors))

	pulled, err := r.Pull(ctx, sess)
	if err != nil {
		return res, fmt.Errorf("pull after push: %w", err)
	}
	res.Pulled = pulled.Pulled()
	res.Errors = append(res.Errors, pulled.Errors...)
	return res, nil
}

// push sends live entries as one batch and tombstones one delete at a time.
// It returns the ids the server holds after the exchange.
func (r *Reconciler) push(ctx context.Context, pending []*models.Entry) ([]string, []models.IDError, error) {
	var (
		live       []dto.Expense
		tombstones []string
	)
	for _, e := range pending {
		if e.IsDeleted() {
			tombstones = append(tombstones, e.ID)
			continue
		}
		live = append(live, entryToDTO(e))
	}

	var (
		accepted []string
		rejected []models.IDError
	)

	if len(live) > 0 {
		resp, err := r.remote.PushExpenses(ctx, live)
		if err != nil {
			return nil, nil, err
		}
		if resp == nil || len(resp.Results) == 0 {
			for _, x := range live {
				accepted = append(accepted, x.ID)
			}
		} else {
			accepted = append(accepted, resp.Accepted()...)
			for _, it := range resp.Results {
				if it.Status == dto.StatusFailed {
					rejected = append(rejected, models.IDError{ID: it.ID, Err: fmt.Errorf("%w: %s", ErrRejected, it.Error)})
				}
			}
		}
	}

	for _, id := range tombstones {
		err := r.remote.DeleteExpense(ctx, id)
		switch {
		case err == nil, errors.Is(err, common.ErrorNotFound):
			accepted = append(accepted, id)
		default:
			return nil, nil, err
		}
	}

	return accepted, rejected, nil
}

// Pull merges the owner's remote rows into the local store. Rows with
// pending local changes are left alone.
func (r *Reconciler) Pull(ctx context.Context, sess *storage.Session) (PullResult, error) {
	var res PullResult

	if err := sess.Check(); err != nil {
		return res, err
	}
	remote, err := r.remote.FetchExpenses(ctx)
	if err != nil {
		return res, err
	}

	repo := entries.NewSQLiteRepository(sess.DB())
	for _, x := range remote {
		if x.Deleted {
			continue
		}
		local, err := repo.GetByID(ctx, x.ID)
		if err != nil {
			res.Errors = append(res.Errors, models.IDError{ID: x.ID, Err: err})
			continue
		}

		decision := syncstate.Decide(local)
		if decision == syncstate.KeepLocal {
			res.Kept++
			continue
		}
		if _, err := r.entries.Put(ctx, sess, entryFromDTO(x)); err != nil {
			res.Errors = append(res.Errors, models.IDError{ID: x.ID, Err: err})
			continue
		}
		if decision == syncstate.Insert {
			res.Inserted++
		} else {
			res.Overwritten++
		}
	}
	r.stamp(ctx, sess, settings.LastPullAt)

	r.logger.Info(ctx, "pull complete",
		"remote", len(remote), "inserted", res.Inserted, "overwritten", res.Overwritten, "kept", res.Kept)
	return res, nil
}

func (r *Reconciler) stamp(ctx context.Context, sess *storage.Session, name string) {
	err := settings.NewSQLiteRepository(sess.DB()).Set(ctx, name, entries.FormatTime(r.now()))
	if err != nil {
		r.logger.Warn(ctx, "failed to record sync time", "setting", name, "error", err)
	}
}
