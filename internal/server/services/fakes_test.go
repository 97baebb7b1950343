package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// fakeUsersRepo is an in-memory users.Repository keyed by id.
type fakeUsersRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.User
	getErr    error
	createErr error
	existsErr error
	taken     map[string]bool
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}, taken: map[string]bool{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.byID[id]
	return ok || f.taken[id], nil
}

// fakeExpensesRepo stores rows keyed by user id + id.
type fakeExpensesRepo struct {
	mu      sync.Mutex
	rows    map[string]*models.Expense
	failIDs map[string]error
	listErr error
}

func newFakeExpensesRepo() *fakeExpensesRepo {
	return &fakeExpensesRepo{rows: map[string]*models.Expense{}, failIDs: map[string]error{}}
}

func key(userID, id string) string { return userID + "/" + id }

func (f *fakeExpensesRepo) Upsert(_ context.Context, e *models.Expense) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failIDs[e.ID]; err != nil {
		return false, err
	}
	k := key(e.UserID, e.ID)
	_, existed := f.rows[k]
	cp := *e
	f.rows[k] = &cp
	return !existed, nil
}

func (f *fakeExpensesRepo) ListByUser(_ context.Context, userID string, limit int) ([]*models.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Expense
	for _, e := range f.rows {
		if e.UserID == userID && !e.Deleted {
			cp := *e
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeExpensesRepo) SoftDelete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[key(userID, id)]
	if !ok {
		return common.ErrorNotFound
	}
	e.Deleted = true
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	e *fakeExpensesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) Expenses(dbx.DBTX) expenses.Repository     { return m.e }
