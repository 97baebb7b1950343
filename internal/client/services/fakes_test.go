package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/client/storage"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dto"
	"github.com/dmitrijs2005/spendkeeper/internal/idgen"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

var errTransport = errors.New("connection refused")

var fixedNow = time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

// fakeServer behaves like the HTTP API for a single registered account.
type fakeServer struct {
	mu       sync.Mutex
	rows     map[string]dto.Expense
	token    string
	pushErr  error
	fetchErr error
	delErr   error
	reject   map[string]bool
	noResult bool
	pushes   int
	deleted  []string
}

func newFakeServer() *fakeServer {
	return &fakeServer{rows: map[string]dto.Expense{}, reject: map[string]bool{}}
}

func (f *fakeServer) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeServer) Register(_ context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.ErrValidation
	}
	return &dto.AuthResponse{
		Success:   true,
		User:      dto.User{ID: "2Bx9kQw7abc", Email: req.Email, Name: req.Name},
		Token:     "tok-register",
		ExpiresAt: fixedNow.Add(7 * 24 * time.Hour),
	}, nil
}

func (f *fakeServer) Login(_ context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	if req.Password != "pw123456" {
		return nil, common.ErrorUnauthorized
	}
	return &dto.AuthResponse{
		Success:   true,
		User:      dto.User{ID: "2Bx9kQw7abc", Email: req.Email},
		Token:     "tok-login",
		ExpiresAt: fixedNow.Add(7 * 24 * time.Hour),
	}, nil
}

func (f *fakeServer) FetchExpenses(context.Context) ([]dto.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []dto.Expense
	for _, x := range f.rows {
		if !x.Deleted {
			out = append(out, x)
		}
	}
	return out, nil
}

func (f *fakeServer) PushExpenses(_ context.Context, xs []dto.Expense) (*dto.SubmitResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes++
	if f.pushErr != nil {
		return nil, f.pushErr
	}

	resp := &dto.SubmitResponse{Success: true}
	for _, x := range xs {
		if f.reject[x.ID] {
			resp.Failed++
			resp.Results = append(resp.Results, dto.ItemResult{ID: x.ID, Status: dto.StatusFailed, Error: "bad row"})
			continue
		}
		status := dto.StatusInserted
		if _, ok := f.rows[x.ID]; ok {
			status = dto.StatusUpdated
			resp.Updated++
		} else {
			resp.Inserted++
		}
		f.rows[x.ID] = x
		resp.Results = append(resp.Results, dto.ItemResult{ID: x.ID, Status: status})
	}
	if f.noResult {
		resp.Results = nil
	}
	return resp, nil
}

func (f *fakeServer) DeleteExpense(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	x, ok := f.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	x.Deleted = true
	f.rows[id] = x
	f.deleted = append(f.deleted, id)
	return nil
}

type answer struct {
	ok     bool
	err    error
	prompt string
}

func (a *answer) Confirm(_ context.Context, prompt string) (bool, error) {
	a.prompt = prompt
	return a.ok, a.err
}

func newEntryService() *EntryService {
	es := NewEntryService(idgen.New(idgen.WithClock(func() time.Time { return fixedNow })), logging.Nop())
	es.now = func() time.Time { return fixedNow }
	return es
}

func openSession(t *testing.T, owner string) (*storage.Manager, *storage.Session) {
	t.Helper()
	m := storage.NewManager(t.TempDir(), logging.Nop())
	sess, err := m.Open(context.Background(), owner)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(sess) })
	return m, sess
}
