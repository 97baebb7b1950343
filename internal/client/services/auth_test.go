package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/base61"
	"github.com/dmitrijs2005/spendkeeper/internal/client/models"
	"github.com/dmitrijs2005/spendkeeper/internal/client/repositories/settings"
	"github.com/dmitrijs2005/spendkeeper/internal/client/storage"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/timex"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T, remote AuthRemote) (*AuthService, *storage.Manager) {
	t.Helper()
	m := storage.NewManager(t.TempDir(), logging.Nop())
	s := NewAuthService(remote, m, logging.Nop())
	s.now = func() time.Time { return fixedNow }
	return s, m
}

func TestAuth_LoginOpensStoreAndRemembersOwner(t *testing.T) {
	srv := newFakeServer()
	as, m := newAuthService(t, srv)
	ctx := context.Background()

	sess, err := as.Login(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(sess) })

	assert.Equal(t, "2Bx9kQw7abc", sess.Owner())
	assert.Equal(t, "tok-login", srv.token)

	owner, err := m.Recall()
	require.NoError(t, err)
	assert.Equal(t, sess.Owner(), owner)

	p, err := as.WhoAmI(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", p.Email)
	assert.True(t, p.TokenExpiresAt.Equal(fixedNow.Add(7*24*time.Hour)), p.TokenExpiresAt)
}

func TestAuth_LoginFailureOpensNothing(t *testing.T) {
	as, m := newAuthService(t, newFakeServer())

	_, err := as.Login(context.Background(), "a@x.com", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	owner, err := m.Recall()
	require.NoError(t, err)
	assert.Empty(t, owner)
}

func TestAuth_ResumeAndLogout(t *testing.T) {
	srv := newFakeServer()
	as, m := newAuthService(t, srv)
	ctx := context.Background()

	_, err := as.Resume(ctx)
	assert.ErrorIs(t, err, common.ErrNoActiveUser)

	sess, err := as.Login(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)
	require.NoError(t, m.Close(sess))
	srv.SetToken("")

	resumed, err := as.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2Bx9kQw7abc", resumed.Owner())
	assert.Equal(t, "tok-login", srv.token)

	require.NoError(t, as.Logout(ctx, resumed))
	assert.ErrorIs(t, resumed.Check(), common.ErrNoActiveUser)
	assert.Empty(t, srv.token)
	assert.FileExists(t, m.Path("2Bx9kQw7abc"), "logout keeps local data")

	_, err = as.Resume(ctx)
	assert.ErrorIs(t, err, common.ErrNoActiveUser)
}

func TestAuth_ResumeExpiredToken(t *testing.T) {
	as, m := newAuthService(t, newFakeServer())
	ctx := context.Background()

	sess, err := as.Login(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)
	require.NoError(t, m.Close(sess))

	as.now = func() time.Time { return fixedNow.Add(8 * 24 * time.Hour) }
	resumed, err := as.Resume(ctx)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
	require.NotNil(t, resumed, "local commands still get a session")
	assert.NoError(t, resumed.Check())
	require.NoError(t, m.Close(resumed))
}

func TestAuth_Destroy(t *testing.T) {
	as, m := newAuthService(t, newFakeServer())
	ctx := context.Background()

	sess, err := as.Login(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)
	path := m.Path(sess.Owner())

	assert.ErrorIs(t, as.Destroy(ctx, sess, &answer{}), common.ErrAborted)
	assert.FileExists(t, path)

	require.NoError(t, as.Destroy(ctx, sess, &answer{ok: true}))
	assert.NoFileExists(t, path)
}

// TestScenario_RegisterSubmitReconcile walks one account from registration to
// a pushed expense.
func TestScenario_RegisterSubmitReconcile(t *testing.T) {
	srv := newFakeServer()
	as, m := newAuthService(t, srv)
	es := newEntryService()
	r := newReconciler(es, srv)
	ctx := context.Background()

	sess, err := as.Register(ctx, "a@x.com", "pw123456", "")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[`+base61.Alphabet+`]+$`), sess.Owner())
	require.NoError(t, m.Close(sess))

	sess, err = as.Login(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(sess) })
	p, err := as.WhoAmI(ctx, sess)
	require.NoError(t, err)
	assert.True(t, p.TokenExpiresAt.After(fixedNow))

	date, err := timex.ParseDate("01-01-2025")
	require.NoError(t, err)
	e, err := es.Put(ctx, sess, &models.Entry{Date: date, Amount: decimal.NewFromInt(-50), MainCategory: "Food"})
	require.NoError(t, err)
	assert.Equal(t, models.StateNew, e.SyncState)

	res, err := r.Reconcile(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pushed)

	got, err := es.GetByID(ctx, sess, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateSynced, got.SyncState)

	remote, err := srv.FetchExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.True(t, remote[0].Amount.Equal(decimal.NewFromInt(-50)))
	assert.Equal(t, "2025-01-01", remote[0].Date.String())

	last, err := settings.NewSQLiteRepository(sess.DB()).Get(ctx, settings.LastPullAt)
	require.NoError(t, err)
	assert.NotEmpty(t, last)
}
