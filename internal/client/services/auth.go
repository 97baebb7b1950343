package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/client/repositories/entries"
	"github.com/dmitrijs2005/spendkeeper/internal/client/repositories/settings"
	"github.com/dmitrijs2005/spendkeeper/internal/client/storage"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dto"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
)

// AuthRemote is the account side of the server API.
type AuthRemote interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	SetToken(token string)
}

// Profile is what the local store knows about its owner.
type Profile struct {
	ID             string
	Email          string
	Name           string
	TokenExpiresAt time.Time
	LastPushAt     string
	LastPullAt     string
}

// AuthService ties server sessions to local stores: a successful login opens
// the owner's store and remembers the owner for later invocations.
type AuthService struct {
	remote AuthRemote
	stores *storage.Manager
	logger logging.Logger
	now    func() time.Time
}

func NewAuthService(remote AuthRemote, stores *storage.Manager, logger logging.Logger) *AuthService {
	return &AuthService{
		remote: remote,
		stores: stores,
		logger: logger.With("module", "auth_service"),
		now:    time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*storage.Session, error) {
	resp, err := s.remote.Register(ctx, dto.RegisterRequest{Email: email, Password: password, Name: name})
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, resp)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*storage.Session, error) {
	resp, err := s.remote.Login(ctx, dto.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, resp)
}

func (s *AuthService) establish(ctx context.Context, resp *dto.AuthResponse) (*storage.Session, error) {
	if resp == nil || resp.Token == "" || resp.User.ID == "" {
		return nil, fmt.Errorf("%w: empty auth response", common.ErrorUnauthorized)
	}

	sess, err := s.stores.Open(ctx, resp.User.ID)
	if err != nil {
		return nil, err
	}

	repo := settings.NewSQLiteRepository(sess.DB())
	values := map[string]string{
		settings.Token:          resp.Token,
		settings.TokenExpiresAt: entries.FormatTime(resp.ExpiresAt),
		settings.Email:          resp.User.Email,
		settings.UserName:       resp.User.Name,
	}
	for name, value := range values {
		if err := repo.Set(ctx, name, value); err != nil {
			_ = s.stores.Close(sess)
			return nil, err
		}
	}

	if err := s.stores.Remember(resp.User.ID); err != nil {
		_ = s.stores.Close(sess)
		return nil, err
	}
	s.remote.SetToken(resp.Token)

	s.logger.Info(ctx, "session established", "owner", resp.User.ID)
	return sess, nil
}

// Resume reopens the remembered owner's store. A session whose token is
// missing or expired is still returned so local commands keep working; the
// error tells the caller that server calls will be refused.
func (s *AuthService) Resume(ctx context.Context) (*storage.Session, error) {
	owner, err := s.stores.Recall()
	if err != nil {
		return nil, err
	}
	if owner == "" {
		return nil, common.ErrNoActiveUser
	}

	sess, err := s.stores.Open(ctx, owner)
	if err != nil {
		return nil, err
	}

	repo := settings.NewSQLiteRepository(sess.DB())
	token, err := repo.Get(ctx, settings.Token)
	if err != nil {
		_ = s.stores.Close(sess)
		return nil, err
	}
	if token == "" {
		return sess, common.ErrorUnauthorized
	}

	expires, err := repo.Get(ctx, settings.TokenExpiresAt)
	if err != nil {
		_ = s.stores.Close(sess)
		return nil, err
	}
	if exp, err := time.Parse(time.RFC3339Nano, expires); err == nil && !exp.After(s.now()) {
		return sess, common.ErrTokenExpired
	}

	s.remote.SetToken(token)
	return sess, nil
}

// Logout drops the token, closes the store and forgets the owner. Local
// entries stay on disk for the next login.
func (s *AuthService) Logout(ctx context.Context, sess *storage.Session) error {
	if err := sess.Check(); err != nil {
		return err
	}
	owner := sess.Owner()

	repo := settings.NewSQLiteRepository(sess.DB())
	for _, name := range []string{settings.Token, settings.TokenExpiresAt} {
		if err := repo.Delete(ctx, name); err != nil {
			return err
		}
	}
	s.remote.SetToken("")

	if err := s.stores.Close(sess); err != nil {
		return err
	}
	if err := s.stores.Forget(); err != nil {
		return err
	}

	s.logger.Info(ctx, "logged out", "owner", owner)
	return nil
}

// Destroy logs out and removes the owner's store from disk.
func (s *AuthService) Destroy(ctx context.Context, sess *storage.Session, c Confirmer) error {
	if err := sess.Check(); err != nil {
		return err
	}
	owner := sess.Owner()

	ok, err := c.Confirm(ctx, fmt.Sprintf("This removes the local store of %s, including unsynced changes.", owner))
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrAborted
	}

	if err := s.Logout(ctx, sess); err != nil {
		return err
	}
	return s.stores.Destroy(ctx, owner)
}

func (s *AuthService) WhoAmI(ctx context.Context, sess *storage.Session) (*Profile, error) {
	if err := sess.Check(); err != nil {
		return nil, err
	}

	values, err := settings.NewSQLiteRepository(sess.DB()).List(ctx)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		ID:         sess.Owner(),
		Email:      values[settings.Email],
		Name:       values[settings.UserName],
		LastPushAt: values[settings.LastPushAt],
		LastPullAt: values[settings.LastPullAt],
	}
	if exp, err := time.Parse(time.RFC3339Nano, values[settings.TokenExpiresAt]); err == nil {
		p.TokenExpiresAt = exp
	}
	return p, nil
}
