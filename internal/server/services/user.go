// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and bearer token checks.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/idgen"
	"github.com/dmitrijs2005/spendkeeper/internal/server/auth"
	"github.com/dmitrijs2005/spendkeeper/internal/server/config"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// UserService provides authentication-related operations:
// - Register: create users with a generated base61 id
// - Login: verify credentials and mint a token
// - Authenticate: resolve a bearer token to a user id
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	ids           *idgen.Generator
	jwtSecret     []byte
	tokenValidity time.Duration
	bcryptCost    int
	now           func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		ids:           idgen.New(idgen.WithMaxAttempts(cfg.UserIDMaxAttempts)),
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		bcryptCost:    bcrypt.DefaultCost,
		now:           time.Now,
	}
}

// Register validates input, creates the user and signs a token for it.
// An email that is already registered yields common.ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.User, *models.Token, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if len(password) < minPasswordLength {
		return nil, nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if _, err := repo.GetByEmail(ctx, email); err == nil {
			return common.ErrAlreadyExists
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		id, err := s.ids.NewUserID(ctx, repo.Exists)
		if err != nil {
			return err
		}

		user, err = repo.Create(ctx, &models.User{
			ID:           id,
			Email:        email,
			PasswordHash: hash,
			Name:         strings.TrimSpace(name),
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("email %s: %w", email, common.ErrAlreadyExists)
		}
		return nil, nil, fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// Login checks the credentials and returns a fresh token. Unknown emails and
// wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *models.Token, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// Authenticate returns the user id carried by a bearer token.
func (s *UserService) Authenticate(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// GetUser returns the profile of userID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

func (s *UserService) issueToken(userID string) (*models.Token, error) {
	expires := s.now().Add(s.tokenValidity)
	value, err := auth.GenerateToken(userID, s.jwtSecret, expires)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &models.Token{Value: value, ExpiresAt: expires}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email %q", common.ErrValidation, email)
	}
	return email, nil
}
