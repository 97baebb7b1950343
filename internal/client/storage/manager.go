// Package storage owns the lifecycle of per-owner local stores: one SQLite
// file per owner under the data directory, migrated on open and removed
// on destroy.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/spendkeeper/internal/base61"
	"github.com/dmitrijs2005/spendkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// storeSuffixes are the files SQLite may keep next to a database.
var storeSuffixes = []string{"", "-wal", "-shm", "-journal"}

// migrate is a seam for tests.
var migrate = migrations.Up

type handle struct {
	refs     int
	released chan struct{}
}

type Manager struct {
	dir    string
	logger logging.Logger

	mu   sync.Mutex
	open map[string]*handle
}

func NewManager(dir string, logger logging.Logger) *Manager {
	return &Manager{
		dir:    dir,
		logger: logger.With("module", "storage"),
		open:   map[string]*handle{},
	}
}

func (m *Manager) Dir() string { return m.dir }

// Path is the database file of owner's store.
func (m *Manager) Path(owner string) string {
	return filepath.Join(m.dir, owner+".db")
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

func validOwner(owner string) error {
	if owner == "" {
		return common.ErrNoActiveUser
	}
	if !base61.Valid(owner) {
		return fmt.Errorf("%w: malformed owner id %q", common.ErrValidation, owner)
	}
	return nil
}

// Open makes owner the active user, creating and migrating the store when
// needed. Rows of the legacy shared store that belong to owner (or to
// nobody) are imported on the way.
func (m *Manager) Open(ctx context.Context, owner string) (*Session, error) {
	if err := validOwner(owner); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	db, err := sql.Open(DriverName, dsn(m.Path(owner)))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// one connection keeps every operation on the store strictly sequential
	db.SetMaxOpenConns(1)

	if err := migrate(logging.ToContext(ctx, m.logger), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	n, err := m.importLegacy(ctx, db, owner)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("import legacy store: %w", err)
	}
	if n > 0 {
		m.logger.Info(ctx, "legacy entries imported", "owner", owner, "count", n)
	}

	h := m.open[owner]
	if h == nil {
		h = &handle{released: make(chan struct{})}
		m.open[owner] = h
	}
	h.refs++

	m.logger.Debug(ctx, "store opened", "owner", owner)
	return &Session{owner: owner, db: db}, nil
}

// Close releases the store and clears the session. Closing a session twice
// is a no-op.
func (m *Manager) Close(s *Session) error {
	if s == nil {
		return nil
	}
	owner, db := s.detach()
	if db == nil {
		return nil
	}

	err := db.Close()

	m.mu.Lock()
	if h := m.open[owner]; h != nil {
		h.refs--
		if h.refs <= 0 {
			delete(m.open, owner)
			close(h.released)
		}
	}
	m.mu.Unlock()

	return err
}

// Destroy deletes owner's store. While a session still holds the store it
// waits for that session to close; only ctx cancellation ends the wait early.
func (m *Manager) Destroy(ctx context.Context, owner string) error {
	if err := validOwner(owner); err != nil {
		return err
	}

	for {
		m.mu.Lock()
		h := m.open[owner]
		if h == nil {
			err := removeStore(m.Path(owner))
			m.mu.Unlock()
			if err == nil {
				m.logger.Info(ctx, "store destroyed", "owner", owner)
			}
			return err
		}
		released := h.released
		m.mu.Unlock()

		m.logger.Debug(ctx, "store busy, waiting for release", "owner", owner)
		select {
		case <-released:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func removeStore(path string) error {
	var errs []error
	for _, suffix := range storeSuffixes {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
