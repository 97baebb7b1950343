package storage

import (
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
)

// Session is the explicit handle for one active owner and their open store.
// Every store operation takes it; a closed session rejects all of them.
type Session struct {
	mu    sync.RWMutex
	owner string
	db    *sql.DB
}

func (s *Session) Owner() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

func (s *Session) DB() *sql.DB {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Check reports common.ErrNoActiveUser before common.ErrStoreNotInitialized.
func (s *Session) Check() error {
	if s == nil {
		return common.ErrNoActiveUser
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.owner == "" {
		return common.ErrNoActiveUser
	}
	if s.db == nil {
		return common.ErrStoreNotInitialized
	}
	return nil
}

// detach clears the session and hands back the handle it held.
func (s *Session) detach() (string, *sql.DB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, db := s.owner, s.db
	s.owner, s.db = "", nil
	return owner, db
}
