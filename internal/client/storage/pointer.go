package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const pointerFile = "active"

// Remember records owner as the active user for later invocations.
func (m *Manager) Remember(owner string) error {
	if err := validOwner(owner); err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return os.WriteFile(filepath.Join(m.dir, pointerFile), []byte(owner+"\n"), 0o600)
}

// Recall returns the remembered owner or "" when nobody is logged in.
func (m *Manager) Recall() (string, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, pointerFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	owner := strings.TrimSpace(string(data))
	if owner != "" {
		if err := validOwner(owner); err != nil {
			return "", err
		}
	}
	return owner, nil
}

func (m *Manager) Forget() error {
	err := os.Remove(filepath.Join(m.dir, pointerFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
