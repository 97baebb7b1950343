// Package idgen produces entry and user identifiers without a round-trip to
// the server.
//
// Entry ids look like
//
//	20250101123045-2-Ab3x-<owner>
//
// (timestamp to the second, a per-second counter, four random symbols and the
// owner id). User ids are a base61 millisecond timestamp followed by a random
// base61 suffix whose length grows by one symbol after every collision.
package idgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/base61"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
)

const (
	entryTimeLayout     = "20060102150405"
	entryRandomLength   = 4
	userSuffixMinLength = 3

	// DefaultMaxAttempts bounds NewUserID when no option overrides it.
	DefaultMaxAttempts = 8
)

// ExistsFunc reports whether a candidate id is already taken.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// Generator is safe for concurrent use.
type Generator struct {
	mu          sync.Mutex
	now         func() time.Time
	randIndex   func(n int) (int, error)
	maxAttempts int

	second  int64
	counter uint64
}

type Option func(*Generator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithMaxAttempts bounds the number of candidates NewUserID will try.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{
		now:         time.Now,
		randIndex:   cryptoRandIndex,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func cryptoRandIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func (g *Generator) randomString(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		idx, err := g.randIndex(len(base61.Alphabet))
		if err != nil {
			return "", fmt.Errorf("random source: %w", err)
		}
		sb.WriteByte(base61.Alphabet[idx])
	}
	return sb.String(), nil
}

// NewEntryID returns a new id scoped to owner.
func (g *Generator) NewEntryID(owner string) (string, error) {
	if owner == "" {
		return "", common.ErrNoActiveUser
	}

	g.mu.Lock()
	now := g.now().UTC()
	sec := now.Unix()
	if sec != g.second {
		g.second = sec
		g.counter = 0
	}
	n := g.counter
	g.counter++
	g.mu.Unlock()

	r, err := g.randomString(entryRandomLength)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%s-%s", now.Format(entryTimeLayout), base61.Encode(n), r, owner), nil
}

// NewUserID returns an id that exists reports as free. A failing lookup is
// returned as is; running out of attempts yields common.ErrIDGenerationExhausted.
func (g *Generator) NewUserID(ctx context.Context, exists ExistsFunc) (string, error) {
	prefix := base61.Encode(uint64(g.now().UnixMilli()))
	length := userSuffixMinLength

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		suffix, err := g.randomString(length)
		if err != nil {
			return "", err
		}
		candidate := prefix + suffix

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("user id uniqueness check: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		length++
	}

	return "", fmt.Errorf("%w after %d attempts", common.ErrIDGenerationExhausted, g.maxAttempts)
}
