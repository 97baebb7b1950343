// Package migrations embeds the schema of a per-owner local store.
//
// 00001 creates the entries and settings collections. 00002 rebuilds the
// secondary indexes and must never touch row data.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var Migrations embed.FS

// gooseLogger forwards goose's progress lines to a Logger at debug level.
type gooseLogger struct {
	ctx context.Context
	l   logging.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Debug(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)), "module", "migrations")
}

// Fatalf only logs: goose reports real failures through returned errors.
func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)), "module", "migrations")
}

// Up applies all pending migrations to a local store. goose output goes to
// the logger carried by ctx and is dropped when there is none.
func Up(ctx context.Context, db *sql.DB) error {
	goose.SetLogger(gooseLogger{ctx: ctx, l: logging.FromContext(ctx)})
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}
