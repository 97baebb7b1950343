package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to either the pool or a
// transaction, so services choose the scope per call.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Expenses(db dbx.DBTX) expenses.Repository
}
