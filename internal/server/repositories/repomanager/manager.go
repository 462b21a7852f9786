package repomanager

import (
	"context"
	"database/sql"

	"github.com/smartscan/admingate/internal/dbx"
	"github.com/smartscan/admingate/internal/server/repositories/admins"
)

// RepositoryManager hands out store implementations bound to a connection
// or transaction and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Admins(db dbx.DBTX) admins.Repository
}
