// Package repomanager vends repositories bound to a connection or a
// transaction and owns the schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/remindsync/internal/dbx"
	"github.com/dmitrijs2005/remindsync/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/remindsync/internal/server/repositories/reminders"
	"github.com/dmitrijs2005/remindsync/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Reminders(db dbx.DBTX) reminders.Repository
}
