package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/mymee/internal/dbx"
	"github.com/dmitrijs2005/mymee/internal/server/repositories/invitetokens"
	"github.com/dmitrijs2005/mymee/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	InviteTokens(db dbx.DBTX) invitetokens.Repository
}
