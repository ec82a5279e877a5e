package repomanager

import (
	"context"
	"database/sql"

	"github.com/mediavault/mediavault/internal/dbx"
	"github.com/mediavault/mediavault/internal/server/repositories/albums"
	"github.com/mediavault/mediavault/internal/server/repositories/files"
	"github.com/mediavault/mediavault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// several repository calls inside one transaction when they need to.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Files(db dbx.DBTX) files.Repository
	Albums(db dbx.DBTX) albums.Repository
	Users(db dbx.DBTX) users.Repository
}
