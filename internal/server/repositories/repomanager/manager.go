package repomanager

import (
	"context"
	"database/sql"

	"github.com/DAC098/TJ2-sub001/internal/dbx"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/entries"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/fieldvalues"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/files"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/journals"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/peers"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/recoverycodes"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/sessions"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/tags"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a plain connection or a
// transaction, so services can compose multi-repository transactions
// through one dbx.DBTX handle.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	RecoveryCodes(db dbx.DBTX) recoverycodes.Repository
	Peers(db dbx.DBTX) peers.Repository
	Journals(db dbx.DBTX) journals.Repository
	Entries(db dbx.DBTX) entries.Repository
	Tags(db dbx.DBTX) tags.Repository
	FieldValues(db dbx.DBTX) fieldvalues.Repository
	Files(db dbx.DBTX) files.Repository
}
