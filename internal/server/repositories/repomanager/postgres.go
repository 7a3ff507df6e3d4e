// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/DAC098/TJ2-sub001/internal/dbx"
	"github.com/DAC098/TJ2-sub001/internal/server/migrations"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/entries"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/fieldvalues"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/files"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/journals"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/peers"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/recoverycodes"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/sessions"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/tags"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RecoveryCodes(db dbx.DBTX) recoverycodes.Repository {
	return recoverycodes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Peers(db dbx.DBTX) peers.Repository {
	return peers.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Journals(db dbx.DBTX) journals.Repository {
	return journals.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Entries(db dbx.DBTX) entries.Repository {
	return entries.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Tags(db dbx.DBTX) tags.Repository {
	return tags.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) FieldValues(db dbx.DBTX) fieldvalues.Repository {
	return fieldvalues.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
