// Package entries provides the PostgreSQL-backed repository for journal
// entries.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/dbx"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

// pgUniqueViolation is the PostgreSQL error code for unique-constraint
// violations that hit a constraint other than the upsert's conflict target.
const pgUniqueViolation = "23505"

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts or updates an entry by ID. If a conflicting row belongs to
// a different journal, no row is updated and ErrorOwnershipMismatch is
// returned. A new ID colliding with another uniqueness rule (one entry per
// journal and date) maps to ErrorDuplicateKey naming the violated
// constraint. Returns an error for DB failures or unexpected rows affected.
func (r *PostgresRepository) Upsert(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO entries (id, journal_id, user_id, entry_date, title, contents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET
			entry_date = EXCLUDED.entry_date,
			title = EXCLUDED.title,
			contents = EXCLUDED.contents,
			updated_at = EXCLUDED.updated_at
			WHERE entries.journal_id = EXCLUDED.journal_id;
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.JournalID, entry.UserID, entry.Date, entry.Title,
		entry.Contents, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", common.ErrorDuplicateKey, pgErr.ConstraintName)
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorOwnershipMismatch
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// GetByID returns the entry with the given ID or ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id ids.EntryID) (*models.Entry, error) {
	query := `
		SELECT id, journal_id, user_id, entry_date, title, contents, created_at, updated_at FROM entries
		WHERE id=$1
	`
	entry := &models.Entry{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.JournalID, &entry.UserID, &entry.Date, &entry.Title,
		&entry.Contents, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	return entry, nil
}
