// Package journals provides the PostgreSQL-backed repository for journals
// and their custom-field schemas.
package journals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/dbx"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

// PostgresRepository implements journal storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a journal. A duplicate (user, name) pair maps to
// ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, journal *models.Journal) error {
	if journal.ID == "" {
		journal.ID = ids.NewJournalID()
	}
	query := `
		INSERT INTO journals (id, user_id, name, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, name) DO NOTHING;
	`
	res, err := r.db.ExecContext(ctx, query, journal.ID, journal.UserID, journal.Name, journal.Description)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

// GetByID returns the journal with the given ID or ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id ids.JournalID) (*models.Journal, error) {
	query := `
		SELECT id, user_id, name, description, created_at, updated_at FROM journals
		WHERE id=$1
	`
	journal := &models.Journal{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&journal.ID, &journal.UserID, &journal.Name, &journal.Description,
		&journal.CreatedAt, &journal.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select journal: %w", err)
	}
	return journal, nil
}

// CreateField adds a custom field to a journal's schema. A duplicate
// (journal, name) pair maps to ErrorAlreadyExists.
func (r *PostgresRepository) CreateField(ctx context.Context, field *models.CustomField) error {
	if field.ID == "" {
		field.ID = ids.NewFieldID()
	}
	query := `
		INSERT INTO custom_fields (id, journal_id, name, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (journal_id, name) DO NOTHING;
	`
	res, err := r.db.ExecContext(ctx, query, field.ID, field.JournalID, field.Name, field.Position)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

// FieldIDs returns the set of custom-field IDs defined on the journal,
// used to validate incoming custom field values.
func (r *PostgresRepository) FieldIDs(ctx context.Context, journalID ids.JournalID) (map[ids.FieldID]struct{}, error) {
	query := `SELECT id FROM custom_fields WHERE journal_id=$1`
	rows, err := r.db.QueryContext(ctx, query, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to select custom fields: %w", err)
	}
	defer rows.Close()

	result := make(map[ids.FieldID]struct{})
	for rows.Next() {
		var id ids.FieldID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
