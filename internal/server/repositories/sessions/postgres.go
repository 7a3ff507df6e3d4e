// Package sessions provides the PostgreSQL-backed repository for issued
// session credentials. Sessions are always re-read from the database on
// access; there is no in-memory cache.
package sessions

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

// PostgresRepository implements session storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new session row.
func (r *PostgresRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, kind, authenticated, verified, created_on, expires_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.Kind, session.Authenticated,
		session.Verified, session.CreatedOn, session.ExpiresOn)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the session with the given ID or ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id ids.SessionID) (*models.Session, error) {
	query := `
		SELECT id, user_id, kind, authenticated, verified, created_on, expires_on FROM sessions
		WHERE id=$1
	`
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.Kind, &session.Authenticated,
		&session.Verified, &session.CreatedOn, &session.ExpiresOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select session: %w", err)
	}
	return session, nil
}

// MarkVerified flips the verified flag. Exactly one row must be affected.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id ids.SessionID) error {
	query := `UPDATE sessions SET verified=TRUE WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes the session row. Deleting an absent session is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id ids.SessionID) error {
	query := `DELETE FROM sessions WHERE id=$1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
