// Package users provides the PostgreSQL-backed repository for user accounts.
package users

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

// PostgresRepository implements user storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. A duplicate username maps to ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = ids.NewUserID()
	}
	query := `
		INSERT INTO users (id, username, password_salt, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING;
	`
	res, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.PasswordSalt, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorAlreadyExists
	}
	return user, nil
}

// GetByID returns the user with the given ID or ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id ids.UserID) (*models.User, error) {
	query := `
		SELECT id, username, password_salt, password_hash, created_at FROM users
		WHERE id=$1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByUsername returns the user with the given username or ErrorNotFound.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_salt, password_hash, created_at FROM users
		WHERE username=$1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordSalt, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	return user, nil
}
