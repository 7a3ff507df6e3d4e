// Package recoverycodes provides the PostgreSQL-backed repository for
// single-use account recovery codes.
package recoverycodes

import (
	"context"
	"fmt"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/dbx"
	"github.com/DAC098/TJ2-sub001/internal/ids"
)

// PostgresRepository implements recovery-code storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Replace drops all codes for the user and inserts the new hashes.
// Callers run this inside a transaction so the user is never left with a
// partial code set.
func (r *PostgresRepository) Replace(ctx context.Context, userID ids.UserID, hashes []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recovery_codes WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, hash := range hashes {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO recovery_codes (user_id, hash) VALUES ($1, $2)`, userID, hash)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

// Consume marks the code with the given hash as used. The check and the
// marking are one atomic UPDATE guarded by used=FALSE, so a code already
// marked used can never verify again, even under concurrent use.
func (r *PostgresRepository) Consume(ctx context.Context, userID ids.UserID, hash string) error {
	query := `
		UPDATE recovery_codes SET used=TRUE, used_on=now()
		WHERE user_id=$1 AND hash=$2 AND used=FALSE
	`
	res, err := r.db.ExecContext(ctx, query, userID, hash)
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
