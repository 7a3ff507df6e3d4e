// Package tags provides the PostgreSQL-backed repository for entry tags.
// The upsert-returning-touched-keys form lets the reconciliation engine
// achieve payload/database set-equality without a read-then-diff pass.
package tags

import (
	"context"
	"fmt"
	"strings"

	"github.com/DAC098/TJ2-sub001/internal/dbx"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

// PostgresRepository implements tag storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpsertReturningKeys inserts or updates every incoming tag for the entry in
// one statement and returns the touched keys. Must not be called with an
// empty slice; callers use DeleteAll for the empty payload case.
func (r *PostgresRepository) UpsertReturningKeys(ctx context.Context, entryID ids.EntryID, tags []models.TagSync) ([]string, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("empty tag list")
	}

	var values strings.Builder
	args := make([]any, 0, len(tags)*4+1)
	args = append(args, entryID)
	for i, tag := range tags {
		if i > 0 {
			values.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&values, "($1, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		args = append(args, tag.Key, tag.Value, tag.Created, tag.Updated)
	}

	query := fmt.Sprintf(`
		INSERT INTO entry_tags (entry_id, key, value, created_at, updated_at)
		VALUES %s
		ON CONFLICT (entry_id, key)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
		RETURNING key;
	`, values.String())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteKeysNotIn removes every tag of the entry whose key is not in keys.
func (r *PostgresRepository) DeleteKeysNotIn(ctx context.Context, entryID ids.EntryID, keys []string) error {
	query := `DELETE FROM entry_tags WHERE entry_id=$1 AND NOT (key = ANY($2))`
	if _, err := r.db.ExecContext(ctx, query, entryID, keys); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteAll removes every tag of the entry.
func (r *PostgresRepository) DeleteAll(ctx context.Context, entryID ids.EntryID) error {
	query := `DELETE FROM entry_tags WHERE entry_id=$1`
	if _, err := r.db.ExecContext(ctx, query, entryID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListForEntry returns all tags of the entry.
func (r *PostgresRepository) ListForEntry(ctx context.Context, entryID ids.EntryID) ([]*models.EntryTag, error) {
	query := `
		SELECT entry_id, key, value, created_at, updated_at FROM entry_tags
		WHERE entry_id=$1
	`
	rows, err := r.db.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to select tags: %w", err)
	}
	defer rows.Close()

	var result []*models.EntryTag
	for rows.Next() {
		var item models.EntryTag
		if err := rows.Scan(&item.EntryID, &item.Key, &item.Value, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
