// Package files provides the PostgreSQL-backed repository for file
// attachment metadata. File UIDs are unique globally, so inserts can
// conflict with rows owned by other entries; that maps to ErrorDuplicateKey.
package files

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

// PostgresRepository implements file-metadata storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `uid, entry_id, name, mime_type, size, hash, status, created_at, updated_at`

// ListForEntry returns all file rows of the entry.
func (r *PostgresRepository) ListForEntry(ctx context.Context, entryID ids.EntryID) ([]*models.FileEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE entry_id=$1`, selectColumns)
	rows, err := r.db.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.FileEntry
	for rows.Next() {
		item, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByUID returns the file row with the given UID or ErrorNotFound.
func (r *PostgresRepository) GetByUID(ctx context.Context, uid ids.FileUID) (*models.FileEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE uid=$1`, selectColumns)
	item := &models.FileEntry{}
	err := r.db.QueryRowContext(ctx, query, uid).Scan(
		&item.UID, &item.EntryID, &item.Name, &item.MimeType, &item.Size,
		&item.Hash, &item.Status, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return item, nil
}

// Insert creates a new file row. A UID already taken (by any entry) maps to
// ErrorDuplicateKey.
func (r *PostgresRepository) Insert(ctx context.Context, file *models.FileEntry) error {
	query := `
		INSERT INTO files (uid, entry_id, name, mime_type, size, hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (uid) DO NOTHING;
	`
	res, err := r.db.ExecContext(ctx, query,
		file.UID, file.EntryID, file.Name, file.MimeType, file.Size,
		file.Hash, file.Status, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorDuplicateKey
	}
	return nil
}

// UpdateName renames the file row. Exactly one row must be affected.
func (r *PostgresRepository) UpdateName(ctx context.Context, uid ids.FileUID, name string) error {
	query := `UPDATE files SET name=$2, updated_at=now() WHERE uid=$1`
	res, err := r.db.ExecContext(ctx, query, uid, name)
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

// Delete removes the given file rows. No-op on an empty list.
func (r *PostgresRepository) Delete(ctx context.Context, uids []ids.FileUID) error {
	if len(uids) == 0 {
		return nil
	}
	raw := make([]string, len(uids))
	for i, uid := range uids {
		raw[i] = uid.String()
	}
	query := `DELETE FROM files WHERE uid = ANY($1)`
	if _, err := r.db.ExecContext(ctx, query, raw); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// MarkReceived records the materialized content's size and hash and flips
// the row's status to received.
func (r *PostgresRepository) MarkReceived(ctx context.Context, uid ids.FileUID, size int64, hash string) error {
	query := `UPDATE files SET size=$2, hash=$3, status=$4, updated_at=now() WHERE uid=$1`
	res, err := r.db.ExecContext(ctx, query, uid, size, hash, models.FileReceived)
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

func scanFile(rows *sql.Rows) (*models.FileEntry, error) {
	item := &models.FileEntry{}
	if err := rows.Scan(
		&item.UID, &item.EntryID, &item.Name, &item.MimeType, &item.Size,
		&item.Hash, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	return item, nil
}
