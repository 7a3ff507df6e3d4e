// Package fieldvalues provides the PostgreSQL-backed repository for
// per-entry custom field values, one per field per entry.
package fieldvalues

import (
	"context"
	"fmt"
	"strings"

	"github.com/DAC098/TJ2-sub001/internal/dbx"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

// PostgresRepository implements custom-field-value storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpsertReturningFields inserts or updates every incoming value for the
// entry in one statement and returns the touched field IDs. Must not be
// called with an empty slice; callers use DeleteAll for that case.
func (r *PostgresRepository) UpsertReturningFields(ctx context.Context, entryID ids.EntryID, values []models.CustomFieldSync) ([]ids.FieldID, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("empty value list")
	}

	var rowsSQL strings.Builder
	args := make([]any, 0, len(values)*4+1)
	args = append(args, entryID)
	for i, value := range values {
		if i > 0 {
			rowsSQL.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&rowsSQL, "($1, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		args = append(args, value.FieldID, value.Value, value.Created, value.Updated)
	}

	query := fmt.Sprintf(`
		INSERT INTO custom_field_values (entry_id, field_id, value, created_at, updated_at)
		VALUES %s
		ON CONFLICT (entry_id, field_id)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
		RETURNING field_id;
	`, rowsSQL.String())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var fieldIDs []ids.FieldID
	for rows.Next() {
		var id ids.FieldID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		fieldIDs = append(fieldIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fieldIDs, nil
}

// DeleteFieldsNotIn removes every value of the entry whose field is not in
// fieldIDs.
func (r *PostgresRepository) DeleteFieldsNotIn(ctx context.Context, entryID ids.EntryID, fieldIDs []ids.FieldID) error {
	raw := make([]string, len(fieldIDs))
	for i, id := range fieldIDs {
		raw[i] = id.String()
	}
	query := `DELETE FROM custom_field_values WHERE entry_id=$1 AND NOT (field_id = ANY($2))`
	if _, err := r.db.ExecContext(ctx, query, entryID, raw); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteAll removes every custom field value of the entry.
func (r *PostgresRepository) DeleteAll(ctx context.Context, entryID ids.EntryID) error {
	query := `DELETE FROM custom_field_values WHERE entry_id=$1`
	if _, err := r.db.ExecContext(ctx, query, entryID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListForEntry returns all custom field values of the entry.
func (r *PostgresRepository) ListForEntry(ctx context.Context, entryID ids.EntryID) ([]*models.CustomFieldValue, error) {
	query := `
		SELECT entry_id, field_id, value, created_at, updated_at FROM custom_field_values
		WHERE entry_id=$1
	`
	rows, err := r.db.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to select custom field values: %w", err)
	}
	defer rows.Close()

	var result []*models.CustomFieldValue
	for rows.Next() {
		var item models.CustomFieldValue
		if err := rows.Scan(&item.EntryID, &item.FieldID, &item.Value, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
