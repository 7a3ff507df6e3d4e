package fieldvalues

import (
	"context"

	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

type Repository interface {
	UpsertReturningFields(ctx context.Context, entryID ids.EntryID, values []models.CustomFieldSync) ([]ids.FieldID, error)
	DeleteFieldsNotIn(ctx context.Context, entryID ids.EntryID, fieldIDs []ids.FieldID) error
	DeleteAll(ctx context.Context, entryID ids.EntryID) error
	ListForEntry(ctx context.Context, entryID ids.EntryID) ([]*models.CustomFieldValue, error)
}
