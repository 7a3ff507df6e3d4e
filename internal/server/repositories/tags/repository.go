package tags

import (
	"context"

	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

type Repository interface {
	UpsertReturningKeys(ctx context.Context, entryID ids.EntryID, tags []models.TagSync) ([]string, error)
	DeleteKeysNotIn(ctx context.Context, entryID ids.EntryID, keys []string) error
	DeleteAll(ctx context.Context, entryID ids.EntryID) error
	ListForEntry(ctx context.Context, entryID ids.EntryID) ([]*models.EntryTag, error)
}
