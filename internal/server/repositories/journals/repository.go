package journals

import (
	"context"

	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, journal *models.Journal) error
	GetByID(ctx context.Context, id ids.JournalID) (*models.Journal, error)
	CreateField(ctx context.Context, field *models.CustomField) error
	FieldIDs(ctx context.Context, journalID ids.JournalID) (map[ids.FieldID]struct{}, error)
}
