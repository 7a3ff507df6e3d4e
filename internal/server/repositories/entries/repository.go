package entries

import (
	"context"

	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, entry *models.Entry) error
	GetByID(ctx context.Context, id ids.EntryID) (*models.Entry, error)
}
