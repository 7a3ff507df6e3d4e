package files

import (
	"context"

	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

type Repository interface {
	ListForEntry(ctx context.Context, entryID ids.EntryID) ([]*models.FileEntry, error)
	GetByUID(ctx context.Context, uid ids.FileUID) (*models.FileEntry, error)
	Insert(ctx context.Context, file *models.FileEntry) error
	UpdateName(ctx context.Context, uid ids.FileUID, name string) error
	Delete(ctx context.Context, uids []ids.FileUID) error
	MarkReceived(ctx context.Context, uid ids.FileUID, size int64, hash string) error
}
