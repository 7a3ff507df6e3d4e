package sessions

import (
	"context"

	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id ids.SessionID) (*models.Session, error)
	MarkVerified(ctx context.Context, id ids.SessionID) error
	Delete(ctx context.Context, id ids.SessionID) error
}
