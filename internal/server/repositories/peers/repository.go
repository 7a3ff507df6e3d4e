package peers

import (
	"context"

	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, peer *models.Peer) error
	GetByPublicKey(ctx context.Context, publicKeyHex string) (*models.Peer, error)
}
