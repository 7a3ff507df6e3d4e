package recoverycodes

import (
	"context"

	"github.com/DAC098/TJ2-sub001/internal/ids"
)

type Repository interface {
	Replace(ctx context.Context, userID ids.UserID, hashes []string) error
	Consume(ctx context.Context, userID ids.UserID, hash string) error
}
