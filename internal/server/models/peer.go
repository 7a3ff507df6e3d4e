package models

import (
	"time"

	"github.com/DAC098/TJ2-sub001/internal/ids"
)

// Peer is another server instance allowed to synchronize with this one,
// identified by its public key (stored hex-encoded).
type Peer struct {
	ID           ids.PeerID
	UserID       ids.UserID
	Name         string
	PublicKeyHex string
	Addr         string
	CreatedAt    time.Time
}
