// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/DAC098/TJ2-sub001/internal/ids"
)

type User struct {
	ID           ids.UserID
	Username     string
	PasswordSalt []byte
	PasswordHash []byte
	CreatedAt    time.Time
}

// RecoveryCode is a single-use second-factor fallback. Only the SHA-256 hash
// of the code is stored; the plaintext is shown to the user once at issuance.
type RecoveryCode struct {
	UserID ids.UserID
	Hash   string
	Used   bool
	UsedOn *time.Time
}
