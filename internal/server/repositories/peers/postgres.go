// Package peers provides the PostgreSQL-backed registry of remote peer
// servers, keyed by their public key. It backs the "resolve public key to
// known identity" step of the handshake.
package peers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/dbx"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

// PostgresRepository implements peer storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create registers a peer. A duplicate public key maps to ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, peer *models.Peer) error {
	if peer.ID == "" {
		peer.ID = ids.NewPeerID()
	}
	query := `
		INSERT INTO peers (id, user_id, name, public_key, addr)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (public_key) DO NOTHING;
	`
	res, err := r.db.ExecContext(ctx, query, peer.ID, peer.UserID, peer.Name, peer.PublicKeyHex, peer.Addr)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

// GetByPublicKey resolves a hex public key to a registered peer or
// ErrorNotFound.
func (r *PostgresRepository) GetByPublicKey(ctx context.Context, publicKeyHex string) (*models.Peer, error) {
	query := `
		SELECT id, user_id, name, public_key, addr, created_at FROM peers
		WHERE public_key=$1
	`
	peer := &models.Peer{}
	err := r.db.QueryRowContext(ctx, query, publicKeyHex).Scan(
		&peer.ID, &peer.UserID, &peer.Name, &peer.PublicKeyHex, &peer.Addr, &peer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select peer: %w", err)
	}
	return peer, nil
}
