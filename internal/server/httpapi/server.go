// Package httpapi exposes the server's operations over HTTP/JSON: the peer
// handshake, password login and verification, entry reconciliation, and the
// attachment content hooks.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/keys"
	"github.com/DAC098/TJ2-sub001/internal/logging"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
	"github.com/DAC098/TJ2-sub001/internal/server/services"
)

// Authenticator is the slice of the auth service the HTTP layer needs.
type Authenticator interface {
	Handshake(ctx context.Context, claimed keys.PublicKey, challenge []byte) (*services.HandshakeResult, error)
	Login(ctx context.Context, username, password string) (*models.Session, string, error)
	Verify(ctx context.Context, session *models.Session, code string) error
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

// Syncer is the slice of the sync service the HTTP layer needs.
type Syncer interface {
	SyncEntry(ctx context.Context, userID ids.UserID, payload *models.EntrySync) error
	ReceiveFile(ctx context.Context, userID ids.UserID, uid ids.FileUID, content io.Reader) (*models.FileEntry, error)
}

// Presigner hands out object-storage URLs for bulk content transfer.
type Presigner interface {
	PresignDownload(ctx context.Context, userID ids.UserID, uid ids.FileUID) (string, error)
	PresignUpload(ctx context.Context, userID ids.UserID, uid ids.FileUID) (string, error)
}

type Server struct {
	address string
	logger  logging.Logger
	auth    Authenticator
	sync    Syncer
	storage Presigner
	timeout time.Duration
}

func NewServer(address string, l logging.Logger, auth Authenticator, sync Syncer, storage Presigner, timeout time.Duration) *Server {
	return &Server{
		address: address,
		logger:  l.With("module", "http_server"),
		auth:    auth,
		sync:    sync,
		storage: storage,
		timeout: timeout,
	}
}

// Handler builds the route table. Split from Run so tests can drive it
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/handshake", s.withTimeout(s.handleHandshake))
	mux.HandleFunc("POST /auth/login", s.withTimeout(s.handleLogin))
	mux.HandleFunc("POST /auth/verify", s.withTimeout(s.withSession(s.handleVerify, false)))
	mux.HandleFunc("POST /sync/entries", s.withTimeout(s.withSession(s.handleSyncEntries, true)))
	mux.HandleFunc("PUT /sync/files/{uid}", s.withTimeout(s.withSession(s.handleReceiveFile, true)))
	mux.HandleFunc("GET /sync/files/{uid}", s.withTimeout(s.withSession(s.handleFileURL, true)))

	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
