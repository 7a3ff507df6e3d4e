// Package services contains server-side business logic. This file implements
// AuthService: the peer handshake, password login, session verification, and
// per-request session acceptance.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/dbx"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/keys"
	"github.com/DAC098/TJ2-sub001/internal/server/auth"
	"github.com/DAC098/TJ2-sub001/internal/server/config"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/repomanager"
)

// AuthService handles identity:
// - Handshake: challenge-response mutual authentication of peers
// - Login/Verify: password login plus second-factor verification
// - Authenticate: per-request session acceptance
type AuthService struct {
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	serverKey          *keys.PrivateKey
	jwtSecret          []byte
	sessionDuration    time.Duration
	apiSessionDuration time.Duration

	// random is the source for challenge data, injectable for tests.
	random io.Reader
}

// NewAuthService constructs an AuthService from the server key pair,
// repositories and config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, serverKey *keys.PrivateKey, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                 db,
		repomanager:        m,
		serverKey:          serverKey,
		jwtSecret:          []byte(cfg.SecretKey),
		sessionDuration:    cfg.SessionDuration,
		apiSessionDuration: cfg.ApiSessionDuration,
		random:             rand.Reader,
	}
}

// HandshakeResult is returned to the initiator after a successful handshake.
type HandshakeResult struct {
	// Result restates the initiator's challenge data in the clear, proving
	// the server decrypted it.
	Result []byte
	// Challenge is the server's counter-challenge, encrypted for the
	// initiator and bound to the issued session.
	Challenge []byte
	// Token is the bearer credential for the issued session.
	Token string
}

// Handshake runs the server side of the challenge-response protocol. The
// claimed public key is resolved to a registered peer and the challenge is
// decrypted under the shared channel; on success an authenticated API
// session is issued. Every failure collapses to ErrorUnauthorized; the
// failing sub-step is never revealed to the caller, and no session is
// issued.
func (s *AuthService) Handshake(ctx context.Context, claimed keys.PublicKey, challenge []byte) (*HandshakeResult, error) {
	peer, err := s.repomanager.Peers(s.db).GetByPublicKey(ctx, claimed.Hex())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	channel := keys.NewBox(s.serverKey, claimed)

	dataA, err := auth.OpenChallenge(channel, challenge)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	dataB, err := auth.NewChallengeData(s.random)
	if err != nil {
		return nil, common.ErrorInternal
	}

	now := time.Now()
	session := &models.Session{
		ID:            ids.NewSessionID(),
		UserID:        peer.UserID,
		Kind:          models.SessionToken,
		Authenticated: true,
		CreatedOn:     now,
		ExpiresOn:     now.Add(s.apiSessionDuration),
	}
	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		return nil, common.ErrorInternal
	}

	answer, err := auth.SealAnswer(channel, dataB, session.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	token, err := auth.GenerateToken(session.ID, s.jwtSecret, s.apiSessionDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &HandshakeResult{Result: dataA, Challenge: answer, Token: token}, nil
}

// Register creates a new user with the given username and password.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	salt := common.GenerateRandByteArray(32)
	user := &models.User{
		Username:     username,
		PasswordSalt: salt,
		PasswordHash: hashPassword([]byte(password), salt),
	}
	return s.repomanager.Users(s.db).Create(ctx, user)
}

// RegisterPeer registers a remote peer server under the given user,
// identified by its public key.
func (s *AuthService) RegisterPeer(ctx context.Context, userID ids.UserID, name string, publicKey keys.PublicKey, addr string) (*models.Peer, error) {
	peer := &models.Peer{
		UserID:       userID,
		Name:         name,
		PublicKeyHex: publicKey.Hex(),
		Addr:         addr,
	}
	if err := s.repomanager.Peers(s.db).Create(ctx, peer); err != nil {
		return nil, err
	}
	return peer, nil
}

// Login verifies the password and, on success, issues a cookie session that
// is authenticated but not yet verified. Unknown users and wrong passwords
// are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Session, string, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", common.ErrorInternal
	}

	candidate := hashPassword([]byte(password), user.PasswordSalt)
	match := subtle.ConstantTimeCompare(user.PasswordHash, candidate) == 1
	common.WipeByteArray(candidate)
	if !match {
		return nil, "", common.ErrorUnauthorized
	}

	now := time.Now()
	session := &models.Session{
		ID:            ids.NewSessionID(),
		UserID:        user.ID,
		Kind:          models.SessionCookie,
		Authenticated: true,
		CreatedOn:     now,
		ExpiresOn:     now.Add(s.sessionDuration),
	}
	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		return nil, "", common.ErrorInternal
	}

	token, err := auth.GenerateToken(session.ID, s.jwtSecret, s.sessionDuration)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return session, token, nil
}

// Verify consumes a single-use recovery code and flips the session's
// verified flag. The consumption is one atomic update, so the same code can
// never verify twice, even under concurrent use.
func (s *AuthService) Verify(ctx context.Context, session *models.Session, code string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RecoveryCodes(tx).Consume(ctx, session.UserID, hashRecoveryCode(code)); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return common.ErrorInternal
		}
		return s.repomanager.Sessions(tx).MarkVerified(ctx, session.ID)
	})
}

// IssueRecoveryCodes replaces the user's recovery codes and returns the
// plaintext codes. They are shown once; only hashes are stored.
func (s *AuthService) IssueRecoveryCodes(ctx context.Context, userID ids.UserID, count int) ([]string, error) {
	codes := make([]string, count)
	hashes := make([]string, count)
	for i := range codes {
		code, err := common.MakeRandHexString(8)
		if err != nil {
			return nil, common.ErrorInternal
		}
		codes[i] = code
		hashes[i] = hashRecoveryCode(code)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.RecoveryCodes(tx).Replace(ctx, userID, hashes)
	})
	if err != nil {
		return nil, common.ErrorInternal
	}
	return codes, nil
}

// Authenticate re-reads the session row named by the bearer token and
// applies the acceptance rule for its kind. There is no cached session
// state, so revocation and expiry take effect on the next request. Expired
// rows are deleted lazily here.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	sessionID, err := auth.GetSessionIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Sessions(s.db)
	session, err := repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	now := time.Now()
	if session.Expired(now) {
		_ = repo.Delete(ctx, session.ID)
		return nil, common.ErrSessionExpired
	}
	if !session.Authenticated {
		return nil, common.ErrorUnauthorized
	}
	if session.Kind == models.SessionCookie && !session.Verified {
		// The session itself is live; callers that only need authentication
		// (the verification endpoint) still get it alongside the error.
		return session, common.ErrSessionNotVerified
	}
	return session, nil
}

// hashPassword derives the stored password verifier with argon2id.
func hashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// hashRecoveryCode hashes a recovery code for storage and lookup.
func hashRecoveryCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
