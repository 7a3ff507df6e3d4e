package services

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/dbx"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/keys"
	"github.com/DAC098/TJ2-sub001/internal/server/auth"
	"github.com/DAC098/TJ2-sub001/internal/server/config"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/peers"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/recoverycodes"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/sessions"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/users"
)

// -------- test fakes --------

type fakeUsersRepo struct {
	users.Repository
	user   *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = ids.NewUserID()
	f.user = user
	return user, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.user, nil
}

type fakeSessionsRepo struct {
	sessions.Repository
	created  []*models.Session
	stored   *models.Session
	getErr   error
	verified []ids.SessionID
	deleted  []ids.SessionID
}

func (f *fakeSessionsRepo) Create(ctx context.Context, session *models.Session) error {
	f.created = append(f.created, session)
	f.stored = session
	return nil
}

func (f *fakeSessionsRepo) Get(ctx context.Context, id ids.SessionID) (*models.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.stored == nil || f.stored.ID != id {
		return nil, common.ErrorNotFound
	}
	dup := *f.stored
	return &dup, nil
}

func (f *fakeSessionsRepo) MarkVerified(ctx context.Context, id ids.SessionID) error {
	f.verified = append(f.verified, id)
	return nil
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, id ids.SessionID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePeersRepo struct {
	peers.Repository
	peer    *models.Peer
	created *models.Peer
}

func (f *fakePeersRepo) Create(ctx context.Context, peer *models.Peer) error {
	f.created = peer
	return nil
}

func (f *fakePeersRepo) GetByPublicKey(ctx context.Context, publicKeyHex string) (*models.Peer, error) {
	if f.peer == nil || f.peer.PublicKeyHex != publicKeyHex {
		return nil, common.ErrorNotFound
	}
	return f.peer, nil
}

type fakeRecoveryCodesRepo struct {
	recoverycodes.Repository
	stored     []string
	consumeErr error
	consumed   []string
}

func (f *fakeRecoveryCodesRepo) Replace(ctx context.Context, userID ids.UserID, hashes []string) error {
	f.stored = hashes
	return nil
}

func (f *fakeRecoveryCodesRepo) Consume(ctx context.Context, userID ids.UserID, hash string) error {
	if f.consumeErr != nil {
		return f.consumeErr
	}
	f.consumed = append(f.consumed, hash)
	return nil
}

type fakeAuthRepoManager struct {
	fakeRepoManager
	u  *fakeUsersRepo
	s  *fakeSessionsRepo
	p  *fakePeersRepo
	rc *fakeRecoveryCodesRepo
}

func (m *fakeAuthRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeAuthRepoManager) Sessions(db dbx.DBTX) sessions.Repository           { return m.s }
func (m *fakeAuthRepoManager) Peers(db dbx.DBTX) peers.Repository                 { return m.p }
func (m *fakeAuthRepoManager) RecoveryCodes(db dbx.DBTX) recoverycodes.Repository { return m.rc }

// -------- helpers --------

func newAuthFixture(t *testing.T) (*AuthService, *fakeAuthRepoManager, *keys.PrivateKey) {
	t.Helper()
	db, _ := newSQLMockDB(t)

	m := &fakeAuthRepoManager{
		u:  &fakeUsersRepo{},
		s:  &fakeSessionsRepo{},
		p:  &fakePeersRepo{},
		rc: &fakeRecoveryCodesRepo{},
	}

	serverKey, err := keys.Generate(rand.Reader)
	require.NoError(t, err)

	cfg := &config.Config{
		SecretKey:          "test-secret",
		SessionDuration:    time.Hour,
		ApiSessionDuration: 15 * time.Minute,
	}

	return NewAuthService(db, m, serverKey, cfg), m, serverKey
}

func registerTestUser(t *testing.T, svc *AuthService, m *fakeAuthRepoManager, password string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), "alice", password)
	require.NoError(t, err)
	require.NotNil(t, m.u.user)
	return user
}

// -------- tests --------

func TestHandshake_Success(t *testing.T) {
	svc, m, serverKey := newAuthFixture(t)

	peerKey, err := keys.Generate(rand.Reader)
	require.NoError(t, err)
	m.p.peer = &models.Peer{
		ID:           ids.NewPeerID(),
		UserID:       ids.NewUserID(),
		Name:         "laptop",
		PublicKeyHex: peerKey.Public().Hex(),
	}

	initiatorBox := keys.NewBox(peerKey, serverKey.Public())
	dataA, err := auth.NewChallengeData(rand.Reader)
	require.NoError(t, err)
	challenge, err := auth.SealChallenge(initiatorBox, dataA)
	require.NoError(t, err)

	result, err := svc.Handshake(context.Background(), peerKey.Public(), challenge)
	require.NoError(t, err)

	// The initiator's data comes back in the clear.
	assert.Equal(t, dataA, result.Result)

	// An authenticated token session was issued for the peer's user.
	require.Len(t, m.s.created, 1)
	session := m.s.created[0]
	assert.Equal(t, m.p.peer.UserID, session.UserID)
	assert.Equal(t, models.SessionToken, session.Kind)
	assert.True(t, session.Authenticated)

	// The counter-challenge opens and is bound to that session.
	dataB, err := auth.OpenAnswer(initiatorBox, result.Challenge, session.ID)
	require.NoError(t, err)
	assert.Len(t, dataB, auth.ChallengeDataSize)

	// The bearer token names the same session.
	sessionID, err := auth.GetSessionIDFromToken(result.Token, []byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, session.ID, sessionID)
}

func TestHandshake_UnknownPublicKey(t *testing.T) {
	svc, m, serverKey := newAuthFixture(t)

	peerKey, err := keys.Generate(rand.Reader)
	require.NoError(t, err)

	initiatorBox := keys.NewBox(peerKey, serverKey.Public())
	dataA, err := auth.NewChallengeData(rand.Reader)
	require.NoError(t, err)
	challenge, err := auth.SealChallenge(initiatorBox, dataA)
	require.NoError(t, err)

	_, err = svc.Handshake(context.Background(), peerKey.Public(), challenge)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Empty(t, m.s.created)
}

func TestHandshake_BadChallenge(t *testing.T) {
	svc, m, _ := newAuthFixture(t)

	peerKey, err := keys.Generate(rand.Reader)
	require.NoError(t, err)
	m.p.peer = &models.Peer{
		ID:           ids.NewPeerID(),
		UserID:       ids.NewUserID(),
		PublicKeyHex: peerKey.Public().Hex(),
	}

	_, err = svc.Handshake(context.Background(), peerKey.Public(), []byte("garbage"))
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Empty(t, m.s.created)
}

func TestLogin_Success(t *testing.T) {
	svc, m, _ := newAuthFixture(t)
	registerTestUser(t, svc, m, "correct horse")

	session, token, err := svc.Login(context.Background(), "alice", "correct horse")
	require.NoError(t, err)

	assert.Equal(t, models.SessionCookie, session.Kind)
	assert.True(t, session.Authenticated)
	assert.False(t, session.Verified)

	sessionID, err := auth.GetSessionIDFromToken(token, []byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, session.ID, sessionID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, m, _ := newAuthFixture(t)
	registerTestUser(t, svc, m, "correct horse")

	_, _, err := svc.Login(context.Background(), "alice", "battery staple")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, m, _ := newAuthFixture(t)
	m.u.getErr = common.ErrorNotFound

	_, _, err := svc.Login(context.Background(), "nobody", "whatever")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestVerify_ConsumesCodeAndMarksSession(t *testing.T) {
	svc, m, _ := newAuthFixture(t)
	db, mock := newSQLMockDB(t)
	svc.db = db

	mock.ExpectBegin()
	mock.ExpectCommit()

	session := &models.Session{ID: ids.NewSessionID(), UserID: ids.NewUserID()}
	require.NoError(t, svc.Verify(context.Background(), session, "abcd1234"))

	require.Len(t, m.rc.consumed, 1)
	assert.Equal(t, hashRecoveryCode("abcd1234"), m.rc.consumed[0])
	assert.Equal(t, []ids.SessionID{session.ID}, m.s.verified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerify_BadCode(t *testing.T) {
	svc, m, _ := newAuthFixture(t)
	db, mock := newSQLMockDB(t)
	svc.db = db
	m.rc.consumeErr = common.ErrorNotFound

	mock.ExpectBegin()
	mock.ExpectRollback()

	session := &models.Session{ID: ids.NewSessionID(), UserID: ids.NewUserID()}
	err := svc.Verify(context.Background(), session, "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Empty(t, m.s.verified)
}

func TestIssueRecoveryCodes(t *testing.T) {
	svc, m, _ := newAuthFixture(t)
	db, mock := newSQLMockDB(t)
	svc.db = db

	mock.ExpectBegin()
	mock.ExpectCommit()

	codes, err := svc.IssueRecoveryCodes(context.Background(), ids.NewUserID(), 5)
	require.NoError(t, err)
	require.Len(t, codes, 5)
	require.Len(t, m.rc.stored, 5)

	for i, code := range codes {
		assert.Equal(t, hashRecoveryCode(code), m.rc.stored[i])
	}
}

func TestAuthenticate_TokenSession(t *testing.T) {
	svc, m, _ := newAuthFixture(t)

	now := time.Now()
	session := &models.Session{
		ID:            ids.NewSessionID(),
		UserID:        ids.NewUserID(),
		Kind:          models.SessionToken,
		Authenticated: true,
		CreatedOn:     now,
		ExpiresOn:     now.Add(time.Hour),
	}
	m.s.stored = session

	token, err := auth.GenerateToken(session.ID, []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	got, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
}

func TestAuthenticate_ExpiredRowDeletedLazily(t *testing.T) {
	svc, m, _ := newAuthFixture(t)

	now := time.Now()
	session := &models.Session{
		ID:            ids.NewSessionID(),
		UserID:        ids.NewUserID(),
		Kind:          models.SessionToken,
		Authenticated: true,
		CreatedOn:     now.Add(-2 * time.Hour),
		ExpiresOn:     now.Add(-time.Hour),
	}
	m.s.stored = session

	// The JWT itself is still valid; only the row has expired.
	token, err := auth.GenerateToken(session.ID, []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, common.ErrSessionExpired)
	assert.Equal(t, []ids.SessionID{session.ID}, m.s.deleted)
}

func TestAuthenticate_UnverifiedCookieSession(t *testing.T) {
	svc, m, _ := newAuthFixture(t)

	now := time.Now()
	session := &models.Session{
		ID:            ids.NewSessionID(),
		UserID:        ids.NewUserID(),
		Kind:          models.SessionCookie,
		Authenticated: true,
		Verified:      false,
		CreatedOn:     now,
		ExpiresOn:     now.Add(time.Hour),
	}
	m.s.stored = session

	token, err := auth.GenerateToken(session.ID, []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	got, err := svc.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, common.ErrSessionNotVerified)
	// The live session still comes back for the verification endpoint.
	require.NotNil(t, got)
	assert.Equal(t, session.ID, got.ID)
}

func TestAuthenticate_RevokedSession(t *testing.T) {
	svc, m, _ := newAuthFixture(t)
	m.s.getErr = common.ErrorNotFound

	token, err := auth.GenerateToken(ids.NewSessionID(), []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}
