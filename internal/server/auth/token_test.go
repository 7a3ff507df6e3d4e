package auth

import (
	"testing"
	"time"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	sessionID := ids.NewSessionID()

	token, err := GenerateToken(sessionID, secret, time.Minute)
	require.NoError(t, err)

	got, err := GetSessionIDFromToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, sessionID, got)
}

func TestToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(ids.NewSessionID(), []byte("right"), time.Minute)
	require.NoError(t, err)

	_, err = GetSessionIDFromToken(token, []byte("wrong"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken(ids.NewSessionID(), secret, -time.Minute)
	require.NoError(t, err)

	_, err = GetSessionIDFromToken(token, secret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestToken_Garbage(t *testing.T) {
	_, err := GetSessionIDFromToken("not-a-token", []byte("secret"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
