package auth

import (
	"crypto/rand"
	"testing"

	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/keys"
	"github.com/stretchr/testify/require"
)

func testBoxes(t *testing.T) (initiator, server *keys.Box) {
	t.Helper()
	initiatorPriv, err := keys.Generate(rand.Reader)
	require.NoError(t, err)
	serverPriv, err := keys.Generate(rand.Reader)
	require.NoError(t, err)

	return keys.NewBox(initiatorPriv, serverPriv.Public()),
		keys.NewBox(serverPriv, initiatorPriv.Public())
}

func TestHandshake_FullExchange(t *testing.T) {
	initiatorBox, serverBox := testBoxes(t)

	// Initiator opens with encrypted random data.
	dataA, err := NewChallengeData(rand.Reader)
	require.NoError(t, err)
	challenge, err := SealChallenge(initiatorBox, dataA)
	require.NoError(t, err)

	// Server recovers data A, proving it holds its private key.
	recoveredA, err := OpenChallenge(serverBox, challenge)
	require.NoError(t, err)
	require.Equal(t, dataA, recoveredA)

	// Server answers with fresh data B bound to the issued session.
	sessionID := ids.NewSessionID()
	dataB, err := NewChallengeData(rand.Reader)
	require.NoError(t, err)
	answer, err := SealAnswer(serverBox, dataB, sessionID)
	require.NoError(t, err)

	// Initiator recovers data B, completing mutual proof.
	recoveredB, err := OpenAnswer(initiatorBox, answer, sessionID)
	require.NoError(t, err)
	require.Equal(t, dataB, recoveredB)
}

func TestHandshake_MismatchedKeysFailAtServer(t *testing.T) {
	// The initiator claims one key pair but encrypts with another.
	claimedPriv, err := keys.Generate(rand.Reader)
	require.NoError(t, err)
	actualPriv, err := keys.Generate(rand.Reader)
	require.NoError(t, err)
	serverPriv, err := keys.Generate(rand.Reader)
	require.NoError(t, err)

	dataA, err := NewChallengeData(rand.Reader)
	require.NoError(t, err)
	challenge, err := SealChallenge(keys.NewBox(actualPriv, serverPriv.Public()), dataA)
	require.NoError(t, err)

	// Server derives the channel from the claimed public key.
	serverBox := keys.NewBox(serverPriv, claimedPriv.Public())
	_, err = OpenChallenge(serverBox, challenge)
	require.ErrorIs(t, err, keys.ErrDecryptFailed)
}

func TestHandshake_AnswerBoundToSession(t *testing.T) {
	initiatorBox, serverBox := testBoxes(t)

	dataB, err := NewChallengeData(rand.Reader)
	require.NoError(t, err)
	issued := ids.NewSessionID()
	answer, err := SealAnswer(serverBox, dataB, issued)
	require.NoError(t, err)

	// An answer replayed against a different handshake's session fails.
	_, err = OpenAnswer(initiatorBox, answer, ids.NewSessionID())
	require.ErrorIs(t, err, ErrAnswerMismatch)

	got, err := OpenAnswer(initiatorBox, answer, issued)
	require.NoError(t, err)
	require.Equal(t, dataB, got)
}

func TestHandshake_DataSizeGuards(t *testing.T) {
	initiatorBox, _ := testBoxes(t)

	_, err := SealChallenge(initiatorBox, []byte("short"))
	require.ErrorIs(t, err, ErrChallengeDataSize)

	_, err = SealAnswer(initiatorBox, make([]byte, ChallengeDataSize+1), ids.NewSessionID())
	require.ErrorIs(t, err, ErrChallengeDataSize)
}
