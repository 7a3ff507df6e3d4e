package auth

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/keys"
)

// ChallengeDataSize is the byte length of the random data proven back and
// forth during the handshake.
const ChallengeDataSize = 32

var (
	// ErrChallengeDataSize is returned when challenge data has the wrong length.
	ErrChallengeDataSize = errors.New("challenge data has invalid length")

	// ErrAnswerMismatch is returned by the initiator when the server's
	// counter-challenge is not bound to the expected session.
	ErrAnswerMismatch = errors.New("answer not bound to session")
)

// NewChallengeData draws fresh random challenge data from the given source.
func NewChallengeData(random io.Reader) ([]byte, error) {
	data := make([]byte, ChallengeDataSize)
	if _, err := io.ReadFull(random, data); err != nil {
		return nil, fmt.Errorf("reading random source: %w", err)
	}
	return data, nil
}

// SealChallenge produces the initiator's opening challenge: the data
// encrypted under the shared channel. Each call uses a fresh nonce.
func SealChallenge(b *keys.Box, data []byte) ([]byte, error) {
	if len(data) != ChallengeDataSize {
		return nil, ErrChallengeDataSize
	}
	return b.Encrypt(data)
}

// OpenChallenge recovers the initiator's data on the server side. Decryption
// failures propagate; the caller collapses them into a generic
// authentication failure before answering.
func OpenChallenge(b *keys.Box, challenge []byte) ([]byte, error) {
	data, err := b.Decrypt(challenge)
	if err != nil {
		return nil, err
	}
	if len(data) != ChallengeDataSize {
		return nil, ErrChallengeDataSize
	}
	return data, nil
}

// SealAnswer produces the server's counter-challenge: fresh data plus the
// issued session's ID, encrypted for the initiator. Binding the session ID
// into the authenticated payload ties the exchange to this handshake and
// blocks replay across concurrent handshakes.
func SealAnswer(b *keys.Box, data []byte, sessionID ids.SessionID) ([]byte, error) {
	if len(data) != ChallengeDataSize {
		return nil, ErrChallengeDataSize
	}
	payload := make([]byte, 0, ChallengeDataSize+len(sessionID))
	payload = append(payload, data...)
	payload = append(payload, []byte(sessionID.String())...)
	return b.Encrypt(payload)
}

// OpenAnswer recovers the server's data on the initiator side, verifying the
// counter-challenge is bound to the session the initiator was issued.
func OpenAnswer(b *keys.Box, answer []byte, sessionID ids.SessionID) ([]byte, error) {
	payload, err := b.Decrypt(answer)
	if err != nil {
		return nil, err
	}
	if len(payload) < ChallengeDataSize {
		return nil, ErrChallengeDataSize
	}
	data, bound := payload[:ChallengeDataSize], payload[ChallengeDataSize:]
	if !bytes.Equal(bound, []byte(sessionID.String())) {
		return nil, ErrAnswerMismatch
	}
	return data, nil
}
