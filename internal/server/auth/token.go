// Package auth contains the session-credential token format and the pure
// challenge-response handshake protocol. Database lookups live in the
// services layer; everything here is computation only.
package auth

import (
	"time"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the issued session's ID. The token only names the session;
// whether it is accepted is always decided by re-reading the session row.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string
}

// GenerateToken signs a token naming the given session, valid for
// validityDuration.
func GenerateToken(sessionID ids.SessionID, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		SessionID: sessionID.String(),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSessionIDFromToken verifies the token signature and returns the session
// ID it names. Any parse or signature failure maps to ErrInvalidToken.
func GetSessionIDFromToken(tokenString string, secretKey []byte) (ids.SessionID, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", common.ErrInvalidToken
	}
	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return ids.ParseSessionID(claims.SessionID)
}
