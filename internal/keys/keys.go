// Package keys implements the server identity: an X25519 key pair, its
// on-disk persistence, and the authenticated encrypted channel ("box")
// shared between one local private key and one remote public key.
package keys

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

const (
	// KeySize is the byte length of private and public keys.
	KeySize = 32
	// NonceSize is the byte length of the nonce prefixed to every ciphertext.
	NonceSize = 24
)

var (
	// ErrCiphertextTooShort is returned by Decrypt when the input cannot
	// even contain a nonce.
	ErrCiphertextTooShort = errors.New("ciphertext shorter than nonce")

	// ErrDecryptFailed is returned when authentication of a ciphertext
	// fails. Tampering with any byte of nonce or ciphertext produces this.
	ErrDecryptFailed = errors.New("decryption failed")

	// ErrInvalidKeyEncoding is returned when a key's textual form is not
	// valid hex/base64.
	ErrInvalidKeyEncoding = errors.New("invalid key encoding")

	// ErrInvalidKeyLength is returned when decoded key bytes are not
	// exactly KeySize long.
	ErrInvalidKeyLength = errors.New("invalid key length")
)

// PublicKey is an X25519 public key. Rendered base64 in JSON bodies and hex
// in on-disk persistence.
type PublicKey [KeySize]byte

// PrivateKey is an X25519 private key. It is never transmitted and is
// persisted only as a local hex file.
type PrivateKey struct {
	k [KeySize]byte
}

// Generate produces a private key from the given cryptographically secure
// random source. It fails only if the source fails.
func Generate(random io.Reader) (*PrivateKey, error) {
	priv := &PrivateKey{}
	if _, err := io.ReadFull(random, priv.k[:]); err != nil {
		return nil, fmt.Errorf("reading random source: %w", err)
	}
	return priv, nil
}

// Public derives the matching public key. Pure computation, no I/O.
// The same private key always yields the same public key.
func (p *PrivateKey) Public() PublicKey {
	var pub PublicKey
	curve25519.ScalarBaseMult((*[KeySize]byte)(&pub), &p.k)
	return pub
}

// Bytes returns a copy of the raw private key material.
func (p *PrivateKey) Bytes() []byte {
	out := make([]byte, KeySize)
	copy(out, p.k[:])
	return out
}

// PrivateKeyFromBytes builds a private key from raw bytes.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != KeySize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKeyLength, len(b))
	}
	priv := &PrivateKey{}
	copy(priv.k[:], b)
	return priv, nil
}

// PublicKeyFromBase64 decodes a standard-base64 public key, as carried in
// JSON request and response bodies.
func PublicKeyFromBase64(s string) (PublicKey, error) {
	var pub PublicKey
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return pub, fmt.Errorf("%w: %v", ErrInvalidKeyEncoding, err)
	}
	if len(b) != KeySize {
		return pub, fmt.Errorf("%w: %d", ErrInvalidKeyLength, len(b))
	}
	copy(pub[:], b)
	return pub, nil
}

// Base64 renders the public key for JSON bodies.
func (k PublicKey) Base64() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

// PublicKeyFromHex decodes a hex public key, as stored in the database.
func PublicKeyFromHex(s string) (PublicKey, error) {
	var pub PublicKey
	b, err := hex.DecodeString(s)
	if err != nil {
		return pub, fmt.Errorf("%w: %v", ErrInvalidKeyEncoding, err)
	}
	if len(b) != KeySize {
		return pub, fmt.Errorf("%w: %d", ErrInvalidKeyLength, len(b))
	}
	copy(pub[:], b)
	return pub, nil
}

// Hex renders the public key for persistence.
func (k PublicKey) Hex() string {
	return hex.EncodeToString(k[:])
}

// Box is the symmetric authenticated-encryption context derived from one
// local private key and one remote public key. Encrypting under
// (A private, B public) and decrypting under (B private, A public) recovers
// the plaintext; any other key combination fails decryption.
type Box struct {
	shared [KeySize]byte
}

// NewBox precomputes the shared channel key.
func NewBox(local *PrivateKey, remote PublicKey) *Box {
	b := &Box{}
	box.Precompute(&b.shared, (*[KeySize]byte)(&remote), &local.k)
	return b
}

// Encrypt seals plaintext under the channel and returns nonce‖ciphertext.
// A fresh random nonce is generated per call, never reused.
func (b *Box) Encrypt(plaintext []byte) ([]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("reading random source: %w", err)
	}
	return box.SealAfterPrecomputation(nonce[:], plaintext, &nonce, &b.shared), nil
}

// Decrypt opens nonce‖ciphertext. Inputs shorter than the nonce yield
// ErrCiphertextTooShort; anything failing authentication yields
// ErrDecryptFailed, never a silently wrong plaintext.
func (b *Box) Decrypt(data []byte) ([]byte, error) {
	if len(data) < NonceSize {
		return nil, ErrCiphertextTooShort
	}
	var nonce [NonceSize]byte
	copy(nonce[:], data[:NonceSize])

	plaintext, ok := box.OpenAfterPrecomputation(nil, data[NonceSize:], &nonce, &b.shared)
	if !ok {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}
