package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// sessionKeyInfo binds derived keys to their purpose.
const sessionKeyInfo = "nopass session signing key v1"

// MinSecretLength is the shortest secret DeriveEd25519Key accepts.
const MinSecretLength = 32

// ErrShortSecret is returned when a secret is too short to derive a key from.
var ErrShortSecret = errors.New("jwtx: secret must be at least 32 bytes")

// DeriveEd25519Key derives a deterministic Ed25519 key from secret with HKDF,
// so every replica configured with the same secret signs with the same key.
func DeriveEd25519Key(secret []byte) (ed25519.PrivateKey, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrShortSecret
	}

	seed := make([]byte, ed25519.SeedSize)
	r := hkdf.New(sha256.New, secret, nil, []byte(sessionKeyInfo))
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("jwtx: derive key: %w", err)
	}

	return ed25519.NewKeyFromSeed(seed), nil
}

// GenerateEd25519Key returns a random Ed25519 key. Sessions signed with it
// do not survive a restart.
func GenerateEd25519Key() (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate key: %w", err)
	}
	return priv, nil
}

// ParseEd25519PEM loads a PKCS8 PEM encoded Ed25519 private key.
func ParseEd25519PEM(pemKey []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for Ed25519 key")
	}

	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (Ed25519 requires PKCS8)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}

	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not Ed25519 private key")
	}
	return key, nil
}
