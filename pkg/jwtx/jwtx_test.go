package jwtx_test

import (
	"crypto/ed25519"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/nopass/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "https://nopass.example.com"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newSigner(t *testing.T) *jwtx.EdDSASigner {
	t.Helper()
	key, err := jwtx.DeriveEd25519Key(testSecret)
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA(key)
	require.NoError(t, err)
	return signer
}

func TestDeriveEd25519Key(t *testing.T) {
	t.Run("deterministic for the same secret", func(t *testing.T) {
		a, err := jwtx.DeriveEd25519Key(testSecret)
		require.NoError(t, err)
		b, err := jwtx.DeriveEd25519Key(testSecret)
		require.NoError(t, err)
		require.Equal(t, a, b)
		require.Len(t, a, ed25519.PrivateKeySize)
	})

	t.Run("different secrets give different keys", func(t *testing.T) {
		a, err := jwtx.DeriveEd25519Key(testSecret)
		require.NoError(t, err)
		b, err := jwtx.DeriveEd25519Key([]byte(strings.Repeat("z", 32)))
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("rejects short secret", func(t *testing.T) {
		_, err := jwtx.DeriveEd25519Key([]byte("short"))
		require.ErrorIs(t, err, jwtx.ErrShortSecret)
	})
}

func TestSignAndVerify(t *testing.T) {
	signer := newSigner(t)
	require.Equal(t, "EdDSA", signer.Alg())
	require.NotEmpty(t, signer.KID())

	now := time.Now().UTC().Truncate(time.Second)
	claims := jwtx.NewSessionClaims("user-1", "alice", exampleIssuer, time.Hour, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewVerifierEdDSA(signer.Public(), exampleIssuer, 0)
	got, err := verifier.Verify(token, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, []string{jwtx.MethodLoginCode}, got.AMR)
	require.Equal(t, claims.ID, got.ID)
}

func TestVerifyRejects(t *testing.T) {
	signer := newSigner(t)
	now := time.Now().UTC().Truncate(time.Second)
	token, err := signer.Sign(jwtx.NewSessionClaims("user-1", "alice", exampleIssuer, time.Hour, now))
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		v := jwtx.NewVerifierEdDSA(signer.Public(), exampleIssuer, 0)
		_, err := v.Verify(token, now.Add(2*time.Hour))
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("expired within leeway is accepted", func(t *testing.T) {
		v := jwtx.NewVerifierEdDSA(signer.Public(), exampleIssuer, 5*time.Minute)
		_, err := v.Verify(token, now.Add(time.Hour+time.Minute))
		require.NoError(t, err)
	})

	t.Run("not yet valid", func(t *testing.T) {
		v := jwtx.NewVerifierEdDSA(signer.Public(), exampleIssuer, 0)
		_, err := v.Verify(token, now.Add(-time.Hour))
		require.ErrorIs(t, err, jwtx.ErrNotYetValid)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		v := jwtx.NewVerifierEdDSA(signer.Public(), "https://other.example.com", 0)
		_, err := v.Verify(token, now)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("different key", func(t *testing.T) {
		other, err := jwtx.GenerateEd25519Key()
		require.NoError(t, err)
		v := jwtx.NewVerifierEdDSA(other.Public().(ed25519.PublicKey), exampleIssuer, 0)
		_, err = v.Verify(token, now)
		require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		forged, err := signer.Sign(jwtx.NewSessionClaims("user-2", "mallory", exampleIssuer, time.Hour, now))
		require.NoError(t, err)
		parts[1] = strings.Split(forged, ".")[1]

		v := jwtx.NewVerifierEdDSA(signer.Public(), exampleIssuer, 0)
		_, err = v.Verify(strings.Join(parts, "."), now)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("garbage", func(t *testing.T) {
		v := jwtx.NewVerifierEdDSA(signer.Public(), exampleIssuer, 0)
		_, err := v.Verify("not-a-jwt", now)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "nopass"}}

	require.NoError(t, c.ValidateIssuer("nopass"))
	require.NoError(t, c.ValidateIssuer(""))
	require.ErrorIs(t, c.ValidateIssuer("other"), jwtx.ErrIssuer)
}
