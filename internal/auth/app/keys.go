package app

import (
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/nopass/pkg/jwtx"
)

// InitSessionSigner loads the Ed25519 key that signs session cookies.
//
// Key sources, in order:
//   - SessionSecret: the key is derived from the secret, so every replica
//     sharing it accepts the others' sessions.
//   - SessionKeyFile: a PKCS8 PEM key on disk.
//   - Neither: a random key. All sessions end when the service restarts.
func InitSessionSigner(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, error) {
	var (
		key ed25519.PrivateKey
		err error
	)

	switch {
	case cfg.SessionSecret != "":
		key, err = jwtx.DeriveEd25519Key([]byte(cfg.SessionSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to derive session key: %w", err)
		}
		logger.Info("session signing key derived from secret")

	case cfg.SessionKeyFile != "":
		pemKey, readErr := os.ReadFile(cfg.SessionKeyFile)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read session key file: %w", readErr)
		}
		key, err = jwtx.ParseEd25519PEM(pemKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse session key file: %w", err)
		}
		logger.Info("session signing key loaded", "path", cfg.SessionKeyFile)

	default:
		key, err = jwtx.GenerateEd25519Key()
		if err != nil {
			return nil, err
		}
		logger.Warn("using an ephemeral session signing key, sessions will not survive a restart")
	}

	signer, err := jwtx.NewSignerEdDSA(key)
	if err != nil {
		return nil, err
	}
	logger.Info("session signer ready", "alg", signer.Alg(), "kid", signer.KID())
	return signer, nil
}
