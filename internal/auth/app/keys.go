package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aegis-id/aegis/pkg/cryptox"
	"github.com/aegis-id/aegis/pkg/jwtx"
)

// initSigner prepares the Ed25519 token signer.
//
// With AUTH_SIGNING_KEY_FILE set, the key is loaded from a PKCS#8 PEM and
// tokens survive restarts. Without it, a fresh key is generated on boot and
// every outstanding token becomes invalid when the service restarts.
func initSigner(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, error) {
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
		logger.Info("master key path configured", "path", cfg.MasterKeyPath)
	}

	if cfg.SigningKeyFile != "" {
		pem, err := os.ReadFile(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read signing key: %w", err)
		}
		signer, err := jwtx.NewSignerFromPEM("primary", pem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse signing key: %w", err)
		}
		logger.Info("loaded persistent signing key", "path", cfg.SigningKeyFile)
		return signer, nil
	}

	signer, err := jwtx.GenerateSigner("primary")
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	logger.Warn("using ephemeral signing key, tokens will not survive restarts")
	return signer, nil
}
