package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoService "github.com/allisson/privacy/internal/crypto/service"
)

// RunGenerateKeyPair generates an RSA key pair and prints it. The private key
// is printed in its encrypted-at-rest PEM form only.
func RunGenerateKeyPair(
	ctx context.Context,
	keyManager *cryptoService.KeyManagerService,
	logger *slog.Logger,
	writer io.Writer,
	keySize int,
	format string,
) error {
	keyPair, err := keyManager.GenerateKeyPair(ctx, cryptoService.GenerateOptions{KeySize: keySize})
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	logger.Info("key pair generated",
		slog.String("key_id", keyPair.Metadata.ID.String()),
		slog.Int("key_size", keyPair.Metadata.KeySizeBits),
		slog.String("fingerprint", keyPair.Metadata.Fingerprint),
	)

	if format == "json" {
		return outputJSON(writer, map[string]any{
			"keyId":                  keyPair.Metadata.ID,
			"algorithm":              keyPair.Metadata.Algorithm,
			"keySize":                keyPair.Metadata.KeySizeBits,
			"fingerprint":            keyPair.Metadata.Fingerprint,
			"generatedAt":            keyPair.Metadata.GeneratedAt,
			"expiresAt":              keyPair.Metadata.ExpiresAt,
			"publicKeyPem":           string(keyPair.PublicKeyPEM),
			"encryptedPrivateKeyPem": string(keyPair.EncryptedPrivateKeyPEM),
		})
	}

	_, _ = fmt.Fprintf(writer, "Key ID:      %s\n", keyPair.Metadata.ID)
	_, _ = fmt.Fprintf(writer, "Key Size:    %d\n", keyPair.Metadata.KeySizeBits)
	_, _ = fmt.Fprintf(writer, "Fingerprint: %s\n", keyPair.Metadata.Fingerprint)
	_, _ = fmt.Fprintf(writer, "Expires At:  %s\n\n", keyPair.Metadata.ExpiresAt.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(writer, "%s\n", keyPair.PublicKeyPEM)
	_, _ = fmt.Fprintf(writer, "%s\n", keyPair.EncryptedPrivateKeyPEM)

	return nil
}
