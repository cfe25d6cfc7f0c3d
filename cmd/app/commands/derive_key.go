package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	cryptoDomain "github.com/allisson/privacy/internal/crypto/domain"
	cryptoService "github.com/allisson/privacy/internal/crypto/service"
)

// RunDeriveKey derives a key from a password with scrypt and prints the key,
// salt, and verification hash. The key buffers are zeroed before returning.
func RunDeriveKey(
	ctx context.Context,
	keyManager *cryptoService.KeyManagerService,
	writer io.Writer,
	password string,
	saltHex string,
	format string,
) error {
	var salt []byte
	if saltHex != "" {
		decoded, err := hex.DecodeString(saltHex)
		if err != nil {
			return fmt.Errorf("invalid salt hex: %w", err)
		}
		salt = decoded
	}

	derived, err := keyManager.DeriveKey(ctx, password, cryptoService.DeriveOptions{Salt: salt})
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}
	defer func() {
		cryptoDomain.Zero(derived.Key)
	}()

	if format == "json" {
		return outputJSON(writer, map[string]any{
			"key":              hex.EncodeToString(derived.Key),
			"salt":             hex.EncodeToString(derived.Salt),
			"verificationHash": derived.VerificationHash,
			"cost":             derived.Metadata.Cost,
			"blockSize":        derived.Metadata.BlockSize,
			"parallelism":      derived.Metadata.Parallelism,
			"keyLength":        derived.Metadata.KeyLength,
		})
	}

	_, _ = fmt.Fprintf(writer, "Key:               %s\n", hex.EncodeToString(derived.Key))
	_, _ = fmt.Fprintf(writer, "Salt:              %s\n", hex.EncodeToString(derived.Salt))
	_, _ = fmt.Fprintf(writer, "Verification Hash: %s\n", derived.VerificationHash)
	_, _ = fmt.Fprintf(writer, "Parameters:        N=%d r=%d p=%d len=%d\n",
		derived.Metadata.Cost,
		derived.Metadata.BlockSize,
		derived.Metadata.Parallelism,
		derived.Metadata.KeyLength,
	)

	return nil
}
