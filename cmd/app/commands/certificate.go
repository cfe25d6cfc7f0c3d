package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	certDomain "github.com/allisson/privacy/internal/cert/domain"
	certService "github.com/allisson/privacy/internal/cert/service"
	cryptoService "github.com/allisson/privacy/internal/crypto/service"
)

// RunIssueCertificate issues a signed deletion certificate and prints it as
// JSON. With withPublicKey the signer's public key PEM is printed too so the
// certificate can be verified out of process.
func RunIssueCertificate(
	ctx context.Context,
	authority *certService.CertificateAuthority,
	keyManager *cryptoService.KeyManagerService,
	writer io.Writer,
	userID string,
	rawDataTypes string,
	jurisdiction string,
	expiryDays int,
	withPublicKey bool,
) error {
	dataTypes := splitList(rawDataTypes)

	cert, err := authority.Issue(ctx, userID, dataTypes, certService.IssueOptions{
		Jurisdiction: jurisdiction,
		ExpiryDays:   expiryDays,
	})
	if err != nil {
		return fmt.Errorf("failed to issue certificate: %w", err)
	}

	if err := outputJSON(writer, cert); err != nil {
		return err
	}

	if withPublicKey {
		publicKeyPEM, err := keyManager.SigningPublicKeyPEM()
		if err != nil {
			return fmt.Errorf("failed to export signing public key: %w", err)
		}
		_, _ = fmt.Fprintf(writer, "%s", publicKeyPEM)
	}

	return nil
}

// RunVerifyCertificate verifies a stored deletion certificate. Without a
// public key the signature check is skipped and reported as a warning.
// Returns an error when the certificate fails verification so the process
// exits non-zero.
func RunVerifyCertificate(
	ctx context.Context,
	authority *certService.CertificateAuthority,
	writer io.Writer,
	certPath string,
	publicKeyPath string,
) error {
	raw, err := os.ReadFile(certPath)
	if err != nil {
		return fmt.Errorf("failed to read certificate: %w", err)
	}

	var cert certDomain.DeletionCertificate
	if err := json.Unmarshal(raw, &cert); err != nil {
		return fmt.Errorf("certificate is not valid JSON: %w", err)
	}

	var publicKeyPEM []byte
	if publicKeyPath != "" {
		publicKeyPEM, err = os.ReadFile(publicKeyPath)
		if err != nil {
			return fmt.Errorf("failed to read public key: %w", err)
		}
	}

	result := authority.Verify(&cert, publicKeyPEM)
	if err := outputJSON(writer, result); err != nil {
		return err
	}

	if !result.Valid {
		return fmt.Errorf("certificate verification failed: %s", result.Reason)
	}
	return nil
}
