// Package service implements the certificate authority: issuing and
// verifying signed deletion certificates backed by the key manager's
// signing key.
package service

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	certDomain "github.com/allisson/privacy/internal/cert/domain"
	apperrors "github.com/allisson/privacy/internal/errors"
	appvalidation "github.com/allisson/privacy/internal/validation"
)

// maxCacheAge bounds cache growth, matching the key metadata cache policy.
const maxCacheAge = 24 * time.Hour

// IssueOptions customizes an issued certificate. Zero values fall back to
// the documented defaults.
type IssueOptions struct {
	Method       string
	Scope        string
	Jurisdiction string
	Compliance   []string
	ExpiryDays   int
}

// Authority defines the certificate authority interface.
type Authority interface {
	// Issue creates and signs a deletion certificate.
	Issue(ctx context.Context, userID string, dataTypes []string, opts IssueOptions) (*certDomain.DeletionCertificate, error)

	// Verify checks an issued certificate, optionally against a public key.
	Verify(cert *certDomain.DeletionCertificate, publicKeyPEM []byte) certDomain.VerificationResult

	// SweepExpired evicts expired and stale cache entries, returning the count.
	SweepExpired(now time.Time) int

	// CacheSize returns the number of cached certificates.
	CacheSize() int

	// CertificatesIssued returns the total number of certificates issued.
	CertificatesIssued() uint64
}

// CertificateAuthority implements Authority.
type CertificateAuthority struct {
	signingKey *rsa.PrivateKey
	salt       string
	expiryDays int

	mu     sync.RWMutex
	cache  map[uuid.UUID]*certDomain.CachedCertificate
	issued atomic.Uint64
}

// NewCertificateAuthority creates a CertificateAuthority. The signing key
// comes from the key manager; the salt (the certificate signing secret)
// feeds the short salted user hash.
func NewCertificateAuthority(signingKey *rsa.PrivateKey, salt string, expiryDays int) *CertificateAuthority {
	return &CertificateAuthority{
		signingKey: signingKey,
		salt:       salt,
		expiryDays: expiryDays,
		cache:      make(map[uuid.UUID]*certDomain.CachedCertificate),
	}
}

// Issue creates and signs a deletion certificate for the user and data types.
func (c *CertificateAuthority) Issue(
	ctx context.Context,
	userID string,
	dataTypes []string,
	opts IssueOptions,
) (*certDomain.DeletionCertificate, error) {
	if err := validation.Validate(userID, validation.Required, appvalidation.NotBlank); err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}
	if len(dataTypes) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "dataTypes must not be empty")
	}

	method := opts.Method
	if method == "" {
		method = certDomain.MethodCryptoShred
	}
	scope := opts.Scope
	if scope == "" {
		scope = certDomain.DefaultScope
	}
	jurisdiction := opts.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = "EU"
	}
	compliance := opts.Compliance
	if len(compliance) == 0 {
		compliance = []string{"GDPR"}
	}
	expiryDays := opts.ExpiryDays
	if expiryDays == 0 {
		expiryDays = c.expiryDays
	}

	now := time.Now().UTC()
	cert := &certDomain.DeletionCertificate{
		CertificateID:      uuid.Must(uuid.NewV7()),
		Version:            certDomain.Version,
		UserIDHash:         fullHash(userID),
		UserIDHash16:       fullHash(c.salt + ":" + userID)[:16],
		DeletedDataTypes:   dataTypes,
		DeletionTimestamp:  now,
		ExpiresAt:          now.AddDate(0, 0, expiryDays),
		Method:             method,
		Scope:              scope,
		Jurisdiction:       jurisdiction,
		Compliance:         compliance,
		VerificationMethod: certDomain.VerificationMethod,
	}

	signature, err := c.sign(cert)
	if err != nil {
		return nil, err
	}
	cert.Verification = signature

	c.mu.Lock()
	c.cache[cert.CertificateID] = &certDomain.CachedCertificate{
		Certificate: cert,
		CachedAt:    now,
	}
	c.mu.Unlock()
	c.issued.Add(1)

	return cert, nil
}

// Verify checks a certificate in order: signature presence, expiry, then
// signature verification. Without a public key the signature check is
// skipped and flagged as a warning (weak mode for callers without a key
// distribution channel).
func (c *CertificateAuthority) Verify(
	cert *certDomain.DeletionCertificate,
	publicKeyPEM []byte,
) certDomain.VerificationResult {
	if cert == nil {
		return certDomain.VerificationResult{Valid: false, Reason: "certificate is nil"}
	}
	if cert.Verification == "" {
		return certDomain.VerificationResult{Valid: false, Reason: "signature is missing"}
	}
	if cert.ExpiresAt.Before(time.Now().UTC()) {
		return certDomain.VerificationResult{Valid: false, Reason: "expired"}
	}
	if publicKeyPEM == nil {
		return certDomain.VerificationResult{
			Valid:   true,
			Warning: "signature verification skipped: no public key supplied",
		}
	}

	publicKey, err := parsePublicKey(publicKeyPEM)
	if err != nil {
		return certDomain.VerificationResult{Valid: false, Reason: "invalid public key"}
	}

	signature, err := hex.DecodeString(cert.Verification)
	if err != nil {
		return certDomain.VerificationResult{Valid: false, Reason: "malformed signature"}
	}

	digest, err := canonicalDigest(cert)
	if err != nil {
		return certDomain.VerificationResult{Valid: false, Reason: "failed to canonicalize certificate"}
	}

	if err := rsa.VerifyPKCS1v15(publicKey, crypto.SHA512, digest, signature); err != nil {
		return certDomain.VerificationResult{Valid: false, Reason: "signature mismatch"}
	}

	return certDomain.VerificationResult{Valid: true}
}

// SweepExpired evicts expired certificates and anything cached longer than
// maxCacheAge. Returns the number of evicted entries.
func (c *CertificateAuthority) SweepExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for id, entry := range c.cache {
		if entry.Expired(now) || now.Sub(entry.CachedAt) > maxCacheAge {
			delete(c.cache, id)
			evicted++
		}
	}
	return evicted
}

// CacheSize returns the number of cached certificates.
func (c *CertificateAuthority) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// CertificatesIssued returns the total number of certificates issued.
func (c *CertificateAuthority) CertificatesIssued() uint64 {
	return c.issued.Load()
}

// Close clears the certificate cache.
func (c *CertificateAuthority) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.cache)
}

// sign produces the hex RSA-SHA512 signature over the canonical form.
func (c *CertificateAuthority) sign(cert *certDomain.DeletionCertificate) (string, error) {
	digest, err := canonicalDigest(cert)
	if err != nil {
		return "", err
	}

	signature, err := rsa.SignPKCS1v15(rand.Reader, c.signingKey, crypto.SHA512, digest)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign certificate")
	}
	return hex.EncodeToString(signature), nil
}

// canonicalDigest hashes the canonical serialization: the certificate with
// the verification field absent, in fixed JSON field order.
func canonicalDigest(cert *certDomain.DeletionCertificate) ([]byte, error) {
	unsigned := *cert
	unsigned.Verification = ""

	canonical, err := json.Marshal(&unsigned)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to canonicalize certificate")
	}

	digest := sha512.Sum512(canonical)
	return digest[:], nil
}

func parsePublicKey(publicKeyPEM []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "not a PEM public key")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid public key")
	}
	publicKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "not an RSA public key")
	}
	return publicKey, nil
}

func fullHash(value string) string {
	digest := sha256.Sum256([]byte(value))
	return hex.EncodeToString(digest[:])
}
