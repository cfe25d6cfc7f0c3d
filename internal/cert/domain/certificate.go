// Package domain defines the signed deletion certificate model.
//
// A certificate attests that specified data categories for a user were
// deleted. The signature covers the canonical serialization of every field
// except Verification itself, in the fixed JSON field order below.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Certificate defaults.
const (
	Version            = "1.0"
	MethodCryptoShred  = "CRYPTO_SHREDDING"
	DefaultScope       = "user_data"
	VerificationMethod = "RSA-SHA512"
)

// DeletionCertificate is a signed attestation of data deletion.
type DeletionCertificate struct {
	CertificateID      uuid.UUID `json:"certificateId"`
	Version            string    `json:"version"`
	UserIDHash         string    `json:"userIdHash"`
	UserIDHash16       string    `json:"userIdHash16"`
	DeletedDataTypes   []string  `json:"deletedDataTypes"`
	DeletionTimestamp  time.Time `json:"deletionTimestamp"`
	ExpiresAt          time.Time `json:"expiresAt"`
	Method             string    `json:"method"`
	Scope              string    `json:"scope"`
	Jurisdiction       string    `json:"jurisdiction"`
	Compliance         []string  `json:"compliance"`
	VerificationMethod string    `json:"verificationMethod"`
	Verification       string    `json:"verification,omitempty"`
}

// CachedCertificate is a cache entry for an issued certificate.
type CachedCertificate struct {
	Certificate *DeletionCertificate
	CachedAt    time.Time
}

// Expired reports whether the cached certificate is past its expiry.
func (c *CachedCertificate) Expired(now time.Time) bool {
	return c.Certificate.ExpiresAt.Before(now)
}

// VerificationResult is the outcome of certificate verification.
// Verification failure is a business outcome, not an error.
type VerificationResult struct {
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
	Warning string `json:"warning,omitempty"`
}
