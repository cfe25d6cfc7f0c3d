// Package domain defines the tamper-evident audit record model.
//
// Records never store raw user identifiers, IP addresses, or user agents:
// only independent salted hashes. The Integrity field is an HMAC-SHA512 over
// the canonical serialization of every other field and is always computed
// last.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Severity levels for audit records.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// DefaultCategory is used when the caller does not classify the operation.
const DefaultCategory = "general"

// AuditRecord is an integrity-protected record of one engine operation.
//
// The JSON field order is the canonical serialization order; Integrity is
// omitted when empty so the signed form is simply the record with the field
// cleared.
type AuditRecord struct {
	ID            uuid.UUID `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Operation     string    `json:"operation"`
	UserIDHash    string    `json:"userIdHash,omitempty"`
	SessionID     string    `json:"sessionId,omitempty"`
	IPHash        string    `json:"ipHash,omitempty"`
	UserAgentHash string    `json:"userAgentHash,omitempty"`
	DataHash      string    `json:"dataHash"`
	DataSize      int       `json:"dataSize"`
	Severity      string    `json:"severity"`
	Category      string    `json:"category"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Integrity     string    `json:"integrity,omitempty"`
}

// VerificationResult is the outcome of an integrity check. Verification
// failure is a business outcome, not an error.
type VerificationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}
