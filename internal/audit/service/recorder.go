// Package service builds and verifies integrity-protected audit records.
//
// Payloads are masked before hashing so sensitive values never influence a
// stored digest. The integrity MAC is HMAC-SHA512 keyed by a signing key
// derived from the audit secret with HKDF-SHA256.
package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/privacy/internal/audit/domain"
	apperrors "github.com/allisson/privacy/internal/errors"
	appvalidation "github.com/allisson/privacy/internal/validation"
)

const (
	// maskToken replaces any value whose field name looks sensitive.
	maskToken = "***MASKED***"

	// maxStringLength truncates long string values before hashing.
	maxStringLength = 100

	// signingKeyInfo versions the HKDF derivation so the key schedule can
	// change without reusing keys.
	signingKeyInfo = "audit-record-signing-v1"

	hashTruncation = 16
)

// sensitiveSubstrings mark field names whose values are always masked.
var sensitiveSubstrings = []string{
	"password", "passphrase", "token", "key", "secret", "auth", "credential",
}

// RecordOptions carries the optional request context for an audit record.
type RecordOptions struct {
	UserID    string
	SessionID string
	IPAddress string
	UserAgent string
	Severity  string
	Category  string
}

// Recorder defines the audit service interface.
type Recorder interface {
	// Record builds an integrity-protected audit record for an operation.
	Record(ctx context.Context, operation string, payload map[string]any, opts RecordOptions) (*auditDomain.AuditRecord, error)

	// Verify recomputes the integrity MAC and compares in constant time.
	Verify(record *auditDomain.AuditRecord) auditDomain.VerificationResult

	// RecordsCreated returns the total number of records built.
	RecordsCreated() uint64
}

// AuditRecorder implements Recorder.
type AuditRecorder struct {
	signingKey    []byte
	salt          string
	retentionDays int
	created       atomic.Uint64
}

// NewAuditRecorder creates an AuditRecorder. The HMAC signing key is derived
// once from the audit secret; the raw secret is not retained.
func NewAuditRecorder(secret string, retentionDays int) (*AuditRecorder, error) {
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(signingKeyInfo))
	signingKey := make([]byte, 64)
	if _, err := io.ReadFull(kdf, signingKey); err != nil {
		return nil, apperrors.Wrap(err, "failed to derive audit signing key")
	}

	return &AuditRecorder{
		signingKey:    signingKey,
		salt:          secret,
		retentionDays: retentionDays,
	}, nil
}

// Record masks the payload, hashes the request context, and seals the record
// with its integrity MAC. The integrity field is always computed last.
func (a *AuditRecorder) Record(
	ctx context.Context,
	operation string,
	payload map[string]any,
	opts RecordOptions,
) (*auditDomain.AuditRecord, error) {
	if err := validation.Validate(operation, validation.Required, appvalidation.NotBlank); err != nil {
		return nil, appvalidation.WrapValidationError(err)
	}

	masked := maskPayload(payload)
	serialized, err := json.Marshal(masked)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "payload is not serializable")
	}

	severity := opts.Severity
	if severity == "" {
		severity = auditDomain.SeverityInfo
	}
	category := opts.Category
	if category == "" {
		category = auditDomain.DefaultCategory
	}

	now := time.Now().UTC()
	record := &auditDomain.AuditRecord{
		ID:            uuid.Must(uuid.NewV7()),
		Timestamp:     now,
		Operation:     operation,
		UserIDHash:    truncatedHash(opts.UserID),
		SessionID:     opts.SessionID,
		IPHash:        truncatedHash(saltValue(a.salt, opts.IPAddress)),
		UserAgentHash: truncatedHash(opts.UserAgent),
		DataHash:      fullHash(serialized),
		DataSize:      len(serialized),
		Severity:      severity,
		Category:      category,
		ExpiresAt:     now.AddDate(0, 0, a.retentionDays),
	}

	integrity, err := a.integrity(record)
	if err != nil {
		return nil, err
	}
	record.Integrity = integrity

	a.created.Add(1)
	return record, nil
}

// Verify recomputes the HMAC over the record with the integrity field
// excluded and compares in constant time.
func (a *AuditRecorder) Verify(record *auditDomain.AuditRecord) auditDomain.VerificationResult {
	if record == nil {
		return auditDomain.VerificationResult{Valid: false, Reason: "record is nil"}
	}
	if record.Integrity == "" {
		return auditDomain.VerificationResult{Valid: false, Reason: "integrity field is missing"}
	}

	expected, err := a.integrity(record)
	if err != nil {
		return auditDomain.VerificationResult{Valid: false, Reason: "failed to recompute integrity"}
	}

	if !hmac.Equal([]byte(expected), []byte(record.Integrity)) {
		return auditDomain.VerificationResult{Valid: false, Reason: "integrity mismatch"}
	}

	return auditDomain.VerificationResult{Valid: true}
}

// RecordsCreated returns the total number of records built.
func (a *AuditRecorder) RecordsCreated() uint64 {
	return a.created.Load()
}

// integrity computes the HMAC-SHA512 over the canonical serialization of the
// record with the integrity field absent.
func (a *AuditRecorder) integrity(record *auditDomain.AuditRecord) (string, error) {
	unsigned := *record
	unsigned.Integrity = ""

	canonical, err := json.Marshal(&unsigned)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to canonicalize audit record")
	}

	mac := hmac.New(sha512.New, a.signingKey)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// maskPayload returns a masked copy of the payload: sensitive field names
// are replaced with the mask token, long strings are truncated, and nested
// objects are masked recursively.
func maskPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}

	masked := make(map[string]any, len(payload))
	for field, value := range payload {
		if isSensitiveField(field) {
			masked[field] = maskToken
			continue
		}
		masked[field] = maskValue(value)
	}
	return masked
}

func maskValue(value any) any {
	switch v := value.(type) {
	case string:
		if len(v) > maxStringLength {
			return v[:maxStringLength] + "..."
		}
		return v
	case map[string]any:
		return maskPayload(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = maskValue(item)
		}
		return out
	default:
		return value
	}
}

// isSensitiveField reports whether a field name contains any sensitive
// substring, case-insensitively.
func isSensitiveField(field string) bool {
	lowered := strings.ToLower(field)
	for _, substring := range sensitiveSubstrings {
		if strings.Contains(lowered, substring) {
			return true
		}
	}
	return false
}

// truncatedHash hashes a value with SHA-256 and keeps the first 16 hex
// characters. Empty input produces an empty hash so absent context stays
// absent.
func truncatedHash(value string) string {
	if value == "" {
		return ""
	}
	digest := sha256.Sum256([]byte(value))
	return hex.EncodeToString(digest[:])[:hashTruncation]
}

func fullHash(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// saltValue prefixes a value with the salt, keeping empty values empty.
func saltValue(salt, value string) string {
	if value == "" {
		return ""
	}
	return salt + ":" + value
}
