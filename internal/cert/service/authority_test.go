package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	certDomain "github.com/allisson/privacy/internal/cert/domain"
	apperrors "github.com/allisson/privacy/internal/errors"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func testSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate test key: %v", err)
		}
		testKey = key
	})
	return testKey
}

func testAuthority(t *testing.T) *CertificateAuthority {
	t.Helper()
	return NewCertificateAuthority(testSigningKey(t), "a-cert-signing-secret", 365)
}

func publicKeyPEM(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func TestIssueAndVerify(t *testing.T) {
	authority := testAuthority(t)

	cert, err := authority.Issue(context.Background(), "user-123", []string{"messages", "profile"}, IssueOptions{})
	require.NoError(t, err)

	assert.Equal(t, certDomain.Version, cert.Version)
	assert.Equal(t, certDomain.MethodCryptoShred, cert.Method)
	assert.Equal(t, certDomain.DefaultScope, cert.Scope)
	assert.Equal(t, "EU", cert.Jurisdiction)
	assert.Equal(t, []string{"GDPR"}, cert.Compliance)
	assert.Equal(t, certDomain.VerificationMethod, cert.VerificationMethod)
	assert.Len(t, cert.UserIDHash, 64)
	assert.Len(t, cert.UserIDHash16, 16)
	assert.NotEqual(t, cert.UserIDHash[:16], cert.UserIDHash16, "short hash must be salted independently")
	assert.NotEmpty(t, cert.Verification)
	assert.True(t, cert.ExpiresAt.After(cert.DeletionTimestamp))

	result := authority.Verify(cert, publicKeyPEM(t, testSigningKey(t)))
	assert.True(t, result.Valid)
	assert.Empty(t, result.Reason)
	assert.Empty(t, result.Warning)
}

func TestIssueHonorsOptions(t *testing.T) {
	authority := testAuthority(t)

	cert, err := authority.Issue(context.Background(), "user-123", []string{"logs"}, IssueOptions{
		Method:       "OVERWRITE",
		Scope:        "session_data",
		Jurisdiction: "US",
		Compliance:   []string{"CCPA"},
		ExpiryDays:   30,
	})
	require.NoError(t, err)

	assert.Equal(t, "OVERWRITE", cert.Method)
	assert.Equal(t, "session_data", cert.Scope)
	assert.Equal(t, "US", cert.Jurisdiction)
	assert.Equal(t, []string{"CCPA"}, cert.Compliance)
	assert.WithinDuration(t, cert.DeletionTimestamp.AddDate(0, 0, 30), cert.ExpiresAt, time.Second)
}

func TestVerifyDetectsTampering(t *testing.T) {
	authority := testAuthority(t)

	cert, err := authority.Issue(context.Background(), "user-123", []string{"messages"}, IssueOptions{})
	require.NoError(t, err)

	cert.Jurisdiction = "US"

	result := authority.Verify(cert, publicKeyPEM(t, testSigningKey(t)))
	assert.False(t, result.Valid)
	assert.Equal(t, "signature mismatch", result.Reason)
}

func TestVerifyMissingSignature(t *testing.T) {
	authority := testAuthority(t)

	cert, err := authority.Issue(context.Background(), "user-123", []string{"messages"}, IssueOptions{})
	require.NoError(t, err)
	cert.Verification = ""

	result := authority.Verify(cert, publicKeyPEM(t, testSigningKey(t)))
	assert.False(t, result.Valid)
	assert.Equal(t, "signature is missing", result.Reason)
}

func TestVerifyExpiredCertificate(t *testing.T) {
	authority := testAuthority(t)

	cert, err := authority.Issue(context.Background(), "user-123", []string{"messages"}, IssueOptions{})
	require.NoError(t, err)
	cert.ExpiresAt = time.Now().UTC().Add(-time.Hour)

	result := authority.Verify(cert, publicKeyPEM(t, testSigningKey(t)))
	assert.False(t, result.Valid)
	assert.Equal(t, "expired", result.Reason, "expiry is reported before the signature is checked")
}

func TestVerifyWithoutPublicKeyWarns(t *testing.T) {
	authority := testAuthority(t)

	cert, err := authority.Issue(context.Background(), "user-123", []string{"messages"}, IssueOptions{})
	require.NoError(t, err)

	result := authority.Verify(cert, nil)
	assert.True(t, result.Valid)
	assert.NotEmpty(t, result.Warning)
}

func TestVerifyWrongKeyFails(t *testing.T) {
	authority := testAuthority(t)

	cert, err := authority.Issue(context.Background(), "user-123", []string{"messages"}, IssueOptions{})
	require.NoError(t, err)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	result := authority.Verify(cert, publicKeyPEM(t, otherKey))
	assert.False(t, result.Valid)
	assert.Equal(t, "signature mismatch", result.Reason)
}

func TestIssueRejectsEmptyInput(t *testing.T) {
	authority := testAuthority(t)

	_, err := authority.Issue(context.Background(), "  ", []string{"messages"}, IssueOptions{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = authority.Issue(context.Background(), "user-123", nil, IssueOptions{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSweepExpired(t *testing.T) {
	authority := testAuthority(t)

	fresh, err := authority.Issue(context.Background(), "user-1", []string{"messages"}, IssueOptions{})
	require.NoError(t, err)
	expired, err := authority.Issue(context.Background(), "user-2", []string{"messages"}, IssueOptions{ExpiryDays: 1})
	require.NoError(t, err)

	require.Equal(t, 2, authority.CacheSize())

	evicted := authority.SweepExpired(expired.ExpiresAt.Add(time.Hour))
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, authority.CacheSize())

	evicted = authority.SweepExpired(fresh.DeletionTimestamp.Add(maxCacheAge + time.Hour))
	assert.Equal(t, 1, evicted, "stale cache entries are evicted even before expiry")
	assert.Equal(t, 0, authority.CacheSize())
}

func TestCertificatesIssued(t *testing.T) {
	authority := testAuthority(t)
	require.Equal(t, uint64(0), authority.CertificatesIssued())

	_, err := authority.Issue(context.Background(), "user-123", []string{"messages"}, IssueOptions{})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), authority.CertificatesIssued())
}
