package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/privacy/internal/app"
	auditService "github.com/allisson/privacy/internal/audit/service"
	certService "github.com/allisson/privacy/internal/cert/service"
	"github.com/allisson/privacy/internal/config"
	cryptoService "github.com/allisson/privacy/internal/crypto/service"
	privacyService "github.com/allisson/privacy/internal/privacy/service"
	"github.com/allisson/privacy/internal/random"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testKeyManager(t *testing.T) *cryptoService.KeyManagerService {
	t.Helper()
	keyManager, err := cryptoService.NewKeyManager(cryptoService.Config{
		Passphrase:        "a-strong-test-passphrase",
		RSAKeySize:        2048,
		CertExpiryDays:    365,
		ScryptCost:        1024,
		ScryptBlockSize:   8,
		ScryptParallelism: 1,
	})
	require.NoError(t, err)
	return keyManager
}

func testEngine() *privacyService.PrivacyEngine {
	return privacyService.NewPrivacyEngine(privacyService.Config{
		Epsilon:          1.0,
		Sensitivity:      1.0,
		NoiseScale:       1.0,
		KThreshold:       2,
		QuasiIdentifiers: []string{"age", "gender"},
		AgeGroupSize:     10,
	}, random.NewSecureSource())
}

func TestRunGenerateKeyPair(t *testing.T) {
	keyManager := testKeyManager(t)

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		err := RunGenerateKeyPair(context.Background(), keyManager, testLogger(), &out, 2048, "text")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Fingerprint:")
		assert.Contains(t, out.String(), "BEGIN PUBLIC KEY")
		assert.Contains(t, out.String(), "BEGIN ENCRYPTED PRIVATE KEY")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		err := RunGenerateKeyPair(context.Background(), keyManager, testLogger(), &out, 2048, "json")
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.NotEmpty(t, result["fingerprint"])
		assert.Contains(t, result["publicKeyPem"], "BEGIN PUBLIC KEY")
	})

	t.Run("too-small", func(t *testing.T) {
		err := RunGenerateKeyPair(context.Background(), keyManager, testLogger(), io.Discard, 1024, "text")
		require.Error(t, err)
	})
}

func TestRunDeriveKey(t *testing.T) {
	keyManager := testKeyManager(t)

	var first, second bytes.Buffer
	salt := "00112233445566778899aabbccddeeff"

	require.NoError(t, RunDeriveKey(context.Background(), keyManager, &first, "password-1", salt, "json"))
	require.NoError(t, RunDeriveKey(context.Background(), keyManager, &second, "password-1", salt, "json"))
	assert.Equal(t, first.String(), second.String(), "same password and salt derive the same key")

	err := RunDeriveKey(context.Background(), keyManager, io.Discard, "password-1", "not-hex", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid salt hex")
}

func TestRunNoise(t *testing.T) {
	engine := testEngine()

	t.Run("laplace", func(t *testing.T) {
		var out bytes.Buffer
		err := RunNoise(context.Background(), engine, &out, 100, "laplace", 0, 0, 0, "text")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Mechanism: laplace")
	})

	t.Run("gaussian-json", func(t *testing.T) {
		var out bytes.Buffer
		err := RunNoise(context.Background(), engine, &out, 100, "gaussian", 1.0, 1e-5, 1.0, "json")
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.Equal(t, float64(100), result["original"])
	})

	t.Run("invalid-mechanism", func(t *testing.T) {
		err := RunNoise(context.Background(), engine, io.Discard, 100, "exponential", 0, 0, 0, "text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid mechanism")
	})
}

func TestRunAggregate(t *testing.T) {
	engine := testEngine()

	t.Run("mean", func(t *testing.T) {
		var out bytes.Buffer
		err := RunAggregate(context.Background(), engine, &out, "1, 2, 3, 4", "mean", "laplace", 0, "text")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Sample Size: 4")
	})

	t.Run("invalid-function", func(t *testing.T) {
		err := RunAggregate(context.Background(), engine, io.Discard, "1,2", "median", "laplace", 0, "text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid function")
	})

	t.Run("invalid-values", func(t *testing.T) {
		err := RunAggregate(context.Background(), engine, io.Discard, "1,abc", "mean", "laplace", 0, "text")
		require.Error(t, err)
	})
}

func TestRunAnonymize(t *testing.T) {
	engine := testEngine()
	dir := t.TempDir()

	input := filepath.Join(dir, "dataset.json")
	dataset := `[
		{"age": 25, "gender": "male"},
		{"age": 25, "gender": "male"},
		{"age": 44, "gender": "female"}
	]`
	require.NoError(t, os.WriteFile(input, []byte(dataset), 0o600))

	output := filepath.Join(dir, "anonymized.json")
	var out bytes.Buffer
	err := RunAnonymize(context.Background(), engine, testLogger(), &out, input, output, 2, false)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Anonymized")

	raw, err := os.ReadFile(output)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Contains(t, result, "statistics")

	t.Run("missing-input", func(t *testing.T) {
		err := RunAnonymize(context.Background(), engine, testLogger(), io.Discard, filepath.Join(dir, "absent.json"), "", 2, false)
		require.Error(t, err)
	})
}

func TestRunMinimize(t *testing.T) {
	minimizer := privacyService.NewDataMinimizer(testLogger(), nil)

	var out bytes.Buffer
	record := `{"content": "hello", "title": "hi", "email": "a@b.c"}`
	err := RunMinimize(context.Background(), minimizer, &out, record, "display")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	data := result["data"].(map[string]any)
	assert.Equal(t, "hello", data["content"])
	assert.NotContains(t, data, "email")

	err = RunMinimize(context.Background(), minimizer, io.Discard, "not-json", "display")
	require.Error(t, err)
}

func TestRunRecordAndVerifyAudit(t *testing.T) {
	recorder, err := auditService.NewAuditRecorder("an-audit-hmac-secret-of-32-chars-or-more", 730)
	require.NoError(t, err)

	var out bytes.Buffer
	err = RunRecordAudit(context.Background(), recorder, &out, "key_generate", `{"keySize": 2048}`, "user-1", "", "")
	require.NoError(t, err)

	dir := t.TempDir()
	recordPath := filepath.Join(dir, "record.json")
	require.NoError(t, os.WriteFile(recordPath, out.Bytes(), 0o600))

	var verifyOut bytes.Buffer
	require.NoError(t, RunVerifyAudit(context.Background(), recorder, &verifyOut, recordPath))
	assert.Contains(t, verifyOut.String(), `"valid": true`)

	t.Run("tampered", func(t *testing.T) {
		tampered := bytes.Replace(out.Bytes(), []byte("key_generate"), []byte("key_rotate!!"), 1)
		tamperedPath := filepath.Join(dir, "tampered.json")
		require.NoError(t, os.WriteFile(tamperedPath, tampered, 0o600))

		err := RunVerifyAudit(context.Background(), recorder, io.Discard, tamperedPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "integrity check failed")
	})
}

func TestRunIssueAndVerifyCertificate(t *testing.T) {
	keyManager := testKeyManager(t)
	authority := certService.NewCertificateAuthority(keyManager.SigningKey(), "a-cert-signing-secret", 365)

	var out bytes.Buffer
	err := RunIssueCertificate(
		context.Background(), authority, keyManager, &out,
		"user-1", "messages, profile", "", 0, false,
	)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.json")
	require.NoError(t, os.WriteFile(certPath, out.Bytes(), 0o600))

	publicKeyPEM, err := keyManager.SigningPublicKeyPEM()
	require.NoError(t, err)
	keyPath := filepath.Join(dir, "signer.pem")
	require.NoError(t, os.WriteFile(keyPath, publicKeyPEM, 0o600))

	var verifyOut bytes.Buffer
	require.NoError(t, RunVerifyCertificate(context.Background(), authority, &verifyOut, certPath, keyPath))
	assert.Contains(t, verifyOut.String(), `"valid": true`)

	t.Run("weak-mode", func(t *testing.T) {
		var weakOut bytes.Buffer
		require.NoError(t, RunVerifyCertificate(context.Background(), authority, &weakOut, certPath, ""))
		assert.Contains(t, weakOut.String(), "warning")
	})

	t.Run("empty-data-types", func(t *testing.T) {
		err := RunIssueCertificate(context.Background(), authority, keyManager, io.Discard, "user-1", "", "", 0, false)
		require.Error(t, err)
	})
}

func TestRunStats(t *testing.T) {
	container := app.NewContainer(&config.Config{
		LogLevel:            "error",
		MaintenanceInterval: time.Minute,
		StatusInterval:      time.Hour,
	})
	defer func() {
		assert.NoError(t, container.Shutdown(context.Background()))
	}()

	var out bytes.Buffer
	require.NoError(t, RunStats(context.Background(), container, &out, "text"))
	assert.Contains(t, out.String(), "Engine Statistics")

	var jsonOut bytes.Buffer
	require.NoError(t, RunStats(context.Background(), container, &jsonOut, "json"))

	var stats map[string]any
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &stats))
	assert.Contains(t, stats, "keysGenerated")
}
