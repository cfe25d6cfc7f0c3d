package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine checks that the Prometheus output contains a metric
// matching the given name, partial label pattern, and value. Uses regex to
// handle extra OTel scope labels injected by the Prometheus exporter.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("test_privacy")

	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.NotNil(t, provider.meterProvider)
	assert.NotNil(t, provider.registry)
	assert.NotNil(t, provider.Handler())
	assert.NotNil(t, provider.MeterProvider())
}

func TestProvider_Shutdown(t *testing.T) {
	provider, err := NewProvider("test_privacy")
	require.NoError(t, err)
	assert.NoError(t, provider.Shutdown(context.Background()))

	empty := &Provider{meterProvider: nil}
	assert.NoError(t, empty.Shutdown(context.Background()))
}

func TestBusinessMetrics_Integration(t *testing.T) {
	provider, err := NewProvider("test_privacy")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_privacy")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "crypto", "key_generate", "success")
	bm.RecordOperation(ctx, "crypto", "key_generate", "success")
	bm.RecordOperation(ctx, "privacy", "anonymize", "error")
	bm.RecordDuration(ctx, "crypto", "key_generate", 50*time.Millisecond, "success")
	bm.RecordDuration(ctx, "cert", "cert_issue", 5*time.Millisecond, "success")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	provider.Handler().ServeHTTP(w, req)

	output := w.Body.String()
	assertMetricLine(
		t,
		output,
		`test_privacy_operations_total`,
		`domain="crypto".*operation="key_generate".*status="success"`,
		`2`,
	)
	assertMetricLine(
		t,
		output,
		`test_privacy_operations_total`,
		`domain="privacy".*operation="anonymize".*status="error"`,
		`1`,
	)
	assertMetricLine(
		t,
		output,
		`test_privacy_operation_duration_seconds_count`,
		`domain="crypto".*operation="key_generate".*status="success"`,
		`1`,
	)
}

func TestNoOpBusinessMetrics(t *testing.T) {
	noOp := NewNoOpBusinessMetrics()
	assert.IsType(t, &NoOpBusinessMetrics{}, noOp)

	// Should not panic or record anything
	noOp.RecordOperation(context.Background(), "crypto", "key_generate", "success")
	noOp.RecordDuration(context.Background(), "crypto", "key_generate", time.Millisecond, "success")
}

type staticStats struct{}

func (staticStats) KeysGenerated() uint64          { return 3 }
func (staticStats) CertificatesIssued() uint64     { return 2 }
func (staticStats) AuditRecordsCreated() uint64    { return 7 }
func (staticStats) MinimizationOperations() uint64 { return 5 }
func (staticStats) KeyCacheSize() int              { return 1 }
func (staticStats) CertCacheSize() int             { return 4 }
func (staticStats) UptimeSeconds() float64         { return 12.5 }

func TestRegisterSecurityStats(t *testing.T) {
	provider, err := NewProvider("test_privacy")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	err = RegisterSecurityStats(provider.MeterProvider(), "test_privacy", staticStats{})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	provider.Handler().ServeHTTP(w, req)

	output := w.Body.String()
	assert.Contains(t, output, "test_privacy_keys_generated_total")
	assert.Contains(t, output, "test_privacy_certificates_issued_total")
	assert.Contains(t, output, "test_privacy_audit_records_total")
	assert.Contains(t, output, "test_privacy_minimization_operations_total")
	assert.Contains(t, output, "test_privacy_key_cache_size")
	assert.Contains(t, output, "test_privacy_cert_cache_size")
	assert.Contains(t, output, "test_privacy_uptime_seconds")
}
