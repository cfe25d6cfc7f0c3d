package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// StatsSource supplies point-in-time engine statistics for metric collection.
// The DI container implements this over its atomic counters.
type StatsSource interface {
	KeysGenerated() uint64
	CertificatesIssued() uint64
	AuditRecordsCreated() uint64
	MinimizationOperations() uint64
	KeyCacheSize() int
	CertCacheSize() int
	UptimeSeconds() float64
}

// RegisterSecurityStats registers observable gauges that report engine
// statistics on every scrape. The callback reads the source directly so no
// polling goroutine is needed.
func RegisterSecurityStats(meterProvider metric.MeterProvider, namespace string, source StatsSource) error {
	meter := meterProvider.Meter(namespace)

	keysGenerated, err := meter.Int64ObservableCounter(
		fmt.Sprintf("%s_keys_generated_total", namespace),
		metric.WithDescription("Total number of key pairs generated"),
	)
	if err != nil {
		return fmt.Errorf("failed to create keys generated counter: %w", err)
	}

	certsIssued, err := meter.Int64ObservableCounter(
		fmt.Sprintf("%s_certificates_issued_total", namespace),
		metric.WithDescription("Total number of deletion certificates issued"),
	)
	if err != nil {
		return fmt.Errorf("failed to create certificates issued counter: %w", err)
	}

	auditRecords, err := meter.Int64ObservableCounter(
		fmt.Sprintf("%s_audit_records_total", namespace),
		metric.WithDescription("Total number of audit records created"),
	)
	if err != nil {
		return fmt.Errorf("failed to create audit records counter: %w", err)
	}

	minimizations, err := meter.Int64ObservableCounter(
		fmt.Sprintf("%s_minimization_operations_total", namespace),
		metric.WithDescription("Total number of data minimization operations"),
	)
	if err != nil {
		return fmt.Errorf("failed to create minimization counter: %w", err)
	}

	keyCacheSize, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_key_cache_size", namespace),
		metric.WithDescription("Number of key metadata entries in the cache"),
	)
	if err != nil {
		return fmt.Errorf("failed to create key cache gauge: %w", err)
	}

	certCacheSize, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_cert_cache_size", namespace),
		metric.WithDescription("Number of certificates in the cache"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cert cache gauge: %w", err)
	}

	uptime, err := meter.Float64ObservableGauge(
		fmt.Sprintf("%s_uptime_seconds", namespace),
		metric.WithDescription("Engine uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create uptime gauge: %w", err)
	}

	_, err = meter.RegisterCallback(
		func(ctx context.Context, observer metric.Observer) error {
			observer.ObserveInt64(keysGenerated, int64(source.KeysGenerated()))
			observer.ObserveInt64(certsIssued, int64(source.CertificatesIssued()))
			observer.ObserveInt64(auditRecords, int64(source.AuditRecordsCreated()))
			observer.ObserveInt64(minimizations, int64(source.MinimizationOperations()))
			observer.ObserveInt64(keyCacheSize, int64(source.KeyCacheSize()))
			observer.ObserveInt64(certCacheSize, int64(source.CertCacheSize()))
			observer.ObserveFloat64(uptime, source.UptimeSeconds())
			return nil
		},
		keysGenerated, certsIssued, auditRecords, minimizations,
		keyCacheSize, certCacheSize, uptime,
	)
	if err != nil {
		return fmt.Errorf("failed to register stats callback: %w", err)
	}

	return nil
}
