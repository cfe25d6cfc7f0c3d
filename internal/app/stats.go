package app

import (
	"log/slog"
	"time"
)

// Stats is a point-in-time snapshot of the engine counters and caches.
type Stats struct {
	KeysGenerated          uint64  `json:"keysGenerated"`
	CertificatesIssued     uint64  `json:"certificatesIssued"`
	AuditRecordsCreated    uint64  `json:"auditRecordsCreated"`
	MinimizationOperations uint64  `json:"minimizationOperations"`
	KeyCacheSize           int     `json:"keyCacheSize"`
	CertCacheSize          int     `json:"certCacheSize"`
	UptimeSeconds          float64 `json:"uptimeSeconds"`
}

// Stats returns a snapshot of the engine statistics. Components that were
// never initialized contribute zero values.
func (c *Container) Stats() Stats {
	stats := Stats{
		UptimeSeconds: time.Since(c.startedAt).Seconds(),
	}

	if c.keyManager != nil {
		stats.KeysGenerated = c.keyManager.KeysGenerated()
		stats.KeyCacheSize = c.keyManager.CacheSize()
	}
	if c.certAuthority != nil {
		stats.CertificatesIssued = c.certAuthority.CertificatesIssued()
		stats.CertCacheSize = c.certAuthority.CacheSize()
	}
	if c.auditRecorder != nil {
		stats.AuditRecordsCreated = c.auditRecorder.RecordsCreated()
	}
	if c.minimizer != nil {
		stats.MinimizationOperations = c.minimizer.Operations()
	}

	return stats
}

// statusAttrs formats the statistics snapshot for the periodic status log.
func (c *Container) statusAttrs() []slog.Attr {
	stats := c.Stats()
	return []slog.Attr{
		slog.Uint64("keys_generated", stats.KeysGenerated),
		slog.Uint64("certificates_issued", stats.CertificatesIssued),
		slog.Uint64("audit_records_created", stats.AuditRecordsCreated),
		slog.Uint64("minimization_operations", stats.MinimizationOperations),
		slog.Int("key_cache_size", stats.KeyCacheSize),
		slog.Int("cert_cache_size", stats.CertCacheSize),
		slog.Float64("uptime_seconds", stats.UptimeSeconds),
	}
}

// containerStats adapts the container to the metrics stats source.
type containerStats struct {
	c *Container
}

func (s containerStats) KeysGenerated() uint64 {
	if s.c.keyManager == nil {
		return 0
	}
	return s.c.keyManager.KeysGenerated()
}

func (s containerStats) CertificatesIssued() uint64 {
	if s.c.certAuthority == nil {
		return 0
	}
	return s.c.certAuthority.CertificatesIssued()
}

func (s containerStats) AuditRecordsCreated() uint64 {
	if s.c.auditRecorder == nil {
		return 0
	}
	return s.c.auditRecorder.RecordsCreated()
}

func (s containerStats) MinimizationOperations() uint64 {
	if s.c.minimizer == nil {
		return 0
	}
	return s.c.minimizer.Operations()
}

func (s containerStats) KeyCacheSize() int {
	if s.c.keyManager == nil {
		return 0
	}
	return s.c.keyManager.CacheSize()
}

func (s containerStats) CertCacheSize() int {
	if s.c.certAuthority == nil {
		return 0
	}
	return s.c.certAuthority.CacheSize()
}

func (s containerStats) UptimeSeconds() float64 {
	return time.Since(s.c.startedAt).Seconds()
}
