package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/allisson/privacy/internal/app"
)

// RunStats prints a snapshot of the engine statistics.
func RunStats(ctx context.Context, container *app.Container, writer io.Writer, format string) error {
	stats := container.Stats()

	if format == "json" {
		return outputJSON(writer, stats)
	}

	_, _ = fmt.Fprintf(writer, "Engine Statistics\n")
	_, _ = fmt.Fprintf(writer, "=================\n\n")
	_, _ = fmt.Fprintf(writer, "Keys Generated:          %d\n", stats.KeysGenerated)
	_, _ = fmt.Fprintf(writer, "Certificates Issued:     %d\n", stats.CertificatesIssued)
	_, _ = fmt.Fprintf(writer, "Audit Records Created:   %d\n", stats.AuditRecordsCreated)
	_, _ = fmt.Fprintf(writer, "Minimization Operations: %d\n", stats.MinimizationOperations)
	_, _ = fmt.Fprintf(writer, "Key Cache Size:          %d\n", stats.KeyCacheSize)
	_, _ = fmt.Fprintf(writer, "Cert Cache Size:         %d\n", stats.CertCacheSize)
	_, _ = fmt.Fprintf(writer, "Uptime:                  %.1fs\n", stats.UptimeSeconds)

	return nil
}
