package service

import (
	"context"
	"log/slog"
	"sync/atomic"

	privacyDomain "github.com/allisson/privacy/internal/privacy/domain"
)

// defaultPurposeFields is the built-in purpose -> allow-list table. It can
// be overridden wholesale through configuration.
var defaultPurposeFields = map[string][]string{
	"analysis": {"age", "gender", "location", "occupation", "activityLevel"},
	"display":  {"content", "title", "createdAt"},
	"storage":  {"userId", "content", "createdAt", "updatedAt"},
	"logging":  {"operation", "timestamp", "status"},
	"export":   {"userId", "content", "createdAt"},
	"research": {"age", "gender", "location", "interests"},
	"backup":   {"userId", "content", "metadata", "createdAt"},
}

// DataMinimizer implements Minimizer with a purpose-keyed allow-list.
//
// Unknown purposes are permissive-safe: they produce an empty result and a
// warning rather than a failure, so no data leaks through error paths.
type DataMinimizer struct {
	logger *slog.Logger
	fields map[string][]string
	ops    atomic.Uint64
}

// NewDataMinimizer creates a DataMinimizer. A non-nil overrides map replaces
// the built-in purpose table entirely.
func NewDataMinimizer(logger *slog.Logger, overrides map[string][]string) *DataMinimizer {
	fields := defaultPurposeFields
	if overrides != nil {
		fields = overrides
	}
	return &DataMinimizer{logger: logger, fields: fields}
}

// Minimize copies only the allow-listed fields for the purpose that are
// present on the record.
func (d *DataMinimizer) Minimize(
	ctx context.Context,
	record privacyDomain.Record,
	purpose string,
) *privacyDomain.MinimizationResult {
	d.ops.Add(1)

	result := &privacyDomain.MinimizationResult{
		Data: privacyDomain.Record{},
		Statistics: privacyDomain.MinimizationStatistics{
			Purpose:        purpose,
			OriginalFields: len(record),
		},
	}

	allowed, ok := d.fields[purpose]
	if !ok {
		result.Statistics.UnknownPurpose = true
		d.logger.Warn("no minimization fields configured for purpose", slog.String("purpose", purpose))
		return result
	}

	for _, field := range allowed {
		if value, present := record[field]; present {
			result.Data[field] = value
		}
	}
	result.Statistics.RetainedFields = len(result.Data)

	return result
}

// Operations returns the total number of minimization passes performed.
func (d *DataMinimizer) Operations() uint64 {
	return d.ops.Load()
}
