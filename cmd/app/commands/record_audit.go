package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	auditDomain "github.com/allisson/privacy/internal/audit/domain"
	auditService "github.com/allisson/privacy/internal/audit/service"
)

// RunRecordAudit builds an integrity-protected audit record and prints it as
// JSON so it can be stored and verified later.
func RunRecordAudit(
	ctx context.Context,
	recorder *auditService.AuditRecorder,
	writer io.Writer,
	operation string,
	rawPayload string,
	userID string,
	severity string,
	category string,
) error {
	var payload map[string]any
	if rawPayload != "" {
		if err := json.Unmarshal([]byte(rawPayload), &payload); err != nil {
			return fmt.Errorf("payload is not a JSON object: %w", err)
		}
	}

	record, err := recorder.Record(ctx, operation, payload, auditService.RecordOptions{
		UserID:   userID,
		Severity: severity,
		Category: category,
	})
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return outputJSON(writer, record)
}

// RunVerifyAudit verifies the integrity of a stored audit record.
// Returns an error when the record fails verification so the process exits
// non-zero.
func RunVerifyAudit(
	ctx context.Context,
	recorder *auditService.AuditRecorder,
	writer io.Writer,
	recordPath string,
) error {
	raw, err := os.ReadFile(recordPath)
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}

	var record auditDomain.AuditRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("record is not valid JSON: %w", err)
	}

	result := recorder.Verify(&record)
	if err := outputJSON(writer, result); err != nil {
		return err
	}

	if !result.Valid {
		return fmt.Errorf("integrity check failed: %s", result.Reason)
	}
	return nil
}
