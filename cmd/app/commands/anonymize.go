package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	privacyDomain "github.com/allisson/privacy/internal/privacy/domain"
	privacyService "github.com/allisson/privacy/internal/privacy/service"
)

// RunAnonymize reads a JSON dataset, applies k-anonymity, and writes the
// anonymized result to the output path or the writer.
func RunAnonymize(
	ctx context.Context,
	engine *privacyService.PrivacyEngine,
	logger *slog.Logger,
	writer io.Writer,
	inputPath string,
	outputPath string,
	k int,
	allowSuppression bool,
) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var dataset []privacyDomain.Record
	if err := json.Unmarshal(raw, &dataset); err != nil {
		return fmt.Errorf("input is not a JSON array of records: %w", err)
	}

	result, err := engine.EnsureKAnonymity(ctx, dataset, privacyService.KAnonymityOptions{
		K:                k,
		AllowSuppression: allowSuppression,
	})
	if err != nil {
		return fmt.Errorf("failed to anonymize: %w", err)
	}

	logger.Info("dataset anonymized",
		slog.Int("input_records", len(dataset)),
		slog.Int("output_records", len(result.Data)),
		slog.Int("groups_formed", result.Statistics.GroupsFormed),
		slog.Int("records_suppressed", result.Statistics.RecordsSuppressed),
		slog.String("level", string(result.Level)),
	)

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, append(encoded, '\n'), 0o600); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		_, _ = fmt.Fprintf(writer, "Anonymized %d record(s) to %s\n", len(result.Data), outputPath)
		return nil
	}

	_, _ = fmt.Fprintln(writer, string(encoded))
	return nil
}
