package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	privacyDomain "github.com/allisson/privacy/internal/privacy/domain"
	privacyService "github.com/allisson/privacy/internal/privacy/service"
)

// RunMinimize filters a JSON record down to the fields allowed for a purpose.
func RunMinimize(
	ctx context.Context,
	minimizer *privacyService.DataMinimizer,
	writer io.Writer,
	rawRecord string,
	purpose string,
) error {
	var record privacyDomain.Record
	if err := json.Unmarshal([]byte(rawRecord), &record); err != nil {
		return fmt.Errorf("record is not a JSON object: %w", err)
	}

	result := minimizer.Minimize(ctx, record, purpose)
	return outputJSON(writer, result)
}
