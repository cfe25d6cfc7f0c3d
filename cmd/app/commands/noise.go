package commands

import (
	"context"
	"fmt"
	"io"

	privacyDomain "github.com/allisson/privacy/internal/privacy/domain"
	privacyService "github.com/allisson/privacy/internal/privacy/service"
)

// defaultDelta is the Gaussian failure probability when none is supplied.
const defaultDelta = 1e-5

// RunNoise perturbs a scalar value with the selected mechanism.
func RunNoise(
	ctx context.Context,
	engine *privacyService.PrivacyEngine,
	writer io.Writer,
	value float64,
	mechanism string,
	epsilon, delta, sensitivity float64,
	format string,
) error {
	if epsilon == 0 {
		epsilon = engine.Epsilon()
	}
	if sensitivity == 0 {
		sensitivity = engine.Sensitivity()
	}

	var noisy float64
	var err error
	switch privacyDomain.Mechanism(mechanism) {
	case privacyDomain.MechanismLaplace:
		noisy, err = engine.AddLaplaceNoise(value, epsilon, sensitivity)
	case privacyDomain.MechanismGaussian:
		if delta == 0 {
			delta = defaultDelta
		}
		noisy, err = engine.AddGaussianNoise(value, epsilon, delta, sensitivity)
	default:
		return fmt.Errorf("invalid mechanism: %s (valid options: laplace, gaussian)", mechanism)
	}
	if err != nil {
		return fmt.Errorf("failed to add noise: %w", err)
	}

	if format == "json" {
		return outputJSON(writer, map[string]any{
			"original":  value,
			"noisy":     noisy,
			"mechanism": mechanism,
			"epsilon":   epsilon,
		})
	}

	_, _ = fmt.Fprintf(writer, "Original:  %g\n", value)
	_, _ = fmt.Fprintf(writer, "Noisy:     %g\n", noisy)
	_, _ = fmt.Fprintf(writer, "Mechanism: %s\n", mechanism)
	_, _ = fmt.Fprintf(writer, "Epsilon:   %g\n", epsilon)

	return nil
}

// RunAggregate computes a differentially private aggregate over a value list.
func RunAggregate(
	ctx context.Context,
	engine *privacyService.PrivacyEngine,
	writer io.Writer,
	rawValues string,
	function string,
	mechanism string,
	epsilon float64,
	format string,
) error {
	values, err := parseFloats(rawValues)
	if err != nil {
		return err
	}

	fn, ok := privacyService.LookupAggregate(function)
	if !ok {
		return fmt.Errorf("invalid function: %s (valid options: sum, mean, count)", function)
	}

	result, err := engine.PrivateAggregate(ctx, values, fn, privacyService.AggregateOptions{
		Mechanism: privacyDomain.Mechanism(mechanism),
		Epsilon:   epsilon,
	})
	if err != nil {
		return fmt.Errorf("failed to aggregate: %w", err)
	}

	if format == "json" {
		return outputJSON(writer, result)
	}

	_, _ = fmt.Fprintf(writer, "Value:       %g\n", result.Value)
	_, _ = fmt.Fprintf(writer, "Function:    %s\n", function)
	_, _ = fmt.Fprintf(writer, "Mechanism:   %s\n", result.Mechanism)
	_, _ = fmt.Fprintf(writer, "Epsilon:     %g\n", result.Epsilon)
	_, _ = fmt.Fprintf(writer, "Sample Size: %d\n", result.SampleSize)

	return nil
}
