package service

import (
	"context"
	"math"

	apperrors "github.com/allisson/privacy/internal/errors"
	privacyDomain "github.com/allisson/privacy/internal/privacy/domain"
	"github.com/allisson/privacy/internal/random"
)

const defaultDelta = 1e-5

// Config holds the privacy engine defaults resolved from SecurityConfig.
type Config struct {
	Epsilon          float64
	Sensitivity      float64
	NoiseScale       float64
	KThreshold       int
	QuasiIdentifiers []string
	AgeGroupSize     int
}

// PrivacyEngine implements Engine on top of a uniform randomness source.
type PrivacyEngine struct {
	cfg    Config
	source random.Source
}

// NewPrivacyEngine creates a PrivacyEngine. The source decides whether noise
// is CSPRNG-backed or uses the legacy non-cryptographic mode.
func NewPrivacyEngine(cfg Config, source random.Source) *PrivacyEngine {
	return &PrivacyEngine{cfg: cfg, source: source}
}

// Epsilon returns the configured default privacy budget.
func (p *PrivacyEngine) Epsilon() float64 {
	return p.cfg.Epsilon
}

// Sensitivity returns the configured default query sensitivity.
func (p *PrivacyEngine) Sensitivity() float64 {
	return p.cfg.Sensitivity
}

// AddLaplaceNoise adds Laplace noise with scale b = sensitivity / epsilon.
//
// The deviate is drawn by inverse-CDF sampling from u uniform in (-0.5, 0.5):
// noise = -b * sign(u) * ln(1 - 2|u|).
func (p *PrivacyEngine) AddLaplaceNoise(value, epsilon, sensitivity float64) (float64, error) {
	if err := validateBudget(epsilon, sensitivity); err != nil {
		return 0, err
	}

	scale := sensitivity / epsilon * p.cfg.NoiseScale

	u, err := p.centeredUniform()
	if err != nil {
		return 0, err
	}

	noise := -scale * sign(u) * math.Log(1-2*math.Abs(u))
	return value + noise, nil
}

// AddGaussianNoise adds Gaussian noise with standard deviation
// sigma = sensitivity * sqrt(2 * ln(1.25/delta)) / epsilon.
//
// The normal deviate comes from a Box-Muller transform over two independent
// uniforms: z = sqrt(-2 ln u1) * cos(2*pi*u2).
func (p *PrivacyEngine) AddGaussianNoise(value, epsilon, delta, sensitivity float64) (float64, error) {
	if err := validateBudget(epsilon, sensitivity); err != nil {
		return 0, err
	}
	if delta <= 0 || delta >= 1 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "delta must be in (0, 1)")
	}

	sigma := sensitivity * math.Sqrt(2*math.Log(1.25/delta)) / epsilon * p.cfg.NoiseScale

	u1, err := p.positiveUniform()
	if err != nil {
		return 0, err
	}
	u2, err := p.source.Float64()
	if err != nil {
		return 0, err
	}

	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return value + sigma*z, nil
}

// PrivateAggregate applies fn to values and perturbs the result with the
// selected mechanism (Laplace unless Gaussian is requested).
func (p *PrivacyEngine) PrivateAggregate(
	ctx context.Context,
	values []float64,
	fn AggregateFunc,
	opts AggregateOptions,
) (*privacyDomain.AggregateResult, error) {
	if len(values) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "values must not be empty")
	}
	if fn == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "aggregate function is required")
	}

	epsilon := opts.Epsilon
	if epsilon == 0 {
		epsilon = p.cfg.Epsilon
	}
	sensitivity := opts.Sensitivity
	if sensitivity == 0 {
		sensitivity = p.cfg.Sensitivity
	}
	delta := opts.Delta
	if delta == 0 {
		delta = defaultDelta
	}
	mechanism := opts.Mechanism
	if mechanism == "" {
		mechanism = privacyDomain.MechanismLaplace
	}

	aggregate := fn(values)

	var noisy float64
	var err error
	switch mechanism {
	case privacyDomain.MechanismLaplace:
		noisy, err = p.AddLaplaceNoise(aggregate, epsilon, sensitivity)
	case privacyDomain.MechanismGaussian:
		noisy, err = p.AddGaussianNoise(aggregate, epsilon, delta, sensitivity)
	default:
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown mechanism: "+string(mechanism))
	}
	if err != nil {
		return nil, err
	}

	return &privacyDomain.AggregateResult{
		Value:      noisy,
		Mechanism:  mechanism,
		Epsilon:    epsilon,
		SampleSize: len(values),
	}, nil
}

// centeredUniform draws u uniform in the open interval (-0.5, 0.5).
// The endpoint is resampled so ln(1 - 2|u|) stays finite.
func (p *PrivacyEngine) centeredUniform() (float64, error) {
	for {
		v, err := p.source.Float64()
		if err != nil {
			return 0, err
		}
		if v == 0 {
			continue
		}
		return v - 0.5, nil
	}
}

// positiveUniform draws u uniform in (0, 1) so ln(u) stays finite.
func (p *PrivacyEngine) positiveUniform() (float64, error) {
	for {
		v, err := p.source.Float64()
		if err != nil {
			return 0, err
		}
		if v == 0 {
			continue
		}
		return v, nil
	}
}

func validateBudget(epsilon, sensitivity float64) error {
	if epsilon <= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "epsilon must be positive")
	}
	if sensitivity <= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "sensitivity must be positive")
	}
	return nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Built-in aggregate functions usable with PrivateAggregate.
var (
	// Sum adds the series.
	Sum AggregateFunc = func(values []float64) float64 {
		total := 0.0
		for _, v := range values {
			total += v
		}
		return total
	}

	// Mean averages the series.
	Mean AggregateFunc = func(values []float64) float64 {
		return Sum(values) / float64(len(values))
	}

	// Count returns the series length.
	Count AggregateFunc = func(values []float64) float64 {
		return float64(len(values))
	}
)

// LookupAggregate resolves a named aggregate function.
func LookupAggregate(name string) (AggregateFunc, bool) {
	switch name {
	case "sum":
		return Sum, true
	case "mean", "avg":
		return Mean, true
	case "count":
		return Count, true
	default:
		return nil, false
	}
}
