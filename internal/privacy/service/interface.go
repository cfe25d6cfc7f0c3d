// Package service implements the privacy-preserving transformations of the
// engine: calibrated noise mechanisms, differentially private aggregation,
// k-anonymity, and purpose-bound data minimization.
package service

import (
	"context"

	privacyDomain "github.com/allisson/privacy/internal/privacy/domain"
)

// AggregateFunc reduces a numeric series to a single value before noise is
// applied.
type AggregateFunc func(values []float64) float64

// AggregateOptions controls a private aggregation. Zero values fall back to
// the configured defaults.
type AggregateOptions struct {
	Mechanism   privacyDomain.Mechanism
	Epsilon     float64
	Delta       float64 // Gaussian mechanism only
	Sensitivity float64
}

// KAnonymityOptions controls a k-anonymity pass. Zero values fall back to
// the configured defaults.
type KAnonymityOptions struct {
	K                int
	QuasiIdentifiers []string
	// AllowSuppression permits dropping groups smaller than ceil(k/2)
	// instead of generalizing them.
	AllowSuppression bool
}

// Engine defines the privacy transformation interface.
type Engine interface {
	// AddLaplaceNoise returns value plus Laplace noise with scale
	// sensitivity/epsilon.
	AddLaplaceNoise(value, epsilon, sensitivity float64) (float64, error)

	// AddGaussianNoise returns value plus Gaussian noise calibrated for
	// (epsilon, delta)-differential privacy.
	AddGaussianNoise(value, epsilon, delta, sensitivity float64) (float64, error)

	// PrivateAggregate applies fn to values and perturbs the result with the
	// selected mechanism.
	PrivateAggregate(ctx context.Context, values []float64, fn AggregateFunc, opts AggregateOptions) (*privacyDomain.AggregateResult, error)

	// EnsureKAnonymity transforms a dataset until every retained group of
	// quasi-identifier-equivalent records has size >= k.
	EnsureKAnonymity(ctx context.Context, dataset []privacyDomain.Record, opts KAnonymityOptions) (*privacyDomain.AnonymizationResult, error)
}

// Minimizer defines purpose-bound field filtering.
type Minimizer interface {
	// Minimize copies only the fields allow-listed for the purpose.
	Minimize(ctx context.Context, record privacyDomain.Record, purpose string) *privacyDomain.MinimizationResult

	// Operations returns the total number of minimization passes performed.
	Operations() uint64
}
