// Package domain defines the privacy-transformation domain models: records,
// quasi-identifier kinds, mechanisms, and the statistics returned by the
// anonymization and minimization operations.
package domain

// Record is a single user data record keyed by field name.
type Record map[string]any

// Mechanism identifies a differential-privacy noise mechanism.
type Mechanism string

const (
	// MechanismLaplace is the Laplace mechanism (default).
	MechanismLaplace Mechanism = "laplace"
	// MechanismGaussian is the Gaussian mechanism.
	MechanismGaussian Mechanism = "gaussian"
)

// AnonymizationLevel describes the strength of an anonymization outcome.
type AnonymizationLevel string

const (
	// LevelKAnonymous means every output group met the threshold verbatim.
	LevelKAnonymous AnonymizationLevel = "k-anonymous"
	// LevelPartiallyAnonymous means some groups required generalization or
	// suppression to meet the threshold.
	LevelPartiallyAnonymous AnonymizationLevel = "partially-anonymous"
)

// AnonymizationStatistics accounts for every input record exactly once:
// RecordsAnonymized + RecordsGeneralized + RecordsSuppressed equals the
// original record count.
type AnonymizationStatistics struct {
	GroupsFormed       int `json:"groupsFormed"`
	RecordsAnonymized  int `json:"recordsAnonymized"`
	RecordsGeneralized int `json:"recordsGeneralized"`
	RecordsSuppressed  int `json:"recordsSuppressed"`
}

// AnonymizationResult is the outcome of a k-anonymity pass.
type AnonymizationResult struct {
	Data       []Record                `json:"data"`
	Statistics AnonymizationStatistics `json:"statistics"`
	Level      AnonymizationLevel      `json:"anonymizationLevel"`
}

// AggregateResult is the outcome of a differentially private aggregation.
type AggregateResult struct {
	Value      float64   `json:"value"`
	Mechanism  Mechanism `json:"mechanism"`
	Epsilon    float64   `json:"epsilon"`
	SampleSize int       `json:"sampleSize"`
}

// MinimizationStatistics reports what a minimization pass kept and dropped.
type MinimizationStatistics struct {
	Purpose        string `json:"purpose"`
	OriginalFields int    `json:"originalFields"`
	RetainedFields int    `json:"retainedFields"`
	UnknownPurpose bool   `json:"unknownPurpose"`
}

// MinimizationResult is the outcome of a data minimization pass.
type MinimizationResult struct {
	Data       Record                 `json:"data"`
	Statistics MinimizationStatistics `json:"statistics"`
}
