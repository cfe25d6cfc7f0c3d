package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/privacy/internal/errors"
	privacyDomain "github.com/allisson/privacy/internal/privacy/domain"
)

func TestEnsureKAnonymityPassesLargeGroups(t *testing.T) {
	engine := testEngine()

	dataset := []privacyDomain.Record{
		{"age": 25, "gender": "female", "location": "Berlin"},
		{"age": 26, "gender": "female", "location": "Bremen"},
		{"age": 24, "gender": "female", "location": "Bonn"},
	}

	// Berlin/Bremen/Bonn differ in their two-char prefixes, so group on
	// age+gender where all three records are equivalent.
	result, err := engine.EnsureKAnonymity(context.Background(), dataset, KAnonymityOptions{
		K:                3,
		QuasiIdentifiers: []string{"age", "gender"},
	})
	require.NoError(t, err)

	assert.Len(t, result.Data, 3)
	assert.Equal(t, 1, result.Statistics.GroupsFormed)
	assert.Equal(t, 3, result.Statistics.RecordsAnonymized)
	assert.Equal(t, privacyDomain.LevelKAnonymous, result.Level)

	// Records retained verbatim keep their raw values.
	assert.Equal(t, "Berlin", result.Data[0]["location"])
}

func TestEnsureKAnonymityAgeOutlierScenario(t *testing.T) {
	engine := testEngine()

	// Ages 25 and 26 share the 20-29 bin; 70 is alone in 70-79.
	dataset := []privacyDomain.Record{
		{"age": 25},
		{"age": 26},
		{"age": 70},
	}
	opts := KAnonymityOptions{K: 2, QuasiIdentifiers: []string{"age"}}

	result, err := engine.EnsureKAnonymity(context.Background(), dataset, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Statistics.GroupsFormed)
	assert.Equal(t, 2, result.Statistics.RecordsAnonymized)
	assert.Equal(t, 1, result.Statistics.RecordsGeneralized)
	assert.Len(t, result.Data, 3)
	assert.Equal(t, "70-79", result.Data[2]["age"])

	// With suppression allowed, a singleton below ceil(2/2)=1 is not below
	// the cutoff, so it is still generalized, never silently dropped.
	result, err = engine.EnsureKAnonymity(context.Background(), dataset, KAnonymityOptions{
		K:                2,
		QuasiIdentifiers: []string{"age"},
		AllowSuppression: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Statistics.RecordsGeneralized)
	assert.Equal(t, 0, result.Statistics.RecordsSuppressed)
}

func TestEnsureKAnonymitySuppression(t *testing.T) {
	engine := testEngine()

	// k=4: cutoff is ceil(4/2)=2, so a singleton group is suppressed while
	// a pair is generalized.
	dataset := []privacyDomain.Record{
		{"age": 21}, {"age": 22}, {"age": 23}, {"age": 24},
		{"age": 31}, {"age": 32},
		{"age": 71},
	}
	opts := KAnonymityOptions{K: 4, QuasiIdentifiers: []string{"age"}, AllowSuppression: true}

	result, err := engine.EnsureKAnonymity(context.Background(), dataset, opts)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Statistics.GroupsFormed)
	assert.Equal(t, 4, result.Statistics.RecordsAnonymized)
	assert.Equal(t, 2, result.Statistics.RecordsGeneralized)
	assert.Equal(t, 1, result.Statistics.RecordsSuppressed)
	assert.Len(t, result.Data, 6)
	assert.Equal(t, privacyDomain.LevelPartiallyAnonymous, result.Level)
}

func TestEnsureKAnonymityAccountsForEveryRecord(t *testing.T) {
	engine := testEngine()

	dataset := []privacyDomain.Record{
		{"age": 20, "gender": "male", "location": "Hamburg"},
		{"age": 21, "gender": "male", "location": "Hannover"},
		{"age": 35, "gender": "female", "location": "Munich"},
		{"age": 36, "gender": "female", "location": "Muenster"},
		{"age": 80, "gender": "nonbinary", "location": "Kiel"},
	}

	for _, allowSuppression := range []bool{false, true} {
		result, err := engine.EnsureKAnonymity(context.Background(), dataset, KAnonymityOptions{
			K:                2,
			AllowSuppression: allowSuppression,
		})
		require.NoError(t, err)

		stats := result.Statistics
		assert.Equal(t, len(dataset), stats.RecordsAnonymized+stats.RecordsGeneralized+stats.RecordsSuppressed)
		assert.Equal(t, len(dataset)-stats.RecordsSuppressed, len(result.Data))
	}
}

func TestGeneralizeRecordScrubsDirectIdentifiers(t *testing.T) {
	engine := testEngine()

	record := privacyDomain.Record{
		"userId":     "user-123",
		"email":      "user@example.com",
		"phone":      "+49-170-0000000",
		"age":        27,
		"location":   "Frankfurt",
		"gender":     "Nonbinary",
		"occupation": "Software Engineer",
		"note":       "kept as-is",
	}

	out := engine.generalizeRecord(record)

	assert.Equal(t, "ANONYMIZED", out["userId"])
	assert.NotContains(t, out, "email")
	assert.NotContains(t, out, "phone")
	assert.Equal(t, "20-29", out["age"])
	assert.Equal(t, "Fr*******", out["location"])
	assert.Equal(t, "other", out["gender"])
	assert.Equal(t, "tech", out["occupation"])
	assert.Equal(t, "kept as-is", out["note"])

	// Original record is untouched.
	assert.Equal(t, "user-123", record["userId"])
	assert.Contains(t, record, "email")
}

func TestNormalizeGender(t *testing.T) {
	assert.Equal(t, "male", normalizeGender("Male"))
	assert.Equal(t, "female", normalizeGender(" female "))
	assert.Equal(t, "other", normalizeGender("nonbinary"))
	assert.Equal(t, "other", normalizeGender(""))
}

func TestSignatureMissingFieldsUseUnknownToken(t *testing.T) {
	engine := testEngine()

	sig := engine.signature(privacyDomain.Record{"age": 42}, []string{"age", "gender", "location"})
	assert.Equal(t, "40-49|unknown|unknown", sig)
}

func TestEnsureKAnonymityEmptyDataset(t *testing.T) {
	engine := testEngine()

	_, err := engine.EnsureKAnonymity(context.Background(), nil, KAnonymityOptions{K: 2})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestEnsureKAnonymityRejectsTinyK(t *testing.T) {
	engine := testEngine()

	_, err := engine.EnsureKAnonymity(
		context.Background(),
		[]privacyDomain.Record{{"age": 1}},
		KAnonymityOptions{K: 1},
	)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAsFloatCoercions(t *testing.T) {
	for _, value := range []any{25, int64(25), 25.0, "25", " 25 "} {
		f, ok := asFloat(value)
		require.True(t, ok)
		assert.Equal(t, 25.0, f)
	}

	_, ok := asFloat("not-a-number")
	assert.False(t, ok)
	_, ok = asFloat(nil)
	assert.False(t, ok)
}
