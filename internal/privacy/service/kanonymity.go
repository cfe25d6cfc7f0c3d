package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/allisson/privacy/internal/errors"
	privacyDomain "github.com/allisson/privacy/internal/privacy/domain"
)

const (
	unknownToken    = "unknown"
	anonymizedToken = "ANONYMIZED"
)

// EnsureKAnonymity groups the dataset by quasi-identifier signature and
// transforms it until every retained group has size >= k.
//
// Groups already at or above k pass through unchanged. Undersized groups are
// generalized, except that groups below ceil(k/2) are dropped entirely when
// the caller opts into suppression. The numeric suppression cutoff mirrors
// the original heuristic and is deliberately not tunable.
func (p *PrivacyEngine) EnsureKAnonymity(
	ctx context.Context,
	dataset []privacyDomain.Record,
	opts KAnonymityOptions,
) (*privacyDomain.AnonymizationResult, error) {
	if len(dataset) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "dataset must not be empty")
	}

	k := opts.K
	if k == 0 {
		k = p.cfg.KThreshold
	}
	if k < 2 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "k must be at least 2")
	}
	identifiers := opts.QuasiIdentifiers
	if len(identifiers) == 0 {
		identifiers = p.cfg.QuasiIdentifiers
	}

	// Group records by signature, preserving first-seen group order so the
	// output is deterministic.
	groups := make(map[string][]privacyDomain.Record)
	var order []string
	for _, record := range dataset {
		sig := p.signature(record, identifiers)
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], record)
	}

	suppressionCutoff := (k + 1) / 2 // ceil(k/2)

	result := &privacyDomain.AnonymizationResult{
		Statistics: privacyDomain.AnonymizationStatistics{
			GroupsFormed: len(groups),
		},
	}

	for _, sig := range order {
		group := groups[sig]
		switch {
		case len(group) >= k:
			result.Data = append(result.Data, group...)
			result.Statistics.RecordsAnonymized += len(group)
		case opts.AllowSuppression && len(group) < suppressionCutoff:
			result.Statistics.RecordsSuppressed += len(group)
		default:
			for _, record := range group {
				result.Data = append(result.Data, p.generalizeRecord(record))
			}
			result.Statistics.RecordsGeneralized += len(group)
		}
	}

	result.Level = privacyDomain.LevelKAnonymous
	if result.Statistics.RecordsGeneralized > 0 || result.Statistics.RecordsSuppressed > 0 {
		result.Level = privacyDomain.LevelPartiallyAnonymous
	}

	return result, nil
}

// signature builds the pipe-separated quasi-identifier signature of a record,
// with per-field generalized tokens in the supplied field order.
func (p *PrivacyEngine) signature(record privacyDomain.Record, identifiers []string) string {
	tokens := make([]string, 0, len(identifiers))
	for _, field := range identifiers {
		value, ok := record[field]
		if !ok || value == nil {
			tokens = append(tokens, unknownToken)
			continue
		}
		tokens = append(tokens, p.generalizeToken(privacyDomain.KindOf(field), value))
	}
	return strings.Join(tokens, "|")
}

// generalizeToken produces the grouping token for one quasi-identifier value.
func (p *PrivacyEngine) generalizeToken(kind privacyDomain.IdentifierKind, value any) string {
	switch kind {
	case privacyDomain.KindAge:
		age, ok := asFloat(value)
		if !ok {
			return unknownToken
		}
		return p.ageBucket(age)
	case privacyDomain.KindLocation:
		return locationPrefix(asString(value))
	case privacyDomain.KindGender:
		return asString(value)
	case privacyDomain.KindOccupation:
		return string(privacyDomain.CategorizeOccupation(asString(value)))
	default:
		return asString(value)
	}
}

// generalizeRecord returns a generalized copy of a record that could not
// meet the k threshold verbatim. Direct identifiers are scrubbed and every
// known quasi-identifier is coarsened.
func (p *PrivacyEngine) generalizeRecord(record privacyDomain.Record) privacyDomain.Record {
	out := make(privacyDomain.Record, len(record))
	for field, value := range record {
		switch privacyDomain.KindOf(field) {
		case privacyDomain.KindAge:
			if age, ok := asFloat(value); ok {
				out[field] = p.ageBucket(age)
			} else {
				out[field] = unknownToken
			}
		case privacyDomain.KindLocation:
			out[field] = maskLocation(asString(value))
		case privacyDomain.KindGender:
			out[field] = normalizeGender(asString(value))
		case privacyDomain.KindOccupation:
			out[field] = string(privacyDomain.CategorizeOccupation(asString(value)))
		default:
			out[field] = value
		}
	}

	if _, ok := out["userId"]; ok {
		out["userId"] = anonymizedToken
	}
	delete(out, "email")
	delete(out, "phone")

	return out
}

// ageBucket maps an age into its generalization bin, e.g. 25 -> "20-29"
// with a bin width of 10.
func (p *PrivacyEngine) ageBucket(age float64) string {
	size := p.cfg.AgeGroupSize
	if size < 1 {
		size = 1
	}
	low := int(math.Floor(age/float64(size))) * size
	return fmt.Sprintf("%d-%d", low, low+size-1)
}

// locationPrefix keeps the first two characters of a location.
func locationPrefix(location string) string {
	runes := []rune(location)
	if len(runes) <= 2 {
		return location
	}
	return string(runes[:2])
}

// maskLocation keeps the first two characters and masks the rest.
func maskLocation(location string) string {
	runes := []rune(location)
	if len(runes) <= 2 {
		return location
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-2)
}

// normalizeGender keeps canonical binary values and maps everything else to
// "other" so rare values cannot re-identify.
func normalizeGender(gender string) string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "female":
		return strings.ToLower(strings.TrimSpace(gender))
	default:
		return "other"
	}
}

// asFloat coerces numeric record values, including numeric strings, into a
// float64. JSON decoding hands back float64 but callers may supply ints.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// asString renders any record value as its string token.
func asString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
