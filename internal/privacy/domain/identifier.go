package domain

import "strings"

// IdentifierKind is the tagged set of quasi-identifier kinds the engine
// knows how to generalize. Caller-supplied field names outside this set fall
// back to KindOther and are used verbatim.
type IdentifierKind int

const (
	// KindOther uses the field value as-is.
	KindOther IdentifierKind = iota
	// KindAge buckets numeric ages into fixed-width bins.
	KindAge
	// KindLocation generalizes a location to its first two characters.
	KindLocation
	// KindGender passes gender through verbatim when grouping.
	KindGender
	// KindOccupation maps occupations onto a fixed category taxonomy.
	KindOccupation
)

// KindOf resolves the identifier kind for a field name.
func KindOf(field string) IdentifierKind {
	switch strings.ToLower(field) {
	case "age":
		return KindAge
	case "location", "region":
		return KindLocation
	case "gender":
		return KindGender
	case "occupation":
		return KindOccupation
	default:
		return KindOther
	}
}

// OccupationCategory is one of the fixed occupation taxonomy buckets.
type OccupationCategory string

const (
	OccupationTech      OccupationCategory = "tech"
	OccupationMedical   OccupationCategory = "medical"
	OccupationEducation OccupationCategory = "education"
	OccupationBusiness  OccupationCategory = "business"
	OccupationService   OccupationCategory = "service"
	OccupationOther     OccupationCategory = "other"
)

// occupationKeywords maps category to the substrings that select it.
// Order matters: the first category with a matching keyword wins.
var occupationKeywords = []struct {
	category OccupationCategory
	keywords []string
}{
	{OccupationTech, []string{"engineer", "developer", "programmer", "software", "tech", "data", "sysadmin"}},
	{OccupationMedical, []string{"doctor", "nurse", "physician", "medic", "dentist", "pharmac", "health"}},
	{OccupationEducation, []string{"teacher", "professor", "lecturer", "tutor", "educat"}},
	{OccupationBusiness, []string{"manager", "analyst", "consultant", "account", "finance", "sales", "market"}},
	{OccupationService, []string{"driver", "waiter", "cashier", "clerk", "chef", "cook", "retail", "clean"}},
}

// CategorizeOccupation maps a free-text occupation onto the fixed taxonomy
// via substring keyword match. Unmatched occupations land in OccupationOther.
func CategorizeOccupation(occupation string) OccupationCategory {
	normalized := strings.ToLower(occupation)
	for _, entry := range occupationKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(normalized, keyword) {
				return entry.category
			}
		}
	}
	return OccupationOther
}
