// Package enrich matches discovered businesses to provider operating
// locations and pulls their card-transaction observations.
package enrich

import (
	"regexp"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/sells-group/peerview-cli/internal/normalize"
)

// Match reason codes, strongest first.
const (
	ReasonStreetCityState   = "street_city_state_match"
	ReasonNameZip           = "name_zip_match"
	ReasonNameZipState      = "name_zip_state_match"
	ReasonStreetNameClose   = "street_match_name_close"
	ReasonStreetPartialArea = "street_match_partial_city_state"
	ReasonNameCityState     = "name_city_state_match"
	ReasonWeak              = "weak_match"
)

var (
	namePunct  = regexp.MustCompile(`[^\w\s]`)
	nameSpaces = regexp.MustCompile(`\s+`)
	// Corporate suffixes and filler words that differ between the mapping API
	// and the provider without meaning a different business.
	nameSuffix = regexp.MustCompile(`(?i)\b(the|a|llc|pllc|inc|inc\.|co|co\.|corp|corp\.|ltd|ltd\.|spa|clinic|center)\b`)

	stateZipTail = regexp.MustCompile(`(?i)\b[A-Z]{2}\s+\d{5}(?:-\d{4})?\s*$`)
)

// CleanName strips punctuation and corporate suffixes from a business name
// for similarity comparison.
func CleanName(s string) string {
	if s == "" {
		return ""
	}
	s = strings.TrimSpace(s)
	s = namePunct.ReplaceAllString(s, " ")
	s = nameSpaces.ReplaceAllString(s, " ")
	s = nameSuffix.ReplaceAllString(s, " ")
	s = nameSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NameSimilarity returns a 0..1 similarity between two cleaned business
// names.
func NameSimilarity(a, b string) float64 {
	a = strings.ToLower(CleanName(a))
	b = strings.ToLower(CleanName(b))
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(a, b, nil)
}

// StreetEqual compares a discovery-side street against a provider full
// address. The provider address carries a trailing "STATE ZIP" and often the
// city, both stripped before the normalized comparison.
func StreetEqual(street, fullAddress string) bool {
	if street == "" || fullAddress == "" {
		return false
	}
	eStreet := strings.TrimSpace(fullAddress)
	if loc := stateZipTail.FindStringIndex(eStreet); loc != nil {
		eStreet = strings.TrimRight(eStreet[:loc[0]], ", ")
	}
	// When the discovery street carries the city after a comma, trim the same
	// city off the provider street tail.
	if parts := strings.SplitN(street, ",", 3); len(parts) > 1 {
		cityPart := strings.TrimSpace(parts[1])
		if cityPart != "" {
			tail := regexp.MustCompile(`(?i)[, ]+\b` + regexp.QuoteMeta(cityPart) + `\b\s*$`)
			eStreet = strings.Trim(tail.ReplaceAllString(eStreet, ""), ", ")
		}
	}
	return normalize.StreetOnly(street) == normalize.StreetOnly(eStreet)
}

// Candidate carries the discovery-side fields of a match comparison.
type Candidate struct {
	Name       string
	Street     string
	City       string
	State      string
	PostalCode string
}

// Matched carries the provider-side fields of a match comparison.
type Matched struct {
	Name        string
	FullAddress string
	City        string
	State       string
	PostalCode  string
}

// ScoreConfidence grades how likely a provider location is the same business
// as a discovery candidate. Returns a confidence in [0.40, 1.00] and a reason
// code. Tiers are ordered so that a stronger signal is never outscored by a
// weaker one.
func ScoreConfidence(g Candidate, e Matched) (float64, string) {
	cityEqual := equalFold(g.City, e.City)
	stateEqual := equalFold(g.State, e.State)
	zipEqual := equalTrim(g.PostalCode, e.PostalCode)
	streetEqual := StreetEqual(g.Street, e.FullAddress)
	nameSim := NameSimilarity(g.Name, e.Name)

	switch {
	case nameSim >= 0.93 && zipEqual && stateEqual:
		if streetEqual {
			return 1.00, ReasonStreetCityState
		}
		return 0.95, ReasonNameZip
	case nameSim >= 0.88 && zipEqual && stateEqual:
		if streetEqual {
			return 0.95, ReasonNameZipState
		}
		return 0.90, ReasonNameZipState
	case streetEqual && cityEqual && stateEqual:
		if nameSim >= 0.85 {
			return 1.00, ReasonStreetCityState
		}
		return 0.95, ReasonStreetNameClose
	case streetEqual && (cityEqual || stateEqual):
		return 0.80, ReasonStreetPartialArea
	case nameSim >= 0.90 && cityEqual && stateEqual:
		return 0.70, ReasonNameCityState
	default:
		return 0.40, ReasonWeak
	}
}

// equalFold compares two fields case-insensitively; either side empty means
// no evidence, not a match.
func equalFold(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

func equalTrim(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return a == b
}
