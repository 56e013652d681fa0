// Package addrmatch compares discovery-side addresses against the enrichment
// provider's matched addresses and classifies disagreements for QA triage.
package addrmatch

import (
	"regexp"
	"strings"

	"github.com/sells-group/peerview-cli/internal/model"
	"github.com/sells-group/peerview-cli/internal/normalize"
)

// stateZipTail matches a trailing "STATE ZIP" token pair ("TX 78701",
// "TX 78701-1234") at the end of a full address line.
var stateZipTail = regexp.MustCompile(`(?i)\b[A-Z]{2}\s+\d{5}(?:-\d{4})?$`)

// ExtractStreet pulls the street line out of the provider's single free-text
// full address: first the trailing "STATE ZIP" pair is removed, then a
// trailing city token if it case-insensitively matches the known
// discovery-side city.
func ExtractStreet(full, knownCity string) string {
	s := strings.TrimSpace(full)
	if s == "" {
		return ""
	}
	if loc := stateZipTail.FindStringIndex(s); loc != nil {
		s = strings.TrimRight(s[:loc[0]], ", ")
	}
	city := strings.TrimSpace(knownCity)
	if city != "" {
		cityTail := regexp.MustCompile(`(?i)[, ]+\b` + regexp.QuoteMeta(city) + `\b\s*$`)
		s = cityTail.ReplaceAllString(s, "")
	}
	return strings.Trim(s, ", ")
}

// Input carries one joined row into Evaluate. A nil SearchResult or Mapping
// records the corresponding join failure.
type Input struct {
	Record  model.MetricRecord
	Search  *model.SearchResult
	Mapping *model.BusinessMapping

	// MinSimilarity is the fuzzy fallback threshold for whole-address
	// comparison; 1.0 means exact-only after normalization.
	MinSimilarity float64
}

// Evaluate builds the verdict for one row. Join failures yield a dedicated
// reason code and no category; otherwise street-line equality decides the
// match, with an optional fuzzy whole-address fallback, and mismatches are
// bucketed cross_city_state > cross_zip > cross_street.
func Evaluate(in Input) model.Verdict {
	v := model.Verdict{
		MetricRecordID: in.Record.ID,
		ProjectID:      in.Record.ProjectID,
		SearchResultID: in.Record.SearchResultID,
		AnnualRevenue:  in.Record.AnnualRevenue,
		YoYGrowth:      in.Record.YoYGrowth,
		TicketSize:     in.Record.TicketSize,
		Reason:         model.ReasonMismatch,
	}

	if in.Search == nil {
		v.Reason = model.ReasonMissingSearchResult
		return v
	}
	sr := *in.Search
	v.PlaceID = sr.PlaceID
	v.GoogleStreet = sr.Street
	v.GoogleCity = sr.City
	v.GoogleState = sr.State
	v.GoogleZip = sr.PostalCode
	v.GoogleFullAddress = sr.FullAddress()

	if sr.PlaceID == "" {
		v.Reason = model.ReasonMissingPlaceID
	}
	if in.Mapping == nil {
		v.Reason = model.ReasonMissingBusinessMapping
		return v
	}
	mp := *in.Mapping
	v.EnigmaID = mp.EnigmaID
	v.MatchedFullAddress = mp.MatchedFullAddress
	v.MatchedCity = mp.MatchedCity
	v.MatchedState = mp.MatchedState
	v.MatchedZip = mp.MatchedPostalCode

	if mp.MatchedFullAddress == "" {
		v.Reason = model.ReasonNoMatchedFullAddress
		return v
	}
	v.MatchedStreet = ExtractStreet(mp.MatchedFullAddress, sr.City)

	// Street-line equality is the primary decision.
	gStreet := normalize.StreetOnly(v.GoogleStreet)
	eStreet := normalize.StreetOnly(v.MatchedStreet)
	v.StreetEqual = gStreet != "" && gStreet == eStreet

	// Whole-address fallback, optionally fuzzy.
	v.EqualAfterNorm = v.StreetEqual ||
		normalize.Equalish(v.GoogleFullAddress, v.MatchedFullAddress, in.MinSimilarity)

	v.CityEqual = normalize.Text(v.GoogleCity) == normalize.Text(v.MatchedCity)
	v.StateEqual = normalize.Text(v.GoogleState) == normalize.Text(v.MatchedState)
	v.ZipEqual = normalize.Text(v.GoogleZip) == normalize.Text(v.MatchedZip)

	if v.EqualAfterNorm {
		v.Reason = model.ReasonMatch
		return v
	}

	// A row that resolved every join still counts as a mismatch even when an
	// earlier step noted a missing place ID.
	v.Reason = model.ReasonMismatch

	// City/state disagreement is the strongest wrong-branch signal and wins
	// the category even when zip or street also differ.
	switch {
	case !v.CityEqual || !v.StateEqual:
		v.Category = model.CategoryCrossCityState
	case !v.ZipEqual:
		v.Category = model.CategoryCrossZip
	default:
		v.Category = model.CategoryCrossStreet
	}
	return v
}
