// Package normalize canonicalizes free-text postal addresses for comparison.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	punct      = regexp.MustCompile(`[^\w\s]`)
	multiSpace = regexp.MustCompile(`\s+`)

	// Unit markers rewritten to the canonical "suite <num>" form.
	hashUnit    = regexp.MustCompile(`(?i)#\s*(\d+)`)
	unitWords   = regexp.MustCompile(`(?i)\b(ste\.?|suite|unit|apt|no\.?|number)\b`)
	suiteNumber = regexp.MustCompile(`(?i)\bsuite\s*(\d+)`)
)

// diacritics decomposes to NFD and drops combining marks, so "café" and
// "cafe" normalize identically.
var diacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripDiacritics(s string) string {
	out, _, err := transform.String(diacritics, s)
	if err != nil {
		return s
	}
	return out
}

// Text canonicalizes free text: diacritics stripped, lower-cased, punctuation
// replaced by spaces, whitespace collapsed, trimmed. Empty or missing input
// normalizes to "". Idempotent.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = stripDiacritics(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = punct.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// UnitSynonyms rewrites unit markers ("#12", "Ste 12", "Suite 12", "Apt 12",
// "Unit 12", "No. 12") to the canonical "suite 12". Run before Text for
// street-line comparisons.
func UnitSynonyms(s string) string {
	if s == "" {
		return ""
	}
	s = hashUnit.ReplaceAllString(s, "suite $1")
	s = unitWords.ReplaceAllString(s, "suite")
	s = suiteNumber.ReplaceAllString(s, "suite $1")
	return s
}

// StreetOnly composes UnitSynonyms and Text for strict street-line equality.
func StreetOnly(s string) string {
	return Text(UnitSynonyms(s))
}

// Equalish compares two strings after Text normalization. Both empty counts
// as equal; one empty never matches. At threshold >= 1.0 the comparison is
// exact; below that it falls back to edit-distance similarity.
func Equalish(a, b string, threshold float64) bool {
	na, nb := Text(a), Text(b)
	if na == "" && nb == "" {
		return true
	}
	if na == "" || nb == "" {
		return false
	}
	if threshold >= 1.0 {
		return na == nb
	}
	return levenshtein.Similarity(na, nb, nil) >= threshold
}
