package model

// MatchReason explains the outcome of one address comparison, including the
// join failures that preclude a verdict.
type MatchReason string

const (
	ReasonMatch    MatchReason = "match"
	ReasonMismatch MatchReason = "mismatch"

	// Join-failure reason codes. Rows carrying these are excluded from
	// mismatch statistics entirely.
	ReasonMissingSearchResult    MatchReason = "missing_search_result"
	ReasonMissingPlaceID         MatchReason = "missing_place_id"
	ReasonMissingBusinessMapping MatchReason = "missing_business_mapping"
	ReasonNoMatchedFullAddress   MatchReason = "no_matched_full_address"
)

// MismatchCategory buckets a declared mismatch by severity. City/state
// disagreement outranks zip which outranks street: a cross-city hit usually
// means the provider matched a different branch of the same chain.
type MismatchCategory string

const (
	CategoryCrossCityState MismatchCategory = "cross_city_state"
	CategoryCrossZip       MismatchCategory = "cross_zip"
	CategoryCrossStreet    MismatchCategory = "cross_street"
)

// Verdict is the comparison result between a discovery-side address and the
// enrichment provider's matched address for the same business. Verdicts are
// computed on demand for QA and never persisted as primary data.
type Verdict struct {
	MetricRecordID string `json:"metric_record_id"`
	ProjectID      string `json:"project_id"`
	SearchResultID string `json:"search_result_id,omitempty"`
	PlaceID        string `json:"place_id,omitempty"`
	EnigmaID       string `json:"enigma_id,omitempty"`

	GoogleFullAddress  string `json:"g_address_full,omitempty"`
	MatchedFullAddress string `json:"matched_full_address,omitempty"`
	GoogleStreet       string `json:"g_street,omitempty"`
	MatchedStreet      string `json:"matched_street,omitempty"`

	GoogleCity   string `json:"g_city,omitempty"`
	GoogleState  string `json:"g_state,omitempty"`
	GoogleZip    string `json:"g_zip,omitempty"`
	MatchedCity  string `json:"e_city,omitempty"`
	MatchedState string `json:"e_state,omitempty"`
	MatchedZip   string `json:"e_zip,omitempty"`

	CityEqual      bool `json:"city_equal"`
	StateEqual     bool `json:"state_equal"`
	ZipEqual       bool `json:"zip_equal"`
	StreetEqual    bool `json:"street_equal"`
	EqualAfterNorm bool `json:"equal_after_norm"`

	Reason   MatchReason      `json:"reason"`
	Category MismatchCategory `json:"category,omitempty"`

	// Metrics carried along for triage context.
	AnnualRevenue *float64 `json:"annual_revenue,omitempty"`
	YoYGrowth     *float64 `json:"yoy_growth,omitempty"`
	TicketSize    *float64 `json:"ticket_size,omitempty"`
}

// Joined reports whether the row resolved all of its joins and therefore
// carries a real match/mismatch verdict.
func (v Verdict) Joined() bool {
	return v.Reason == ReasonMatch || v.Reason == ReasonMismatch
}
