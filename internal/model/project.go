// Package model defines the typed records shared across the pipeline.
//
// Every row fetched from the store is mapped into one of these structs at the
// storage boundary; optional columns are modeled as pointers so a missing
// value is visibly nil instead of a silent zero deep in business logic.
package model

import "time"

// ProjectStatus represents the lifecycle stage of a research project.
type ProjectStatus string

const (
	ProjectStatusCreated   ProjectStatus = "created"
	ProjectStatusEnriching ProjectStatus = "enriching"
	ProjectStatusReview    ProjectStatus = "review"
	ProjectStatusReported  ProjectStatus = "reported"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Project scopes one industry+location search and all data derived from it.
type Project struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Industry  string        `json:"industry"`
	Location  string        `json:"location"`
	Status    ProjectStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// Tier is the LLM relevance rank assigned to a discovered candidate.
// 1 = core fit, 2 = adjacent, 3 = unrelated.
type Tier int

const (
	TierCore     Tier = 1
	TierAdjacent Tier = 2
	TierExcluded Tier = 3
)

// SearchResult is a discovery-side business found via the mapping API.
type SearchResult struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	PlaceID    string     `json:"place_id"`
	Name       string     `json:"name"`
	Street     string     `json:"street,omitempty"`
	City       string     `json:"city,omitempty"`
	State      string     `json:"state,omitempty"`
	PostalCode string     `json:"postal_code,omitempty"`
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
	Rating     *float64   `json:"rating,omitempty"`
	Website    string     `json:"website,omitempty"`
	Tier       *Tier      `json:"tier,omitempty"`
	TierReason string     `json:"tier_reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	EnrichedAt *time.Time `json:"enriched_at,omitempty"`
}

// FullAddress joins the discovery-side address parts into one display string.
func (s SearchResult) FullAddress() string {
	out := ""
	for _, part := range []string{s.Street, s.City, s.State, s.PostalCode} {
		if part == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += part
	}
	return out
}

// BusinessMapping joins a discovery-side place to an enrichment-side entity.
// The matched_* fields record the address the provider reported at pull time,
// which the address checker later compares against the discovery address.
type BusinessMapping struct {
	ID                 string    `json:"id"`
	ProjectID          string    `json:"project_id"`
	PlaceID            string    `json:"place_id"`
	EnigmaID           string    `json:"enigma_id"`
	BusinessName       string    `json:"business_name"`
	MatchedName        string    `json:"matched_name,omitempty"`
	MatchedFullAddress string    `json:"matched_full_address,omitempty"`
	MatchedCity        string    `json:"matched_city,omitempty"`
	MatchedState       string    `json:"matched_state,omitempty"`
	MatchedPostalCode  string    `json:"matched_postal_code,omitempty"`
	MatchConfidence    float64   `json:"match_confidence"`
	MatchReason        string    `json:"match_reason"`
	PullSessionID      string    `json:"pull_session_id,omitempty"`
	PulledAt           time.Time `json:"pulled_at"`
}
