// Package places wraps the Google Places API (New) endpoints the discovery
// phase uses.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// fieldMask lists the place fields discovery consumes; the API bills by
// field, so this stays minimal.
const fieldMask = "places.id,places.displayName,places.addressComponents," +
	"places.formattedAddress,places.location,places.rating,places.websiteUri," +
	"nextPageToken"

// Client performs Places API operations.
type Client interface {
	TextSearch(ctx context.Context, req TextSearchRequest) (*SearchResponse, error)
	SearchNearby(ctx context.Context, req NearbyRequest) (*SearchResponse, error)
}

// TextSearchRequest is a free-text place query, optionally biased to a
// circular region.
type TextSearchRequest struct {
	Query     string
	PageToken string
	// Bias center and radius; ignored when RadiusMeters is zero.
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// NearbyRequest searches by category around a point.
type NearbyRequest struct {
	IncludedTypes []string
	Latitude      float64
	Longitude     float64
	RadiusMeters  float64
	MaxResults    int
}

// SearchResponse is the common shape of both search endpoints.
type SearchResponse struct {
	Places        []Place `json:"places"`
	NextPageToken string  `json:"nextPageToken"`
}

// Place is one business returned by the API.
type Place struct {
	ID                string             `json:"id"`
	DisplayName       LocalizedText      `json:"displayName"`
	FormattedAddress  string             `json:"formattedAddress"`
	AddressComponents []AddressComponent `json:"addressComponents"`
	Location          LatLng             `json:"location"`
	Rating            float64            `json:"rating"`
	WebsiteURI        string             `json:"websiteUri"`
}

// LocalizedText holds a display string.
type LocalizedText struct {
	Text string `json:"text"`
}

// AddressComponent is one structured address part.
type AddressComponent struct {
	LongText  string   `json:"longText"`
	ShortText string   `json:"shortText"`
	Types     []string `json:"types"`
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Component returns the long text of the first address component with the
// given type, or "".
func (p Place) Component(typ string) string {
	for _, c := range p.AddressComponents {
		for _, t := range c.Types {
			if t == typ {
				return c.LongText
			}
		}
	}
	return ""
}

// ComponentShort is Component over the short text, used for state codes.
func (p Place) ComponentShort(typ string) string {
	for _, c := range p.AddressComponents {
		for _, t := range c.Types {
			if t == typ {
				return c.ShortText
			}
		}
	}
	return ""
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type textSearchBody struct {
	TextQuery    string        `json:"textQuery"`
	PageToken    string        `json:"pageToken,omitempty"`
	LocationBias *locationBias `json:"locationBias,omitempty"`
}

type nearbyBody struct {
	IncludedTypes       []string     `json:"includedTypes"`
	MaxResultCount      int          `json:"maxResultCount,omitempty"`
	LocationRestriction locationBias `json:"locationRestriction"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

func (c *httpClient) TextSearch(ctx context.Context, req TextSearchRequest) (*SearchResponse, error) {
	body := textSearchBody{
		TextQuery: req.Query,
		PageToken: req.PageToken,
	}
	if req.RadiusMeters > 0 {
		body.LocationBias = &locationBias{Circle: circle{
			Center: LatLng{Latitude: req.Latitude, Longitude: req.Longitude},
			Radius: req.RadiusMeters,
		}}
	}
	return c.post(ctx, "/places:searchText", body)
}

func (c *httpClient) SearchNearby(ctx context.Context, req NearbyRequest) (*SearchResponse, error) {
	body := nearbyBody{
		IncludedTypes:  req.IncludedTypes,
		MaxResultCount: req.MaxResults,
		LocationRestriction: locationBias{Circle: circle{
			Center: LatLng{Latitude: req.Latitude, Longitude: req.Longitude},
			Radius: req.RadiusMeters,
		}},
	}
	return c.post(ctx, "/places:searchNearby", body)
}

func (c *httpClient) post(ctx context.Context, path string, payload any) (*SearchResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	return &result, nil
}
