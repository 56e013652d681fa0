// Package discovery sweeps the mapping API for businesses in a project's
// industry and market and stores them as search results.
package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/peerview-cli/internal/model"
	"github.com/sells-group/peerview-cli/internal/profile"
	"github.com/sells-group/peerview-cli/pkg/places"
)

// Store is the slice of persistence discovery needs.
type Store interface {
	InsertSearchResults(ctx context.Context, results []model.SearchResult) (int64, error)
}

// Options tunes a discovery sweep.
type Options struct {
	// Center of the sweep; zero coordinates disable location bias and the
	// nearby search.
	Latitude  float64
	Longitude float64
	// GridStepKM spaces nearby-search cells over the sweep radius. Zero
	// searches the center only.
	GridStepKM float64
	// MaxResults stops the sweep once this many unique places are collected.
	// Zero is unlimited.
	MaxResults int
}

// Summary tallies a sweep.
type Summary struct {
	Queried  int // search requests issued
	Found    int // places returned, duplicates included
	Unique   int // unique places collected
	Inserted int // rows newly stored
}

// Discoverer runs mapping-API sweeps.
type Discoverer struct {
	store  Store
	client places.Client
	log    *zap.Logger
}

// New creates a Discoverer.
func New(st Store, client places.Client) *Discoverer {
	return &Discoverer{
		store:  st,
		client: client,
		log:    zap.L().With(zap.String("phase", "discover")),
	}
}

// Run sweeps every term and place type in the profile, dedupes by place ID,
// and stores the results under the project.
func (d *Discoverer) Run(ctx context.Context, project *model.Project, prof *profile.Profile, opts Options) (*Summary, error) {
	if err := prof.Validate(); err != nil {
		return nil, err
	}

	summary := &Summary{}
	seen := map[string]bool{}
	var collected []model.SearchResult

	collect := func(resp *places.SearchResponse) {
		summary.Found += len(resp.Places)
		for _, p := range resp.Places {
			if p.ID == "" || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			collected = append(collected, toSearchResult(project.ID, p))
		}
	}
	full := func() bool {
		return opts.MaxResults > 0 && len(collected) >= opts.MaxResults
	}

	for _, term := range prof.Terms {
		if full() {
			break
		}
		query := fmt.Sprintf("%s in %s", term, project.Location)
		pageToken := ""
		for page := 0; page < prof.MaxPages; page++ {
			resp, err := d.client.TextSearch(ctx, places.TextSearchRequest{
				Query:        query,
				PageToken:    pageToken,
				Latitude:     opts.Latitude,
				Longitude:    opts.Longitude,
				RadiusMeters: prof.RadiusKM * 1000,
			})
			if err != nil {
				return summary, err
			}
			summary.Queried++
			collect(resp)

			pageToken = resp.NextPageToken
			if pageToken == "" || full() {
				break
			}
		}
	}

	if len(prof.PlaceTypes) > 0 && !full() && (opts.Latitude != 0 || opts.Longitude != 0) {
		cells := GridCells(opts.Latitude, opts.Longitude, prof.RadiusKM, opts.GridStepKM)
		cellRadius := opts.GridStepKM * 1000
		if cellRadius == 0 {
			cellRadius = prof.RadiusKM * 1000
		}
		for _, cell := range cells {
			if full() {
				break
			}
			resp, err := d.client.SearchNearby(ctx, places.NearbyRequest{
				IncludedTypes: prof.PlaceTypes,
				Latitude:      cell.Lat,
				Longitude:     cell.Lon,
				RadiusMeters:  cellRadius,
				MaxResults:    20,
			})
			if err != nil {
				return summary, err
			}
			summary.Queried++
			collect(resp)
		}
	}

	if opts.MaxResults > 0 && len(collected) > opts.MaxResults {
		collected = collected[:opts.MaxResults]
	}
	summary.Unique = len(collected)

	inserted, err := d.store.InsertSearchResults(ctx, collected)
	if err != nil {
		return summary, err
	}
	summary.Inserted = int(inserted)

	d.log.Info("discovery sweep complete",
		zap.String("project_id", project.ID),
		zap.Int("queried", summary.Queried),
		zap.Int("found", summary.Found),
		zap.Int("unique", summary.Unique),
		zap.Int("inserted", summary.Inserted))
	return summary, nil
}

// toSearchResult maps an API place onto the stored shape. The street joins
// the number and route components; missing components leave fields empty
// rather than guessing from the formatted address.
func toSearchResult(projectID string, p places.Place) model.SearchResult {
	street := p.Component("street_number")
	if route := p.Component("route"); route != "" {
		if street != "" {
			street += " "
		}
		street += route
	}
	if unit := p.Component("subpremise"); unit != "" {
		street += " #" + unit
	}

	sr := model.SearchResult{
		ProjectID:  projectID,
		PlaceID:    p.ID,
		Name:       p.DisplayName.Text,
		Street:     street,
		City:       p.Component("locality"),
		State:      p.ComponentShort("administrative_area_level_1"),
		PostalCode: p.Component("postal_code"),
		Website:    p.WebsiteURI,
	}
	if p.Location.Latitude != 0 || p.Location.Longitude != 0 {
		lat, lon := p.Location.Latitude, p.Location.Longitude
		sr.Latitude = &lat
		sr.Longitude = &lon
	}
	if p.Rating > 0 {
		r := p.Rating
		sr.Rating = &r
	}
	return sr
}
