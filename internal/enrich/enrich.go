package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peerview-cli/internal/model"
	"github.com/sells-group/peerview-cli/internal/store"
	"github.com/sells-group/peerview-cli/pkg/enigma"
)

// DefaultMinConfidence is the floor below which a match is saved for review
// but no observations are pulled.
const DefaultMinConfidence = 0.90

// Status describes what EnrichOne did for a business.
type Status string

const (
	StatusPulled      Status = "pulled"       // matched and observations stored
	StatusReused      Status = "reused"       // mapping and observations already present
	StatusMappingOnly Status = "mapping_only" // matched below the confidence floor
	StatusNoMatch     Status = "no_match"     // no provider location found
)

// Result reports the outcome of enriching one business.
type Result struct {
	Status       Status
	MappingID    string
	Confidence   float64
	Reason       string
	Observations int
}

// Options tunes an enrichment run.
type Options struct {
	// MinConfidence gates the observation pull; mappings below it are still
	// saved so a reviewer can inspect them.
	MinConfidence float64
	// ForceRepull purges the existing mapping and observations first and
	// ignores the confidence gate.
	ForceRepull bool
	// PullSessionID tags every row written in this run.
	PullSessionID string
}

// Enricher matches businesses to provider locations and stores their
// observations.
type Enricher struct {
	store  store.Store
	client enigma.Client
	log    *zap.Logger
}

// New creates an Enricher.
func New(st store.Store, client enigma.Client) *Enricher {
	return &Enricher{
		store:  st,
		client: client,
		log:    zap.L().With(zap.String("phase", "enrich")),
	}
}

// EnrichOne runs the full match-and-pull flow for one search result.
func (e *Enricher) EnrichOne(ctx context.Context, sr model.SearchResult, opts Options) (*Result, error) {
	if sr.PlaceID == "" {
		return nil, eris.New("enrich: search result has no place id")
	}
	if opts.MinConfidence == 0 {
		opts.MinConfidence = DefaultMinConfidence
	}
	log := e.log.With(zap.String("place_id", sr.PlaceID), zap.String("name", sr.Name))

	mapping, err := e.store.GetMappingByPlaceID(ctx, sr.PlaceID)
	if err != nil {
		return nil, err
	}

	if opts.ForceRepull && mapping != nil {
		if err := e.store.DeleteObservations(ctx, mapping.ID, sr.ProjectID); err != nil {
			return nil, err
		}
		if err := e.store.DeleteMapping(ctx, mapping.ID); err != nil {
			return nil, err
		}
		log.Info("purged mapping and observations for repull", zap.String("mapping_id", mapping.ID))
		mapping = nil
	}

	// A cached mapping with observations for this project means the work is
	// already done.
	if mapping != nil {
		obs, err := e.store.ListObservations(ctx, mapping.ID, sr.ProjectID)
		if err != nil {
			return nil, err
		}
		if len(obs) > 0 {
			log.Debug("reusing existing mapping and observations", zap.String("mapping_id", mapping.ID))
			return &Result{
				Status:     StatusReused,
				MappingID:  mapping.ID,
				Confidence: mapping.MatchConfidence,
				Reason:     mapping.MatchReason,
			}, nil
		}
	}

	best, err := e.findBestMatch(ctx, sr, opts.ForceRepull)
	if err != nil {
		return nil, err
	}
	if best == nil {
		log.Warn("no provider match found",
			zap.String("city", sr.City), zap.String("state", sr.State))
		return &Result{Status: StatusNoMatch}, nil
	}

	log.Info("matched provider location",
		zap.Float64("confidence", best.confidence),
		zap.String("reason", best.reason),
		zap.String("matched_name", best.location.Name))

	m := &model.BusinessMapping{
		ProjectID:          sr.ProjectID,
		PlaceID:            sr.PlaceID,
		EnigmaID:           best.location.ID,
		BusinessName:       sr.Name,
		MatchedName:        best.location.Name,
		MatchedFullAddress: best.location.Address.FullAddress,
		MatchedCity:        best.location.Address.City,
		MatchedState:       best.location.Address.State,
		MatchedPostalCode:  best.location.Address.Zip,
		MatchConfidence:    best.confidence,
		MatchReason:        best.reason,
		PullSessionID:      opts.PullSessionID,
		PulledAt:           time.Now().UTC(),
	}
	if mapping != nil {
		m.ID = mapping.ID
	}
	if err := e.store.SaveMapping(ctx, m); err != nil {
		return nil, err
	}

	if best.confidence < opts.MinConfidence && !opts.ForceRepull {
		log.Info("confidence below floor, mapping cached without observations",
			zap.Float64("confidence", best.confidence),
			zap.Float64("floor", opts.MinConfidence))
		return &Result{
			Status:     StatusMappingOnly,
			MappingID:  m.ID,
			Confidence: best.confidence,
			Reason:     best.reason,
		}, nil
	}

	txns, err := e.client.CardTransactions(ctx, m.EnigmaID)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: pull observations for %s", m.EnigmaID)
	}

	observations := make([]model.Observation, 0, len(txns))
	now := time.Now().UTC()
	for _, t := range txns {
		observations = append(observations, model.Observation{
			BusinessID:     m.ID,
			ProjectID:      sr.ProjectID,
			QuantityType:   model.QuantityType(t.QuantityType),
			Period:         model.Period(t.Period),
			PeriodStart:    t.PeriodStart,
			PeriodEnd:      t.PeriodEnd,
			RawValue:       t.RawQuantity,
			ProjectedValue: t.ProjectedQuantity,
			PullSessionID:  opts.PullSessionID,
			PulledAt:       now,
		})
	}
	if _, err := e.store.UpsertObservations(ctx, observations); err != nil {
		return nil, err
	}
	if err := e.store.MarkEnriched(ctx, sr.ID); err != nil {
		return nil, err
	}

	log.Info("stored observations", zap.Int("count", len(observations)))
	return &Result{
		Status:       StatusPulled,
		MappingID:    m.ID,
		Confidence:   best.confidence,
		Reason:       best.reason,
		Observations: len(observations),
	}, nil
}

type scoredMatch struct {
	location   enigma.OperatingLocation
	confidence float64
	reason     string
}

// findBestMatch tries progressively looser search variants, scoring every
// returned location, and stops early once a near-certain match appears.
func (e *Enricher) findBestMatch(ctx context.Context, sr model.SearchResult, force bool) (*scoredMatch, error) {
	cleanName := CleanName(sr.Name)

	variants := []enigma.SearchInput{
		{Name: sr.Name, City: sr.City, State: sr.State, PostalCode: sr.PostalCode},
		{Name: sr.Name, City: sr.City, State: sr.State},
		{Name: cleanName, City: sr.City, State: sr.State},
		{Name: sr.Name, State: sr.State},
		{Name: cleanName},
	}
	if force && cleanName != "" {
		first, _, _ := strings.Cut(cleanName, " ")
		variants = append(variants, enigma.SearchInput{Name: first})
	}

	candidate := Candidate{
		Name:       sr.Name,
		Street:     sr.Street,
		City:       sr.City,
		State:      sr.State,
		PostalCode: sr.PostalCode,
	}

	var best *scoredMatch
	for _, v := range variants {
		if v.Name == "" {
			continue
		}
		locations, err := e.client.SearchLocations(ctx, v)
		if err != nil {
			// A failed variant is logged and skipped; later variants may
			// still find the business.
			e.log.Warn("search variant failed", zap.String("variant_name", v.Name), zap.Error(err))
			continue
		}

		for _, loc := range locations {
			conf, reason := ScoreConfidence(candidate, Matched{
				Name:        loc.Name,
				FullAddress: loc.Address.FullAddress,
				City:        loc.Address.City,
				State:       loc.Address.State,
				PostalCode:  loc.Address.Zip,
			})
			if best == nil || conf > best.confidence {
				best = &scoredMatch{location: loc, confidence: conf, reason: reason}
				if conf >= 1.00 {
					break
				}
			}
		}
		if best != nil && best.confidence >= 0.95 {
			break
		}
	}
	return best, nil
}
