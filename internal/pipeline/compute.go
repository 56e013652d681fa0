// Package pipeline orchestrates the compute stage: it folds each enriched
// business's observations into a metric record, demotes outliers, and
// refreshes the project's benchmark summary.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peerview-cli/internal/benchmark"
	"github.com/sells-group/peerview-cli/internal/metrics"
	"github.com/sells-group/peerview-cli/internal/model"
	"github.com/sells-group/peerview-cli/internal/store"
)

// ComputeSummary tallies one compute run.
type ComputeSummary struct {
	Enriched  int // search results with a completed pull
	Extracted int // metric records written
	Trusted   int // records trusted after the quality filter
	Demoted   int // records the quality filter flagged low
	// Benchmarked is false when no trusted records remain and the project
	// has no summary row.
	Benchmarked bool
}

// Compute recomputes a project's metric records and benchmark summary from
// scratch.
type Compute struct {
	store  store.Store
	filter benchmark.QualityFilterConfig
	log    *zap.Logger
}

// NewCompute creates a Compute stage.
func NewCompute(st store.Store, filter benchmark.QualityFilterConfig) *Compute {
	return &Compute{
		store:  st,
		filter: filter,
		log:    zap.L().With(zap.String("phase", "compute")),
	}
}

// Run extracts metrics for every enriched search result, applies the outlier
// filter, aggregates the survivors, and replaces both stored artifacts in one
// pass. Earlier records for the project are discarded wholesale, so a rerun
// after new pulls always reflects the latest observations.
func (c *Compute) Run(ctx context.Context, projectID string) (*ComputeSummary, error) {
	project, err := c.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, eris.Errorf("pipeline: project %s not found", projectID)
	}

	results, err := c.store.ListSearchResults(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := &ComputeSummary{}
	var records []model.MetricRecord
	for _, sr := range results {
		if sr.EnrichedAt == nil {
			continue
		}
		summary.Enriched++

		mapping, err := c.store.GetMappingByPlaceID(ctx, sr.PlaceID)
		if err != nil {
			return nil, err
		}
		if mapping == nil {
			c.log.Warn("enriched result has no mapping, skipping",
				zap.String("search_result_id", sr.ID),
				zap.String("name", sr.Name))
			continue
		}

		observations, err := c.store.ListObservations(ctx, mapping.ID, projectID)
		if err != nil {
			return nil, err
		}

		rec := metrics.Extract(observations)
		rec.ID = uuid.NewString()
		rec.ProjectID = projectID
		rec.SearchResultID = sr.ID
		rec.BusinessID = mapping.ID
		rec.Name = sr.Name
		rec.Street = sr.Street
		rec.Latitude = sr.Latitude
		rec.Longitude = sr.Longitude
		records = append(records, rec)
	}
	summary.Extracted = len(records)

	demoted := benchmark.ApplyQualityFilter(records, c.filter)
	summary.Demoted = len(demoted)
	for _, r := range records {
		if r.Trusted() {
			summary.Trusted++
		}
	}

	agg := benchmark.Aggregate(projectID, records)
	summary.Benchmarked = agg != nil

	if err := c.store.ReplaceMetricRecords(ctx, projectID, records); err != nil {
		return nil, err
	}
	if err := c.store.ReplaceBenchmarkSummary(ctx, projectID, agg); err != nil {
		return nil, err
	}
	if err := c.store.UpdateProjectStatus(ctx, projectID, model.ProjectStatusReview); err != nil {
		return nil, err
	}

	c.log.Info("compute complete",
		zap.String("project_id", projectID),
		zap.Int("enriched", summary.Enriched),
		zap.Int("extracted", summary.Extracted),
		zap.Int("trusted", summary.Trusted),
		zap.Int("demoted", summary.Demoted),
		zap.Bool("benchmarked", summary.Benchmarked))
	return summary, nil
}
