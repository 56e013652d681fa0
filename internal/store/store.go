// Package store persists projects, discovery results, enrichment mappings,
// observations, and the derived metric and benchmark rows.
package store

import (
	"context"

	"github.com/sells-group/peerview-cli/internal/model"
)

// Store defines the persistence interface for the research pipeline.
//
// Metric records and benchmark summaries use replace-all write semantics:
// existing rows for the project are deleted and the new set inserted inside
// one transaction. Last writer wins; concurrent recomputes of the same
// project are not safe and not supported.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, name, industry, location string) (*model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	UpdateProjectStatus(ctx context.Context, id string, status model.ProjectStatus) error

	// Discovery results
	InsertSearchResults(ctx context.Context, results []model.SearchResult) (int64, error)
	ListSearchResults(ctx context.Context, projectID string) ([]model.SearchResult, error)
	GetSearchResults(ctx context.Context, ids []string) (map[string]model.SearchResult, error)
	UpdateTier(ctx context.Context, id string, tier model.Tier, reason string) error
	MarkEnriched(ctx context.Context, id string) error

	// Enrichment identity mappings
	GetMappingByPlaceID(ctx context.Context, placeID string) (*model.BusinessMapping, error)
	GetMappingsByPlaceID(ctx context.Context, placeIDs []string) (map[string]model.BusinessMapping, error)
	SaveMapping(ctx context.Context, m *model.BusinessMapping) error
	DeleteMapping(ctx context.Context, id string) error

	// Observations (immutable rows; re-pulls supersede via the upsert key)
	ListObservations(ctx context.Context, businessID, projectID string) ([]model.Observation, error)
	UpsertObservations(ctx context.Context, observations []model.Observation) (int64, error)
	DeleteObservations(ctx context.Context, businessID, projectID string) error

	// Derived metric records (replace-all per project)
	ReplaceMetricRecords(ctx context.Context, projectID string, records []model.MetricRecord) error
	ListMetricRecords(ctx context.Context, projectID string) ([]model.MetricRecord, error)
	UpdateBenchmarkFlag(ctx context.Context, recordID string, flag model.DataQuality) error

	// Benchmark summary (replace-all, at most one row per project)
	ReplaceBenchmarkSummary(ctx context.Context, projectID string, s *model.BenchmarkSummary) error
	GetBenchmarkSummary(ctx context.Context, projectID string) (*model.BenchmarkSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
