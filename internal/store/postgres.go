package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/peerview-cli/internal/db"
	"github.com/sells-group/peerview-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS search_projects (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	industry   TEXT NOT NULL,
	location   TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'created',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS search_results (
	id          UUID PRIMARY KEY,
	project_id  UUID NOT NULL REFERENCES search_projects(id),
	place_id    TEXT NOT NULL,
	name        TEXT NOT NULL,
	street      TEXT,
	city        TEXT,
	state       TEXT,
	postal_code TEXT,
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	rating      DOUBLE PRECISION,
	website     TEXT,
	tier        INT,
	tier_reason TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	enriched_at TIMESTAMPTZ,
	UNIQUE (project_id, place_id)
);

CREATE TABLE IF NOT EXISTS business_mappings (
	id                   UUID PRIMARY KEY,
	project_id           UUID NOT NULL,
	place_id             TEXT NOT NULL,
	enigma_id            TEXT NOT NULL,
	business_name        TEXT,
	matched_name         TEXT,
	matched_full_address TEXT,
	matched_city         TEXT,
	matched_state        TEXT,
	matched_postal_code  TEXT,
	match_confidence     DOUBLE PRECISION NOT NULL DEFAULT 0,
	match_reason         TEXT,
	pull_session_id      TEXT,
	pulled_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (place_id)
);

CREATE TABLE IF NOT EXISTS observations (
	id              UUID PRIMARY KEY,
	business_id     UUID NOT NULL,
	project_id      UUID NOT NULL,
	quantity_type   TEXT NOT NULL,
	period          TEXT NOT NULL,
	period_start    TEXT,
	period_end      TEXT NOT NULL,
	raw_value       DOUBLE PRECISION,
	projected_value DOUBLE PRECISION,
	pull_session_id TEXT,
	pulled_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (business_id, project_id, quantity_type, period, period_end)
);

CREATE TABLE IF NOT EXISTS metric_records (
	id                  UUID PRIMARY KEY,
	project_id          UUID NOT NULL,
	search_result_id    UUID,
	business_id         UUID,
	name                TEXT,
	street              TEXT,
	latitude            DOUBLE PRECISION,
	longitude           DOUBLE PRECISION,
	period_start        TEXT,
	period_end          TEXT,
	annual_revenue      DOUBLE PRECISION,
	prior_year_estimate DOUBLE PRECISION,
	yoy_growth          DOUBLE PRECISION,
	ticket_size         DOUBLE PRECISION,
	transaction_count   DOUBLE PRECISION,
	seasonality_ratio   DOUBLE PRECISION,
	data_quality        TEXT NOT NULL DEFAULT 'low',
	benchmark_flag      TEXT NOT NULL DEFAULT 'low',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_metric_records_project ON metric_records(project_id);

CREATE TABLE IF NOT EXISTS benchmark_summaries (
	project_id             UUID PRIMARY KEY,
	record_count           INT NOT NULL,
	mean_annual_revenue    DOUBLE PRECISION NOT NULL,
	median_annual_revenue  DOUBLE PRECISION NOT NULL,
	mean_ticket_size       DOUBLE PRECISION NOT NULL,
	mean_transaction_count DOUBLE PRECISION NOT NULL,
	mean_yoy_growth        DOUBLE PRECISION NOT NULL,
	mean_seasonality_ratio DOUBLE PRECISION NOT NULL,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrate applies the schema DDL. Idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// CreateProject inserts a new project in status created.
func (s *PostgresStore) CreateProject(ctx context.Context, name, industry, location string) (*model.Project, error) {
	p := &model.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Industry:  industry,
		Location:  location,
		Status:    model.ProjectStatusCreated,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_projects (id, name, industry, location, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Industry, p.Location, p.Status, p.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create project")
	}
	return p, nil
}

// GetProject fetches one project by ID.
func (s *PostgresStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, industry, location, status, created_at FROM search_projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Industry, &p.Location, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get project %s", id)
	}
	return &p, nil
}

// ListProjects returns all projects, newest first.
func (s *PostgresStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, industry, location, status, created_at FROM search_projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Industry, &p.Location, &p.Status, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan project")
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProjectStatus advances a project's lifecycle status.
func (s *PostgresStore) UpdateProjectStatus(ctx context.Context, id string, status model.ProjectStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE search_projects SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return eris.Wrapf(err, "postgres: update project status %s", id)
	}
	return nil
}

const searchResultColumns = `id, project_id, place_id, name, street, city, state, postal_code,
	latitude, longitude, rating, website, tier, tier_reason, created_at, enriched_at`

// InsertSearchResults bulk-inserts discovery results, skipping duplicates on
// (project_id, place_id).
func (s *PostgresStore) InsertSearchResults(ctx context.Context, results []model.SearchResult) (int64, error) {
	if len(results) == 0 {
		return 0, nil
	}

	var inserted int64
	for _, r := range results {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO search_results
				(id, project_id, place_id, name, street, city, state, postal_code,
				 latitude, longitude, rating, website, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
			 ON CONFLICT (project_id, place_id) DO NOTHING`,
			r.ID, r.ProjectID, r.PlaceID, r.Name, r.Street, r.City, r.State, r.PostalCode,
			r.Latitude, r.Longitude, r.Rating, r.Website,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "postgres: insert search result %s", r.PlaceID)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// ListSearchResults returns a project's discovery results.
func (s *PostgresStore) ListSearchResults(ctx context.Context, projectID string) ([]model.SearchResult, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM search_results WHERE project_id = $1 ORDER BY created_at`, searchResultColumns),
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list search results")
	}
	defer rows.Close()
	return scanSearchResults(rows)
}

// GetSearchResults returns the requested results keyed by ID.
func (s *PostgresStore) GetSearchResults(ctx context.Context, ids []string) (map[string]model.SearchResult, error) {
	out := make(map[string]model.SearchResult, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM search_results WHERE id = ANY($1)`, searchResultColumns),
		ids,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get search results")
	}
	defer rows.Close()

	results, err := scanSearchResults(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		out[r.ID] = r
	}
	return out, nil
}

// UpdateTier stores the LLM relevance rank for a search result.
func (s *PostgresStore) UpdateTier(ctx context.Context, id string, tier model.Tier, reason string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE search_results SET tier = $2, tier_reason = $3 WHERE id = $1`,
		id, int(tier), reason,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update tier for %s", id)
	}
	return nil
}

// MarkEnriched stamps a search result as enriched.
func (s *PostgresStore) MarkEnriched(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE search_results SET enriched_at = now() WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark enriched %s", id)
	}
	return nil
}

const mappingColumns = `id, project_id, place_id, enigma_id, business_name, matched_name,
	matched_full_address, matched_city, matched_state, matched_postal_code,
	match_confidence, match_reason, pull_session_id, pulled_at`

// GetMappingByPlaceID fetches a mapping by place ID, or nil when absent.
func (s *PostgresStore) GetMappingByPlaceID(ctx context.Context, placeID string) (*model.BusinessMapping, error) {
	var m model.BusinessMapping
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM business_mappings WHERE place_id = $1`, mappingColumns),
		placeID,
	).Scan(&m.ID, &m.ProjectID, &m.PlaceID, &m.EnigmaID, &m.BusinessName, &m.MatchedName,
		&m.MatchedFullAddress, &m.MatchedCity, &m.MatchedState, &m.MatchedPostalCode,
		&m.MatchConfidence, &m.MatchReason, &m.PullSessionID, &m.PulledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get mapping for place %s", placeID)
	}
	return &m, nil
}

// GetMappingsByPlaceID bulk-fetches mappings keyed by place ID.
func (s *PostgresStore) GetMappingsByPlaceID(ctx context.Context, placeIDs []string) (map[string]model.BusinessMapping, error) {
	out := make(map[string]model.BusinessMapping, len(placeIDs))
	if len(placeIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM business_mappings WHERE place_id = ANY($1)`, mappingColumns),
		placeIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get mappings")
	}
	defer rows.Close()

	for rows.Next() {
		var m model.BusinessMapping
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.PlaceID, &m.EnigmaID, &m.BusinessName, &m.MatchedName,
			&m.MatchedFullAddress, &m.MatchedCity, &m.MatchedState, &m.MatchedPostalCode,
			&m.MatchConfidence, &m.MatchReason, &m.PullSessionID, &m.PulledAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan mapping")
		}
		out[m.PlaceID] = m
	}
	return out, rows.Err()
}

// SaveMapping updates an existing mapping in place (keyed by ID) or inserts a
// fresh one with a generated ID, falling back to upsert on place_id if the
// insert races another writer.
func (s *PostgresStore) SaveMapping(ctx context.Context, m *model.BusinessMapping) error {
	if m.ID != "" {
		_, err := s.pool.Exec(ctx,
			`UPDATE business_mappings SET
				project_id = $2, place_id = $3, enigma_id = $4, business_name = $5,
				matched_name = $6, matched_full_address = $7, matched_city = $8,
				matched_state = $9, matched_postal_code = $10, match_confidence = $11,
				match_reason = $12, pull_session_id = $13, pulled_at = $14
			 WHERE id = $1`,
			m.ID, m.ProjectID, m.PlaceID, m.EnigmaID, m.BusinessName,
			m.MatchedName, m.MatchedFullAddress, m.MatchedCity,
			m.MatchedState, m.MatchedPostalCode, m.MatchConfidence,
			m.MatchReason, m.PullSessionID, m.PulledAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: update mapping %s", m.ID)
		}
		return nil
	}

	m.ID = uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO business_mappings
			(id, project_id, place_id, enigma_id, business_name, matched_name,
			 matched_full_address, matched_city, matched_state, matched_postal_code,
			 match_confidence, match_reason, pull_session_id, pulled_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (place_id) DO UPDATE SET
			project_id = EXCLUDED.project_id, enigma_id = EXCLUDED.enigma_id,
			business_name = EXCLUDED.business_name, matched_name = EXCLUDED.matched_name,
			matched_full_address = EXCLUDED.matched_full_address,
			matched_city = EXCLUDED.matched_city, matched_state = EXCLUDED.matched_state,
			matched_postal_code = EXCLUDED.matched_postal_code,
			match_confidence = EXCLUDED.match_confidence, match_reason = EXCLUDED.match_reason,
			pull_session_id = EXCLUDED.pull_session_id, pulled_at = EXCLUDED.pulled_at`,
		m.ID, m.ProjectID, m.PlaceID, m.EnigmaID, m.BusinessName, m.MatchedName,
		m.MatchedFullAddress, m.MatchedCity, m.MatchedState, m.MatchedPostalCode,
		m.MatchConfidence, m.MatchReason, m.PullSessionID, m.PulledAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert mapping for place %s", m.PlaceID)
	}
	return nil
}

// DeleteMapping removes one mapping row.
func (s *PostgresStore) DeleteMapping(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM business_mappings WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete mapping %s", id)
	}
	return nil
}

// ListObservations returns all observation rows for one business in one
// project. No ordering is guaranteed; the metric extractor sorts itself.
func (s *PostgresStore) ListObservations(ctx context.Context, businessID, projectID string) ([]model.Observation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, business_id, project_id, quantity_type, period, period_start, period_end,
			raw_value, projected_value, pull_session_id, pulled_at
		 FROM observations WHERE business_id = $1 AND project_id = $2`,
		businessID, projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list observations")
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var o model.Observation
		if err := rows.Scan(&o.ID, &o.BusinessID, &o.ProjectID, &o.QuantityType, &o.Period,
			&o.PeriodStart, &o.PeriodEnd, &o.RawValue, &o.ProjectedValue,
			&o.PullSessionID, &o.PulledAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan observation")
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpsertObservations persists a pull batch. The conflict key
// (business, project, quantity, period, period end) makes re-pulls supersede
// prior rows instead of duplicating them.
func (s *PostgresStore) UpsertObservations(ctx context.Context, observations []model.Observation) (int64, error) {
	rows := make([][]any, 0, len(observations))
	for _, o := range observations {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		rows = append(rows, []any{
			o.ID, o.BusinessID, o.ProjectID, string(o.QuantityType), string(o.Period),
			o.PeriodStart, o.PeriodEnd, o.RawValue, o.ProjectedValue, o.PullSessionID, o.PulledAt,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table: "observations",
		Columns: []string{
			"id", "business_id", "project_id", "quantity_type", "period",
			"period_start", "period_end", "raw_value", "projected_value",
			"pull_session_id", "pulled_at",
		},
		ConflictKeys: []string{"business_id", "project_id", "quantity_type", "period", "period_end"},
		UpdateCols:   []string{"raw_value", "projected_value", "pull_session_id", "pulled_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert observations")
	}
	return n, nil
}

// DeleteObservations purges a business's observation rows for one project.
func (s *PostgresStore) DeleteObservations(ctx context.Context, businessID, projectID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM observations WHERE business_id = $1 AND project_id = $2`,
		businessID, projectID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: delete observations")
	}
	return nil
}

// ReplaceMetricRecords deletes the project's metric rows and inserts the new
// set in one transaction. Full replace, never an incremental patch.
func (s *PostgresStore) ReplaceMetricRecords(ctx context.Context, projectID string, records []model.MetricRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace metric records")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM metric_records WHERE project_id = $1`, projectID); err != nil {
		return eris.Wrap(err, "postgres: delete metric records")
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		rows = append(rows, []any{
			r.ID, projectID, nullable(r.SearchResultID), nullable(r.BusinessID), r.Name, r.Street,
			r.Latitude, r.Longitude, r.PeriodStart, r.PeriodEnd, r.AnnualRevenue, r.PriorYearEst,
			r.YoYGrowth, r.TicketSize, r.TransactionCount, r.SeasonalityRatio,
			string(r.DataQuality), string(r.BenchmarkFlag), now,
		})
	}
	if _, err := db.CopyFrom(ctx, tx, "metric_records", metricColumnList, rows); err != nil {
		return eris.Wrap(err, "postgres: insert metric records")
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit replace metric records")
	}
	return nil
}

const metricColumns = `id, project_id, search_result_id, business_id, name, street, latitude, longitude,
	period_start, period_end, annual_revenue, prior_year_estimate, yoy_growth,
	ticket_size, transaction_count, seasonality_ratio, data_quality, benchmark_flag, created_at`

// metricColumnList mirrors metricColumns for the COPY path.
var metricColumnList = []string{
	"id", "project_id", "search_result_id", "business_id", "name", "street", "latitude", "longitude",
	"period_start", "period_end", "annual_revenue", "prior_year_estimate", "yoy_growth",
	"ticket_size", "transaction_count", "seasonality_ratio", "data_quality", "benchmark_flag", "created_at",
}

// ListMetricRecords returns a project's metric rows.
func (s *PostgresStore) ListMetricRecords(ctx context.Context, projectID string) ([]model.MetricRecord, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM metric_records WHERE project_id = $1 ORDER BY name`, metricColumns),
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list metric records")
	}
	defer rows.Close()

	var out []model.MetricRecord
	for rows.Next() {
		var r model.MetricRecord
		var searchResultID, businessID *string
		if err := rows.Scan(&r.ID, &r.ProjectID, &searchResultID, &businessID, &r.Name, &r.Street,
			&r.Latitude, &r.Longitude, &r.PeriodStart, &r.PeriodEnd, &r.AnnualRevenue,
			&r.PriorYearEst, &r.YoYGrowth, &r.TicketSize, &r.TransactionCount,
			&r.SeasonalityRatio, &r.DataQuality, &r.BenchmarkFlag, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metric record")
		}
		if searchResultID != nil {
			r.SearchResultID = *searchResultID
		}
		if businessID != nil {
			r.BusinessID = *businessID
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateBenchmarkFlag records a review override of one record's flag.
func (s *PostgresStore) UpdateBenchmarkFlag(ctx context.Context, recordID string, flag model.DataQuality) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE metric_records SET benchmark_flag = $2 WHERE id = $1`, recordID, flag)
	if err != nil {
		return eris.Wrapf(err, "postgres: update benchmark flag %s", recordID)
	}
	return nil
}

// ReplaceBenchmarkSummary deletes the prior summary and inserts the new one,
// or only deletes when s is nil (benchmark unavailable).
func (s *PostgresStore) ReplaceBenchmarkSummary(ctx context.Context, projectID string, summary *model.BenchmarkSummary) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace summary")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM benchmark_summaries WHERE project_id = $1`, projectID); err != nil {
		return eris.Wrap(err, "postgres: delete summary")
	}

	if summary != nil {
		_, err := tx.Exec(ctx,
			`INSERT INTO benchmark_summaries
				(project_id, record_count, mean_annual_revenue, median_annual_revenue,
				 mean_ticket_size, mean_transaction_count, mean_yoy_growth, mean_seasonality_ratio, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
			projectID, summary.Count, summary.MeanAnnualRevenue, summary.MedianAnnualRevenue,
			summary.MeanTicketSize, summary.MeanTransactionCount, summary.MeanYoYGrowth,
			summary.MeanSeasonalityRatio,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert summary")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit replace summary")
	}
	return nil
}

// GetBenchmarkSummary returns the project's summary, or nil when none exists.
func (s *PostgresStore) GetBenchmarkSummary(ctx context.Context, projectID string) (*model.BenchmarkSummary, error) {
	var sm model.BenchmarkSummary
	err := s.pool.QueryRow(ctx,
		`SELECT project_id, record_count, mean_annual_revenue, median_annual_revenue,
			mean_ticket_size, mean_transaction_count, mean_yoy_growth, mean_seasonality_ratio, created_at
		 FROM benchmark_summaries WHERE project_id = $1`,
		projectID,
	).Scan(&sm.ProjectID, &sm.Count, &sm.MeanAnnualRevenue, &sm.MedianAnnualRevenue,
		&sm.MeanTicketSize, &sm.MeanTransactionCount, &sm.MeanYoYGrowth,
		&sm.MeanSeasonalityRatio, &sm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get summary for %s", projectID)
	}
	return &sm, nil
}

func scanSearchResults(rows pgx.Rows) ([]model.SearchResult, error) {
	var out []model.SearchResult
	for rows.Next() {
		var r model.SearchResult
		var street, city, state, zip, website, tierReason *string
		var tier *int
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.PlaceID, &r.Name, &street, &city, &state, &zip,
			&r.Latitude, &r.Longitude, &r.Rating, &website, &tier, &tierReason,
			&r.CreatedAt, &r.EnrichedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan search result")
		}
		r.Street = deref(street)
		r.City = deref(city)
		r.State = deref(state)
		r.PostalCode = deref(zip)
		r.Website = deref(website)
		r.TierReason = deref(tierReason)
		if tier != nil {
			t := model.Tier(*tier)
			r.Tier = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullable maps "" to NULL for optional UUID columns.
func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
