package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/peerview-cli/internal/model"
)

// SQLiteStore implements Store on a local SQLite file. It serves offline runs
// and tests; the Postgres store is the production backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: open %s", path)
	}
	// modernc's driver is not safe for concurrent writers on one connection
	// pool; a single connection sidesteps SQLITE_BUSY churn.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, eris.Wrapf(err, "sqlite: ping %s", path)
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS search_projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	industry   TEXT NOT NULL,
	location   TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'created',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS search_results (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES search_projects(id),
	place_id    TEXT NOT NULL,
	name        TEXT NOT NULL,
	street      TEXT,
	city        TEXT,
	state       TEXT,
	postal_code TEXT,
	latitude    REAL,
	longitude   REAL,
	rating      REAL,
	website     TEXT,
	tier        INTEGER,
	tier_reason TEXT,
	created_at  TIMESTAMP NOT NULL,
	enriched_at TIMESTAMP,
	UNIQUE (project_id, place_id)
);

CREATE TABLE IF NOT EXISTS business_mappings (
	id                   TEXT PRIMARY KEY,
	project_id           TEXT NOT NULL,
	place_id             TEXT NOT NULL UNIQUE,
	enigma_id            TEXT NOT NULL,
	business_name        TEXT,
	matched_name         TEXT,
	matched_full_address TEXT,
	matched_city         TEXT,
	matched_state        TEXT,
	matched_postal_code  TEXT,
	match_confidence     REAL NOT NULL DEFAULT 0,
	match_reason         TEXT,
	pull_session_id      TEXT,
	pulled_at            TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS observations (
	id              TEXT PRIMARY KEY,
	business_id     TEXT NOT NULL,
	project_id      TEXT NOT NULL,
	quantity_type   TEXT NOT NULL,
	period          TEXT NOT NULL,
	period_start    TEXT,
	period_end      TEXT NOT NULL,
	raw_value       REAL,
	projected_value REAL,
	pull_session_id TEXT,
	pulled_at       TIMESTAMP NOT NULL,
	UNIQUE (business_id, project_id, quantity_type, period, period_end)
);

CREATE TABLE IF NOT EXISTS metric_records (
	id                  TEXT PRIMARY KEY,
	project_id          TEXT NOT NULL,
	search_result_id    TEXT,
	business_id         TEXT,
	name                TEXT,
	street              TEXT,
	latitude            REAL,
	longitude           REAL,
	period_start        TEXT,
	period_end          TEXT,
	annual_revenue      REAL,
	prior_year_estimate REAL,
	yoy_growth          REAL,
	ticket_size         REAL,
	transaction_count   REAL,
	seasonality_ratio   REAL,
	data_quality        TEXT NOT NULL DEFAULT 'low',
	benchmark_flag      TEXT NOT NULL DEFAULT 'low',
	created_at          TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_metric_records_project ON metric_records(project_id);

CREATE TABLE IF NOT EXISTS benchmark_summaries (
	project_id             TEXT PRIMARY KEY,
	record_count           INTEGER NOT NULL,
	mean_annual_revenue    REAL NOT NULL,
	median_annual_revenue  REAL NOT NULL,
	mean_ticket_size       REAL NOT NULL,
	mean_transaction_count REAL NOT NULL,
	mean_yoy_growth        REAL NOT NULL,
	mean_seasonality_ratio REAL NOT NULL,
	created_at             TIMESTAMP NOT NULL
)`

// Migrate applies the schema DDL. Idempotent.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateProject(ctx context.Context, name, industry, location string) (*model.Project, error) {
	p := &model.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Industry:  industry,
		Location:  location,
		Status:    model.ProjectStatusCreated,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_projects (id, name, industry, location, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Industry, p.Location, p.Status, p.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create project")
	}
	return p, nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, industry, location, status, created_at FROM search_projects WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.Industry, &p.Location, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get project %s", id)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, industry, location, status, created_at FROM search_projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Industry, &p.Location, &p.Status, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project")
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *SQLiteStore) UpdateProjectStatus(ctx context.Context, id string, status model.ProjectStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE search_projects SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update project status %s", id)
	}
	return nil
}

func (s *SQLiteStore) InsertSearchResults(ctx context.Context, results []model.SearchResult) (int64, error) {
	if len(results) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert search results")
	}
	defer tx.Rollback() //nolint:errcheck

	var inserted int64
	for _, r := range results {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO search_results
				(id, project_id, place_id, name, street, city, state, postal_code,
				 latitude, longitude, rating, website, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (project_id, place_id) DO NOTHING`,
			r.ID, r.ProjectID, r.PlaceID, r.Name, r.Street, r.City, r.State, r.PostalCode,
			r.Latitude, r.Longitude, r.Rating, r.Website, time.Now().UTC(),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert search result %s", r.PlaceID)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert search results")
	}
	return inserted, nil
}

func (s *SQLiteStore) ListSearchResults(ctx context.Context, projectID string) ([]model.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+searchResultColumns+` FROM search_results WHERE project_id = ? ORDER BY created_at`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list search results")
	}
	defer rows.Close()
	return scanSearchResultsSQL(rows)
}

func (s *SQLiteStore) GetSearchResults(ctx context.Context, ids []string) (map[string]model.SearchResult, error) {
	out := make(map[string]model.SearchResult, len(ids))
	for _, id := range ids {
		var list []model.SearchResult
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+searchResultColumns+` FROM search_results WHERE id = ?`, id)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: get search results")
		}
		list, err = scanSearchResultsSQL(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		for _, r := range list {
			out[r.ID] = r
		}
	}
	return out, nil
}

func (s *SQLiteStore) UpdateTier(ctx context.Context, id string, tier model.Tier, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE search_results SET tier = ?, tier_reason = ? WHERE id = ?`, int(tier), reason, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update tier for %s", id)
	}
	return nil
}

func (s *SQLiteStore) MarkEnriched(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE search_results SET enriched_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark enriched %s", id)
	}
	return nil
}

func (s *SQLiteStore) GetMappingByPlaceID(ctx context.Context, placeID string) (*model.BusinessMapping, error) {
	var m model.BusinessMapping
	err := s.db.QueryRowContext(ctx,
		`SELECT `+mappingColumns+` FROM business_mappings WHERE place_id = ?`, placeID,
	).Scan(&m.ID, &m.ProjectID, &m.PlaceID, &m.EnigmaID, &m.BusinessName, &m.MatchedName,
		&m.MatchedFullAddress, &m.MatchedCity, &m.MatchedState, &m.MatchedPostalCode,
		&m.MatchConfidence, &m.MatchReason, &m.PullSessionID, &m.PulledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get mapping for place %s", placeID)
	}
	return &m, nil
}

func (s *SQLiteStore) GetMappingsByPlaceID(ctx context.Context, placeIDs []string) (map[string]model.BusinessMapping, error) {
	out := make(map[string]model.BusinessMapping, len(placeIDs))
	for _, pid := range placeIDs {
		m, err := s.GetMappingByPlaceID(ctx, pid)
		if err != nil {
			return nil, err
		}
		if m != nil {
			out[m.PlaceID] = *m
		}
	}
	return out, nil
}

func (s *SQLiteStore) SaveMapping(ctx context.Context, m *model.BusinessMapping) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO business_mappings
			(id, project_id, place_id, enigma_id, business_name, matched_name,
			 matched_full_address, matched_city, matched_state, matched_postal_code,
			 match_confidence, match_reason, pull_session_id, pulled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (place_id) DO UPDATE SET
			project_id = excluded.project_id, enigma_id = excluded.enigma_id,
			business_name = excluded.business_name, matched_name = excluded.matched_name,
			matched_full_address = excluded.matched_full_address,
			matched_city = excluded.matched_city, matched_state = excluded.matched_state,
			matched_postal_code = excluded.matched_postal_code,
			match_confidence = excluded.match_confidence, match_reason = excluded.match_reason,
			pull_session_id = excluded.pull_session_id, pulled_at = excluded.pulled_at`,
		m.ID, m.ProjectID, m.PlaceID, m.EnigmaID, m.BusinessName, m.MatchedName,
		m.MatchedFullAddress, m.MatchedCity, m.MatchedState, m.MatchedPostalCode,
		m.MatchConfidence, m.MatchReason, m.PullSessionID, m.PulledAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save mapping for place %s", m.PlaceID)
	}
	return nil
}

func (s *SQLiteStore) DeleteMapping(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM business_mappings WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete mapping %s", id)
	}
	return nil
}

func (s *SQLiteStore) ListObservations(ctx context.Context, businessID, projectID string) ([]model.Observation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, business_id, project_id, quantity_type, period, period_start, period_end,
			raw_value, projected_value, pull_session_id, pulled_at
		 FROM observations WHERE business_id = ? AND project_id = ?`,
		businessID, projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list observations")
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var o model.Observation
		if err := rows.Scan(&o.ID, &o.BusinessID, &o.ProjectID, &o.QuantityType, &o.Period,
			&o.PeriodStart, &o.PeriodEnd, &o.RawValue, &o.ProjectedValue,
			&o.PullSessionID, &o.PulledAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan observation")
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertObservations(ctx context.Context, observations []model.Observation) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert observations")
	}
	defer tx.Rollback() //nolint:errcheck

	var n int64
	for _, o := range observations {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO observations
				(id, business_id, project_id, quantity_type, period, period_start, period_end,
				 raw_value, projected_value, pull_session_id, pulled_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (business_id, project_id, quantity_type, period, period_end) DO UPDATE SET
				raw_value = excluded.raw_value,
				projected_value = excluded.projected_value,
				pull_session_id = excluded.pull_session_id,
				pulled_at = excluded.pulled_at`,
			o.ID, o.BusinessID, o.ProjectID, o.QuantityType, o.Period, o.PeriodStart, o.PeriodEnd,
			o.RawValue, o.ProjectedValue, o.PullSessionID, o.PulledAt,
		)
		if err != nil {
			return n, eris.Wrap(err, "sqlite: upsert observation")
		}
		c, _ := res.RowsAffected()
		n += c
	}
	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "sqlite: commit upsert observations")
	}
	return n, nil
}

func (s *SQLiteStore) DeleteObservations(ctx context.Context, businessID, projectID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM observations WHERE business_id = ? AND project_id = ?`, businessID, projectID)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete observations")
	}
	return nil
}

func (s *SQLiteStore) ReplaceMetricRecords(ctx context.Context, projectID string, records []model.MetricRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace metric records")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM metric_records WHERE project_id = ?`, projectID); err != nil {
		return eris.Wrap(err, "sqlite: delete metric records")
	}
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO metric_records
				(id, project_id, search_result_id, business_id, name, street, latitude, longitude,
				 period_start, period_end, annual_revenue, prior_year_estimate, yoy_growth,
				 ticket_size, transaction_count, seasonality_ratio, data_quality, benchmark_flag, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, projectID, nullable(r.SearchResultID), nullable(r.BusinessID), r.Name, r.Street,
			r.Latitude, r.Longitude, r.PeriodStart, r.PeriodEnd, r.AnnualRevenue, r.PriorYearEst,
			r.YoYGrowth, r.TicketSize, r.TransactionCount, r.SeasonalityRatio,
			r.DataQuality, r.BenchmarkFlag, time.Now().UTC(),
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert metric record")
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit replace metric records")
	}
	return nil
}

func (s *SQLiteStore) ListMetricRecords(ctx context.Context, projectID string) ([]model.MetricRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+metricColumns+` FROM metric_records WHERE project_id = ? ORDER BY name`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list metric records")
	}
	defer rows.Close()

	var out []model.MetricRecord
	for rows.Next() {
		var r model.MetricRecord
		var searchResultID, businessID sql.NullString
		if err := rows.Scan(&r.ID, &r.ProjectID, &searchResultID, &businessID, &r.Name, &r.Street,
			&r.Latitude, &r.Longitude, &r.PeriodStart, &r.PeriodEnd, &r.AnnualRevenue,
			&r.PriorYearEst, &r.YoYGrowth, &r.TicketSize, &r.TransactionCount,
			&r.SeasonalityRatio, &r.DataQuality, &r.BenchmarkFlag, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metric record")
		}
		r.SearchResultID = searchResultID.String
		r.BusinessID = businessID.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateBenchmarkFlag(ctx context.Context, recordID string, flag model.DataQuality) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE metric_records SET benchmark_flag = ? WHERE id = ?`, flag, recordID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update benchmark flag %s", recordID)
	}
	return nil
}

func (s *SQLiteStore) ReplaceBenchmarkSummary(ctx context.Context, projectID string, summary *model.BenchmarkSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace summary")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM benchmark_summaries WHERE project_id = ?`, projectID); err != nil {
		return eris.Wrap(err, "sqlite: delete summary")
	}
	if summary != nil {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO benchmark_summaries
				(project_id, record_count, mean_annual_revenue, median_annual_revenue,
				 mean_ticket_size, mean_transaction_count, mean_yoy_growth, mean_seasonality_ratio, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, summary.Count, summary.MeanAnnualRevenue, summary.MedianAnnualRevenue,
			summary.MeanTicketSize, summary.MeanTransactionCount, summary.MeanYoYGrowth,
			summary.MeanSeasonalityRatio, time.Now().UTC(),
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert summary")
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit replace summary")
	}
	return nil
}

func (s *SQLiteStore) GetBenchmarkSummary(ctx context.Context, projectID string) (*model.BenchmarkSummary, error) {
	var sm model.BenchmarkSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT project_id, record_count, mean_annual_revenue, median_annual_revenue,
			mean_ticket_size, mean_transaction_count, mean_yoy_growth, mean_seasonality_ratio, created_at
		 FROM benchmark_summaries WHERE project_id = ?`,
		projectID,
	).Scan(&sm.ProjectID, &sm.Count, &sm.MeanAnnualRevenue, &sm.MedianAnnualRevenue,
		&sm.MeanTicketSize, &sm.MeanTransactionCount, &sm.MeanYoYGrowth,
		&sm.MeanSeasonalityRatio, &sm.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get summary for %s", projectID)
	}
	return &sm, nil
}

func scanSearchResultsSQL(rows *sql.Rows) ([]model.SearchResult, error) {
	var out []model.SearchResult
	for rows.Next() {
		var r model.SearchResult
		var street, city, state, zip, website, tierReason sql.NullString
		var tier sql.NullInt64
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.PlaceID, &r.Name, &street, &city, &state, &zip,
			&r.Latitude, &r.Longitude, &r.Rating, &website, &tier, &tierReason,
			&r.CreatedAt, &r.EnrichedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search result")
		}
		r.Street = street.String
		r.City = city.String
		r.State = state.String
		r.PostalCode = zip.String
		r.Website = website.String
		r.TierReason = tierReason.String
		if tier.Valid {
			t := model.Tier(tier.Int64)
			r.Tier = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
