package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/peerview-cli/internal/model"
)

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgres_GetProject(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, name, industry, location, status, created_at FROM search_projects`).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "name", "industry", "location", "status", "created_at"}).
			AddRow("p1", "hvac-austin", "HVAC", "Austin, TX", model.ProjectStatusCreated, now))

	p, err := s.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "hvac-austin", p.Name)
	assert.Equal(t, model.ProjectStatusCreated, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetProject_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, industry, location, status, created_at FROM search_projects`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "name", "industry", "location", "status", "created_at"}))

	p, err := s.GetProject(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p, "absent project is nil, not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateProjectStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE search_projects SET status`).
		WithArgs("p1", model.ProjectStatusReview).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.UpdateProjectStatus(context.Background(), "p1", model.ProjectStatusReview))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertSearchResults_SkipsDuplicates(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO search_results`).
		WithArgs(anyArgs(12)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO search_results`).
		WithArgs(anyArgs(12)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	n, err := s.InsertSearchResults(context.Background(), []model.SearchResult{
		{ProjectID: "p1", PlaceID: "place-a", Name: "Alpha Heating"},
		{ProjectID: "p1", PlaceID: "place-a", Name: "Alpha Heating"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "conflict rows must not count as inserted")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveMapping_InsertGeneratesID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO business_mappings`).
		WithArgs(anyArgs(14)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	m := &model.BusinessMapping{
		ProjectID:       "p1",
		PlaceID:         "place-a",
		EnigmaID:        "enigma-1",
		MatchConfidence: 0.95,
		PulledAt:        time.Now().UTC(),
	}
	require.NoError(t, s.SaveMapping(context.Background(), m))
	assert.NotEmpty(t, m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertObservations_BulkPath(t *testing.T) {
	s, mock := newMockStore(t)

	obsColumns := []string{
		"id", "business_id", "project_id", "quantity_type", "period",
		"period_start", "period_end", "raw_value", "projected_value",
		"pull_session_id", "pulled_at",
	}
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_observations"}, obsColumns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "observations"`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	rev := 850_000.0
	n, err := s.UpsertObservations(context.Background(), []model.Observation{
		{BusinessID: "biz-1", ProjectID: "p1", QuantityType: model.QuantityRevenue, Period: model.PeriodTrailing12M, PeriodEnd: "2024-12-31", RawValue: &rev},
		{BusinessID: "biz-1", ProjectID: "p1", QuantityType: model.QuantityAvgTicket, Period: model.PeriodTrailing12M, PeriodEnd: "2024-12-31", RawValue: &rev},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReplaceMetricRecords_Transactional(t *testing.T) {
	s, mock := newMockStore(t)

	rev := 500_000.0
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM metric_records WHERE project_id`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCopyFrom(pgx.Identifier{"metric_records"}, metricColumnList).
		WillReturnResult(1)
	mock.ExpectCommit()

	err := s.ReplaceMetricRecords(context.Background(), "p1", []model.MetricRecord{
		{Name: "Alpha Heating", AnnualRevenue: &rev, DataQuality: model.QualityTrusted, BenchmarkFlag: model.QualityTrusted},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReplaceMetricRecords_RollsBackOnInsertError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM metric_records WHERE project_id`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"metric_records"}, metricColumnList).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.ReplaceMetricRecords(context.Background(), "p1", []model.MetricRecord{{Name: "Alpha"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReplaceBenchmarkSummary_NilDeletesOnly(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM benchmark_summaries WHERE project_id`).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.ReplaceBenchmarkSummary(context.Background(), "p1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetBenchmarkSummary_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT project_id, record_count`).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{
			"project_id", "record_count", "mean_annual_revenue", "median_annual_revenue",
			"mean_ticket_size", "mean_transaction_count", "mean_yoy_growth",
			"mean_seasonality_ratio", "created_at"}))

	sm, err := s.GetBenchmarkSummary(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, sm)
	assert.NoError(t, mock.ExpectationsWereMet())
}
