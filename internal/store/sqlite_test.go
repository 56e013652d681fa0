package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/peerview-cli/internal/model"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "peerview.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func metricFixture(id, name string, revenue float64) model.MetricRecord {
	lat, lon := 30.27, -97.74
	ticket := 120.0
	return model.MetricRecord{
		ID:            id,
		ProjectID:     "p1",
		Name:          name,
		Street:        "222 West Ave",
		Latitude:      &lat,
		Longitude:     &lon,
		PeriodEnd:     "2024-12-31",
		AnnualRevenue: &revenue,
		TicketSize:    &ticket,
		DataQuality:   model.QualityTrusted,
		BenchmarkFlag: model.QualityTrusted,
	}
}

func TestSQLite_ReplaceMetricRecords_RoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceMetricRecords(ctx, "p1", []model.MetricRecord{
		metricFixture("m1", "Alpha Heating", 850_000),
		metricFixture("m2", "Beta Plumbing", 620_000),
	}))

	got, err := s.ListMetricRecords(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alpha Heating", got[0].Name)
	require.NotNil(t, got[0].AnnualRevenue)
	assert.Equal(t, 850_000.0, *got[0].AnnualRevenue)
	require.NotNil(t, got[0].Latitude)
	assert.Equal(t, 30.27, *got[0].Latitude)
	assert.Equal(t, model.QualityTrusted, got[0].BenchmarkFlag)

	// A recompute replaces the whole set; nothing from the first write
	// survives.
	require.NoError(t, s.ReplaceMetricRecords(ctx, "p1", []model.MetricRecord{
		metricFixture("m3", "Gamma Electric", 410_000),
	}))

	got, err = s.ListMetricRecords(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m3", got[0].ID)
	assert.Equal(t, "Gamma Electric", got[0].Name)
}

func TestSQLite_ReplaceMetricRecords_ScopedToProject(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	other := metricFixture("m9", "Other Project Peer", 300_000)
	other.ProjectID = "p2"
	require.NoError(t, s.ReplaceMetricRecords(ctx, "p2", []model.MetricRecord{other}))
	require.NoError(t, s.ReplaceMetricRecords(ctx, "p1", []model.MetricRecord{
		metricFixture("m1", "Alpha Heating", 850_000),
	}))

	require.NoError(t, s.ReplaceMetricRecords(ctx, "p1", nil))

	got, err := s.ListMetricRecords(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, got)

	kept, err := s.ListMetricRecords(ctx, "p2")
	require.NoError(t, err)
	require.Len(t, kept, 1, "replacing one project leaves the others alone")
}

func TestSQLite_SaveMapping_ResaveKeepsRowID(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	first := &model.BusinessMapping{
		ProjectID:       "p1",
		PlaceID:         "place-a",
		EnigmaID:        "enigma-1",
		BusinessName:    "Alpha Heating",
		MatchConfidence: 0.95,
		PullSessionID:   "sess-1",
		PulledAt:        time.Now().UTC(),
	}
	require.NoError(t, s.SaveMapping(ctx, first))
	require.NotEmpty(t, first.ID)

	// A later pull maps the same place again; the row is updated in place.
	second := &model.BusinessMapping{
		ProjectID:       "p1",
		PlaceID:         "place-a",
		EnigmaID:        "enigma-2",
		BusinessName:    "Alpha Heating & Air",
		MatchConfidence: 0.99,
		PullSessionID:   "sess-2",
		PulledAt:        time.Now().UTC(),
	}
	require.NoError(t, s.SaveMapping(ctx, second))

	got, err := s.GetMappingByPlaceID(ctx, "place-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID, "the original row id survives a re-save")
	assert.Equal(t, "enigma-2", got.EnigmaID)
	assert.Equal(t, "sess-2", got.PullSessionID)
	assert.InDelta(t, 0.99, got.MatchConfidence, 0.0001)
}

func TestSQLite_UpsertObservations_RepullSupersedes(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	rev := 850_000.0
	obs := model.Observation{
		BusinessID:    "biz-1",
		ProjectID:     "p1",
		QuantityType:  model.QuantityRevenue,
		Period:        model.PeriodTrailing12M,
		PeriodEnd:     "2024-12-31",
		RawValue:      &rev,
		PullSessionID: "sess-1",
		PulledAt:      time.Now().UTC(),
	}
	_, err := s.UpsertObservations(ctx, []model.Observation{obs})
	require.NoError(t, err)

	newRev := 910_000.0
	obs.ID = ""
	obs.RawValue = &newRev
	obs.PullSessionID = "sess-2"
	_, err = s.UpsertObservations(ctx, []model.Observation{obs})
	require.NoError(t, err)

	got, err := s.ListObservations(ctx, "biz-1", "p1")
	require.NoError(t, err)
	require.Len(t, got, 1, "a re-pull supersedes rather than duplicates")
	require.NotNil(t, got[0].RawValue)
	assert.Equal(t, 910_000.0, *got[0].RawValue)
	assert.Equal(t, "sess-2", got[0].PullSessionID)
}

func TestSQLite_UpdateBenchmarkFlag_Persists(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceMetricRecords(ctx, "p1", []model.MetricRecord{
		metricFixture("m1", "Alpha Heating", 850_000),
	}))
	require.NoError(t, s.UpdateBenchmarkFlag(ctx, "m1", model.QualityLow))

	got, err := s.ListMetricRecords(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.QualityLow, got[0].BenchmarkFlag)
	assert.Equal(t, model.QualityTrusted, got[0].DataQuality, "the override leaves the computed quality alone")
}

func TestSQLite_ReplaceBenchmarkSummary_RoundTripAndNilDelete(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceBenchmarkSummary(ctx, "p1", &model.BenchmarkSummary{
		ProjectID:           "p1",
		Count:               12,
		MeanAnnualRevenue:   740_000,
		MedianAnnualRevenue: 685_000,
		MeanTicketSize:      130,
	}))

	got, err := s.GetBenchmarkSummary(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 12, got.Count)
	assert.Equal(t, 740_000.0, got.MeanAnnualRevenue)

	// No trusted records on the next compute clears the row entirely.
	require.NoError(t, s.ReplaceBenchmarkSummary(ctx, "p1", nil))

	got, err = s.GetBenchmarkSummary(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
