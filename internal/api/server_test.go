package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/peerview-cli/internal/model"
	"github.com/sells-group/peerview-cli/internal/pipeline"
)

type fakeStore struct {
	projects []model.Project
	project  *model.Project
	results  []model.SearchResult
	records  []model.MetricRecord
	summary  *model.BenchmarkSummary
	err      error

	flaggedID string
	flagged   model.DataQuality
}

func (f *fakeStore) ListProjects(context.Context) ([]model.Project, error) {
	return f.projects, f.err
}

func (f *fakeStore) GetProject(context.Context, string) (*model.Project, error) {
	return f.project, f.err
}

func (f *fakeStore) ListSearchResults(context.Context, string) ([]model.SearchResult, error) {
	return f.results, f.err
}

func (f *fakeStore) ListMetricRecords(context.Context, string) ([]model.MetricRecord, error) {
	return f.records, f.err
}

func (f *fakeStore) GetBenchmarkSummary(context.Context, string) (*model.BenchmarkSummary, error) {
	return f.summary, f.err
}

func (f *fakeStore) UpdateBenchmarkFlag(_ context.Context, recordID string, flag model.DataQuality) error {
	f.flaggedID = recordID
	f.flagged = flag
	return f.err
}

type fakeCompute struct {
	projectID string
	summary   *pipeline.ComputeSummary
}

func (f *fakeCompute) Run(_ context.Context, projectID string) (*pipeline.ComputeSummary, error) {
	f.projectID = projectID
	return f.summary, nil
}

func newTestServer(st *fakeStore) *httptest.Server {
	return httptest.NewServer(NewServer(st, nil).Router())
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestListProjects(t *testing.T) {
	srv := newTestServer(&fakeStore{projects: []model.Project{
		{ID: "p1", Industry: "HVAC", Location: "Austin, TX", Status: model.ProjectStatusReview},
	}})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/projects")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var projects []model.Project
	require.NoError(t, json.Unmarshal(body, &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "HVAC", projects[0].Industry)
}

func TestListProjects_EmptyIsArray(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	defer srv.Close()

	_, body := get(t, srv.URL+"/projects")
	assert.Equal(t, "[]", string(body[:2]), "nil slice serializes as an empty array, not null")
}

func TestGetProject_NotFound(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/projects/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetBenchmark(t *testing.T) {
	srv := newTestServer(&fakeStore{summary: &model.BenchmarkSummary{
		ProjectID: "p1", Count: 12, MeanAnnualRevenue: 740_000,
	}})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/projects/p1/benchmark")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary model.BenchmarkSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, 12, summary.Count)
}

func TestGetBenchmark_NoSummary(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/projects/p1/benchmark")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStoreErrorIsOpaque(t *testing.T) {
	srv := newTestServer(&fakeStore{err: assert.AnError})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/projects")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(body), assert.AnError.Error(), "internal detail stays out of responses")
}

func TestUpdateFlag(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(st)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/metrics/rec-1/flag",
		strings.NewReader(`{"flag":"low"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rec-1", st.flaggedID)
	assert.Equal(t, model.QualityLow, st.flagged)
}

func TestUpdateFlag_RejectsUnknownValue(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(st)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/metrics/rec-1/flag",
		strings.NewReader(`{"flag":"great"}`))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, st.flaggedID)
}

func TestRecompute(t *testing.T) {
	compute := &fakeCompute{summary: &pipeline.ComputeSummary{Extracted: 3, Trusted: 2, Benchmarked: true}}
	srv := httptest.NewServer(NewServer(&fakeStore{}, compute).Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/projects/p1/recompute", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "p1", compute.projectID)

	var summary pipeline.ComputeSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 3, summary.Extracted)
}

func TestRecompute_DisabledWithoutComputeStage(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/projects/p1/recompute", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
