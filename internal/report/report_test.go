package report

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/peerview-cli/internal/model"
)

func floatp(v float64) *float64 { return &v }

func testRecords() []model.MetricRecord {
	return []model.MetricRecord{
		{
			Name: "Alpha Heating", Street: "100 Main St",
			Latitude: floatp(30.27), Longitude: floatp(-97.74),
			PeriodStart: "2024-01-01", PeriodEnd: "2024-12-31",
			AnnualRevenue: floatp(850000), TicketSize: floatp(412.50),
			YoYGrowth: floatp(0.12), TransactionCount: floatp(2060),
			DataQuality: model.QualityTrusted, BenchmarkFlag: model.QualityTrusted,
		},
		{
			Name: "Beta Cooling", Street: "200 Oak Ave",
			Latitude: floatp(30.31), Longitude: floatp(-97.70),
			AnnualRevenue: floatp(400000),
			DataQuality:   model.QualityLow, BenchmarkFlag: model.QualityLow,
		},
		{
			Name:        "Gamma Air",
			DataQuality: model.QualityTrusted, BenchmarkFlag: model.QualityTrusted,
		},
	}
}

func testProject() *model.Project {
	return &model.Project{ID: "p1", Name: "austin-hvac", Industry: "HVAC", Location: "Austin, TX"}
}

func TestHaversineKM(t *testing.T) {
	// Austin to Dallas is roughly 293 km.
	d := HaversineKM(30.2672, -97.7431, 32.7767, -96.7970)
	assert.InDelta(t, 293, d, 5)

	assert.Zero(t, HaversineKM(30, -97, 30, -97))
}

func TestComputeExtent(t *testing.T) {
	ext := ComputeExtent(testRecords())
	require.NotNil(t, ext)

	assert.Equal(t, 2, ext.Located, "record without coordinates is excluded")
	assert.InDelta(t, 30.29, ext.CenterLat, 0.001)
	assert.InDelta(t, -97.72, ext.CenterLon, 0.001)
	assert.Greater(t, ext.RadiusKM, 0.0)
	assert.InDelta(t, -97.74, ext.Bounds.Min(0), 1e-9)
	assert.InDelta(t, 30.31, ext.Bounds.Max(1), 1e-9)
}

func TestComputeExtent_NoCoordinates(t *testing.T) {
	assert.Nil(t, ComputeExtent([]model.MetricRecord{{Name: "X"}}))
	assert.Nil(t, ComputeExtent(nil))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testRecords()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "name,street,latitude"))
	assert.Contains(t, lines[1], "850000.00")
	assert.Contains(t, lines[1], "trusted")

	// Nil metrics stay empty, not zero.
	assert.Contains(t, lines[3], ",,,,,,,,")
}

func TestWriteMap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMap(&buf, testProject(), testRecords()))

	html := buf.String()
	assert.Contains(t, html, "HVAC peers: Austin, TX")
	assert.Contains(t, html, "Alpha Heating")
	assert.Contains(t, html, `"trusted":true`)
	assert.NotContains(t, html, "Gamma Air", "records without coordinates stay off the map")
}

func TestWriteMap_NoCoordinates(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMap(&buf, testProject(), []model.MetricRecord{{Name: "X"}})
	assert.Error(t, err)
}

func TestWriteWorkbook(t *testing.T) {
	summary := &model.BenchmarkSummary{
		ProjectID: "p1", Count: 2,
		MeanAnnualRevenue: 625000, MedianAnnualRevenue: 625000,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, testProject(), testRecords(), summary))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 2)

	metrics := file.Sheets[0]
	assert.Equal(t, "Peer Metrics", metrics.Name)
	require.Len(t, metrics.Rows, 4)
	assert.Equal(t, "Alpha Heating", metrics.Rows[1].Cells[0].String())
	assert.Equal(t, "yes", metrics.Rows[1].Cells[9].String())
	assert.Equal(t, "no", metrics.Rows[2].Cells[9].String())

	bench := file.Sheets[1]
	assert.Equal(t, "Benchmark", bench.Name)
	assert.Equal(t, "Industry", bench.Rows[0].Cells[0].String())
	assert.Equal(t, "HVAC", bench.Rows[0].Cells[1].String())
}

func TestWriteWorkbook_NoSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, testProject(), testRecords(), nil))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, file.Sheets, 1)
}

func TestWriteShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.shp")

	n, err := WriteShapefile(path, testRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, n, "record without coordinates is skipped")

	reader, err := shp.Open(path)
	require.NoError(t, err)
	defer reader.Close()

	require.True(t, reader.Next())
	_, shape := reader.Shape()
	pt, ok := shape.(*shp.Point)
	require.True(t, ok)
	assert.InDelta(t, -97.74, pt.X, 1e-6)
	assert.InDelta(t, 30.27, pt.Y, 1e-6)
	assert.Equal(t, "Alpha Heating", strings.TrimSpace(reader.Attribute(0)))
}

func TestPointEWKB(t *testing.T) {
	out, err := PointEWKB(30.27, -97.74)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(out), 9)
	assert.Equal(t, byte(1), out[0], "little endian")
	assert.Equal(t, uint32(0x20000001), binary.LittleEndian.Uint32(out[1:5]), "point with srid flag")
	assert.Equal(t, uint32(4326), binary.LittleEndian.Uint32(out[5:9]))
}

type fakeStore struct {
	project *model.Project
	records []model.MetricRecord
	summary *model.BenchmarkSummary
	status  model.ProjectStatus
}

func (f *fakeStore) GetProject(_ context.Context, _ string) (*model.Project, error) {
	return f.project, nil
}

func (f *fakeStore) ListMetricRecords(_ context.Context, _ string) ([]model.MetricRecord, error) {
	return f.records, nil
}

func (f *fakeStore) GetBenchmarkSummary(_ context.Context, _ string) (*model.BenchmarkSummary, error) {
	return f.summary, nil
}

func (f *fakeStore) UpdateProjectStatus(_ context.Context, _ string, status model.ProjectStatus) error {
	f.status = status
	return nil
}

func TestBuilder_Build(t *testing.T) {
	st := &fakeStore{
		project: testProject(),
		records: testRecords(),
		summary: &model.BenchmarkSummary{ProjectID: "p1", Count: 1},
	}

	outDir := t.TempDir()
	art, err := NewBuilder(st).Build(context.Background(), "p1", outDir)
	require.NoError(t, err)

	for _, path := range []string{art.Workbook, art.CSV, art.Map, art.Shapefile} {
		require.NotEmpty(t, path)
		_, statErr := os.Stat(path)
		assert.NoError(t, statErr, path)
	}
	assert.Equal(t, filepath.Join(outDir, "p1", "metrics.xlsx"), art.Workbook)
	assert.Equal(t, model.ProjectStatusReported, st.status)
}

func TestBuilder_Build_NoRecords(t *testing.T) {
	st := &fakeStore{project: testProject()}
	_, err := NewBuilder(st).Build(context.Background(), "p1", t.TempDir())
	assert.ErrorContains(t, err, "no metric records")
}

func TestBuilder_Build_SkipsMapWithoutCoordinates(t *testing.T) {
	st := &fakeStore{
		project: testProject(),
		records: []model.MetricRecord{{Name: "X", BenchmarkFlag: model.QualityTrusted}},
	}

	art, err := NewBuilder(st).Build(context.Background(), "p1", t.TempDir())
	require.NoError(t, err)
	assert.NotEmpty(t, art.Workbook)
	assert.Empty(t, art.Map)
	assert.Empty(t, art.Shapefile)
}
