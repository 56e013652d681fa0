package report

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peerview-cli/internal/model"
)

// Store is the slice of persistence report building needs.
type Store interface {
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListMetricRecords(ctx context.Context, projectID string) ([]model.MetricRecord, error)
	GetBenchmarkSummary(ctx context.Context, projectID string) (*model.BenchmarkSummary, error)
	UpdateProjectStatus(ctx context.Context, id string, status model.ProjectStatus) error
}

// Artifacts lists the files one build produced. Paths are empty for outputs
// that were skipped, such as the map when no record has coordinates.
type Artifacts struct {
	Workbook  string
	CSV       string
	Map       string
	Shapefile string
}

// Builder renders a project's deliverables to disk.
type Builder struct {
	store Store
	log   *zap.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(st Store) *Builder {
	return &Builder{
		store: st,
		log:   zap.L().With(zap.String("phase", "report")),
	}
}

// Build writes the workbook, CSV, map, and shapefile for a project under
// outDir/<project-id>/ and advances the project to reported. At least one
// metric record must exist.
func (b *Builder) Build(ctx context.Context, projectID, outDir string) (*Artifacts, error) {
	project, err := b.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, eris.Errorf("report: project %s not found", projectID)
	}

	records, err := b.store.ListMetricRecords(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, eris.Errorf("report: project %s has no metric records, run metrics first", projectID)
	}
	summary, err := b.store.GetBenchmarkSummary(ctx, projectID)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(outDir, projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "report: create output dir %s", dir)
	}

	art := &Artifacts{}

	art.Workbook = filepath.Join(dir, "metrics.xlsx")
	if err := writeFile(art.Workbook, func(f *os.File) error {
		return WriteWorkbook(f, project, records, summary)
	}); err != nil {
		return nil, err
	}

	art.CSV = filepath.Join(dir, "metrics.csv")
	if err := writeFile(art.CSV, func(f *os.File) error {
		return WriteCSV(f, records)
	}); err != nil {
		return nil, err
	}

	if ComputeExtent(records) != nil {
		art.Map = filepath.Join(dir, "map.html")
		if err := writeFile(art.Map, func(f *os.File) error {
			return WriteMap(f, project, records)
		}); err != nil {
			return nil, err
		}

		art.Shapefile = filepath.Join(dir, "peers.shp")
		if _, err := WriteShapefile(art.Shapefile, records); err != nil {
			return nil, err
		}
	} else {
		b.log.Warn("no records carry coordinates, skipping map and shapefile",
			zap.String("project_id", projectID))
	}

	if err := b.store.UpdateProjectStatus(ctx, projectID, model.ProjectStatusReported); err != nil {
		return nil, err
	}

	b.log.Info("report built",
		zap.String("project_id", projectID),
		zap.String("dir", dir),
		zap.Int("records", len(records)),
		zap.Bool("benchmark", summary != nil))
	return art, nil
}

func writeFile(path string, fill func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "report: close %s", path)
}
