package enrich

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/peerview-cli/internal/model"
)

// RunOptions tunes a batch enrichment run.
type RunOptions struct {
	Options
	// Concurrency bounds parallel pulls. The provider rate limit makes 1 the
	// safe default; the client's limiter still applies above that.
	Concurrency int
	// MaxTier includes results ranked at or better than this tier. Zero
	// means core results only.
	MaxTier model.Tier
	// Limit caps how many results are processed; zero is unlimited.
	Limit int
}

// RunSummary tallies a batch run.
type RunSummary struct {
	Processed   int
	Pulled      int
	Reused      int
	MappingOnly int
	NoMatch     int
	Failed      int
}

// Run enriches every eligible search result in a project. Individual
// failures are logged and counted, not fatal; a broken business should not
// sink the batch.
func (e *Enricher) Run(ctx context.Context, projectID string, opts RunOptions) (*RunSummary, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	maxTier := opts.MaxTier
	if maxTier == 0 {
		maxTier = model.TierCore
	}

	results, err := e.store.ListSearchResults(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var eligible []model.SearchResult
	for _, sr := range results {
		if sr.Tier == nil || *sr.Tier > maxTier {
			continue
		}
		eligible = append(eligible, sr)
		if opts.Limit > 0 && len(eligible) >= opts.Limit {
			break
		}
	}

	e.log.Info("starting enrichment run",
		zap.String("project_id", projectID),
		zap.Int("eligible", len(eligible)),
		zap.Int("concurrency", opts.Concurrency))

	var (
		mu      sync.Mutex
		summary RunSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, sr := range eligible {
		g.Go(func() error {
			res, err := e.EnrichOne(gctx, sr, opts.Options)

			mu.Lock()
			defer mu.Unlock()
			summary.Processed++
			if err != nil {
				summary.Failed++
				e.log.Error("enrichment failed",
					zap.String("place_id", sr.PlaceID), zap.Error(err))
				return nil
			}
			switch res.Status {
			case StatusPulled:
				summary.Pulled++
			case StatusReused:
				summary.Reused++
			case StatusMappingOnly:
				summary.MappingOnly++
			case StatusNoMatch:
				summary.NoMatch++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &summary, err
	}

	e.log.Info("enrichment run complete",
		zap.Int("processed", summary.Processed),
		zap.Int("pulled", summary.Pulled),
		zap.Int("reused", summary.Reused),
		zap.Int("mapping_only", summary.MappingOnly),
		zap.Int("no_match", summary.NoMatch),
		zap.Int("failed", summary.Failed))
	return &summary, nil
}
