package addrmatch

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peerview-cli/internal/model"
)

// Store defines the reads the address checker needs.
type Store interface {
	ListMetricRecords(ctx context.Context, projectID string) ([]model.MetricRecord, error)
	GetSearchResults(ctx context.Context, ids []string) (map[string]model.SearchResult, error)
	GetMappingsByPlaceID(ctx context.Context, placeIDs []string) (map[string]model.BusinessMapping, error)
}

// Options configures a QA run.
type Options struct {
	MinSimilarity float64 // 1.0 = exact-only
	Limit         int     // 0 = all rows
	Verbose       bool    // print matches too, not just mismatches
}

// Diagnostics counts rows surviving each join stage, so an operator can tell
// "no mismatches" apart from "most rows failed to join".
type Diagnostics struct {
	RecordsFetched     int
	SearchIDsCollected int
	SearchRowsResolved int
	PlaceIDsCollected  int
	MappingsResolved   int
	MissingSearchRow   int
	MissingPlaceID     int
	MissingMapping     int
}

// Result is the outcome of one QA run.
type Result struct {
	Evaluated   int
	Mismatches  []model.Verdict
	ByCategory  map[model.MismatchCategory]int
	Diagnostics Diagnostics
}

// Runner joins a project's metric records to their discovery and mapping rows
// and evaluates every pair.
type Runner struct {
	store Store
	out   io.Writer
}

// NewRunner creates a Runner writing operator output to out.
func NewRunner(store Store, out io.Writer) *Runner {
	return &Runner{store: store, out: out}
}

// Run evaluates all rows for the project and prints per-row verdicts, a
// category tally, and the join diagnostics block.
func (r *Runner) Run(ctx context.Context, projectID string, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("phase", "addrcheck"), zap.String("project_id", projectID))

	records, err := r.store.ListMetricRecords(ctx, projectID)
	if err != nil {
		return nil, eris.Wrap(err, "addrmatch: list metric records")
	}
	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}

	res := &Result{ByCategory: make(map[model.MismatchCategory]int)}
	res.Diagnostics.RecordsFetched = len(records)

	var srids []string
	seen := make(map[string]bool)
	for _, rec := range records {
		if rec.SearchResultID != "" && !seen[rec.SearchResultID] {
			seen[rec.SearchResultID] = true
			srids = append(srids, rec.SearchResultID)
		}
	}
	res.Diagnostics.SearchIDsCollected = len(srids)

	srows, err := r.store.GetSearchResults(ctx, srids)
	if err != nil {
		return nil, eris.Wrap(err, "addrmatch: fetch search results")
	}
	res.Diagnostics.SearchRowsResolved = len(srows)

	var placeIDs []string
	seenPlace := make(map[string]bool)
	for _, sr := range srows {
		if sr.PlaceID != "" && !seenPlace[sr.PlaceID] {
			seenPlace[sr.PlaceID] = true
			placeIDs = append(placeIDs, sr.PlaceID)
		}
	}
	res.Diagnostics.PlaceIDsCollected = len(placeIDs)

	mappings, err := r.store.GetMappingsByPlaceID(ctx, placeIDs)
	if err != nil {
		return nil, eris.Wrap(err, "addrmatch: fetch business mappings")
	}
	res.Diagnostics.MappingsResolved = len(mappings)

	for _, rec := range records {
		in := Input{Record: rec, MinSimilarity: opts.MinSimilarity}
		if sr, ok := srows[rec.SearchResultID]; ok {
			srCopy := sr
			in.Search = &srCopy
			if sr.PlaceID == "" {
				res.Diagnostics.MissingPlaceID++
			}
			if mp, ok := mappings[sr.PlaceID]; ok {
				mpCopy := mp
				in.Mapping = &mpCopy
			}
		}

		v := Evaluate(in)
		res.Evaluated++

		switch v.Reason {
		case model.ReasonMissingSearchResult:
			res.Diagnostics.MissingSearchRow++
		case model.ReasonMissingBusinessMapping:
			res.Diagnostics.MissingMapping++
		}

		r.printRow(v, opts.Verbose)

		if v.Reason == model.ReasonMismatch {
			res.Mismatches = append(res.Mismatches, v)
			if v.Category != "" {
				res.ByCategory[v.Category]++
			}
		}
	}

	r.printSummary(res)
	log.Info("address check complete",
		zap.Int("evaluated", res.Evaluated),
		zap.Int("mismatches", len(res.Mismatches)),
	)
	return res, nil
}

func (r *Runner) printRow(v model.Verdict, verbose bool) {
	if v.Reason == model.ReasonMatch && !verbose {
		return
	}
	tag := "CHECK"
	if v.Reason == model.ReasonMismatch {
		tag = "ADDR MISMATCH"
	}
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintf(r.out, "[%s] record=%s search_result=%s place_id=%s enigma_id=%s\n",
		tag, v.MetricRecordID, v.SearchResultID, v.PlaceID, v.EnigmaID)
	fmt.Fprintf(r.out, "  GOOGLE  address: %s\n", v.GoogleFullAddress)
	matched := v.MatchedFullAddress
	if matched == "" {
		matched = "(missing)"
	}
	fmt.Fprintf(r.out, "  MATCHED address: %s\n", matched)
	if v.GoogleStreet != "" || v.MatchedStreet != "" {
		fmt.Fprintf(r.out, "  STREET  google=%q matched=%q street_equal=%t\n",
			v.GoogleStreet, v.MatchedStreet, v.StreetEqual)
	}
	if v.Reason != model.ReasonMatch {
		fmt.Fprintf(r.out, "  CITY/ST/ZIP google=(%s, %s, %s) matched=(%s, %s, %s) equal(city=%t, state=%t, zip=%t)\n",
			v.GoogleCity, v.GoogleState, v.GoogleZip,
			v.MatchedCity, v.MatchedState, v.MatchedZip,
			v.CityEqual, v.StateEqual, v.ZipEqual)
		fmt.Fprintf(r.out, "  reason: %s  category: %s\n", v.Reason, v.Category)
	}
}

func (r *Runner) printSummary(res *Result) {
	fmt.Fprintf(r.out, "\nSummary:\n")
	fmt.Fprintf(r.out, "  Rows evaluated: %d\n", res.Evaluated)
	fmt.Fprintf(r.out, "  Address mismatches: %d\n", len(res.Mismatches))
	if len(res.Mismatches) > 0 {
		fmt.Fprintf(r.out, "  By category:\n")
		for _, cat := range []model.MismatchCategory{
			model.CategoryCrossStreet, model.CategoryCrossZip, model.CategoryCrossCityState,
		} {
			fmt.Fprintf(r.out, "    - %s: %d\n", cat, res.ByCategory[cat])
		}
	}

	d := res.Diagnostics
	fmt.Fprintf(r.out, "\nDiagnostics:\n")
	fmt.Fprintf(r.out, "  metric records fetched: %d\n", d.RecordsFetched)
	fmt.Fprintf(r.out, "  search result ids collected: %d\n", d.SearchIDsCollected)
	fmt.Fprintf(r.out, "  search results resolved: %d\n", d.SearchRowsResolved)
	fmt.Fprintf(r.out, "  place ids collected: %d\n", d.PlaceIDsCollected)
	fmt.Fprintf(r.out, "  business mappings resolved: %d\n", d.MappingsResolved)
	fmt.Fprintf(r.out, "  missing search result: %d\n", d.MissingSearchRow)
	fmt.Fprintf(r.out, "  missing place id: %d\n", d.MissingPlaceID)
	fmt.Fprintf(r.out, "  missing business mapping: %d\n", d.MissingMapping)
}
