// Package benchmark reduces a project's trusted metric records into
// population summary statistics.
package benchmark

import (
	"sort"

	"github.com/sells-group/peerview-cli/internal/model"
)

// Aggregate computes the benchmark summary over records flagged trusted.
// Returns nil when no trusted records exist: callers must treat that as
// "benchmark unavailable", never as a summary of zeros.
//
// This is a pure reduction with no weighting or outlier handling; outlier
// filtering belongs upstream (see ApplyQualityFilter).
func Aggregate(projectID string, records []model.MetricRecord) *model.BenchmarkSummary {
	var trusted []model.MetricRecord
	for _, r := range records {
		if r.Trusted() {
			trusted = append(trusted, r)
		}
	}
	if len(trusted) == 0 {
		return nil
	}

	s := &model.BenchmarkSummary{
		ProjectID:            projectID,
		Count:                len(trusted),
		MeanAnnualRevenue:    mean(trusted, func(r model.MetricRecord) *float64 { return r.AnnualRevenue }),
		MedianAnnualRevenue:  medianRevenue(trusted),
		MeanTicketSize:       mean(trusted, func(r model.MetricRecord) *float64 { return r.TicketSize }),
		MeanTransactionCount: mean(trusted, func(r model.MetricRecord) *float64 { return r.TransactionCount }),
		MeanYoYGrowth:        mean(trusted, func(r model.MetricRecord) *float64 { return r.YoYGrowth }),
		MeanSeasonalityRatio: mean(trusted, func(r model.MetricRecord) *float64 { return r.SeasonalityRatio }),
	}
	return s
}

// mean averages the present values of one field; records with a nil field are
// excluded from that field's average rather than treated as zero.
func mean(records []model.MetricRecord, field func(model.MetricRecord) *float64) float64 {
	var sum float64
	var n int
	for _, r := range records {
		if v := field(r); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func medianRevenue(records []model.MetricRecord) float64 {
	var values []float64
	for _, r := range records {
		if r.AnnualRevenue != nil {
			values = append(values, *r.AnnualRevenue)
		}
	}
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}
