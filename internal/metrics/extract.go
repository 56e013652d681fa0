// Package metrics reduces a business's card-transaction observations into a
// fixed metric record.
package metrics

import (
	"math"
	"sort"

	"github.com/sells-group/peerview-cli/internal/model"
)

// Extract derives a MetricRecord from one business's observations. Missing
// lookups produce nil fields, never errors; a business with no trailing-12m
// revenue observation at all yields an all-nil record flagged low quality.
//
// Period-end dates are ISO-8601 strings, so lexicographic order is date order.
func Extract(observations []model.Observation) model.MetricRecord {
	rec := model.MetricRecord{
		DataQuality:   model.QualityLow,
		BenchmarkFlag: model.QualityLow,
	}

	revenue := filterSorted(observations, model.QuantityRevenue, model.PeriodTrailing12M)
	if len(revenue) == 0 {
		return rec
	}

	latest := revenue[0]
	rec.AnnualRevenue = latest.Value()
	rec.PeriodStart = latest.PeriodStart
	rec.PeriodEnd = latest.PeriodEnd

	rec.YoYGrowth = lookup(observations, model.QuantityYoYGrowth, model.PeriodTrailing12M, rec.PeriodEnd)
	// yoy == -1 would divide by zero below; the provider reports it for
	// businesses that went dark, where a prior-year estimate is meaningless.
	if rec.AnnualRevenue != nil && rec.YoYGrowth != nil && *rec.YoYGrowth != -1 {
		prior := *rec.AnnualRevenue / (1 + *rec.YoYGrowth)
		rec.PriorYearEst = &prior
	}

	rec.TicketSize = lookup(observations, model.QuantityAvgTicket, model.PeriodTrailing12M, rec.PeriodEnd)
	rec.TransactionCount = lookup(observations, model.QuantityTransactionCount, model.PeriodTrailing12M, rec.PeriodEnd)

	quarterly := filterSorted(observations, model.QuantityRevenue, model.PeriodTrailing3M)
	if len(quarterly) >= 2 {
		recent, prior := quarterly[0].Value(), quarterly[1].Value()
		if recent != nil && prior != nil && *prior != 0 {
			ratio := *recent / *prior
			rec.SeasonalityRatio = &ratio
		}
	}

	if trusted(rec) {
		rec.DataQuality = model.QualityTrusted
		rec.BenchmarkFlag = model.QualityTrusted
	}
	return rec
}

// trusted applies the four volume checks: revenue, ticket size and transaction
// count present and strictly positive, and yoy growth present with absolute
// value at most 1 (boundary inclusive).
func trusted(rec model.MetricRecord) bool {
	if rec.AnnualRevenue == nil || rec.TicketSize == nil || rec.TransactionCount == nil || rec.YoYGrowth == nil {
		return false
	}
	return *rec.AnnualRevenue > 0 &&
		*rec.TicketSize > 0 &&
		*rec.TransactionCount > 0 &&
		math.Abs(*rec.YoYGrowth) <= 1
}

// filterSorted returns observations of the given type and period, most recent
// period end first. The store guarantees no ordering, so sorting happens here.
func filterSorted(obs []model.Observation, qt model.QuantityType, p model.Period) []model.Observation {
	var out []model.Observation
	for _, o := range obs {
		if o.QuantityType == qt && o.Period == p {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PeriodEnd > out[j].PeriodEnd
	})
	return out
}

// lookup finds the value of the observation with the given type, period and
// exact period end, or nil.
func lookup(obs []model.Observation, qt model.QuantityType, p model.Period, periodEnd string) *float64 {
	for _, o := range obs {
		if o.QuantityType == qt && o.Period == p && o.PeriodEnd == periodEnd {
			return o.Value()
		}
	}
	return nil
}
