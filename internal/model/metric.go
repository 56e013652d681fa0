package model

import "time"

// DataQuality flags whether a metric record passed the volume checks.
type DataQuality string

const (
	QualityTrusted DataQuality = "trusted"
	QualityLow     DataQuality = "low"
)

// MetricRecord is the derived business-metric row, one per business per
// project. It is recomputed as a whole from the latest observations; fields
// the observations could not support stay nil.
type MetricRecord struct {
	ID               string      `json:"id"`
	ProjectID        string      `json:"project_id"`
	SearchResultID   string      `json:"search_result_id"`
	BusinessID       string      `json:"business_id,omitempty"`
	Name             string      `json:"name"`
	Street           string      `json:"street,omitempty"`
	Latitude         *float64    `json:"latitude,omitempty"`
	Longitude        *float64    `json:"longitude,omitempty"`
	PeriodStart      string      `json:"period_start,omitempty"`
	PeriodEnd        string      `json:"period_end,omitempty"`
	AnnualRevenue    *float64    `json:"annual_revenue,omitempty"`
	PriorYearEst     *float64    `json:"prior_year_estimate,omitempty"`
	YoYGrowth        *float64    `json:"yoy_growth,omitempty"`
	TicketSize       *float64    `json:"ticket_size,omitempty"`
	TransactionCount *float64    `json:"transaction_count,omitempty"`
	SeasonalityRatio *float64    `json:"seasonality_ratio,omitempty"`
	DataQuality      DataQuality `json:"data_quality"`
	BenchmarkFlag    DataQuality `json:"benchmark_flag"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Trusted reports whether the record is eligible for benchmark aggregation.
// BenchmarkFlag starts mirroring DataQuality but is user-overridable during
// review, so eligibility reads the flag, not the quality.
func (m MetricRecord) Trusted() bool {
	return m.BenchmarkFlag == QualityTrusted
}

// BenchmarkSummary is the population reduction over a project's trusted
// metric records. Absent entirely (no row) when no trusted records exist.
type BenchmarkSummary struct {
	ProjectID            string    `json:"project_id"`
	Count                int       `json:"count"`
	MeanAnnualRevenue    float64   `json:"mean_annual_revenue"`
	MedianAnnualRevenue  float64   `json:"median_annual_revenue"`
	MeanTicketSize       float64   `json:"mean_ticket_size"`
	MeanTransactionCount float64   `json:"mean_transaction_count"`
	MeanYoYGrowth        float64   `json:"mean_yoy_growth"`
	MeanSeasonalityRatio float64   `json:"mean_seasonality_ratio"`
	CreatedAt            time.Time `json:"created_at"`
}
