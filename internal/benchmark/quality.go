package benchmark

import "github.com/sells-group/peerview-cli/internal/model"

// QualityFilterConfig tunes the review-stage outlier filter.
type QualityFilterConfig struct {
	MinRevenue         float64 `yaml:"min_revenue" mapstructure:"min_revenue"`
	MaxAbsYoY          float64 `yaml:"max_abs_yoy" mapstructure:"max_abs_yoy"`
	TicketLowRatio     float64 `yaml:"ticket_low_ratio" mapstructure:"ticket_low_ratio"`
	TicketHighRatio    float64 `yaml:"ticket_high_ratio" mapstructure:"ticket_high_ratio"`
	RequireCoordinates bool    `yaml:"require_coordinates" mapstructure:"require_coordinates"`
}

// DefaultQualityFilter mirrors the review tool's historical cutoffs.
func DefaultQualityFilter() QualityFilterConfig {
	return QualityFilterConfig{
		MinRevenue:         50_000,
		MaxAbsYoY:          1.0,
		TicketLowRatio:     0.3,
		TicketHighRatio:    3.0,
		RequireCoordinates: true,
	}
}

// ApplyQualityFilter demotes outlier records to a low benchmark flag ahead of
// aggregation: revenue below the floor, growth swings beyond the cap, ticket
// size far from the project average, or missing map coordinates. Returns the
// IDs of the demoted records; callers persist the flag change.
func ApplyQualityFilter(records []model.MetricRecord, cfg QualityFilterConfig) []string {
	avgTicket := mean(records, func(r model.MetricRecord) *float64 { return r.TicketSize })

	var demoted []string
	for i := range records {
		r := &records[i]
		if !r.Trusted() {
			continue
		}
		if lowQuality(*r, avgTicket, cfg) {
			r.BenchmarkFlag = model.QualityLow
			demoted = append(demoted, r.ID)
		}
	}
	return demoted
}

func lowQuality(r model.MetricRecord, avgTicket float64, cfg QualityFilterConfig) bool {
	if r.AnnualRevenue == nil || *r.AnnualRevenue < cfg.MinRevenue {
		return true
	}
	if r.YoYGrowth == nil || abs(*r.YoYGrowth) > cfg.MaxAbsYoY {
		return true
	}
	if r.TicketSize == nil {
		return true
	}
	if avgTicket > 0 {
		if *r.TicketSize < avgTicket*cfg.TicketLowRatio || *r.TicketSize > avgTicket*cfg.TicketHighRatio {
			return true
		}
	}
	if cfg.RequireCoordinates && (r.Latitude == nil || r.Longitude == nil) {
		return true
	}
	return false
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
