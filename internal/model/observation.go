package model

import "time"

// QuantityType enumerates the card-transaction measurements the provider
// reports per business.
type QuantityType string

const (
	QuantityRevenue          QuantityType = "card_revenue_amount"
	QuantityAvgTicket        QuantityType = "avg_transaction_size"
	QuantityTransactionCount QuantityType = "card_transactions_count"
	QuantityYoYGrowth        QuantityType = "card_revenue_yoy_growth"
	QuantityPriorGrowth      QuantityType = "card_revenue_prior_period_growth"
	QuantityRefunds          QuantityType = "refunds_amount"
	QuantityDailyCustomers   QuantityType = "card_customers_average_daily_count"
)

// Period enumerates the provider's observation windows. Calendar-year periods
// arrive as the literal year ("2023", "2024").
type Period string

const (
	PeriodTrailing3M  Period = "3m"
	PeriodTrailing12M Period = "12m"
)

// Observation is one time-bucketed financial measurement for a business.
// Rows are immutable once ingested; a re-pull supersedes rather than updates.
type Observation struct {
	ID             string       `json:"id"`
	BusinessID     string       `json:"business_id"`
	ProjectID      string       `json:"project_id"`
	QuantityType   QuantityType `json:"quantity_type"`
	Period         Period       `json:"period"`
	PeriodStart    string       `json:"period_start"`
	PeriodEnd      string       `json:"period_end"`
	RawValue       *float64     `json:"raw_value,omitempty"`
	ProjectedValue *float64     `json:"projected_value,omitempty"`
	PullSessionID  string       `json:"pull_session_id,omitempty"`
	PulledAt       time.Time    `json:"pulled_at"`
}

// Value returns the projected quantity when present, else the raw quantity.
// The provider projects partial periods forward; downstream math prefers the
// projection, matching the metrics it publishes.
func (o Observation) Value() *float64 {
	if o.ProjectedValue != nil {
		return o.ProjectedValue
	}
	return o.RawValue
}
