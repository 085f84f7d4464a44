package models

import "github.com/shopspring/decimal"

// HealthStatus is the qualitative band derived from the match rate.
type HealthStatus string

// Health status constants.
const (
	HealthExcellent HealthStatus = "excellent"
	HealthGood      HealthStatus = "good"
	HealthWarning   HealthStatus = "warning"
	HealthCritical  HealthStatus = "critical"
)

// Recommended follow-up actions, selected by which non-zero buckets exist.
const (
	ActionFollowUpVendors  = "follow-up-with-vendors"
	ActionVerifyInvoices   = "verify-invoices"
	ActionReconcilePending = "reconcile-pending"
	ActionReviewMismatches = "review-mismatches"
)

// HealthReport is the aggregate risk view over one reconciliation run.
// ITCAtRisk is the full tax amount of disputed and unreported lines, not
// just the mismatch deltas: that entire amount is uncertain until resolved.
type HealthReport struct {
	MatchRate      int             `json:"match_rate"` // 0-100
	Status         HealthStatus    `json:"status"`
	ITCAtRisk      decimal.Decimal `json:"itc_at_risk"`
	FollowUpNeeded int             `json:"follow_up_needed"`
	FollowUpAmount decimal.Decimal `json:"follow_up_amount"`
	Summary        string          `json:"summary"`
	Actions        []string        `json:"actions"`
}
