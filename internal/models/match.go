package models

import "github.com/shopspring/decimal"

// MatchStatus is the closed classification set for a statement entry (or an
// unreported purchase record). Automatic passes may only assign the four
// classification outcomes; the two terminal statuses are set exclusively by
// explicit manual action and are never overwritten automatically.
type MatchStatus string

// Match status constants.
const (
	StatusPending          MatchStatus = "PENDING"
	StatusMatched          MatchStatus = "MATCHED"
	StatusAmountMismatch   MatchStatus = "AMOUNT_MISMATCH"
	StatusIn2BOnly         MatchStatus = "IN_2B_ONLY"
	StatusNotIn2B          MatchStatus = "NOT_IN_2B"
	StatusManuallyResolved MatchStatus = "MANUALLY_RESOLVED"
	StatusRejected         MatchStatus = "REJECTED"
)

// AllStatuses lists every valid match status.
var AllStatuses = []MatchStatus{
	StatusPending,
	StatusMatched,
	StatusAmountMismatch,
	StatusIn2BOnly,
	StatusNotIn2B,
	StatusManuallyResolved,
	StatusRejected,
}

// Valid reports whether s is a member of the closed status set.
func (s MatchStatus) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal reports whether s was set by explicit human action. Terminal
// entries are passed through untouched by automatic reclassification.
func (s MatchStatus) Terminal() bool {
	return s == StatusManuallyResolved || s == StatusRejected
}

// MatchResult pairs a statement entry with at most one purchase record and
// records the classification outcome. Confidence is 100 for deterministic
// and manual matches; fuzzy suggestions carry their similarity score.
type MatchResult struct {
	Entry      *StatementEntry  `json:"entry,omitempty"`
	Purchase   *PurchaseRecord  `json:"purchase,omitempty"`
	Status     MatchStatus      `json:"status"`
	Confidence int              `json:"confidence"`
	Deltas     []ComponentDelta `json:"deltas,omitempty"`
}

// StatusTotals is the count and summed tax amount for one status bucket.
type StatusTotals struct {
	Count     int             `json:"count"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

// ReconciliationSummary reduces a reconciliation run to per-status totals.
// It is the sole input of the health aggregator.
type ReconciliationSummary struct {
	TotalEntries     int          `json:"total_entries"`
	Matched          StatusTotals `json:"matched"`
	AmountMismatch   StatusTotals `json:"amount_mismatch"`
	In2BOnly         StatusTotals `json:"in_2b_only"`
	NotIn2B          StatusTotals `json:"not_in_2b"`
	ManuallyResolved StatusTotals `json:"manually_resolved"`
	Rejected         StatusTotals `json:"rejected"`
}
