// Package health reduces per-status reconciliation totals into a risk
// score, a human-readable summary, and recommended follow-up actions.
// Everything here is a pure function of its numeric inputs.
package health

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/taxdesk/gst-recon/internal/models"
)

// Match-rate thresholds for the qualitative bands.
const (
	thresholdExcellent = 95
	thresholdGood      = 80
	thresholdWarning   = 60
)

// Calculate derives the health report for one reconciliation run.
//
// The match rate counts MATCHED and MANUALLY_RESOLVED entries as settled.
// ITC at risk is the full tax amount of AMOUNT_MISMATCH entries plus
// NOT_IN_2B purchases: until a dispute is resolved or the vendor files, the
// whole line is uncertain, not just the delta.
func Calculate(s models.ReconciliationSummary) models.HealthReport {
	report := models.HealthReport{
		ITCAtRisk:      s.AmountMismatch.TaxAmount.Add(s.NotIn2B.TaxAmount),
		FollowUpNeeded: s.NotIn2B.Count + s.In2BOnly.Count,
		FollowUpAmount: s.NotIn2B.TaxAmount.Add(s.In2BOnly.TaxAmount),
	}

	if s.TotalEntries == 0 {
		report.MatchRate = 100
	} else {
		settled := s.Matched.Count + s.ManuallyResolved.Count
		report.MatchRate = int(math.Round(float64(settled) / float64(s.TotalEntries) * 100))
	}

	switch {
	case report.MatchRate >= thresholdExcellent:
		report.Status = models.HealthExcellent
	case report.MatchRate >= thresholdGood:
		report.Status = models.HealthGood
	case report.MatchRate >= thresholdWarning:
		report.Status = models.HealthWarning
	default:
		report.Status = models.HealthCritical
	}

	report.Actions = recommendActions(s)
	report.Summary = buildSummary(s, report)
	return report
}

// recommendActions selects the deduplicated action set from the non-zero
// buckets, in a fixed order.
func recommendActions(s models.ReconciliationSummary) []string {
	var actions []string
	if s.NotIn2B.Count > 0 {
		actions = append(actions, models.ActionFollowUpVendors)
	}
	if s.AmountMismatch.Count > 0 {
		actions = append(actions, models.ActionVerifyInvoices, models.ActionReviewMismatches)
	}
	if s.In2BOnly.Count > 0 {
		actions = append(actions, models.ActionReconcilePending)
	}
	return actions
}

func buildSummary(s models.ReconciliationSummary, report models.HealthReport) string {
	if s.TotalEntries == 0 {
		return "No statement entries for this period; nothing to reconcile."
	}
	if report.MatchRate == 100 && report.FollowUpNeeded == 0 && s.AmountMismatch.Count == 0 {
		return "All statement entries are fully reconciled with the purchase register."
	}

	var parts []string
	if s.AmountMismatch.Count > 0 {
		parts = append(parts, fmt.Sprintf("%d invoice(s) with amount mismatches worth %s in tax",
			s.AmountMismatch.Count, formatAmount(s.AmountMismatch.TaxAmount)))
	}
	if s.NotIn2B.Count > 0 {
		parts = append(parts, fmt.Sprintf("%d purchase(s) not yet reported by vendors worth %s in tax",
			s.NotIn2B.Count, formatAmount(s.NotIn2B.TaxAmount)))
	}
	if s.In2BOnly.Count > 0 {
		parts = append(parts, fmt.Sprintf("%d statement entr(ies) missing from the purchase register worth %s in tax",
			s.In2BOnly.Count, formatAmount(s.In2BOnly.TaxAmount)))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Match rate %d%% with no outstanding follow-ups.", report.MatchRate)
	}
	return fmt.Sprintf("Match rate %d%%: %s.", report.MatchRate, strings.Join(parts, "; "))
}

func formatAmount(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}
