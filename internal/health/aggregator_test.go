package health

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/taxdesk/gst-recon/internal/models"
)

func totals(count int, amount int64) models.StatusTotals {
	return models.StatusTotals{Count: count, TaxAmount: decimal.NewFromInt(amount)}
}

func TestCalculateStatusBands(t *testing.T) {
	tests := []struct {
		name     string
		matched  int
		total    int
		rate     int
		expected models.HealthStatus
	}{
		{"95 is excellent", 95, 100, 95, models.HealthExcellent},
		{"94 is good", 94, 100, 94, models.HealthGood},
		{"80 is good", 80, 100, 80, models.HealthGood},
		{"79 is warning", 79, 100, 79, models.HealthWarning},
		{"60 is warning", 60, 100, 60, models.HealthWarning},
		{"59 is critical", 59, 100, 59, models.HealthCritical},
		{"zero entries is vacuously excellent", 0, 0, 100, models.HealthExcellent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := models.ReconciliationSummary{
				TotalEntries: tt.total,
				Matched:      totals(tt.matched, 0),
			}
			report := Calculate(s)
			assert.Equal(t, tt.rate, report.MatchRate)
			assert.Equal(t, tt.expected, report.Status)
		})
	}
}

func TestCalculateITCAtRisk(t *testing.T) {
	s := models.ReconciliationSummary{
		TotalEntries:   10,
		Matched:        totals(7, 70000),
		AmountMismatch: totals(2, 36000),
		NotIn2B:        totals(3, 5400),
		In2BOnly:       totals(1, 1800),
	}

	report := Calculate(s)

	// Full disputed/unreported line amounts, no double counting.
	assert.True(t, report.ITCAtRisk.Equal(decimal.NewFromInt(41400)),
		"itcAtRisk should be mismatch+notIn2B amounts, got %s", report.ITCAtRisk)
	assert.Equal(t, 4, report.FollowUpNeeded)
	assert.True(t, report.FollowUpAmount.Equal(decimal.NewFromInt(7200)))
}

func TestCalculateActions(t *testing.T) {
	tests := []struct {
		name     string
		summary  models.ReconciliationSummary
		expected []string
	}{
		{
			name: "fully reconciled has no actions",
			summary: models.ReconciliationSummary{
				TotalEntries: 5,
				Matched:      totals(5, 9000),
			},
			expected: nil,
		},
		{
			name: "mismatches recommend verification and review",
			summary: models.ReconciliationSummary{
				TotalEntries:   5,
				Matched:        totals(4, 8000),
				AmountMismatch: totals(1, 1000),
			},
			expected: []string{models.ActionVerifyInvoices, models.ActionReviewMismatches},
		},
		{
			name: "unreported purchases recommend vendor follow-up",
			summary: models.ReconciliationSummary{
				TotalEntries: 5,
				Matched:      totals(5, 9000),
				NotIn2B:      totals(2, 400),
			},
			expected: []string{models.ActionFollowUpVendors},
		},
		{
			name: "statement-only entries recommend reconciling pending",
			summary: models.ReconciliationSummary{
				TotalEntries: 5,
				Matched:      totals(4, 8000),
				In2BOnly:     totals(1, 200),
			},
			expected: []string{models.ActionReconcilePending},
		},
		{
			name: "all buckets produce the full deduplicated set",
			summary: models.ReconciliationSummary{
				TotalEntries:   10,
				Matched:        totals(5, 8000),
				AmountMismatch: totals(2, 900),
				NotIn2B:        totals(2, 400),
				In2BOnly:       totals(1, 200),
			},
			expected: []string{
				models.ActionFollowUpVendors,
				models.ActionVerifyInvoices,
				models.ActionReviewMismatches,
				models.ActionReconcilePending,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Calculate(tt.summary)
			assert.Equal(t, tt.expected, report.Actions)
		})
	}
}

func TestCalculateSummarySentences(t *testing.T) {
	empty := Calculate(models.ReconciliationSummary{})
	assert.Equal(t, "No statement entries for this period; nothing to reconcile.", empty.Summary)

	clean := Calculate(models.ReconciliationSummary{TotalEntries: 3, Matched: totals(3, 5400)})
	assert.Equal(t, "All statement entries are fully reconciled with the purchase register.", clean.Summary)

	dirty := Calculate(models.ReconciliationSummary{
		TotalEntries:   4,
		Matched:        totals(3, 5400),
		AmountMismatch: totals(1, 500),
	})
	assert.Contains(t, dirty.Summary, "amount mismatches")
	assert.Contains(t, dirty.Summary, "₹500.00")
}

func TestCalculateManuallyResolvedCountsAsSettled(t *testing.T) {
	s := models.ReconciliationSummary{
		TotalEntries:     4,
		Matched:          totals(3, 5400),
		ManuallyResolved: totals(1, 1800),
	}
	report := Calculate(s)
	assert.Equal(t, 100, report.MatchRate)
	assert.Equal(t, models.HealthExcellent, report.Status)
}
