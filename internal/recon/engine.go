package recon

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/taxdesk/gst-recon/internal/models"
	"github.com/taxdesk/gst-recon/internal/normalize"
)

// Engine runs the deterministic matching pass. It is safe for concurrent
// use across periods: all state lives in the arguments of each call.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine creates a reconciliation engine after validating cfg.
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reconciliation config: %w", err)
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Result holds the classified output of one deterministic run.
type Result struct {
	Matched          []models.MatchResult `json:"matched"`
	AmountMismatches []models.MatchResult `json:"amount_mismatches"`
	In2BOnly         []models.MatchResult `json:"in_2b_only"`
	NotIn2B          []models.MatchResult `json:"not_in_2b"`

	// Locked carries entries whose prior status is terminal
	// (MANUALLY_RESOLVED or REJECTED); they pass through unchanged.
	Locked []models.MatchResult `json:"locked,omitempty"`

	Summary models.ReconciliationSummary `json:"summary"`
}

// Reconcile classifies every statement entry and purchase record.
//
// Entries already carrying a terminal status are never reclassified: they
// land in Locked with their prior status, and any purchase they were
// resolved against is withheld from automatic re-matching. Re-running over
// identical inputs therefore reproduces identical classifications for all
// non-terminal entries.
func (e *Engine) Reconcile(purchases []models.PurchaseRecord, entries []models.StatementEntry) *Result {
	result := &Result{}

	purchaseByKey := make(map[string]int, len(purchases))
	for i, p := range purchases {
		key := normalize.MatchKey(p.SupplierGSTIN, p.InvoiceNumber)
		if _, dup := purchaseByKey[key]; dup {
			// First occurrence wins, deterministically.
			e.logger.Warn("Duplicate purchase key",
				zap.String("supplier_gstin", p.SupplierGSTIN),
				zap.String("invoice_number", p.InvoiceNumber))
			continue
		}
		purchaseByKey[key] = i
	}

	consumed := make(map[int64]bool, len(purchases))

	for i := range entries {
		entry := &entries[i]

		if entry.Status.Terminal() {
			if entry.MatchedPurchaseID != nil {
				consumed[*entry.MatchedPurchaseID] = true
			}
			result.Locked = append(result.Locked, models.MatchResult{
				Entry:      entry,
				Status:     entry.Status,
				Confidence: entry.Confidence,
			})
			continue
		}

		key := normalize.MatchKey(entry.SupplierGSTIN, entry.InvoiceNumber)
		idx, ok := purchaseByKey[key]
		if !ok {
			result.In2BOnly = append(result.In2BOnly, models.MatchResult{
				Entry:  entry,
				Status: models.StatusIn2BOnly,
			})
			continue
		}

		purchase := &purchases[idx]
		consumed[purchase.ID] = true

		if entry.Tax.WithinTolerance(purchase.Tax, e.cfg.AmountTolerance) {
			result.Matched = append(result.Matched, models.MatchResult{
				Entry:      entry,
				Purchase:   purchase,
				Status:     models.StatusMatched,
				Confidence: 100,
			})
		} else {
			result.AmountMismatches = append(result.AmountMismatches, models.MatchResult{
				Entry:      entry,
				Purchase:   purchase,
				Status:     models.StatusAmountMismatch,
				Confidence: 100,
				Deltas:     entry.Tax.Deltas(purchase.Tax),
			})
		}
	}

	for i := range purchases {
		p := &purchases[i]
		if consumed[p.ID] {
			continue
		}
		key := normalize.MatchKey(p.SupplierGSTIN, p.InvoiceNumber)
		if purchaseByKey[key] != i {
			continue // duplicate key, shadowed by the first occurrence
		}
		result.NotIn2B = append(result.NotIn2B, models.MatchResult{
			Purchase: p,
			Status:   models.StatusNotIn2B,
		})
	}

	sortResults(result)
	result.Summary = summarize(result, len(entries))

	e.logger.Info("Reconciliation pass completed",
		zap.Int("entries", len(entries)),
		zap.Int("purchases", len(purchases)),
		zap.Int("matched", len(result.Matched)),
		zap.Int("amount_mismatches", len(result.AmountMismatches)),
		zap.Int("in_2b_only", len(result.In2BOnly)),
		zap.Int("not_in_2b", len(result.NotIn2B)),
		zap.Int("locked", len(result.Locked)))

	return result
}

// sortResults orders every bucket deterministically so repeated runs over
// the same inputs produce byte-identical output.
func sortResults(r *Result) {
	byEntryKey := func(rs []models.MatchResult) {
		sort.Slice(rs, func(i, j int) bool {
			a, b := rs[i].Entry, rs[j].Entry
			if a.SupplierGSTIN != b.SupplierGSTIN {
				return a.SupplierGSTIN < b.SupplierGSTIN
			}
			return a.InvoiceNumber < b.InvoiceNumber
		})
	}
	byEntryKey(r.Matched)
	byEntryKey(r.AmountMismatches)
	byEntryKey(r.In2BOnly)
	byEntryKey(r.Locked)
	sort.Slice(r.NotIn2B, func(i, j int) bool {
		a, b := r.NotIn2B[i].Purchase, r.NotIn2B[j].Purchase
		if a.SupplierGSTIN != b.SupplierGSTIN {
			return a.SupplierGSTIN < b.SupplierGSTIN
		}
		return a.InvoiceNumber < b.InvoiceNumber
	})
}

func summarize(r *Result, totalEntries int) models.ReconciliationSummary {
	s := models.ReconciliationSummary{TotalEntries: totalEntries}

	for _, m := range r.Matched {
		s.Matched.Count++
		s.Matched.TaxAmount = s.Matched.TaxAmount.Add(m.Entry.Tax.Total())
	}
	for _, m := range r.AmountMismatches {
		s.AmountMismatch.Count++
		s.AmountMismatch.TaxAmount = s.AmountMismatch.TaxAmount.Add(m.Entry.Tax.Total())
	}
	for _, m := range r.In2BOnly {
		s.In2BOnly.Count++
		s.In2BOnly.TaxAmount = s.In2BOnly.TaxAmount.Add(m.Entry.Tax.Total())
	}
	for _, m := range r.NotIn2B {
		s.NotIn2B.Count++
		s.NotIn2B.TaxAmount = s.NotIn2B.TaxAmount.Add(m.Purchase.Tax.Total())
	}
	for _, m := range r.Locked {
		switch m.Status {
		case models.StatusManuallyResolved:
			s.ManuallyResolved.Count++
			s.ManuallyResolved.TaxAmount = s.ManuallyResolved.TaxAmount.Add(m.Entry.Tax.Total())
		case models.StatusRejected:
			s.Rejected.Count++
			s.Rejected.TaxAmount = s.Rejected.TaxAmount.Add(m.Entry.Tax.Total())
		}
	}
	return s
}
