package recon

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"github.com/taxdesk/gst-recon/internal/models"
	"github.com/taxdesk/gst-recon/internal/normalize"
)

// Suggestion is one fuzzy-match candidate for an unmatched statement entry.
// Suggestions never change match state on their own; a caller must confirm
// one explicitly through a manual match.
type Suggestion struct {
	Purchase *models.PurchaseRecord `json:"purchase"`
	Score    int                    `json:"score"` // 0-100 combined similarity
	Invoice  float64                `json:"invoice_similarity"`
	Date     float64                `json:"date_similarity"`
	Value    float64                `json:"value_similarity"`
	Vendor   float64                `json:"vendor_similarity"`
}

// FindPotentialMatches scores candidate purchase records against an
// unmatched statement entry and returns the top candidates above the
// configured floor, best first.
//
// The candidate pool is pre-filtered by vendor-identifier affinity (exact
// GSTIN, then shared PAN, then shared state code) and capped, so cost stays
// bounded even on large periods.
func (e *Engine) FindPotentialMatches(entry *models.StatementEntry, purchases []models.PurchaseRecord) []Suggestion {
	candidates := e.selectCandidates(entry, purchases)

	var suggestions []Suggestion
	for _, p := range candidates {
		s := e.score(entry, p)
		if s.Score >= e.cfg.Fuzzy.MinScore {
			suggestions = append(suggestions, s)
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Purchase.InvoiceNumber < suggestions[j].Purchase.InvoiceNumber
	})

	if len(suggestions) > e.cfg.Fuzzy.MaxSuggestions {
		suggestions = suggestions[:e.cfg.Fuzzy.MaxSuggestions]
	}
	return suggestions
}

// selectCandidates bounds the pool by vendor affinity tiers: exact GSTIN
// first, then same PAN, then same state code.
func (e *Engine) selectCandidates(entry *models.StatementEntry, purchases []models.PurchaseRecord) []*models.PurchaseRecord {
	max := e.cfg.Fuzzy.MaxCandidates
	gstin := normalize.GSTIN(entry.SupplierGSTIN)

	var exact, pan, state []*models.PurchaseRecord
	for i := range purchases {
		p := &purchases[i]
		switch vendorAffinity(gstin, normalize.GSTIN(p.SupplierGSTIN)) {
		case vendorExact:
			exact = append(exact, p)
		case vendorSamePAN:
			pan = append(pan, p)
		case vendorSameState:
			state = append(state, p)
		}
	}

	candidates := exact
	for _, tier := range [][]*models.PurchaseRecord{pan, state} {
		if len(candidates) >= max {
			break
		}
		candidates = append(candidates, tier...)
	}
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates
}

type vendorTier int

const (
	vendorNone vendorTier = iota
	vendorSameState
	vendorSamePAN
	vendorExact
)

// vendorAffinity grades two GSTINs. A GSTIN is state code (2) + PAN (10) +
// entity/check suffix (3); sharing the PAN means the same legal entity
// registered in another state.
func vendorAffinity(a, b string) vendorTier {
	if a == "" || b == "" {
		return vendorNone
	}
	if a == b {
		return vendorExact
	}
	if len(a) == 15 && len(b) == 15 {
		if a[2:12] == b[2:12] {
			return vendorSamePAN
		}
		if a[:2] == b[:2] {
			return vendorSameState
		}
	}
	return vendorNone
}

func (e *Engine) score(entry *models.StatementEntry, p *models.PurchaseRecord) Suggestion {
	fc := e.cfg.Fuzzy

	s := Suggestion{
		Purchase: p,
		Invoice:  invoiceSimilarity(entry.InvoiceNumber, p.InvoiceNumber),
		Date:     dateSimilarity(entry.InvoiceDate, p.InvoiceDate, fc.DateWindowDays),
		Value:    valueSimilarity(entry.TaxableValue, p.TaxableValue),
		Vendor:   vendorSimilarity(entry.SupplierGSTIN, p.SupplierGSTIN),
	}

	combined := fc.InvoiceWeight*s.Invoice +
		fc.DateWeight*s.Date +
		fc.ValueWeight*s.Value +
		fc.VendorWeight*s.Vendor
	s.Score = int(math.Round(combined * 100))
	return s
}

// invoiceSimilarity compares normalized invoice numbers using edit distance,
// with a containment floor: "001" inside "INV-001" still scores well even
// though the edit distance is large.
func invoiceSimilarity(a, b string) float64 {
	na, nb := normalize.InvoiceNumber(a), normalize.InvoiceNumber(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	longest := len(na)
	if len(nb) > longest {
		longest = len(nb)
	}
	dist := levenshtein.ComputeDistance(na, nb)
	sim := 1 - float64(dist)/float64(longest)

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		shortest := len(na) + len(nb) - longest
		if contained := float64(shortest) / float64(longest); contained > sim {
			sim = contained
		}
		if sim < 0.8 {
			sim = 0.8
		}
	}
	if sim < 0 {
		sim = 0
	}
	return sim
}

func dateSimilarity(a, b time.Time, windowDays int) float64 {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	days := diff.Hours() / 24
	window := float64(windowDays)
	if days >= window {
		return 0
	}
	return 1 - days/window
}

// valueSimilarity maps the percentage difference between taxable values to
// [0,1]; 100% or more apart scores zero.
func valueSimilarity(a, b decimal.Decimal) float64 {
	larger := a.Abs()
	if b.Abs().GreaterThan(larger) {
		larger = b.Abs()
	}
	if larger.IsZero() {
		return 1
	}
	pct, _ := a.Sub(b).Abs().Div(larger).Float64()
	if pct >= 1 {
		return 0
	}
	return 1 - pct
}

func vendorSimilarity(a, b string) float64 {
	switch vendorAffinity(normalize.GSTIN(a), normalize.GSTIN(b)) {
	case vendorExact:
		return 1
	case vendorSamePAN:
		return 0.7
	case vendorSameState:
		return 0.3
	default:
		return 0
	}
}
