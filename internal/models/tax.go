package models

import "github.com/shopspring/decimal"

// TaxAmounts holds the per-component tax amounts of a single line.
// CGST+SGST and IGST are mutually exclusive: intra-state supplies carry the
// central/state pair, inter-state supplies carry the integrated component.
type TaxAmounts struct {
	IGST decimal.Decimal `json:"igst"`
	CGST decimal.Decimal `json:"cgst"`
	SGST decimal.Decimal `json:"sgst"`
	Cess decimal.Decimal `json:"cess"`
}

// Total returns the sum of all tax components.
func (t TaxAmounts) Total() decimal.Decimal {
	return t.IGST.Add(t.CGST).Add(t.SGST).Add(t.Cess)
}

// Add returns the component-wise sum of two tax amounts.
func (t TaxAmounts) Add(o TaxAmounts) TaxAmounts {
	return TaxAmounts{
		IGST: t.IGST.Add(o.IGST),
		CGST: t.CGST.Add(o.CGST),
		SGST: t.SGST.Add(o.SGST),
		Cess: t.Cess.Add(o.Cess),
	}
}

// ComponentDelta represents the signed difference for one tax component
// between a statement entry and the purchase record it was matched against.
type ComponentDelta struct {
	Component string          `json:"component"` // IGST, CGST, SGST, CESS
	Statement decimal.Decimal `json:"statement"`
	Purchase  decimal.Decimal `json:"purchase"`
	Delta     decimal.Decimal `json:"delta"` // statement minus purchase
}

// Deltas computes per-component signed differences (t minus o), reporting
// only components that differ.
func (t TaxAmounts) Deltas(o TaxAmounts) []ComponentDelta {
	var deltas []ComponentDelta
	pairs := []struct {
		name string
		a, b decimal.Decimal
	}{
		{"IGST", t.IGST, o.IGST},
		{"CGST", t.CGST, o.CGST},
		{"SGST", t.SGST, o.SGST},
		{"CESS", t.Cess, o.Cess},
	}
	for _, p := range pairs {
		if !p.a.Equal(p.b) {
			deltas = append(deltas, ComponentDelta{
				Component: p.name,
				Statement: p.a,
				Purchase:  p.b,
				Delta:     p.a.Sub(p.b),
			})
		}
	}
	return deltas
}

// WithinTolerance reports whether every component of t is within the given
// absolute tolerance of the corresponding component of o.
func (t TaxAmounts) WithinTolerance(o TaxAmounts, tolerance decimal.Decimal) bool {
	return t.IGST.Sub(o.IGST).Abs().LessThanOrEqual(tolerance) &&
		t.CGST.Sub(o.CGST).Abs().LessThanOrEqual(tolerance) &&
		t.SGST.Sub(o.SGST).Abs().LessThanOrEqual(tolerance) &&
		t.Cess.Sub(o.Cess).Abs().LessThanOrEqual(tolerance)
}
