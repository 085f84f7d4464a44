// Package recon implements the reconciliation engine: a deterministic
// matching pass over statement entries and purchase records, and an
// on-demand fuzzy scorer that suggests candidate purchases for entries the
// deterministic pass could not place. The engine holds no state between
// runs; every run is a pure function of its inputs and configuration.
package recon

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config controls matching behavior.
type Config struct {
	// AmountTolerance is the absolute per-component currency tolerance used
	// by the deterministic pass to absorb rounding differences.
	AmountTolerance decimal.Decimal

	// Fuzzy controls the suggestion scorer.
	Fuzzy FuzzyConfig
}

// FuzzyConfig holds the heuristic weights and bounds of the suggestion
// scorer. Weights apply to similarity components in [0,1] and should sum to
// approximately 1.0; the combined score is reported on a 0-100 scale.
type FuzzyConfig struct {
	InvoiceWeight float64 `json:"invoice_weight"`
	DateWeight    float64 `json:"date_weight"`
	ValueWeight   float64 `json:"value_weight"`
	VendorWeight  float64 `json:"vendor_weight"`

	// DateWindowDays bounds date proximity: beyond the window the date
	// component contributes zero.
	DateWindowDays int `json:"date_window_days"`

	// MinScore is the similarity floor (0-100) below which candidates are
	// not returned.
	MinScore int `json:"min_score"`

	// MaxSuggestions caps how many candidates are returned per entry.
	MaxSuggestions int `json:"max_suggestions"`

	// MaxCandidates caps the pre-filtered candidate pool per entry, keeping
	// the scorer from going quadratic on large periods.
	MaxCandidates int `json:"max_candidates"`
}

// DefaultConfig returns the documented default matching configuration:
// one currency unit of per-component tolerance, invoice-number similarity
// dominating the fuzzy score.
func DefaultConfig() Config {
	return Config{
		AmountTolerance: decimal.NewFromInt(1),
		Fuzzy: FuzzyConfig{
			InvoiceWeight:  0.40,
			DateWeight:     0.20,
			ValueWeight:    0.25,
			VendorWeight:   0.15,
			DateWindowDays: 30,
			MinScore:       40,
			MaxSuggestions: 5,
			MaxCandidates:  50,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative: %s", c.AmountTolerance)
	}
	return c.Fuzzy.Validate()
}

// Validate checks the fuzzy scorer configuration.
func (fc FuzzyConfig) Validate() error {
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"invoice", fc.InvoiceWeight},
		{"date", fc.DateWeight},
		{"value", fc.ValueWeight},
		{"vendor", fc.VendorWeight},
	} {
		if w.value < 0.0 || w.value > 1.0 {
			return fmt.Errorf("%s weight must be between 0.0 and 1.0: %f", w.name, w.value)
		}
	}
	total := fc.InvoiceWeight + fc.DateWeight + fc.ValueWeight + fc.VendorWeight
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("fuzzy weights should sum to approximately 1.0, got %f", total)
	}
	if fc.DateWindowDays <= 0 {
		return fmt.Errorf("date window must be positive: %d", fc.DateWindowDays)
	}
	if fc.MinScore < 0 || fc.MinScore > 100 {
		return fmt.Errorf("minimum score must be between 0 and 100: %d", fc.MinScore)
	}
	if fc.MaxSuggestions <= 0 {
		return fmt.Errorf("max suggestions must be positive: %d", fc.MaxSuggestions)
	}
	if fc.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be positive: %d", fc.MaxCandidates)
	}
	return nil
}
