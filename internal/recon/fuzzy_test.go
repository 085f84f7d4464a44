package recon

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taxdesk/gst-recon/internal/models"
)

func TestFindPotentialMatchesRanksCloseCandidateFirst(t *testing.T) {
	e := newTestEngine(t)

	target := entry("INV-2024-001", 100000, 18000)

	purchases := []models.PurchaseRecord{
		purchase(1, "INV-2024-O01", 100000, 18000), // one-character typo
		purchase(2, "PO-7781", 420000, 75600),      // unrelated
	}

	suggestions := e.FindPotentialMatches(&target, purchases)

	require.NotEmpty(t, suggestions)
	assert.Equal(t, int64(1), suggestions[0].Purchase.ID)
	assert.GreaterOrEqual(t, suggestions[0].Score, 80)
	for _, s := range suggestions {
		assert.GreaterOrEqual(t, s.Score, e.cfg.Fuzzy.MinScore)
		assert.LessOrEqual(t, s.Score, 100)
	}
}

func TestFindPotentialMatchesSubstringContainment(t *testing.T) {
	e := newTestEngine(t)

	target := entry("001", 50000, 9000)
	purchases := []models.PurchaseRecord{purchase(1, "INV-001", 50000, 9000)}

	suggestions := e.FindPotentialMatches(&target, purchases)
	require.Len(t, suggestions, 1)
	assert.GreaterOrEqual(t, suggestions[0].Invoice, 0.8,
		"containment should floor invoice similarity even when edit distance is large")
}

func TestFindPotentialMatchesDateWindow(t *testing.T) {
	e := newTestEngine(t)

	target := entry("INV-001", 100000, 18000)

	inside := purchase(1, "INV-001X", 100000, 18000)
	inside.InvoiceDate = target.InvoiceDate.AddDate(0, 0, 10)
	outside := purchase(2, "INV-001Y", 100000, 18000)
	outside.InvoiceDate = target.InvoiceDate.AddDate(0, 0, 90)

	suggestions := e.FindPotentialMatches(&target, []models.PurchaseRecord{inside, outside})
	require.Len(t, suggestions, 2)
	assert.Equal(t, int64(1), suggestions[0].Purchase.ID)
	assert.Greater(t, suggestions[0].Date, 0.0)
	assert.Equal(t, 0.0, suggestions[1].Date, "dates beyond the window contribute nothing")
}

func TestFindPotentialMatchesRespectsFloorAndCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fuzzy.MaxSuggestions = 2
	e, err := NewEngine(cfg, zap.NewNop())
	require.NoError(t, err)

	target := entry("INV-100", 100000, 18000)

	var purchases []models.PurchaseRecord
	for i := 0; i < 10; i++ {
		p := purchase(int64(i+1), fmt.Sprintf("INV-10%d", i), 100000, 18000)
		purchases = append(purchases, p)
	}

	suggestions := e.FindPotentialMatches(&target, purchases)
	assert.LessOrEqual(t, len(suggestions), 2)
}

func TestVendorAffinityTiers(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected vendorTier
	}{
		{"exact", "27AABCU9603R1ZJ", "27AABCU9603R1ZJ", vendorExact},
		{"same pan other state", "27AABCU9603R1ZJ", "29AABCU9603R1Z5", vendorSamePAN},
		{"same state other pan", "27AABCU9603R1ZJ", "27AAACR5055K1Z7", vendorSameState},
		{"unrelated", "27AABCU9603R1ZJ", "33ZZZZZ9999Z9Z9", vendorNone},
		{"empty", "", "27AABCU9603R1ZJ", vendorNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, vendorAffinity(tt.a, tt.b))
		})
	}
}

func TestValueSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, valueSimilarity(decimal.NewFromInt(100), decimal.NewFromInt(100)))
	assert.Equal(t, 1.0, valueSimilarity(decimal.Zero, decimal.Zero))
	assert.InDelta(t, 0.9, valueSimilarity(decimal.NewFromInt(90), decimal.NewFromInt(100)), 0.001)
	assert.InDelta(t, 0.0, valueSimilarity(decimal.NewFromInt(1), decimal.NewFromInt(1000)), 0.01)
	assert.Equal(t, 0.0, valueSimilarity(decimal.NewFromInt(-100), decimal.NewFromInt(100)))
}

func TestDateSimilarityBounds(t *testing.T) {
	base := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1.0, dateSimilarity(base, base, 30))
	assert.InDelta(t, 0.5, dateSimilarity(base, base.AddDate(0, 0, 15), 30), 0.001)
	assert.Equal(t, 0.0, dateSimilarity(base, base.AddDate(0, 0, 45), 30))
}
