package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taxdesk/gst-recon/internal/models"
	"github.com/taxdesk/gst-recon/internal/parser"
	"github.com/taxdesk/gst-recon/internal/recon"
	"github.com/taxdesk/gst-recon/internal/repository"
	"github.com/taxdesk/gst-recon/pkg/database"
)

const (
	taxpayerGSTIN = "27AABCU9603R1ZJ"
	supplierGSTIN = "29AAACR5055K1Z5"
	period        = "042024"
)

const statementDoc = `{
	"gstin": "27AABCU9603R1ZJ",
	"rtnprd": "042024",
	"data": {
		"b2b": [
			{
				"ctin": "29AAACR5055K1Z5",
				"trdnm": "Reliable Traders",
				"inv": [
					{"inum": "INV-001", "dt": "15-04-2024", "val": 118000, "txval": 100000, "igst": 18000, "itcavl": "Y"},
					{"inum": "INV-002", "dt": "18-04-2024", "val": 59000, "txval": 50000, "igst": 9000, "itcavl": "Y"},
					{"inum": "INV-003", "dt": "22-04-2024", "val": 11800, "txval": 10000, "igst": 1800, "itcavl": "Y"}
				]
			}
		]
	}
}`

// newTestService wires the full stack against an in-memory sqlite database.
// A single connection keeps the database alive for the test's duration.
func newTestService(t *testing.T, maxEntries int) *ReconciliationService {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run("../../migrations"))

	engine, err := recon.NewEngine(recon.DefaultConfig(), logger)
	require.NoError(t, err)

	return NewReconciliationService(
		Config{MaxEntriesPerUpload: maxEntries},
		db,
		parser.NewParser(logger),
		engine,
		repository.NewUploadRepository(db.DB, logger),
		repository.NewEntryRepository(db.DB, logger),
		repository.NewPurchaseRepository(db.DB, logger),
		logger,
	)
}

func testPurchases() []models.PurchaseRecord {
	date := func(day int) time.Time {
		return time.Date(2024, time.April, day, 0, 0, 0, 0, time.UTC)
	}
	return []models.PurchaseRecord{
		{
			GSTIN: taxpayerGSTIN, Period: period,
			SupplierGSTIN: supplierGSTIN, SupplierName: "Reliable Traders",
			InvoiceNumber: "INV/001", InvoiceDate: date(15),
			TaxableValue: decimal.NewFromInt(100000),
			Tax:          models.TaxAmounts{IGST: decimal.NewFromInt(18000)},
		},
		{
			GSTIN: taxpayerGSTIN, Period: period,
			SupplierGSTIN: supplierGSTIN, SupplierName: "Reliable Traders",
			InvoiceNumber: "INV-002", InvoiceDate: date(18),
			TaxableValue: decimal.NewFromInt(50000),
			Tax:          models.TaxAmounts{IGST: decimal.NewFromInt(8500)},
		},
		{
			GSTIN: taxpayerGSTIN, Period: period,
			SupplierGSTIN: supplierGSTIN, SupplierName: "Reliable Traders",
			InvoiceNumber: "INV-777", InvoiceDate: date(25),
			TaxableValue: decimal.NewFromInt(20000),
			Tax:          models.TaxAmounts{IGST: decimal.NewFromInt(3600)},
		},
	}
}

func TestUploadAndReconcileFlow(t *testing.T) {
	svc := newTestService(t, 0)

	purchases := testPurchases()
	require.NoError(t, svc.ImportPurchases(purchases))
	assert.NotZero(t, purchases[0].ID, "import should assign record identifiers")

	upload, err := svc.UploadStatement([]byte(statementDoc))
	require.NoError(t, err)
	assert.Equal(t, taxpayerGSTIN, upload.GSTIN)
	assert.Equal(t, period, upload.Period)
	assert.Equal(t, 3, upload.EntryCount)

	result, err := svc.RunReconciliation(upload.ID)
	require.NoError(t, err)

	// INV-001 matches INV/001 after normalization, INV-002 differs by 500
	// in IGST, INV-003 has no ledger entry, and INV-777 never filed.
	require.Len(t, result.Matched, 1)
	require.Len(t, result.AmountMismatches, 1)
	require.Len(t, result.In2BOnly, 1)
	require.Len(t, result.NotIn2B, 1)

	matched, err := svc.EntriesByStatus(upload.ID, models.StatusMatched)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "INV-001", matched[0].InvoiceNumber)
	assert.Equal(t, 100, matched[0].Confidence)
	require.NotNil(t, matched[0].MatchedPurchaseID)
	assert.Equal(t, purchases[0].ID, *matched[0].MatchedPurchaseID)

	mismatched, err := svc.EntriesByStatus(upload.ID, models.StatusAmountMismatch)
	require.NoError(t, err)
	require.Len(t, mismatched, 1)
	assert.Equal(t, "INV-002", mismatched[0].InvoiceNumber)

	summary, healthReport, err := svc.Summary(upload.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalEntries)
	assert.Equal(t, 1, summary.Matched.Count)
	// Mismatched and missing lines put their full tax amount at risk.
	assert.True(t, healthReport.ITCAtRisk.Equal(decimal.NewFromInt(12600)),
		"ITC at risk should be 9000 (mismatch) + 3600 (not filed), got %s", healthReport.ITCAtRisk)
}

func TestReconcileIsIdempotent(t *testing.T) {
	svc := newTestService(t, 0)
	require.NoError(t, svc.ImportPurchases(testPurchases()))

	upload, err := svc.UploadStatement([]byte(statementDoc))
	require.NoError(t, err)

	first, err := svc.RunReconciliation(upload.ID)
	require.NoError(t, err)
	second, err := svc.RunReconciliation(upload.ID)
	require.NoError(t, err)

	assert.Equal(t, len(first.Matched), len(second.Matched))
	assert.Equal(t, len(first.AmountMismatches), len(second.AmountMismatches))
	assert.Equal(t, len(first.In2BOnly), len(second.In2BOnly))
	assert.Equal(t, len(first.NotIn2B), len(second.NotIn2B))
}

func TestManualMatchAndCarryForward(t *testing.T) {
	svc := newTestService(t, 0)

	purchases := testPurchases()
	require.NoError(t, svc.ImportPurchases(purchases))

	upload, err := svc.UploadStatement([]byte(statementDoc))
	require.NoError(t, err)
	_, err = svc.RunReconciliation(upload.ID)
	require.NoError(t, err)

	in2bOnly, err := svc.EntriesByStatus(upload.ID, models.StatusIn2BOnly)
	require.NoError(t, err)
	require.Len(t, in2bOnly, 1)

	require.NoError(t, svc.ManualMatch(in2bOnly[0].ID, purchases[2].ID, "confirmed with vendor"))

	resolved, err := svc.EntriesByStatus(upload.ID, models.StatusManuallyResolved)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, 100, resolved[0].Confidence)
	assert.Contains(t, resolved[0].Notes, "confirmed with vendor")

	// Re-uploading the same period supersedes the upload but keeps the
	// manual resolution on the matching entry.
	reupload, err := svc.UploadStatement([]byte(statementDoc))
	require.NoError(t, err)
	assert.NotEqual(t, upload.ID, reupload.ID)

	_, err = svc.Upload(upload.ID)
	assert.ErrorIs(t, err, ErrUploadNotFound)

	carried, err := svc.EntriesByStatus(reupload.ID, models.StatusManuallyResolved)
	require.NoError(t, err)
	require.Len(t, carried, 1)
	assert.Equal(t, "INV-003", carried[0].InvoiceNumber)
	assert.Contains(t, carried[0].Notes, "confirmed with vendor")
	require.NotNil(t, carried[0].MatchedPurchaseID)
	assert.Equal(t, purchases[2].ID, *carried[0].MatchedPurchaseID)

	// A fresh pass must not reopen the carried resolution.
	result, err := svc.RunReconciliation(reupload.ID)
	require.NoError(t, err)
	require.Len(t, result.Locked, 1)
	assert.Equal(t, models.StatusManuallyResolved, result.Locked[0].Status)

	after, err := svc.EntriesByStatus(reupload.ID, models.StatusManuallyResolved)
	require.NoError(t, err)
	assert.Len(t, after, 1)
}

func TestRejectEntryStopsAutoReclassification(t *testing.T) {
	svc := newTestService(t, 0)
	require.NoError(t, svc.ImportPurchases(testPurchases()))

	upload, err := svc.UploadStatement([]byte(statementDoc))
	require.NoError(t, err)
	_, err = svc.RunReconciliation(upload.ID)
	require.NoError(t, err)

	mismatched, err := svc.EntriesByStatus(upload.ID, models.StatusAmountMismatch)
	require.NoError(t, err)
	require.Len(t, mismatched, 1)

	require.NoError(t, svc.UpdateStatus(mismatched[0].ID, models.StatusRejected, "duplicate claim"))

	_, err = svc.RunReconciliation(upload.ID)
	require.NoError(t, err)

	rejected, err := svc.EntriesByStatus(upload.ID, models.StatusRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "INV-002", rejected[0].InvoiceNumber)
}

func TestSuggestionsForUnmatchedEntry(t *testing.T) {
	svc := newTestService(t, 0)

	purchases := testPurchases()
	require.NoError(t, svc.ImportPurchases(purchases))

	upload, err := svc.UploadStatement([]byte(statementDoc))
	require.NoError(t, err)
	_, err = svc.RunReconciliation(upload.ID)
	require.NoError(t, err)

	in2bOnly, err := svc.EntriesByStatus(upload.ID, models.StatusIn2BOnly)
	require.NoError(t, err)
	require.Len(t, in2bOnly, 1)

	suggestions, err := svc.Suggestions(in2bOnly[0].ID)
	require.NoError(t, err)
	for _, s := range suggestions {
		assert.GreaterOrEqual(t, s.Score, 40)
	}
}

func TestUploadRejectsInvalidDocument(t *testing.T) {
	svc := newTestService(t, 0)

	_, err := svc.UploadStatement([]byte(`{"gstin": "BAD", "rtnprd": "042024", "data": {}}`))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = svc.Upload("never-created")
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestUploadEnforcesEntryCap(t *testing.T) {
	svc := newTestService(t, 2)

	_, err := svc.UploadStatement([]byte(statementDoc))
	assert.ErrorIs(t, err, ErrTooManyEntries)
}

func TestNotFoundAndInvalidStatusErrors(t *testing.T) {
	svc := newTestService(t, 0)

	err := svc.ManualMatch(999, 1, "")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = svc.Suggestions(999)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	err = svc.UpdateStatus(1, models.MatchStatus("SETTLED"), "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.EntriesByStatus("missing-upload", models.StatusMatched)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}
