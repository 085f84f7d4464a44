// Package service orchestrates parsing, persistence, and the matching
// engine into the operations exposed to consumers: upload a statement,
// import purchases, run reconciliation, fetch suggestions, and apply
// manual resolutions.
package service

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taxdesk/gst-recon/internal/health"
	"github.com/taxdesk/gst-recon/internal/models"
	"github.com/taxdesk/gst-recon/internal/normalize"
	"github.com/taxdesk/gst-recon/internal/parser"
	"github.com/taxdesk/gst-recon/internal/recon"
	"github.com/taxdesk/gst-recon/internal/repository"
	"github.com/taxdesk/gst-recon/pkg/database"
	"github.com/taxdesk/gst-recon/pkg/utils"
)

// Config bounds service behavior.
type Config struct {
	// MaxEntriesPerUpload caps statement size defensively; zero disables
	// the cap.
	MaxEntriesPerUpload int
}

// ReconciliationService wires the parser, the engine, and the repositories.
type ReconciliationService struct {
	cfg       Config
	db        *database.DB
	parser    *parser.Parser
	engine    *recon.Engine
	uploads   *repository.UploadRepository
	entries   *repository.EntryRepository
	purchases *repository.PurchaseRepository
	logger    *zap.Logger
}

// NewReconciliationService creates the reconciliation service.
func NewReconciliationService(
	cfg Config,
	db *database.DB,
	p *parser.Parser,
	engine *recon.Engine,
	uploads *repository.UploadRepository,
	entries *repository.EntryRepository,
	purchases *repository.PurchaseRepository,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		cfg:       cfg,
		db:        db,
		parser:    p,
		engine:    engine,
		uploads:   uploads,
		entries:   entries,
		purchases: purchases,
		logger:    logger,
	}
}

// UploadStatement parses a raw GSTR-2B document and persists its entries,
// superseding any earlier upload for the same taxpayer and period.
//
// Manual resolutions survive the re-upload: prior MANUALLY_RESOLVED and
// REJECTED entries are re-keyed by (supplier GSTIN, invoice number) and
// their status, match, and notes carried onto the newly parsed entries that
// share the key. Nothing is persisted when the parse fails.
func (s *ReconciliationService) UploadStatement(raw []byte) (*models.StatementUpload, error) {
	parsed, err := s.parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if s.cfg.MaxEntriesPerUpload > 0 && len(parsed.Entries) > s.cfg.MaxEntriesPerUpload {
		return nil, fmt.Errorf("%w: %d entries, limit %d",
			ErrTooManyEntries, len(parsed.Entries), s.cfg.MaxEntriesPerUpload)
	}

	prior, err := s.uploads.GetByPeriod(parsed.GSTIN, parsed.Period)
	if err != nil {
		return nil, err
	}

	carried := map[string]models.StatementEntry{}
	if prior != nil {
		terminal, err := s.entries.GetTerminalByUpload(prior.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range terminal {
			carried[normalize.MatchKey(e.SupplierGSTIN, e.InvoiceNumber)] = e
		}
	}

	upload := &models.StatementUpload{
		ID:         uuid.NewString(),
		GSTIN:      parsed.GSTIN,
		Period:     parsed.Period,
		EntryCount: parsed.Summary.EntryCount,
		Summary:    parsed.Summary,
	}

	carriedCount := 0
	for i := range parsed.Entries {
		e := &parsed.Entries[i]
		if old, ok := carried[normalize.MatchKey(e.SupplierGSTIN, e.InvoiceNumber)]; ok {
			e.Status = old.Status
			e.MatchedPurchaseID = old.MatchedPurchaseID
			e.Confidence = old.Confidence
			e.Notes = old.Notes
			carriedCount++
		}
	}

	err = s.db.WithTransaction(func(tx *sql.Tx) error {
		if prior != nil {
			if err := s.uploads.Delete(tx, prior.ID); err != nil {
				return err
			}
		}
		if err := s.uploads.Create(tx, upload); err != nil {
			return err
		}
		return s.entries.CreateBatch(tx, upload.ID, parsed.Entries)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Statement uploaded",
		zap.String("upload_id", upload.ID),
		zap.String("gstin", upload.GSTIN),
		zap.String("period", upload.Period),
		zap.Int("entries", upload.EntryCount),
		zap.Int("carried_forward", carriedCount),
		zap.Bool("superseded_prior", prior != nil))

	return upload, nil
}

// ImportPurchases stores purchase register records for a taxpayer period.
func (s *ReconciliationService) ImportPurchases(records []models.PurchaseRecord) error {
	for i := range records {
		records[i].SupplierGSTIN = normalize.GSTIN(records[i].SupplierGSTIN)
		records[i].GSTIN = normalize.GSTIN(records[i].GSTIN)
	}
	return s.db.WithTransaction(func(tx *sql.Tx) error {
		return s.purchases.CreateBatch(tx, records)
	})
}

// RunReconciliation executes the deterministic pass for an upload and
// persists the resulting classifications. Entries in a terminal status keep
// it; re-running over unchanged inputs reproduces the same outcome.
func (s *ReconciliationService) RunReconciliation(uploadID string) (*recon.Result, error) {
	upload, entries, purchases, err := s.loadRun(uploadID)
	if err != nil {
		return nil, err
	}

	result := s.engine.Reconcile(purchases, entries)

	err = s.db.WithTransaction(func(tx *sql.Tx) error {
		for _, bucket := range [][]models.MatchResult{
			result.Matched, result.AmountMismatches, result.In2BOnly,
		} {
			for _, m := range bucket {
				var purchaseID *int64
				if m.Purchase != nil {
					purchaseID = &m.Purchase.ID
				}
				if err := s.entries.UpdateClassification(tx, m.Entry.ID, m.Status, purchaseID, m.Confidence); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reconciliation persisted",
		zap.String("upload_id", upload.ID),
		zap.Int("matched", len(result.Matched)),
		zap.Int("amount_mismatches", len(result.AmountMismatches)),
		zap.Int("in_2b_only", len(result.In2BOnly)),
		zap.Int("not_in_2b", len(result.NotIn2B)))

	return result, nil
}

// Summary recomputes the reconciliation summary and health report for an
// upload from current state.
func (s *ReconciliationService) Summary(uploadID string) (*models.ReconciliationSummary, *models.HealthReport, error) {
	_, entries, purchases, err := s.loadRun(uploadID)
	if err != nil {
		return nil, nil, err
	}
	result := s.engine.Reconcile(purchases, entries)
	report := health.Calculate(result.Summary)
	return &result.Summary, &report, nil
}

// EntriesByStatus lists an upload's entries filtered by match status.
func (s *ReconciliationService) EntriesByStatus(uploadID string, status models.MatchStatus) ([]models.StatementEntry, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	if upload, err := s.uploads.GetByID(uploadID); err != nil {
		return nil, err
	} else if upload == nil {
		return nil, ErrUploadNotFound
	}
	return s.entries.GetByUploadAndStatus(uploadID, status)
}

// Upload returns upload metadata and its parse summary.
func (s *ReconciliationService) Upload(uploadID string) (*models.StatementUpload, error) {
	upload, err := s.uploads.GetByID(uploadID)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, ErrUploadNotFound
	}
	return upload, nil
}

// Suggestions returns fuzzy match candidates for one statement entry.
// Suggestions are advisory; nothing changes until a manual match confirms
// one.
func (s *ReconciliationService) Suggestions(entryID int64) ([]recon.Suggestion, error) {
	entry, err := s.entries.GetByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	upload, err := s.uploads.GetByID(entry.UploadID)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, ErrUploadNotFound
	}
	purchases, err := s.purchases.GetByPeriod(upload.GSTIN, upload.Period)
	if err != nil {
		return nil, err
	}
	return s.engine.FindPotentialMatches(entry, purchases), nil
}

// ManualMatch pairs an entry with a purchase record by explicit human
// action: status MANUALLY_RESOLVED, confidence pinned to 100. Fails without
// state change when either reference does not exist.
func (s *ReconciliationService) ManualMatch(entryID, purchaseID int64, note string) error {
	entry, err := s.entries.GetByID(entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrEntryNotFound
	}
	purchase, err := s.purchases.GetByID(purchaseID)
	if err != nil {
		return err
	}
	if purchase == nil {
		return ErrPurchaseNotFound
	}

	if note == "" {
		note = fmt.Sprintf("manually matched to purchase %d (%s)", purchase.ID, purchase.InvoiceNumber)
	}
	note = utils.SanitizeString(note)
	err = s.db.WithTransaction(func(tx *sql.Tx) error {
		return s.entries.UpdateStatusWithNote(tx, entryID, models.StatusManuallyResolved, &purchaseID, 100, note)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Manual match applied",
		zap.Int64("entry_id", entryID),
		zap.Int64("purchase_id", purchaseID))
	return nil
}

// UpdateStatus applies an administrative status override, appending the
// note to the entry's audit trail.
func (s *ReconciliationService) UpdateStatus(entryID int64, status models.MatchStatus, note string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	entry, err := s.entries.GetByID(entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrEntryNotFound
	}

	if note == "" {
		note = fmt.Sprintf("status set to %s", status)
	}
	note = utils.SanitizeString(note)
	err = s.db.WithTransaction(func(tx *sql.Tx) error {
		return s.entries.UpdateStatusWithNote(tx, entryID, status, entry.MatchedPurchaseID, entry.Confidence, note)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Entry status updated",
		zap.Int64("entry_id", entryID),
		zap.String("status", string(status)))
	return nil
}

// loadRun fetches everything one reconciliation pass needs.
func (s *ReconciliationService) loadRun(uploadID string) (*models.StatementUpload, []models.StatementEntry, []models.PurchaseRecord, error) {
	upload, err := s.uploads.GetByID(uploadID)
	if err != nil {
		return nil, nil, nil, err
	}
	if upload == nil {
		return nil, nil, nil, ErrUploadNotFound
	}
	entries, err := s.entries.GetByUpload(uploadID)
	if err != nil {
		return nil, nil, nil, err
	}
	purchases, err := s.purchases.GetByPeriod(upload.GSTIN, upload.Period)
	if err != nil {
		return nil, nil, nil, err
	}
	return upload, entries, purchases, nil
}
