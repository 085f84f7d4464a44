package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/taxdesk/gst-recon/internal/models"
)

// EntryRepository handles statement entry database operations
type EntryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEntryRepository creates a new statement entry repository
func NewEntryRepository(db *sql.DB, logger *zap.Logger) *EntryRepository {
	return &EntryRepository{db: db, logger: logger}
}

const entryColumns = `
	id, upload_id, supplier_gstin, supplier_name, invoice_number, invoice_date,
	invoice_value, taxable_value, igst, cgst, sgst, cess,
	itc_available, unavailability_reason, supply_type, status,
	matched_purchase_id, confidence, notes, created_at
`

// CreateBatch inserts parsed entries for an upload
func (r *EntryRepository) CreateBatch(tx *sql.Tx, uploadID string, entries []models.StatementEntry) error {
	query := `
		INSERT INTO statement_entries (
			upload_id, supplier_gstin, supplier_name, invoice_number, invoice_date,
			invoice_value, taxable_value, igst, cgst, sgst, cess,
			itc_available, unavailability_reason, supply_type, status,
			matched_purchase_id, confidence, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		result, err := stmt.Exec(
			uploadID,
			e.SupplierGSTIN,
			e.SupplierName,
			e.InvoiceNumber,
			e.InvoiceDate,
			e.InvoiceValue,
			e.TaxableValue,
			e.Tax.IGST,
			e.Tax.CGST,
			e.Tax.SGST,
			e.Tax.Cess,
			e.ITCAvailable,
			e.UnavailabilityReason,
			string(e.SupplyType),
			string(e.Status),
			e.MatchedPurchaseID,
			e.Confidence,
			e.Notes,
		)
		if err != nil {
			r.logger.Error("Failed to insert statement entry",
				zap.String("invoice_number", e.InvoiceNumber), zap.Error(err))
			return fmt.Errorf("failed to insert statement entry: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		e.ID = id
		e.UploadID = uploadID
	}
	return nil
}

// GetByID retrieves a single entry; nil when absent
func (r *EntryRepository) GetByID(id int64) (*models.StatementEntry, error) {
	rows, err := r.query("WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetByUpload retrieves all entries for an upload
func (r *EntryRepository) GetByUpload(uploadID string) ([]models.StatementEntry, error) {
	return r.query("WHERE upload_id = ? ORDER BY supplier_gstin, invoice_number", uploadID)
}

// GetByUploadAndStatus retrieves entries for an upload filtered by status
func (r *EntryRepository) GetByUploadAndStatus(uploadID string, status models.MatchStatus) ([]models.StatementEntry, error) {
	return r.query("WHERE upload_id = ? AND status = ? ORDER BY supplier_gstin, invoice_number",
		uploadID, string(status))
}

// GetTerminalByUpload retrieves entries whose status was set by manual
// action; used to carry resolutions forward across a re-upload
func (r *EntryRepository) GetTerminalByUpload(uploadID string) ([]models.StatementEntry, error) {
	return r.query("WHERE upload_id = ? AND status IN (?, ?)",
		uploadID, string(models.StatusManuallyResolved), string(models.StatusRejected))
}

func (r *EntryRepository) query(where string, args ...interface{}) ([]models.StatementEntry, error) {
	rows, err := r.db.Query("SELECT "+entryColumns+" FROM statement_entries "+where, args...)
	if err != nil {
		r.logger.Error("Failed to query statement entries", zap.Error(err))
		return nil, fmt.Errorf("failed to query statement entries: %w", err)
	}
	defer rows.Close()

	var entries []models.StatementEntry
	for rows.Next() {
		var e models.StatementEntry
		var matchedPurchaseID sql.NullInt64
		var supplyType, status string

		err := rows.Scan(
			&e.ID,
			&e.UploadID,
			&e.SupplierGSTIN,
			&e.SupplierName,
			&e.InvoiceNumber,
			&e.InvoiceDate,
			&e.InvoiceValue,
			&e.TaxableValue,
			&e.Tax.IGST,
			&e.Tax.CGST,
			&e.Tax.SGST,
			&e.Tax.Cess,
			&e.ITCAvailable,
			&e.UnavailabilityReason,
			&supplyType,
			&status,
			&matchedPurchaseID,
			&e.Confidence,
			&e.Notes,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statement entry: %w", err)
		}

		e.SupplyType = models.SupplyType(supplyType)
		e.Status = models.MatchStatus(status)
		if matchedPurchaseID.Valid {
			e.MatchedPurchaseID = &matchedPurchaseID.Int64
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpdateClassification records the outcome of an automatic pass for one
// entry. Notes are untouched: automatic passes do not write audit history.
func (r *EntryRepository) UpdateClassification(tx *sql.Tx, entryID int64, status models.MatchStatus, matchedPurchaseID *int64, confidence int) error {
	query := `
		UPDATE statement_entries
		SET status = ?, matched_purchase_id = ?, confidence = ?
		WHERE id = ?
	`
	if _, err := execer(tx, r.db).Exec(query, string(status), matchedPurchaseID, confidence, entryID); err != nil {
		r.logger.Error("Failed to update entry classification",
			zap.Int64("entry_id", entryID), zap.Error(err))
		return fmt.Errorf("failed to update entry classification: %w", err)
	}
	return nil
}

// UpdateStatusWithNote sets a status by manual action, appending note to
// the entry's audit trail rather than replacing it
func (r *EntryRepository) UpdateStatusWithNote(tx *sql.Tx, entryID int64, status models.MatchStatus, matchedPurchaseID *int64, confidence int, note string) error {
	query := `
		UPDATE statement_entries
		SET status = ?, matched_purchase_id = ?, confidence = ?,
			notes = CASE WHEN notes = '' THEN ? ELSE notes || char(10) || ? END
		WHERE id = ?
	`
	if _, err := execer(tx, r.db).Exec(query,
		string(status), matchedPurchaseID, confidence, note, note, entryID); err != nil {
		r.logger.Error("Failed to update entry status",
			zap.Int64("entry_id", entryID), zap.Error(err))
		return fmt.Errorf("failed to update entry status: %w", err)
	}
	return nil
}
