package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/taxdesk/gst-recon/internal/models"
)

// UploadRepository handles statement upload database operations
type UploadRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUploadRepository creates a new upload repository
func NewUploadRepository(db *sql.DB, logger *zap.Logger) *UploadRepository {
	return &UploadRepository{db: db, logger: logger}
}

// Create inserts a new statement upload record
func (r *UploadRepository) Create(tx *sql.Tx, upload *models.StatementUpload) error {
	query := `
		INSERT INTO statement_uploads (
			id, gstin, period, entry_count, skipped_lines,
			total_taxable_value, total_igst, total_cgst, total_sgst, total_cess,
			total_itc_available
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := execer(tx, r.db).Exec(query,
		upload.ID,
		upload.GSTIN,
		upload.Period,
		upload.Summary.EntryCount,
		upload.Summary.SkippedLines,
		upload.Summary.TotalTaxableValue,
		upload.Summary.TotalTax.IGST,
		upload.Summary.TotalTax.CGST,
		upload.Summary.TotalTax.SGST,
		upload.Summary.TotalTax.Cess,
		upload.Summary.TotalITCAvailable,
	)
	if err != nil {
		r.logger.Error("Failed to create statement upload", zap.Error(err))
		return fmt.Errorf("failed to create statement upload: %w", err)
	}
	return nil
}

// GetByID retrieves an upload by its identifier; nil when absent
func (r *UploadRepository) GetByID(id string) (*models.StatementUpload, error) {
	return r.getOne("id = ?", id)
}

// GetByPeriod retrieves the current upload for a taxpayer and return
// period; nil when the period has never been uploaded
func (r *UploadRepository) GetByPeriod(gstin, period string) (*models.StatementUpload, error) {
	return r.getOne("gstin = ? AND period = ?", gstin, period)
}

func (r *UploadRepository) getOne(where string, args ...interface{}) (*models.StatementUpload, error) {
	query := `
		SELECT id, gstin, period, entry_count, skipped_lines,
			total_taxable_value, total_igst, total_cgst, total_sgst, total_cess,
			total_itc_available, uploaded_at
		FROM statement_uploads
		WHERE ` + where + `
		LIMIT 1
	`

	var u models.StatementUpload
	err := r.db.QueryRow(query, args...).Scan(
		&u.ID,
		&u.GSTIN,
		&u.Period,
		&u.Summary.EntryCount,
		&u.Summary.SkippedLines,
		&u.Summary.TotalTaxableValue,
		&u.Summary.TotalTax.IGST,
		&u.Summary.TotalTax.CGST,
		&u.Summary.TotalTax.SGST,
		&u.Summary.TotalTax.Cess,
		&u.Summary.TotalITCAvailable,
		&u.UploadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get statement upload", zap.Error(err))
		return nil, fmt.Errorf("failed to get statement upload: %w", err)
	}
	u.EntryCount = u.Summary.EntryCount
	return &u, nil
}

// Delete removes an upload row; its entries cascade at the schema level
func (r *UploadRepository) Delete(tx *sql.Tx, id string) error {
	if _, err := execer(tx, r.db).Exec("DELETE FROM statement_uploads WHERE id = ?", id); err != nil {
		r.logger.Error("Failed to delete statement upload", zap.String("upload_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete statement upload: %w", err)
	}
	return nil
}

// dbExecer abstracts over *sql.Tx and *sql.DB so writes can run inside or
// outside a transaction.
type dbExecer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func execer(tx *sql.Tx, db *sql.DB) dbExecer {
	if tx != nil {
		return tx
	}
	return db
}
