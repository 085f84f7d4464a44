package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/taxdesk/gst-recon/internal/models"
)

// PurchaseRepository handles purchase register database operations.
// Records are written once by the ledger import and read-only afterwards.
type PurchaseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(db *sql.DB, logger *zap.Logger) *PurchaseRepository {
	return &PurchaseRepository{db: db, logger: logger}
}

// CreateBatch inserts purchase records from a ledger import
func (r *PurchaseRepository) CreateBatch(tx *sql.Tx, records []models.PurchaseRecord) error {
	query := `
		INSERT INTO purchase_records (
			gstin, period, supplier_gstin, supplier_name, invoice_number,
			invoice_date, taxable_value, igst, cgst, sgst, cess
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare purchase insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		p := &records[i]
		result, err := stmt.Exec(
			p.GSTIN,
			p.Period,
			p.SupplierGSTIN,
			p.SupplierName,
			p.InvoiceNumber,
			p.InvoiceDate,
			p.TaxableValue,
			p.Tax.IGST,
			p.Tax.CGST,
			p.Tax.SGST,
			p.Tax.Cess,
		)
		if err != nil {
			r.logger.Error("Failed to insert purchase record",
				zap.String("invoice_number", p.InvoiceNumber), zap.Error(err))
			return fmt.Errorf("failed to insert purchase record: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		p.ID = id
	}
	return nil
}

// GetByID retrieves a single purchase record; nil when absent
func (r *PurchaseRepository) GetByID(id int64) (*models.PurchaseRecord, error) {
	records, err := r.query("WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// GetByPeriod retrieves all purchase records for a taxpayer and period
func (r *PurchaseRepository) GetByPeriod(gstin, period string) ([]models.PurchaseRecord, error) {
	return r.query("WHERE gstin = ? AND period = ? ORDER BY supplier_gstin, invoice_number", gstin, period)
}

func (r *PurchaseRepository) query(where string, args ...interface{}) ([]models.PurchaseRecord, error) {
	query := `
		SELECT id, gstin, period, supplier_gstin, supplier_name, invoice_number,
			invoice_date, taxable_value, igst, cgst, sgst, cess, created_at
		FROM purchase_records ` + where

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to query purchase records", zap.Error(err))
		return nil, fmt.Errorf("failed to query purchase records: %w", err)
	}
	defer rows.Close()

	var records []models.PurchaseRecord
	for rows.Next() {
		var p models.PurchaseRecord
		err := rows.Scan(
			&p.ID,
			&p.GSTIN,
			&p.Period,
			&p.SupplierGSTIN,
			&p.SupplierName,
			&p.InvoiceNumber,
			&p.InvoiceDate,
			&p.TaxableValue,
			&p.Tax.IGST,
			&p.Tax.CGST,
			&p.Tax.SGST,
			&p.Tax.Cess,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase record: %w", err)
		}
		records = append(records, p)
	}
	return records, rows.Err()
}
