package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRecord is one line of the taxpayer's own purchase register.
// The register is owned by the ledger system; this service treats records
// as read-only inputs to matching.
type PurchaseRecord struct {
	ID            int64           `json:"id"`
	GSTIN         string          `json:"gstin"`  // taxpayer's own GSTIN
	Period        string          `json:"period"` // MMYYYY
	SupplierGSTIN string          `json:"supplier_gstin"`
	SupplierName  string          `json:"supplier_name,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	TaxableValue  decimal.Decimal `json:"taxable_value"`
	Tax           TaxAmounts      `json:"tax"`
	CreatedAt     time.Time       `json:"created_at"`
}
