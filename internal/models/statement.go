package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplyType identifies which GSTR-2B section a statement entry came from.
type SupplyType string

// Supply type constants, one per GSTR-2B section.
const (
	SupplyTypeB2B     SupplyType = "B2B"     // regular taxable supplies
	SupplyTypeCDN     SupplyType = "CDN"     // credit/debit notes
	SupplyTypeAmended SupplyType = "AMENDED" // amendments to earlier periods
	SupplyTypeImport  SupplyType = "IMPORT"  // import of goods
)

// StatementEntry is a single normalized line from a GSTR-2B statement: what
// one vendor reported supplying to the taxpayer in the return period.
// Entries are immutable once parsed; a re-upload supersedes them wholesale.
type StatementEntry struct {
	ID                   int64           `json:"id"`
	UploadID             string          `json:"upload_id"`
	SupplierGSTIN        string          `json:"supplier_gstin"`
	SupplierName         string          `json:"supplier_name,omitempty"`
	InvoiceNumber        string          `json:"invoice_number"`
	InvoiceDate          time.Time       `json:"invoice_date"`
	InvoiceValue         decimal.Decimal `json:"invoice_value"`
	TaxableValue         decimal.Decimal `json:"taxable_value"`
	Tax                  TaxAmounts      `json:"tax"`
	ITCAvailable         bool            `json:"itc_available"`
	UnavailabilityReason string          `json:"unavailability_reason,omitempty"`
	SupplyType           SupplyType      `json:"supply_type"`
	Status               MatchStatus     `json:"status"`
	MatchedPurchaseID    *int64          `json:"matched_purchase_id,omitempty"`
	Confidence           int             `json:"confidence"` // 0-100, set by fuzzy/manual matching
	Notes                string          `json:"notes,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Gstr2bSummary aggregates one parsed statement. Computed by direct
// summation over the parsed entries, never re-derived elsewhere.
type Gstr2bSummary struct {
	EntryCount        int             `json:"entry_count"`
	SkippedLines      int             `json:"skipped_lines"`
	TotalTaxableValue decimal.Decimal `json:"total_taxable_value"`
	TotalTax          TaxAmounts      `json:"total_tax"`
	TotalITCAvailable decimal.Decimal `json:"total_itc_available"`
}

// StatementUpload records one uploaded GSTR-2B document for a return period.
type StatementUpload struct {
	ID         string        `json:"id"`
	GSTIN      string        `json:"gstin"`
	Period     string        `json:"period"` // MMYYYY
	EntryCount int           `json:"entry_count"`
	Summary    Gstr2bSummary `json:"summary"`
	UploadedAt time.Time     `json:"uploaded_at"`
}
