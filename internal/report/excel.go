// Package report renders a reconciliation run into an Excel workbook for
// accountants: one summary sheet plus one sheet per classification bucket.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/taxdesk/gst-recon/internal/models"
	"github.com/taxdesk/gst-recon/internal/recon"
)

// Exporter writes reconciliation workbooks.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new report exporter.
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Export builds the workbook for one reconciliation run and returns the
// serialized .xlsx bytes.
func (ex *Exporter) Export(upload *models.StatementUpload, result *recon.Result, report models.HealthReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename summary sheet: %w", err)
	}

	ex.fillSummary(f, summarySheet, upload, result, report)

	if err := ex.fillEntrySheet(f, "Matched", result.Matched); err != nil {
		return nil, err
	}
	if err := ex.fillMismatchSheet(f, result.AmountMismatches); err != nil {
		return nil, err
	}
	if err := ex.fillEntrySheet(f, "In 2B Only", result.In2BOnly); err != nil {
		return nil, err
	}
	if err := ex.fillPurchaseSheet(f, result.NotIn2B); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	ex.logger.Info("Reconciliation report generated",
		zap.String("upload_id", upload.ID),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (ex *Exporter) fillSummary(f *excelize.File, sheet string, upload *models.StatementUpload, result *recon.Result, report models.HealthReport) {
	rows := [][]interface{}{
		{"GSTIN", upload.GSTIN},
		{"Return period", upload.Period},
		{"Statement entries", result.Summary.TotalEntries},
		{"Matched", result.Summary.Matched.Count},
		{"Amount mismatches", result.Summary.AmountMismatch.Count},
		{"In 2B only", result.Summary.In2BOnly.Count},
		{"Not in 2B", result.Summary.NotIn2B.Count},
		{"Manually resolved", result.Summary.ManuallyResolved.Count},
		{"Rejected", result.Summary.Rejected.Count},
		{"Match rate", fmt.Sprintf("%d%%", report.MatchRate)},
		{"Health", string(report.Status)},
		{"ITC at risk", report.ITCAtRisk.StringFixed(2)},
		{"Follow-up amount", report.FollowUpAmount.StringFixed(2)},
		{"Assessment", report.Summary},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		ex.setRow(f, sheet, cell, row)
	}
}

var entryHeader = []interface{}{
	"Supplier GSTIN", "Supplier Name", "Invoice No", "Invoice Date",
	"Taxable Value", "IGST", "CGST", "SGST", "Cess", "Status",
}

func (ex *Exporter) fillEntrySheet(f *excelize.File, name string, results []models.MatchResult) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	ex.setRow(f, name, "A1", entryHeader)

	for i, m := range results {
		e := m.Entry
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		ex.setRow(f, name, cell, []interface{}{
			e.SupplierGSTIN, e.SupplierName, e.InvoiceNumber,
			e.InvoiceDate.Format("02-01-2006"),
			e.TaxableValue.StringFixed(2),
			e.Tax.IGST.StringFixed(2), e.Tax.CGST.StringFixed(2),
			e.Tax.SGST.StringFixed(2), e.Tax.Cess.StringFixed(2),
			string(m.Status),
		})
	}
	return nil
}

func (ex *Exporter) fillMismatchSheet(f *excelize.File, results []models.MatchResult) error {
	const name = "Amount Mismatches"
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	ex.setRow(f, name, "A1", []interface{}{
		"Supplier GSTIN", "Invoice No", "Component",
		"Statement Amount", "Books Amount", "Delta",
	})

	row := 2
	for _, m := range results {
		for _, d := range m.Deltas {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			ex.setRow(f, name, cell, []interface{}{
				m.Entry.SupplierGSTIN, m.Entry.InvoiceNumber, d.Component,
				d.Statement.StringFixed(2), d.Purchase.StringFixed(2), d.Delta.StringFixed(2),
			})
			row++
		}
	}
	return nil
}

func (ex *Exporter) fillPurchaseSheet(f *excelize.File, results []models.MatchResult) error {
	const name = "Not In 2B"
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	ex.setRow(f, name, "A1", []interface{}{
		"Supplier GSTIN", "Supplier Name", "Invoice No", "Invoice Date",
		"Taxable Value", "Total Tax",
	})

	for i, m := range results {
		p := m.Purchase
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		ex.setRow(f, name, cell, []interface{}{
			p.SupplierGSTIN, p.SupplierName, p.InvoiceNumber,
			p.InvoiceDate.Format("02-01-2006"),
			p.TaxableValue.StringFixed(2), p.Tax.Total().StringFixed(2),
		})
	}
	return nil
}

func (ex *Exporter) setRow(f *excelize.File, sheet, cell string, values []interface{}) {
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		ex.logger.Warn("Failed to set sheet row",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}
