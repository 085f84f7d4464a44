// Package parser turns a raw GSTR-2B JSON document into normalized
// statement entries plus an aggregate summary. Document-level shape problems
// fail the whole parse; individual malformed lines are skipped and counted,
// so a partially damaged statement still yields its valid entries.
package parser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/taxdesk/gst-recon/internal/models"
	"github.com/taxdesk/gst-recon/internal/normalize"
	"github.com/taxdesk/gst-recon/pkg/utils"
)

// gstr2bDocument is the top-level shape of an uploaded statement.
type gstr2bDocument struct {
	GSTIN  string     `json:"gstin"`
	Period string     `json:"rtnprd"`
	Data   gstr2bData `json:"data"`
}

// gstr2bData holds one list per supply-type section.
type gstr2bData struct {
	B2B  []supplierGroup `json:"b2b"`
	B2BA []supplierGroup `json:"b2ba"`
	CDNR []noteGroup     `json:"cdnr"`
	IMPG []importLine    `json:"impg"`
}

// supplierGroup is the b2b/b2ba section shape: invoices grouped by supplier.
type supplierGroup struct {
	CTIN      string        `json:"ctin"`
	TradeName string        `json:"trdnm"`
	Invoices  []invoiceLine `json:"inv"`
}

// noteGroup is the cdnr section shape: credit/debit notes grouped by supplier.
type noteGroup struct {
	CTIN      string     `json:"ctin"`
	TradeName string     `json:"trdnm"`
	Notes     []noteLine `json:"nt"`
}

type invoiceLine struct {
	Number       string          `json:"inum"`
	Date         string          `json:"dt"`
	Value        decimal.Decimal `json:"val"`
	TaxableValue decimal.Decimal `json:"txval"`
	IGST         decimal.Decimal `json:"igst"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	Cess         decimal.Decimal `json:"cess"`
	ITCAvail     string          `json:"itcavl"`
	Reason       string          `json:"rsn"`
}

type noteLine struct {
	Number       string          `json:"ntnum"`
	Date         string          `json:"dt"`
	Value        decimal.Decimal `json:"val"`
	TaxableValue decimal.Decimal `json:"txval"`
	IGST         decimal.Decimal `json:"igst"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	Cess         decimal.Decimal `json:"cess"`
	ITCAvail     string          `json:"itcavl"`
	Reason       string          `json:"rsn"`
}

// importLine is the impg section shape: bills of entry, no supplier GSTIN.
type importLine struct {
	BOENumber    string          `json:"boenum"`
	BOEDate      string          `json:"boedt"`
	PortCode     string          `json:"portcode"`
	TaxableValue decimal.Decimal `json:"txval"`
	IGST         decimal.Decimal `json:"igst"`
	Cess         decimal.Decimal `json:"cess"`
	ITCAvail     string          `json:"itcavl"`
}

// ParseResult carries the outcome of one statement parse.
type ParseResult struct {
	GSTIN   string
	Period  string
	Entries []models.StatementEntry
	Summary models.Gstr2bSummary
}

// Parser parses GSTR-2B statement documents.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a new statement parser.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse validates the document's top-level shape and normalizes every
// section into a flat entry list. A malformed top level returns an error
// with no entries; malformed individual lines are skipped and counted in
// Summary.SkippedLines.
func (p *Parser) Parse(raw []byte) (*ParseResult, error) {
	var doc gstr2bDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode statement document: %w", err)
	}

	doc.GSTIN = normalize.GSTIN(doc.GSTIN)
	if err := utils.ValidateGSTIN(doc.GSTIN); err != nil {
		return nil, fmt.Errorf("invalid statement document: %w", err)
	}
	if err := utils.ValidatePeriod(doc.Period); err != nil {
		return nil, fmt.Errorf("invalid statement document: %w", err)
	}

	result := &ParseResult{GSTIN: doc.GSTIN, Period: doc.Period}

	for _, g := range doc.Data.B2B {
		p.appendInvoices(result, g, models.SupplyTypeB2B)
	}
	for _, g := range doc.Data.B2BA {
		p.appendInvoices(result, g, models.SupplyTypeAmended)
	}
	for _, g := range doc.Data.CDNR {
		for _, nt := range g.Notes {
			line := invoiceLine(nt)
			p.appendLine(result, g.CTIN, g.TradeName, line, models.SupplyTypeCDN)
		}
	}
	for _, imp := range doc.Data.IMPG {
		line := invoiceLine{
			Number:       imp.BOENumber,
			Date:         imp.BOEDate,
			Value:        imp.TaxableValue.Add(imp.IGST).Add(imp.Cess),
			TaxableValue: imp.TaxableValue,
			IGST:         imp.IGST,
			Cess:         imp.Cess,
			ITCAvail:     imp.ITCAvail,
		}
		p.appendLine(result, "", "", line, models.SupplyTypeImport)
	}

	result.Summary.EntryCount = len(result.Entries)
	p.logger.Info("Statement parsed",
		zap.String("gstin", doc.GSTIN),
		zap.String("period", doc.Period),
		zap.Int("entries", result.Summary.EntryCount),
		zap.Int("skipped", result.Summary.SkippedLines))

	return result, nil
}

func (p *Parser) appendInvoices(result *ParseResult, g supplierGroup, st models.SupplyType) {
	for _, inv := range g.Invoices {
		p.appendLine(result, g.CTIN, g.TradeName, inv, st)
	}
}

// appendLine normalizes a single section line into a StatementEntry, or
// skips it when the line cannot form a usable match key.
func (p *Parser) appendLine(result *ParseResult, ctin, tradeName string, line invoiceLine, st models.SupplyType) {
	skip := func(reason string) {
		result.Summary.SkippedLines++
		p.logger.Warn("Skipping malformed statement line",
			zap.String("supplier", ctin),
			zap.String("invoice", line.Number),
			zap.String("supply_type", string(st)),
			zap.String("reason", reason))
	}

	if normalize.InvoiceNumber(line.Number) == "" {
		skip("missing invoice number")
		return
	}
	date, err := parseDate(line.Date)
	if err != nil {
		skip("unparseable invoice date")
		return
	}
	if line.IGST.IsPositive() && (line.CGST.IsPositive() || line.SGST.IsPositive()) {
		skip("IGST and CGST/SGST are mutually exclusive")
		return
	}

	tax := models.TaxAmounts{IGST: line.IGST, CGST: line.CGST, SGST: line.SGST, Cess: line.Cess}
	available := line.ITCAvail != "N"

	entry := models.StatementEntry{
		SupplierGSTIN:        normalize.GSTIN(ctin),
		SupplierName:         tradeName,
		InvoiceNumber:        line.Number,
		InvoiceDate:          date,
		InvoiceValue:         line.Value,
		TaxableValue:         line.TaxableValue,
		Tax:                  tax,
		ITCAvailable:         available,
		UnavailabilityReason: line.Reason,
		SupplyType:           st,
		Status:               models.StatusPending,
	}
	result.Entries = append(result.Entries, entry)

	result.Summary.TotalTaxableValue = result.Summary.TotalTaxableValue.Add(line.TaxableValue)
	result.Summary.TotalTax = result.Summary.TotalTax.Add(tax)
	if available {
		result.Summary.TotalITCAvailable = result.Summary.TotalITCAvailable.Add(tax.Total())
	}
}

// Invoice dates arrive in either of two delimited numeric formats.
var dateLayouts = []string{"02-01-2006", "02/01/2006"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}
