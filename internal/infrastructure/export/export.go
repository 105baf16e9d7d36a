// Package export renders stock reports as downloadable documents.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat validates a format name. Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", apperror.NewInvalidInput("format", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName returns the download file name.
func (f Format) FileName() string {
	return "stock_report." + string(f)
}

// Render renders the report in the given format.
func Render(format Format, report *reports.StockInOutReport) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return XLSX(report)
	case FormatPDF:
		return PDF(report)
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

const reportTitle = "Stock Movement Balance Report"

// column describes one exported report column.
type column struct {
	header string
	text   func(r ledger.ReportRow) string
	value  func(r ledger.ReportRow) decimal.Decimal
	total  func(t reports.Totals) decimal.Decimal
	money  bool
}

func (c column) numeric() bool { return c.value != nil }

// summable reports whether the column gets a TOTAL cell. Unit cost does not.
func (c column) summable() bool { return c.total != nil }

func textColumn(header string, fn func(r ledger.ReportRow) string) column {
	return column{header: header, text: fn}
}

func numColumn(header string, fn func(r ledger.ReportRow) decimal.Decimal, total func(t reports.Totals) decimal.Decimal) column {
	return column{header: header, value: fn, total: total}
}

func moneyColumn(header string, fn func(r ledger.ReportRow) decimal.Decimal, total func(t reports.Totals) decimal.Decimal) column {
	return column{header: header, value: fn, total: total, money: true}
}

var (
	colProduct  = textColumn("Product", func(r ledger.ReportRow) string { return r.ProductName })
	colCategory = textColumn("Category", func(r ledger.ReportRow) string { return r.CategoryName })
	colLocation = textColumn("Location", func(r ledger.ReportRow) string { return r.LocationName })
	colUoM      = textColumn("UoM", func(r ledger.ReportRow) string { return r.UoM })

	colInitial = numColumn("Initial Balance",
		func(r ledger.ReportRow) decimal.Decimal { return r.Initial },
		func(t reports.Totals) decimal.Decimal { return t.Initial })
	colPurchased = numColumn("Purchased",
		func(r ledger.ReportRow) decimal.Decimal { return r.Purchased },
		func(t reports.Totals) decimal.Decimal { return t.Purchased })
	colCustomerReturns = numColumn("Customer Returns",
		func(r ledger.ReportRow) decimal.Decimal { return r.ReturnFromCustomer },
		func(t reports.Totals) decimal.Decimal { return t.ReturnFromCustomer })
	colGain = numColumn("Adjustments (Gain)",
		func(r ledger.ReportRow) decimal.Decimal { return r.Gain },
		func(t reports.Totals) decimal.Decimal { return t.Gain })
	colSold = numColumn("Sold Qty",
		func(r ledger.ReportRow) decimal.Decimal { return r.Sold },
		func(t reports.Totals) decimal.Decimal { return t.Sold })
	colSupplierReturns = numColumn("Supplier Returns",
		func(r ledger.ReportRow) decimal.Decimal { return r.ReturnToSupplier },
		func(t reports.Totals) decimal.Decimal { return t.ReturnToSupplier })
	colLoss = numColumn("Adjustments (Loss)",
		func(r ledger.ReportRow) decimal.Decimal { return r.Loss },
		func(t reports.Totals) decimal.Decimal { return t.Loss })
	colIncoming = numColumn("Total Incoming",
		func(r ledger.ReportRow) decimal.Decimal { return r.NetIncoming },
		func(t reports.Totals) decimal.Decimal { return t.NetIncoming })
	colOutgoing = numColumn("Total Outgoing",
		func(r ledger.ReportRow) decimal.Decimal { return r.NetOutgoing },
		func(t reports.Totals) decimal.Decimal { return t.NetOutgoing })
	colEnding = numColumn("Ending Balance",
		func(r ledger.ReportRow) decimal.Decimal { return r.Ending },
		func(t reports.Totals) decimal.Decimal { return t.Ending })
	colForecast = numColumn("Forecast Qty",
		func(r ledger.ReportRow) decimal.Decimal { return r.Ending },
		func(t reports.Totals) decimal.Decimal { return t.Ending })
	colUnitCost = moneyColumn("Unit Cost",
		func(r ledger.ReportRow) decimal.Decimal { return r.UnitCost },
		nil)
	colValuation = moneyColumn("Valuation",
		func(r ledger.ReportRow) decimal.Decimal { return r.Valuation },
		func(t reports.Totals) decimal.Decimal { return t.Valuation })
)

var detailedColumns = []column{
	colProduct, colCategory, colLocation, colUoM,
	colInitial, colPurchased, colCustomerReturns, colGain,
	colSold, colSupplierReturns, colLoss,
	colIncoming, colOutgoing, colEnding, colUnitCost, colValuation,
}

var summaryColumns = []column{
	colProduct, colCategory, colUoM,
	colInitial, colIncoming, colOutgoing, colForecast, colUnitCost, colValuation,
}

func columnsFor(mode ledger.Mode) []column {
	if mode == ledger.ModeSummary {
		return summaryColumns
	}
	return detailedColumns
}

// headerLines returns the descriptive lines printed above the table.
func headerLines(report *reports.StockInOutReport, arrow string) []string {
	period := fmt.Sprintf("Period: %s %s %s",
		report.DateStart.Format(time.DateOnly), arrow, report.DateEnd.Format(time.DateOnly))

	locations := "Locations: All"
	if len(report.Description.Locations) > 0 {
		locations = "Locations: " + strings.Join(report.Description.Locations, ", ")
	}

	scope := "Products/Categories: All"
	switch {
	case len(report.Description.Products) > 0:
		scope = "Products: " + strings.Join(report.Description.Products, ", ")
	case len(report.Description.Categories) > 0:
		scope = "Categories: " + strings.Join(report.Description.Categories, ", ")
	}

	return []string{period, locations, scope}
}
