package export

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorStripe  = &props.Color{Red: 249, Green: 249, Blue: 249}
)

// pdfColumn is one column of the PDF table; sizes add up to 12.
type pdfColumn struct {
	header string
	size   int
	column column
}

func pdfColumnsFor(mode ledger.Mode) []pdfColumn {
	identity := pdfColumn{"Location", 2, colLocation}
	if mode == ledger.ModeSummary {
		identity = pdfColumn{"Category", 2, colCategory}
	}
	return []pdfColumn{
		{"Product", 3, colProduct},
		identity,
		{"Initial", 1, colInitial},
		{"In", 1, colIncoming},
		{"Out", 1, colOutgoing},
		{"Ending", 2, colEnding},
		{"Valuation", 2, colValuation},
	}
}

// PDF renders the report as an A4 landscape table.
func PDF(report *reports.StockInOutReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(reportTitle, true).
		Build()

	m := maroto.New(cfg)
	cols := pdfColumnsFor(report.Type)

	m.AddRows(titleRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(pdfHeaderRow(cols))
	for i, r := range report.Rows {
		m.AddRows(pdfDataRow(cols, r, i%2 == 1))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(pdfTotalsRow(cols, report.Totals))
	if !report.GeneratedAt.IsZero() {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New(generatedAt(report.GeneratedAt), props.Text{Size: 7, Top: 3, Color: colorGray, Align: align.Right}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate document: %w", err)
	}
	return doc.GetBytes(), nil
}

func titleRow(report *reports.StockInOutReport) core.Row {
	lines := headerLines(report, "-")
	return row.New(26).Add(
		col.New(12).Add(
			text.New(reportTitle, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(lines[0], props.Text{Size: 8, Top: 9, Color: colorGray}),
			text.New(lines[1], props.Text{Size: 8, Top: 14, Color: colorGray}),
			text.New(lines[2], props.Text{Size: 8, Top: 19, Color: colorGray}),
		),
	)
}

func pdfHeaderRow(cols []pdfColumn) core.Row {
	r := row.New(8)
	for _, c := range cols {
		a := align.Left
		if c.column.numeric() {
			a = align.Right
		}
		r.Add(col.New(c.size).Add(text.New(c.header, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		})))
	}
	return r
}

func pdfDataRow(cols []pdfColumn, rr ledger.ReportRow, striped bool) core.Row {
	r := row.New(6)
	for _, c := range cols {
		if c.column.numeric() {
			r.Add(pdfNumber(c.size, c.column.value(rr), c.column.money))
			continue
		}
		r.Add(col.New(c.size).Add(text.New(c.column.text(rr), props.Text{Size: 8, Top: 1, Left: 1})))
	}
	if striped {
		r.WithStyle(&props.Cell{BackgroundColor: colorStripe})
	}
	return r
}

func pdfTotalsRow(cols []pdfColumn, totals reports.Totals) core.Row {
	r := row.New(7)
	for i, c := range cols {
		switch {
		case i == 0:
			r.Add(col.New(c.size).Add(text.New("TOTAL", props.Text{Style: fontstyle.Bold, Size: 8, Top: 1, Left: 1})))
		case c.column.summable():
			r.Add(pdfNumber(c.size, c.column.total(totals), c.column.money).
				WithStyle(&props.Cell{BorderColor: colorGray}))
		default:
			r.Add(col.New(c.size))
		}
	}
	return r
}

func pdfNumber(size int, v decimal.Decimal, money bool) core.Col {
	s := types.FormatQuantity(v)
	if money {
		s = types.FormatMoney(v)
	}
	return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}))
}

// generatedAt formats the report timestamp for the footer.
func generatedAt(t time.Time) string {
	return "Generated " + t.UTC().Format("2006-01-02 15:04 UTC")
}
