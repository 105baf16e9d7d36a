package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"stockledger/internal/core/types"
	"stockledger/internal/domain/reports"
)

const (
	sheetName    = "Stock Report"
	headerRowNum = 6
	firstDataRow = 7
	numberFormat = "#,##0.00"
)

type xlsxStyles struct {
	title, info, header, total, totalNum int
	text, num                            [2]int // plain and striped rows
}

// XLSX renders the report as a single-sheet workbook.
func XLSX(report *reports.StockInOutReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	cols := columnsFor(report.Type)
	lastCol, _ := excelize.ColumnNumberToName(len(cols))

	// Title and filter description
	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("xlsx: merge title: %w", err)
	}
	_ = f.SetCellValue(sheetName, "A1", reportTitle)
	_ = f.SetCellStyle(sheetName, "A1", lastCol+"1", st.title)
	_ = f.SetRowHeight(sheetName, 1, 24)
	for i, line := range headerLines(report, "→") {
		cell := fmt.Sprintf("A%d", i+2)
		_ = f.SetCellValue(sheetName, cell, line)
		_ = f.SetCellStyle(sheetName, cell, cell, st.info)
	}

	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRowNum)
		_ = f.SetCellValue(sheetName, cell, c.header)
		_ = f.SetCellStyle(sheetName, cell, cell, st.header)

		name, _ := excelize.ColumnNumberToName(i + 1)
		width := 14.0
		if !c.numeric() {
			width = 22
		}
		_ = f.SetColWidth(sheetName, name, name, width)
	}

	for n, r := range report.Rows {
		rowNum := firstDataRow + n
		stripe := n % 2
		for i, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
			if c.numeric() {
				_ = f.SetCellValue(sheetName, cell, types.Float(c.value(r)))
				_ = f.SetCellStyle(sheetName, cell, cell, st.num[stripe])
				continue
			}
			_ = f.SetCellValue(sheetName, cell, c.text(r))
			_ = f.SetCellStyle(sheetName, cell, cell, st.text[stripe])
		}
	}

	if err := writeTotals(f, report, cols, st); err != nil {
		return nil, err
	}

	_ = f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRowNum,
		TopLeftCell: fmt.Sprintf("A%d", firstDataRow),
		ActivePane:  "bottomLeft",
	})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}

// writeTotals appends the TOTAL row. Non-empty reports get SUM formulas so
// the sheet stays consistent when edited; empty ones get literal zeros.
func writeTotals(f *excelize.File, report *reports.StockInOutReport, cols []column, st xlsxStyles) error {
	totalRow := firstDataRow + len(report.Rows)
	lastDataRow := totalRow - 1

	first, _ := excelize.CoordinatesToCellName(1, totalRow)
	last, _ := excelize.CoordinatesToCellName(len(cols), totalRow)
	_ = f.SetCellStyle(sheetName, first, last, st.total)
	_ = f.SetCellValue(sheetName, first, "TOTAL")

	for i, c := range cols {
		if !c.summable() {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, totalRow)
		_ = f.SetCellStyle(sheetName, cell, cell, st.totalNum)
		if len(report.Rows) == 0 {
			_ = f.SetCellValue(sheetName, cell, types.Float(c.total(report.Totals)))
			continue
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		formula := fmt.Sprintf("SUM(%s%d:%s%d)", name, firstDataRow, name, lastDataRow)
		if err := f.SetCellFormula(sheetName, cell, formula); err != nil {
			return fmt.Errorf("xlsx: total formula %s: %w", cell, err)
		}
	}
	return nil
}

func newStyles(f *excelize.File) (xlsxStyles, error) {
	numFmt := numberFormat
	border := []excelize.Border{
		{Type: "left", Color: "BFBFBF", Style: 1},
		{Type: "right", Color: "BFBFBF", Style: 1},
		{Type: "top", Color: "BFBFBF", Style: 1},
		{Type: "bottom", Color: "BFBFBF", Style: 1},
	}
	stripe := excelize.Fill{Type: "pattern", Color: []string{"#F9F9F9"}, Pattern: 1}

	var st xlsxStyles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 14},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&st.info, &excelize.Style{Font: &excelize.Font{Italic: true}}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    border,
		}},
		{&st.total, &excelize.Style{Font: &excelize.Font{Bold: true}, Border: border}},
		{&st.totalNum, &excelize.Style{Font: &excelize.Font{Bold: true}, Border: border, CustomNumFmt: &numFmt}},
		{&st.text[0], &excelize.Style{Border: border}},
		{&st.text[1], &excelize.Style{Border: border, Fill: stripe}},
		{&st.num[0], &excelize.Style{Border: border, CustomNumFmt: &numFmt}},
		{&st.num[1], &excelize.Style{Border: border, Fill: stripe, CustomNumFmt: &numFmt}},
	}

	for _, d := range defs {
		idx, err := f.NewStyle(d.style)
		if err != nil {
			return st, fmt.Errorf("xlsx: style: %w", err)
		}
		*d.dst = idx
	}
	return st, nil
}
