package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/journal"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
)

// --- Stock In/Out Report ---

// StockInOutRequest represents query parameters of the stock in/out report.
type StockInOutRequest struct {
	DateStart   string   `form:"dateStart" binding:"required"`
	DateEnd     string   `form:"dateEnd" binding:"required"`
	LocationIDs []string `form:"locationId"`
	CategoryIDs []string `form:"categoryId"`
	ProductIDs  []string `form:"productId"`
	State       string   `form:"state"`
	Type        string   `form:"type"`
}

// ToFilter converts the request into a domain filter.
func (r StockInOutRequest) ToFilter() (reports.StockInOutFilter, error) {
	var (
		f   reports.StockInOutFilter
		err error
	)

	if f.DateStart, err = ParseDate("dateStart", r.DateStart); err != nil {
		return f, err
	}
	if f.DateEnd, err = ParseDate("dateEnd", r.DateEnd); err != nil {
		return f, err
	}
	if f.LocationIDs, err = ParseIDs("locationId", r.LocationIDs); err != nil {
		return f, err
	}
	if f.CategoryIDs, err = ParseIDs("categoryId", r.CategoryIDs); err != nil {
		return f, err
	}
	if f.ProductIDs, err = ParseIDs("productId", r.ProductIDs); err != nil {
		return f, err
	}

	f.State = reports.MoveState(strings.ToLower(r.State))
	f.Type = ledger.Mode(strings.ToLower(r.Type))
	return f, nil
}

// StockInOutResponse represents the stock in/out report response.
type StockInOutResponse struct {
	DateStart   string              `json:"dateStart"`
	DateEnd     string              `json:"dateEnd"`
	Type        string              `json:"type"`
	State       string              `json:"state"`
	Description reports.Description `json:"description"`
	Rows        []StockInOutRow     `json:"rows"`
	Totals      StockInOutTotals    `json:"totals"`
	TotalRows   int                 `json:"totalRows"`
	GeneratedAt string              `json:"generatedAt"`
}

// StockInOutRow represents a single report row. Quantities are fixed-point strings.
type StockInOutRow struct {
	ProductID          string `json:"productId"`
	ProductName        string `json:"productName"`
	CategoryID         string `json:"categoryId"`
	CategoryName       string `json:"categoryName"`
	LocationID         string `json:"locationId,omitempty"`
	LocationName       string `json:"locationName,omitempty"`
	UoM                string `json:"uom"`
	Initial            string `json:"initial"`
	Purchased          string `json:"purchased"`
	ReturnToSupplier   string `json:"returnToSupplier"`
	Sold               string `json:"sold"`
	ReturnFromCustomer string `json:"returnFromCustomer"`
	Loss               string `json:"loss"`
	Gain               string `json:"gain"`
	NetIncoming        string `json:"netIncoming"`
	NetOutgoing        string `json:"netOutgoing"`
	Ending             string `json:"ending"`
	UnitCost           string `json:"unitCost"`
	Valuation          string `json:"valuation"`
}

// StockInOutTotals represents the totals line.
type StockInOutTotals struct {
	Initial            string `json:"initial"`
	Purchased          string `json:"purchased"`
	ReturnToSupplier   string `json:"returnToSupplier"`
	Sold               string `json:"sold"`
	ReturnFromCustomer string `json:"returnFromCustomer"`
	Loss               string `json:"loss"`
	Gain               string `json:"gain"`
	NetIncoming        string `json:"netIncoming"`
	NetOutgoing        string `json:"netOutgoing"`
	Ending             string `json:"ending"`
	Valuation          string `json:"valuation"`
}

// FromStockInOutReport converts domain report to response DTO.
func FromStockInOutReport(r *reports.StockInOutReport) *StockInOutResponse {
	resp := &StockInOutResponse{
		DateStart:   r.DateStart.Format(time.DateOnly),
		DateEnd:     r.DateEnd.Format(time.DateOnly),
		Type:        string(r.Type),
		State:       string(r.State),
		Description: r.Description,
		Rows:        make([]StockInOutRow, len(r.Rows)),
		TotalRows:   len(r.Rows),
		GeneratedAt: r.GeneratedAt.Format(time.RFC3339),
	}

	q := types.FormatQuantity
	for i, row := range r.Rows {
		item := StockInOutRow{
			ProductID:          row.ProductID.String(),
			ProductName:        row.ProductName,
			CategoryID:         row.CategoryID.String(),
			CategoryName:       row.CategoryName,
			LocationName:       row.LocationName,
			UoM:                row.UoM,
			Initial:            q(row.Initial),
			Purchased:          q(row.Purchased),
			ReturnToSupplier:   q(row.ReturnToSupplier),
			Sold:               q(row.Sold),
			ReturnFromCustomer: q(row.ReturnFromCustomer),
			Loss:               q(row.Loss),
			Gain:               q(row.Gain),
			NetIncoming:        q(row.NetIncoming),
			NetOutgoing:        q(row.NetOutgoing),
			Ending:             q(row.Ending),
			UnitCost:           types.FormatMoney(row.UnitCost),
			Valuation:          types.FormatMoney(row.Valuation),
		}
		if !id.IsNil(row.LocationID) {
			item.LocationID = row.LocationID.String()
		}
		resp.Rows[i] = item
	}

	t := r.Totals
	resp.Totals = StockInOutTotals{
		Initial:            q(t.Initial),
		Purchased:          q(t.Purchased),
		ReturnToSupplier:   q(t.ReturnToSupplier),
		Sold:               q(t.Sold),
		ReturnFromCustomer: q(t.ReturnFromCustomer),
		Loss:               q(t.Loss),
		Gain:               q(t.Gain),
		NetIncoming:        q(t.NetIncoming),
		NetOutgoing:        q(t.NetOutgoing),
		Ending:             q(t.Ending),
		Valuation:          types.FormatMoney(t.Valuation),
	}

	return resp
}

// --- Journal Summary ---

// JournalSummaryRequest represents query parameters of the journal summary.
type JournalSummaryRequest struct {
	MoveIDs   []string `form:"moveId"`
	Reference string   `form:"reference"`
}

// ToFilter converts the request into a domain filter.
func (r JournalSummaryRequest) ToFilter() (reports.JournalFilter, error) {
	ids, err := ParseIDs("moveId", r.MoveIDs)
	if err != nil {
		return reports.JournalFilter{}, err
	}
	return reports.JournalFilter{MoveIDs: ids, Reference: strings.TrimSpace(r.Reference)}, nil
}

// JournalSummaryResponse represents the journal summary response.
type JournalSummaryResponse struct {
	Lines       []JournalLineResponse `json:"lines"`
	TotalDebit  string                `json:"totalDebit"`
	TotalCredit string                `json:"totalCredit"`
}

// JournalLineResponse represents one account line.
type JournalLineResponse struct {
	Account  string `json:"account"`
	Currency string `json:"currency"`
	Debit    string `json:"debit"`
	Credit   string `json:"credit"`
	Remark   string `json:"remark"`
}

// FromJournalSummary converts domain summary to response DTO.
func FromJournalSummary(s *reports.JournalSummary) *JournalSummaryResponse {
	resp := &JournalSummaryResponse{
		Lines:       make([]JournalLineResponse, len(s.Lines)),
		TotalDebit:  money(s.TotalDebit),
		TotalCredit: money(s.TotalCredit),
	}
	for i, l := range s.Lines {
		resp.Lines[i] = fromSummaryLine(l)
	}
	return resp
}

func fromSummaryLine(l journal.SummaryLine) JournalLineResponse {
	return JournalLineResponse{
		Account:  l.Account,
		Currency: l.Currency,
		Debit:    money(l.Debit),
		Credit:   money(l.Credit),
		Remark:   l.Remark,
	}
}

func money(d decimal.Decimal) string { return types.FormatMoney(d) }

// --- Parsing helpers ---

// ParseDate parses a YYYY-MM-DD date; RFC3339 timestamps are accepted too.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, apperror.NewInvalidInput(field, value)
}

// ParseIDs parses repeated id parameters. Comma-separated values are split.
func ParseIDs(field string, values []string) ([]id.ID, error) {
	ids, err := id.ParseList(values)
	if err != nil {
		var listErr *id.ListError
		if errors.As(err, &listErr) {
			return nil, apperror.NewInvalidInput(field, listErr.Value)
		}
		return nil, apperror.NewInvalidInput(field, values)
	}
	return ids, nil
}
