// Package journal summarizes accounting journal lines per account and currency.
package journal

import (
	"strings"

	"github.com/shopspring/decimal"

	"stockledger/internal/core/id"
)

// CompanyCurrency labels lines that carry no currency of their own.
const CompanyCurrency = "Company Currency"

// StatePosted is the only move state that contributes to a summary.
const StatePosted = "posted"

// Line is one journal item together with the fields of its move.
type Line struct {
	MoveID       id.ID           `db:"move_id"`
	MoveName     string          `db:"move_name"`
	MoveRef      string          `db:"move_ref"`
	MoveState    string          `db:"move_state"`
	MoveCurrency string          `db:"move_currency"`
	Account      string          `db:"account_name"`
	Currency     string          `db:"line_currency"`
	Debit        decimal.Decimal `db:"debit"`
	Credit       decimal.Decimal `db:"credit"`
}

// CurrencyLabel falls back from the line currency to the move currency.
func (l Line) CurrencyLabel() string {
	if l.Currency != "" {
		return l.Currency
	}
	if l.MoveCurrency != "" {
		return l.MoveCurrency
	}
	return CompanyCurrency
}

// SummaryLine is the debit/credit total of one (account, currency) pair.
type SummaryLine struct {
	Account  string          `json:"account"`
	Currency string          `json:"currency"`
	Debit    decimal.Decimal `json:"debit"`
	Credit   decimal.Decimal `json:"credit"`
	Remark   string          `json:"remark"`
}

type summaryKey struct {
	account  string
	currency string
}

// Summarize totals posted lines by account and currency, in first-seen order.
// The remark is reference when given, otherwise the names of every move in
// lines joined by ", ".
func Summarize(lines []Line, reference string) []SummaryLine {
	remark := reference
	if remark == "" {
		remark = strings.Join(moveNames(lines), ", ")
	}

	index := make(map[summaryKey]int)
	var out []SummaryLine
	for _, l := range lines {
		if l.MoveState != StatePosted {
			continue
		}

		key := summaryKey{account: l.Account, currency: l.CurrencyLabel()}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, SummaryLine{
				Account:  key.account,
				Currency: key.currency,
				Debit:    decimal.Zero,
				Credit:   decimal.Zero,
				Remark:   remark,
			})
		}
		out[i].Debit = out[i].Debit.Add(l.Debit)
		out[i].Credit = out[i].Credit.Add(l.Credit)
	}
	return out
}

// Totals returns the summed debit and credit of a summary.
func Totals(summary []SummaryLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, s := range summary {
		debit = debit.Add(s.Debit)
		credit = credit.Add(s.Credit)
	}
	return debit, credit
}

func moveNames(lines []Line) []string {
	seen := make(map[id.ID]struct{})
	var names []string
	for _, l := range lines {
		if _, ok := seen[l.MoveID]; ok {
			continue
		}
		seen[l.MoveID] = struct{}{}
		if l.MoveName != "" {
			names = append(names, l.MoveName)
		}
	}
	return names
}
