// Package reports builds the stock in/out balance report and the journal
// entry summary on top of the ledger engine.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/journal"
	"stockledger/internal/domain/ledger"
)

// --- Stock In/Out Report ---

// MoveState selects which stock move lifecycle states the report reads.
type MoveState string

const (
	StateDone  MoveState = "done"
	StateReady MoveState = "ready"
	StateAll   MoveState = "all"
)

// StoredStates maps the filter value to the states stored on moves.
// "ready" moves are stored as "assigned"; "all" applies no state filter.
func (s MoveState) StoredStates() []string {
	switch s {
	case StateAll:
		return nil
	case StateReady:
		return []string{"assigned"}
	case "", StateDone:
		return []string{"done"}
	}
	return []string{string(s)}
}

// IsValid reports whether s is a known filter value. Empty means done.
func (s MoveState) IsValid() bool {
	switch s {
	case "", StateDone, StateReady, StateAll:
		return true
	}
	return false
}

// StockInOutFilter defines the stock in/out report request.
type StockInOutFilter struct {
	DateStart time.Time
	DateEnd   time.Time

	LocationIDs []id.ID
	CategoryIDs []id.ID
	ProductIDs  []id.ID

	State MoveState
	Type  ledger.Mode
}

// MovementOrder is the order in which movements are read from the source.
type MovementOrder int

const (
	// OrderByLocation: product, source, destination, date, id.
	OrderByLocation MovementOrder = iota
	// OrderByDate: product, date, id.
	OrderByDate
)

// MovementFilter is what the movement source needs to select records.
type MovementFilter struct {
	// DateEnd is inclusive: every move dated on or before that day.
	DateEnd     time.Time
	States      []string
	ProductIDs  []id.ID
	CategoryIDs []id.ID
	// LocationIDs admits moves whose source or destination is in the set.
	LocationIDs []id.ID
	Order       MovementOrder
}

// Totals sums every quantity column and the valuation of a report.
// Unit cost has no meaningful total and is left out.
type Totals struct {
	Initial            decimal.Decimal `json:"initial"`
	Purchased          decimal.Decimal `json:"purchased"`
	ReturnToSupplier   decimal.Decimal `json:"returnToSupplier"`
	Sold               decimal.Decimal `json:"sold"`
	ReturnFromCustomer decimal.Decimal `json:"returnFromCustomer"`
	Loss               decimal.Decimal `json:"loss"`
	Gain               decimal.Decimal `json:"gain"`
	NetIncoming        decimal.Decimal `json:"netIncoming"`
	NetOutgoing        decimal.Decimal `json:"netOutgoing"`
	Ending             decimal.Decimal `json:"ending"`
	Valuation          decimal.Decimal `json:"valuation"`
}

// Description holds display names of the filters, for report headers.
type Description struct {
	Locations  []string `json:"locations"`
	Products   []string `json:"products"`
	Categories []string `json:"categories"`
}

// StockInOutReport is the finished report.
type StockInOutReport struct {
	Filter      StockInOutFilter   `json:"-"`
	DateStart   time.Time          `json:"dateStart"`
	DateEnd     time.Time          `json:"dateEnd"`
	Type        ledger.Mode        `json:"type"`
	State       MoveState          `json:"state"`
	Rows        []ledger.ReportRow `json:"rows"`
	Totals      Totals             `json:"totals"`
	Description Description        `json:"description"`
	Stats       ledger.Stats       `json:"-"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// --- Journal Summary ---

// JournalFilter selects the journal entries to summarize.
type JournalFilter struct {
	MoveIDs []id.ID
	// Reference overrides the remark column when set.
	Reference string
}

// JournalSummary is the per-account summary of a set of journal entries.
type JournalSummary struct {
	Lines       []journal.SummaryLine `json:"lines"`
	TotalDebit  decimal.Decimal       `json:"totalDebit"`
	TotalCredit decimal.Decimal       `json:"totalCredit"`
}
