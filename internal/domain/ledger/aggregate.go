package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stockledger/internal/core/id"
)

// Mode selects the grouping granularity.
type Mode string

const (
	// ModeDetailed groups by product and internal location.
	ModeDetailed Mode = "detailed"
	// ModeSummary groups by product only.
	ModeSummary Mode = "summary"
)

// ParseMode validates a mode string. Empty defaults to detailed.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeDetailed, nil
	case ModeDetailed, ModeSummary:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown report mode %q", s)
}

// Params configures one aggregation run.
type Params struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Mode        Mode
	// Locations is the explicit location filter used by the detailed tie-break.
	Locations []id.ID
}

// GroupingKey identifies an accumulator. LocationID is nil in summary mode.
type GroupingKey struct {
	ProductID  id.ID
	LocationID id.ID
}

// Accumulator holds the running counters for one key.
type Accumulator struct {
	Key        GroupingKey
	CategoryID id.ID

	Initial            decimal.Decimal
	Purchased          decimal.Decimal
	ReturnToSupplier   decimal.Decimal
	Sold               decimal.Decimal
	ReturnFromCustomer decimal.Decimal
	Loss               decimal.Decimal
	Gain               decimal.Decimal
}

func newAccumulator(key GroupingKey, r Record) *Accumulator {
	return &Accumulator{
		Key:                key,
		CategoryID:         r.CategoryID(),
		Initial:            decimal.Zero,
		Purchased:          decimal.Zero,
		ReturnToSupplier:   decimal.Zero,
		Sold:               decimal.Zero,
		ReturnFromCustomer: decimal.Zero,
		Loss:               decimal.Zero,
		Gain:               decimal.Zero,
	}
}

// Apply folds one record into the counters and returns how it was classified.
func (a *Accumulator) Apply(r Record, periodStart time.Time) Classification {
	class := Classify(r, periodStart)
	qty := r.Quantity()

	switch class {
	case ClassOpening:
		a.Initial = a.Initial.Add(OpeningDelta(r))
	case ClassPurchased:
		a.Purchased = a.Purchased.Add(qty)
	case ClassReturnToSupplier:
		a.ReturnToSupplier = a.ReturnToSupplier.Add(qty)
	case ClassSold:
		a.Sold = a.Sold.Add(qty)
	case ClassReturnFromCustomer:
		a.ReturnFromCustomer = a.ReturnFromCustomer.Add(qty)
	case ClassLoss:
		a.Loss = a.Loss.Add(qty)
	case ClassGain:
		a.Gain = a.Gain.Add(qty)
	}
	return class
}

// NetIncoming = purchased + gain - returns to supplier.
func (a *Accumulator) NetIncoming() decimal.Decimal {
	return a.Purchased.Add(a.Gain).Sub(a.ReturnToSupplier)
}

// NetOutgoing = sold + loss - returns from customers.
func (a *Accumulator) NetOutgoing() decimal.Decimal {
	return a.Sold.Add(a.Loss).Sub(a.ReturnFromCustomer)
}

// Ending = initial + net incoming - net outgoing.
func (a *Accumulator) Ending() decimal.Decimal {
	return a.Initial.Add(a.NetIncoming()).Sub(a.NetOutgoing())
}

// ReportRow is the finalized balance line for one key.
type ReportRow struct {
	ProductID    id.ID  `json:"productId"`
	ProductName  string `json:"productName"`
	CategoryID   id.ID  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	LocationID   id.ID  `json:"locationId"`
	LocationName string `json:"locationName,omitempty"`
	UoM          string `json:"uom"`

	Initial            decimal.Decimal `json:"initial"`
	Purchased          decimal.Decimal `json:"purchased"`
	ReturnToSupplier   decimal.Decimal `json:"returnToSupplier"`
	Sold               decimal.Decimal `json:"sold"`
	ReturnFromCustomer decimal.Decimal `json:"returnFromCustomer"`
	Loss               decimal.Decimal `json:"loss"`
	Gain               decimal.Decimal `json:"gain"`

	NetIncoming decimal.Decimal `json:"netIncoming"`
	NetOutgoing decimal.Decimal `json:"netOutgoing"`
	Ending      decimal.Decimal `json:"ending"`
	UnitCost    decimal.Decimal `json:"unitCost"`
	Valuation   decimal.Decimal `json:"valuation"`
}

// Stats describes what happened to the input of one run.
type Stats struct {
	Seen    int // records passed to Add
	Folded  int // records applied to an accumulator
	Skipped int // records touching no internal location or dated after the period
	Ignored int // folded records that matched no flow rule
	Dropped int // keys dropped at finalization for missing metadata
}

// Aggregator folds records into accumulators. Not safe for concurrent use;
// one Aggregator serves exactly one run.
type Aggregator struct {
	params    Params
	locations LocationSet
	accs      map[GroupingKey]*Accumulator
	order     []GroupingKey
	stats     Stats
}

// NewAggregator creates an aggregator for one run.
func NewAggregator(params Params) *Aggregator {
	if params.Mode == "" {
		params.Mode = ModeDetailed
	}
	return &Aggregator{
		params:    params,
		locations: NewLocationSet(params.Locations...),
		accs:      make(map[GroupingKey]*Accumulator),
	}
}

// Add folds one record. Records that resolve to no grouping key are skipped.
func (a *Aggregator) Add(r Record) {
	a.stats.Seen++

	if !a.params.PeriodEnd.IsZero() && dateOf(r.Date()).After(dateOf(a.params.PeriodEnd)) {
		a.stats.Skipped++
		return
	}

	key, ok := a.keyFor(r)
	if !ok {
		a.stats.Skipped++
		return
	}

	acc, exists := a.accs[key]
	if !exists {
		acc = newAccumulator(key, r)
		a.accs[key] = acc
		a.order = append(a.order, key)
	}

	if acc.Apply(r, a.params.PeriodStart) == ClassIgnored {
		a.stats.Ignored++
	}
	a.stats.Folded++
}

func (a *Aggregator) keyFor(r Record) (GroupingKey, bool) {
	if a.params.Mode == ModeSummary {
		if !r.Source().IsInternal() && !r.Destination().IsInternal() {
			return GroupingKey{}, false
		}
		return GroupingKey{ProductID: r.ProductID()}, true
	}

	loc, ok := PickInternalLocation(r, a.locations)
	if !ok {
		return GroupingKey{}, false
	}
	return GroupingKey{ProductID: r.ProductID(), LocationID: loc.ID}, true
}

// Accumulators returns the live accumulators in first-seen order.
func (a *Aggregator) Accumulators() []*Accumulator {
	out := make([]*Accumulator, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, a.accs[key])
	}
	return out
}

// Stats returns counters for the run so far.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// Rows finalizes every accumulator into a ReportRow, in first-seen order.
// Keys whose metadata is unavailable are dropped; any other catalog error
// fails the whole run and no rows are returned.
func (a *Aggregator) Rows(ctx context.Context, catalog Catalog) ([]ReportRow, error) {
	lookup := newRunCatalog(catalog)
	rows := make([]ReportRow, 0, len(a.order))
	a.stats.Dropped = 0

	for _, key := range a.order {
		acc := a.accs[key]

		row, err := a.finalize(ctx, lookup, acc)
		if errors.Is(err, ErrMetadataUnavailable) {
			a.stats.Dropped++
			continue
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (a *Aggregator) finalize(ctx context.Context, lookup *runCatalog, acc *Accumulator) (ReportRow, error) {
	product, err := lookup.Product(ctx, acc.Key.ProductID)
	if err != nil {
		return ReportRow{}, fmt.Errorf("product %s: %w", acc.Key.ProductID, err)
	}

	row := ReportRow{
		ProductID:          acc.Key.ProductID,
		ProductName:        product.Name,
		CategoryID:         acc.CategoryID,
		CategoryName:       product.CategoryName,
		LocationID:         acc.Key.LocationID,
		UoM:                product.UoM,
		Initial:            acc.Initial,
		Purchased:          acc.Purchased,
		ReturnToSupplier:   acc.ReturnToSupplier,
		Sold:               acc.Sold,
		ReturnFromCustomer: acc.ReturnFromCustomer,
		Loss:               acc.Loss,
		Gain:               acc.Gain,
		NetIncoming:        acc.NetIncoming(),
		NetOutgoing:        acc.NetOutgoing(),
		Ending:             acc.Ending(),
		UnitCost:           product.StandardCost,
	}
	row.Valuation = row.Ending.Mul(row.UnitCost)

	if a.params.Mode == ModeDetailed {
		loc, err := lookup.Location(ctx, acc.Key.LocationID)
		if err != nil {
			return ReportRow{}, fmt.Errorf("location %s: %w", acc.Key.LocationID, err)
		}
		row.LocationName = loc.Name
	}

	return row, nil
}

// Aggregate runs a complete aggregation over records.
func Aggregate(ctx context.Context, records []Record, params Params, catalog Catalog) ([]ReportRow, error) {
	agg := NewAggregator(params)
	for _, r := range records {
		agg.Add(r)
	}
	return agg.Rows(ctx, catalog)
}
