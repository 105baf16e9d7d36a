package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
)

type fakeCatalog struct {
	products  map[id.ID]ProductInfo
	locations map[id.ID]LocationInfo
	failOn    id.ID

	productCalls  map[id.ID]int
	locationCalls map[id.ID]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[id.ID]ProductInfo{
			productX: {Name: "Widget", CategoryName: "Parts", UoM: "Units", StandardCost: decimal.RequireFromString("2.5")},
			productY: {Name: "Gadget", CategoryName: "Parts", UoM: "Units", StandardCost: decimal.NewFromInt(4)},
		},
		locations: map[id.ID]LocationInfo{
			whA.ID: {Name: "WH/A", Usage: UsageInternal},
			whB.ID: {Name: "WH/B", Usage: UsageInternal},
		},
		productCalls:  map[id.ID]int{},
		locationCalls: map[id.ID]int{},
	}
}

func (c *fakeCatalog) Product(_ context.Context, productID id.ID) (ProductInfo, error) {
	c.productCalls[productID]++
	if productID == c.failOn {
		return ProductInfo{}, errors.New("connection reset")
	}
	info, ok := c.products[productID]
	if !ok {
		return ProductInfo{}, fmt.Errorf("product %s: %w", productID, ErrMetadataUnavailable)
	}
	return info, nil
}

func (c *fakeCatalog) Location(_ context.Context, locationID id.ID) (LocationInfo, error) {
	c.locationCalls[locationID]++
	info, ok := c.locations[locationID]
	if !ok {
		return LocationInfo{}, fmt.Errorf("location %s: %w", locationID, ErrMetadataUnavailable)
	}
	return info, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	require.True(t, got.Equal(dec(want)), "%s: want %s, got %s", field, want, got)
}

func scenario() []Record {
	return []Record{
		move(vendor, whA, 10, periodStart.AddDate(0, 0, -10)),
		move(vendor, whA, 5, periodStart.AddDate(0, 0, 2)),
		move(whA, customer, 3, periodStart.AddDate(0, 0, 5)),
		move(customer, whA, 1, periodStart.AddDate(0, 0, 6)),
	}
}

func TestAggregate_EndToEnd(t *testing.T) {
	rows, err := Aggregate(context.Background(), scenario(), Params{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Mode:        ModeDetailed,
	}, newFakeCatalog())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, productX, row.ProductID)
	assert.Equal(t, whA.ID, row.LocationID)
	assert.Equal(t, "WH/A", row.LocationName)
	assert.Equal(t, "Widget", row.ProductName)
	assert.Equal(t, "Parts", row.CategoryName)
	assert.Equal(t, categ, row.CategoryID)
	assert.Equal(t, "Units", row.UoM)

	requireDecimal(t, "10", row.Initial, "initial")
	requireDecimal(t, "5", row.Purchased, "purchased")
	requireDecimal(t, "3", row.Sold, "sold")
	requireDecimal(t, "1", row.ReturnFromCustomer, "return from customer")
	requireDecimal(t, "5", row.NetIncoming, "net incoming")
	requireDecimal(t, "2", row.NetOutgoing, "net outgoing")
	requireDecimal(t, "13", row.Ending, "ending")
	requireDecimal(t, "32.5", row.Valuation, "valuation")
}

func TestAggregate_Conservation(t *testing.T) {
	records := []Record{
		move(vendor, whA, 20, periodStart.AddDate(0, 0, -5)),
		move(whA, adjust, 2, periodStart.AddDate(0, 0, -1)),
		move(vendor, whA, 7, periodStart.AddDate(0, 0, 1)),
		move(whA, vendor, 1, periodStart.AddDate(0, 0, 2)),
		move(whA, customer, 6, periodStart.AddDate(0, 0, 3)),
		move(customer, whA, 2, periodStart.AddDate(0, 0, 4)),
		move(whA, factory, 3, periodStart.AddDate(0, 0, 5)),
		move(adjust, whA, 4, periodStart.AddDate(0, 0, 6)),
	}

	agg := NewAggregator(Params{PeriodStart: periodStart, PeriodEnd: periodEnd, Mode: ModeSummary})
	for _, r := range records {
		agg.Add(r)
	}
	accs := agg.Accumulators()
	require.Len(t, accs, 1)
	acc := accs[0]

	requireDecimal(t, "18", acc.Initial, "initial")
	requireDecimal(t, "7", acc.Purchased, "purchased")
	requireDecimal(t, "1", acc.ReturnToSupplier, "return to supplier")
	requireDecimal(t, "6", acc.Sold, "sold")
	requireDecimal(t, "2", acc.ReturnFromCustomer, "return from customer")
	requireDecimal(t, "3", acc.Loss, "loss")
	requireDecimal(t, "4", acc.Gain, "gain")

	// Closing equals the signed sum of every record's effect on internal stock.
	signed := decimal.Zero
	for _, r := range records {
		signed = signed.Add(OpeningDelta(r))
	}
	require.True(t, acc.Ending().Equal(signed), "ending %s, signed sum %s", acc.Ending(), signed)
}

func TestAggregate_OrderIndependence(t *testing.T) {
	records := []Record{
		move(vendor, whA, 3, periodStart.AddDate(0, 0, -2)),
		move(whA, whB, 2, periodStart.AddDate(0, 0, -1)),
		move(vendor, whB, 9, periodStart.AddDate(0, 0, 1)),
		move(whB, customer, 4, periodStart.AddDate(0, 0, 2)),
		move(whA, customer, 1, periodStart.AddDate(0, 0, 3)),
		move(adjust, whA, 5, periodStart.AddDate(0, 0, 4)),
		Move{Product: productY, Category: categ, From: vendor, To: whA, Qty: dec("1.25"), At: periodStart},
	}

	valuesByKey := func(rows []ReportRow) map[GroupingKey]string {
		out := make(map[GroupingKey]string, len(rows))
		for _, r := range rows {
			out[GroupingKey{ProductID: r.ProductID, LocationID: r.LocationID}] =
				fmt.Sprintf("%s|%s|%s|%s", r.Initial, r.NetIncoming, r.NetOutgoing, r.Ending)
		}
		return out
	}

	params := Params{PeriodStart: periodStart, PeriodEnd: periodEnd, Mode: ModeDetailed}
	base, err := Aggregate(context.Background(), records, params, newFakeCatalog())
	require.NoError(t, err)
	want := valuesByKey(base)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]Record(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		rows, err := Aggregate(context.Background(), shuffled, params, newFakeCatalog())
		require.NoError(t, err)
		assert.Equal(t, want, valuesByKey(rows))
	}
}

func TestAggregate_BoundaryInclusivity(t *testing.T) {
	records := []Record{
		move(vendor, whA, 1, periodStart.Add(-time.Second)),
		move(vendor, whA, 2, periodStart),
		move(vendor, whA, 4, periodEnd.Add(20*time.Hour)),
		move(vendor, whA, 8, periodEnd.AddDate(0, 0, 1)),
	}

	agg := NewAggregator(Params{PeriodStart: periodStart, PeriodEnd: periodEnd, Mode: ModeSummary})
	for _, r := range records {
		agg.Add(r)
	}
	acc := agg.Accumulators()[0]

	requireDecimal(t, "1", acc.Initial, "initial")
	requireDecimal(t, "6", acc.Purchased, "purchased")
	assert.Equal(t, Stats{Seen: 4, Folded: 3, Skipped: 1}, agg.Stats())
}

func TestAggregate_DetailedTransferTieBreak(t *testing.T) {
	records := []Record{
		move(whA, whB, 5, periodStart.AddDate(0, 0, -1)),
	}

	rows, err := Aggregate(context.Background(), records, Params{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Mode:        ModeDetailed,
	}, newFakeCatalog())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, whA.ID, rows[0].LocationID)
	requireDecimal(t, "0", rows[0].Initial, "initial")

	rows, err = Aggregate(context.Background(), records, Params{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Mode:        ModeDetailed,
		Locations:   []id.ID{whB.ID},
	}, newFakeCatalog())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, whB.ID, rows[0].LocationID)
}

func TestAggregate_SummaryVersusDetailed(t *testing.T) {
	records := []Record{
		move(vendor, whA, 4, periodStart.AddDate(0, 0, 1)),
		move(vendor, whB, 6, periodStart.AddDate(0, 0, 2)),
		move(whB, customer, 1, periodStart.AddDate(0, 0, 3)),
	}
	params := Params{PeriodStart: periodStart, PeriodEnd: periodEnd}

	params.Mode = ModeSummary
	summary, err := Aggregate(context.Background(), records, params, newFakeCatalog())
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.True(t, id.IsNil(summary[0].LocationID))
	assert.Empty(t, summary[0].LocationName)
	requireDecimal(t, "10", summary[0].Purchased, "purchased")
	requireDecimal(t, "9", summary[0].Ending, "ending")

	params.Mode = ModeDetailed
	detailed, err := Aggregate(context.Background(), records, params, newFakeCatalog())
	require.NoError(t, err)
	require.Len(t, detailed, 2)
	assert.Equal(t, whA.ID, detailed[0].LocationID)
	assert.Equal(t, whB.ID, detailed[1].LocationID)
	requireDecimal(t, "4", detailed[0].Ending, "ending A")
	requireDecimal(t, "5", detailed[1].Ending, "ending B")
}

func TestAggregate_DropsMissingMetadata(t *testing.T) {
	unknown := id.MustParse("00000000-0000-0000-0000-000000000999")
	records := []Record{
		move(vendor, whA, 2, periodStart),
		Move{Product: unknown, Category: categ, From: vendor, To: whA, Qty: dec("3"), At: periodStart},
		Move{Product: unknown, Category: categ, From: vendor, To: whB, Qty: dec("1"), At: periodStart},
	}

	catalog := newFakeCatalog()
	agg := NewAggregator(Params{PeriodStart: periodStart, PeriodEnd: periodEnd, Mode: ModeDetailed})
	for _, r := range records {
		agg.Add(r)
	}
	rows, err := agg.Rows(context.Background(), catalog)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, productX, rows[0].ProductID)
	assert.Equal(t, 2, agg.Stats().Dropped)
	// Misses are memoized too.
	assert.Equal(t, 1, catalog.productCalls[unknown])
}

func TestAggregate_MissingLocationDropsRow(t *testing.T) {
	orphan := Location{ID: id.MustParse("00000000-0000-0000-0000-0000000000aa"), Usage: UsageInternal}
	records := []Record{
		move(vendor, orphan, 2, periodStart),
		move(vendor, whA, 1, periodStart),
	}

	rows, err := Aggregate(context.Background(), records, Params{PeriodStart: periodStart, PeriodEnd: periodEnd}, newFakeCatalog())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, whA.ID, rows[0].LocationID)
}

func TestAggregate_CatalogFailureAborts(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.failOn = productY
	records := []Record{
		move(vendor, whA, 2, periodStart),
		Move{Product: productY, Category: categ, From: vendor, To: whA, Qty: dec("1"), At: periodStart},
	}

	rows, err := Aggregate(context.Background(), records, Params{PeriodStart: periodStart, PeriodEnd: periodEnd}, catalog)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMetadataUnavailable))
	assert.Nil(t, rows)
}

func TestAggregate_LookupsAreMemoized(t *testing.T) {
	records := []Record{
		move(vendor, whA, 1, periodStart),
		move(vendor, whB, 1, periodStart),
		Move{Product: productY, Category: categ, From: vendor, To: whA, Qty: dec("1"), At: periodStart},
	}
	catalog := newFakeCatalog()

	rows, err := Aggregate(context.Background(), records, Params{PeriodStart: periodStart, PeriodEnd: periodEnd}, catalog)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 1, catalog.productCalls[productX])
	assert.Equal(t, 1, catalog.locationCalls[whA.ID])
}

func TestAggregate_ZeroQuantityAndDegeneratePeriod(t *testing.T) {
	records := []Record{
		move(vendor, whA, 0, periodStart),
		move(vendor, whA, 3, periodStart.AddDate(0, 0, 1)),
	}

	// Start after end: everything up to the end date is opening.
	params := Params{PeriodStart: periodEnd.AddDate(0, 0, 5), PeriodEnd: periodEnd, Mode: ModeSummary}
	rows, err := Aggregate(context.Background(), records, params, newFakeCatalog())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	requireDecimal(t, "3", rows[0].Initial, "initial")
	requireDecimal(t, "0", rows[0].NetIncoming, "net incoming")
	requireDecimal(t, "3", rows[0].Ending, "ending")

	agg := NewAggregator(Params{PeriodStart: periodStart, PeriodEnd: periodEnd, Mode: ModeSummary})
	agg.Add(records[0])
	assert.Equal(t, 1, agg.Stats().Folded)
	requireDecimal(t, "0", agg.Accumulators()[0].Purchased, "purchased")
}

func TestAggregate_SkipsRecordsWithoutInternalSide(t *testing.T) {
	records := []Record{
		move(vendor, customer, 5, periodStart),
		move(whA, whB, 2, periodStart),
	}

	for _, mode := range []Mode{ModeSummary, ModeDetailed} {
		agg := NewAggregator(Params{PeriodStart: periodStart, PeriodEnd: periodEnd, Mode: mode})
		for _, r := range records {
			agg.Add(r)
		}
		stats := agg.Stats()
		assert.Equal(t, 1, stats.Skipped, mode)
		// Internal transfers fold but match no flow rule.
		assert.Equal(t, 1, stats.Ignored, mode)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeDetailed, m)

	m, err = ParseMode("summary")
	require.NoError(t, err)
	assert.Equal(t, ModeSummary, m)

	_, err = ParseMode("weekly")
	assert.Error(t, err)
}
