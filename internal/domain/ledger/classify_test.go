package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"stockledger/internal/core/id"
)

var (
	periodStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	whA       = Location{ID: id.MustParse("00000000-0000-0000-0000-0000000000a1"), Usage: UsageInternal}
	whB       = Location{ID: id.MustParse("00000000-0000-0000-0000-0000000000b1"), Usage: UsageInternal}
	vendor    = Location{ID: id.MustParse("00000000-0000-0000-0000-0000000000c1"), Usage: UsageSupplier}
	customer  = Location{ID: id.MustParse("00000000-0000-0000-0000-0000000000d1"), Usage: UsageCustomer}
	adjust    = Location{ID: id.MustParse("00000000-0000-0000-0000-0000000000e1"), Usage: UsageInventory}
	factory   = Location{ID: id.MustParse("00000000-0000-0000-0000-0000000000f1"), Usage: UsageProduction}
	transitLc = Location{ID: id.MustParse("00000000-0000-0000-0000-0000000000f2"), Usage: Usage("transit")}

	productX = id.MustParse("00000000-0000-0000-0000-000000000101")
	productY = id.MustParse("00000000-0000-0000-0000-000000000102")
	categ    = id.MustParse("00000000-0000-0000-0000-000000000201")
)

func move(from, to Location, qty int64, at time.Time) Move {
	return Move{Product: productX, Category: categ, From: from, To: to, Qty: decimal.NewFromInt(qty), At: at}
}

func TestClassifyFlow(t *testing.T) {
	tests := []struct {
		src, dst Usage
		want     Classification
	}{
		{UsageSupplier, UsageInternal, ClassPurchased},
		{UsageInternal, UsageSupplier, ClassReturnToSupplier},
		{UsageInternal, UsageCustomer, ClassSold},
		{UsageCustomer, UsageInternal, ClassReturnFromCustomer},
		{UsageInternal, UsageInventory, ClassLoss},
		{UsageInternal, UsageProduction, ClassLoss},
		{UsageInventory, UsageInternal, ClassGain},
		{UsageProduction, UsageInternal, ClassGain},
		{UsageInternal, UsageInternal, ClassIgnored},
		{UsageSupplier, UsageCustomer, ClassIgnored},
		{Usage("transit"), UsageInternal, ClassIgnored},
	}

	for _, tt := range tests {
		t.Run(string(tt.src)+"->"+string(tt.dst), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFlow(tt.src, tt.dst))
		})
	}
}

func TestClassify_TemporalSplit(t *testing.T) {
	dayBefore := periodStart.Add(-time.Hour)
	lateOnStart := periodStart.Add(23 * time.Hour)

	assert.Equal(t, ClassOpening, Classify(move(vendor, whA, 1, dayBefore), periodStart))
	// Opening wins over the rule table even for pairs the table ignores.
	assert.Equal(t, ClassOpening, Classify(move(whA, whB, 1, dayBefore), periodStart))
	assert.Equal(t, ClassPurchased, Classify(move(vendor, whA, 1, periodStart), periodStart))
	assert.Equal(t, ClassPurchased, Classify(move(vendor, whA, 1, lateOnStart), periodStart))
}

func TestClassify_Exclusivity(t *testing.T) {
	locs := []Location{whA, vendor, customer, adjust, factory, transitLc}
	for _, src := range locs {
		for _, dst := range locs {
			class := Classify(move(src, dst, 1, periodStart), periodStart)
			assert.NotEqual(t, ClassOpening, class)

			matches := 0
			for _, rule := range flowRules {
				if usageIn(src.Usage, rule.from) && usageIn(dst.Usage, rule.to) {
					matches++
				}
			}
			assert.LessOrEqual(t, matches, 1, "%s->%s", src.Usage, dst.Usage)
			assert.Equal(t, matches == 1, class.IsFlow(), "%s->%s", src.Usage, dst.Usage)
		}
	}
}

func TestOpeningDelta(t *testing.T) {
	before := periodStart.AddDate(0, 0, -3)

	assert.True(t, OpeningDelta(move(vendor, whA, 7, before)).Equal(decimal.NewFromInt(7)))
	assert.True(t, OpeningDelta(move(whA, customer, 4, before)).Equal(decimal.NewFromInt(-4)))
	assert.True(t, OpeningDelta(move(whA, whB, 9, before)).IsZero())
	assert.True(t, OpeningDelta(move(vendor, customer, 9, before)).IsZero())
}

func TestPickInternalLocation(t *testing.T) {
	tests := []struct {
		name   string
		rec    Move
		filter LocationSet
		want   Location
		wantOK bool
	}{
		{
			name:   "internal source",
			rec:    move(whA, customer, 1, periodStart),
			want:   whA,
			wantOK: true,
		},
		{
			name:   "internal destination",
			rec:    move(vendor, whB, 1, periodStart),
			want:   whB,
			wantOK: true,
		},
		{
			name:   "transfer without filter goes to source",
			rec:    move(whA, whB, 1, periodStart),
			want:   whA,
			wantOK: true,
		},
		{
			name:   "transfer with filter on destination",
			rec:    move(whA, whB, 1, periodStart),
			filter: NewLocationSet(whB.ID),
			want:   whB,
			wantOK: true,
		},
		{
			name:   "transfer with filter on neither side",
			rec:    move(whA, whB, 1, periodStart),
			filter: NewLocationSet(id.MustParse("00000000-0000-0000-0000-0000000000ff")),
			want:   whA,
			wantOK: true,
		},
		{
			name:   "no internal side",
			rec:    move(vendor, customer, 1, periodStart),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickInternalLocation(tt.rec, tt.filter)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUsage_IsValid(t *testing.T) {
	assert.True(t, UsageProduction.IsValid())
	assert.False(t, Usage("view").IsValid())
}

func TestClassification_String(t *testing.T) {
	assert.Equal(t, "return_from_customer", ClassReturnFromCustomer.String())
	assert.Equal(t, "unknown", Classification(99).String())
}
