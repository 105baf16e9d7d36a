package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"stockledger/internal/core/id"
)

// Classification is the single bucket a movement falls into.
type Classification int

const (
	ClassIgnored Classification = iota
	ClassOpening
	ClassPurchased
	ClassReturnToSupplier
	ClassSold
	ClassReturnFromCustomer
	ClassLoss
	ClassGain
)

var classNames = map[Classification]string{
	ClassIgnored:            "ignored",
	ClassOpening:            "opening",
	ClassPurchased:          "purchased",
	ClassReturnToSupplier:   "return_to_supplier",
	ClassSold:               "sold",
	ClassReturnFromCustomer: "return_from_customer",
	ClassLoss:               "loss",
	ClassGain:               "gain",
}

func (c Classification) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "unknown"
}

// IsFlow reports whether c is one of the in-period flow categories.
func (c Classification) IsFlow() bool {
	return c >= ClassPurchased && c <= ClassGain
}

type flowRule struct {
	from  []Usage
	to    []Usage
	class Classification
}

// flowRules is evaluated top to bottom; usage pairs never overlap between rules.
var flowRules = []flowRule{
	{from: []Usage{UsageSupplier}, to: []Usage{UsageInternal}, class: ClassPurchased},
	{from: []Usage{UsageInternal}, to: []Usage{UsageSupplier}, class: ClassReturnToSupplier},
	{from: []Usage{UsageInternal}, to: []Usage{UsageCustomer}, class: ClassSold},
	{from: []Usage{UsageCustomer}, to: []Usage{UsageInternal}, class: ClassReturnFromCustomer},
	{from: []Usage{UsageInternal}, to: []Usage{UsageInventory, UsageProduction}, class: ClassLoss},
	{from: []Usage{UsageInventory, UsageProduction}, to: []Usage{UsageInternal}, class: ClassGain},
}

func usageIn(u Usage, set []Usage) bool {
	for _, s := range set {
		if u == s {
			return true
		}
	}
	return false
}

// ClassifyFlow maps a (source, destination) usage pair to an in-period category.
func ClassifyFlow(src, dst Usage) Classification {
	for _, rule := range flowRules {
		if usageIn(src, rule.from) && usageIn(dst, rule.to) {
			return rule.class
		}
	}
	return ClassIgnored
}

// IsBeforePeriod reports whether the record's date falls strictly before the
// date part of periodStart.
func IsBeforePeriod(r Record, periodStart time.Time) bool {
	return dateOf(r.Date()).Before(dateOf(periodStart))
}

// Classify assigns exactly one classification to r.
// Records dated before periodStart are ClassOpening regardless of usages.
func Classify(r Record, periodStart time.Time) Classification {
	if IsBeforePeriod(r, periodStart) {
		return ClassOpening
	}
	return ClassifyFlow(r.Source().Usage, r.Destination().Usage)
}

// OpeningDelta is the contribution of an opening record to the initial balance.
// Internal-to-internal transfers add and subtract the same quantity.
func OpeningDelta(r Record) decimal.Decimal {
	delta := decimal.Zero
	if r.Destination().IsInternal() {
		delta = delta.Add(r.Quantity())
	}
	if r.Source().IsInternal() {
		delta = delta.Sub(r.Quantity())
	}
	return delta
}

// LocationSet is an explicit location filter.
type LocationSet map[id.ID]struct{}

// NewLocationSet builds a set from ids. An empty set means "no filter".
func NewLocationSet(ids ...id.ID) LocationSet {
	set := make(LocationSet, len(ids))
	for _, locID := range ids {
		set[locID] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s LocationSet) Has(locID id.ID) bool {
	_, ok := s[locID]
	return ok
}

// PickInternalLocation chooses the internal location a record is attributed to
// in detailed mode. Filtered locations win; otherwise the source side wins over
// the destination, so internal transfers outside the filter land on the source.
func PickInternalLocation(r Record, filter LocationSet) (Location, bool) {
	src, dst := r.Source(), r.Destination()

	if len(filter) > 0 {
		if src.IsInternal() && filter.Has(src.ID) {
			return src, true
		}
		if dst.IsInternal() && filter.Has(dst.ID) {
			return dst, true
		}
	}

	if src.IsInternal() {
		return src, true
	}
	if dst.IsInternal() {
		return dst, true
	}
	return Location{}, false
}
