// Package ledger classifies stock movements and folds them into per-product
// (or per product+location) balances for a reporting period.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"stockledger/internal/core/id"
)

// Usage is the semantic role of a stock location.
type Usage string

const (
	UsageInternal   Usage = "internal"   // own warehouse stock
	UsageSupplier   Usage = "supplier"   // vendor side
	UsageCustomer   Usage = "customer"   // customer side
	UsageInventory  Usage = "inventory"  // inventory adjustment (loss/gain)
	UsageProduction Usage = "production" // consumed or produced by manufacturing
)

// IsValid reports whether u is one of the known usages.
// Unknown usages are not an error: they simply match no classification rule.
func (u Usage) IsValid() bool {
	switch u {
	case UsageInternal, UsageSupplier, UsageCustomer, UsageInventory, UsageProduction:
		return true
	}
	return false
}

// Location is one side of a movement.
type Location struct {
	ID    id.ID `db:"id" json:"id"`
	Usage Usage `db:"usage" json:"usage"`
}

// IsInternal reports whether the location holds own stock.
func (l Location) IsInternal() bool {
	return l.Usage == UsageInternal
}

// Record is the read-only view of a stock movement consumed by the classifier
// and the aggregator. Callers filter by lifecycle state before records get here.
type Record interface {
	ProductID() id.ID
	CategoryID() id.ID
	Source() Location
	Destination() Location
	// Quantity in the movement's unit of measure, never negative.
	Quantity() decimal.Decimal
	Date() time.Time
}

// Move is a plain Record implementation.
type Move struct {
	Product  id.ID
	Category id.ID
	From     Location
	To       Location
	Qty      decimal.Decimal
	At       time.Time
}

func (m Move) ProductID() id.ID          { return m.Product }
func (m Move) CategoryID() id.ID         { return m.Category }
func (m Move) Source() Location          { return m.From }
func (m Move) Destination() Location     { return m.To }
func (m Move) Quantity() decimal.Decimal { return m.Qty }
func (m Move) Date() time.Time           { return m.At }

var _ Record = Move{}

// dateOf truncates t to its calendar date in t's own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
