package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"stockledger/internal/core/id"
)

// ErrMetadataUnavailable is returned (wrapped) by a Catalog for unknown ids.
// The aggregator drops the affected row instead of failing the run.
var ErrMetadataUnavailable = errors.New("metadata unavailable")

// ProductInfo is the product metadata joined at finalization.
type ProductInfo struct {
	Name         string          `db:"name"`
	CategoryName string          `db:"category_name"`
	UoM          string          `db:"uom_name"`
	StandardCost decimal.Decimal `db:"standard_cost"`
}

// LocationInfo is the location metadata joined at finalization.
type LocationInfo struct {
	Name  string `db:"name"`
	Usage Usage  `db:"usage"`
}

// Catalog resolves product and location metadata.
type Catalog interface {
	Product(ctx context.Context, productID id.ID) (ProductInfo, error)
	Location(ctx context.Context, locationID id.ID) (LocationInfo, error)
}

// runCatalog memoizes lookups for the duration of one aggregation run,
// including misses.
type runCatalog struct {
	next      Catalog
	products  map[id.ID]productResult
	locations map[id.ID]locationResult
}

type productResult struct {
	info ProductInfo
	err  error
}

type locationResult struct {
	info LocationInfo
	err  error
}

func newRunCatalog(next Catalog) *runCatalog {
	return &runCatalog{
		next:      next,
		products:  make(map[id.ID]productResult),
		locations: make(map[id.ID]locationResult),
	}
}

func (c *runCatalog) Product(ctx context.Context, productID id.ID) (ProductInfo, error) {
	if res, ok := c.products[productID]; ok {
		return res.info, res.err
	}
	info, err := c.next.Product(ctx, productID)
	c.products[productID] = productResult{info: info, err: err}
	return info, err
}

func (c *runCatalog) Location(ctx context.Context, locationID id.ID) (LocationInfo, error) {
	if res, ok := c.locations[locationID]; ok {
		return res.info, res.err
	}
	info, err := c.next.Location(ctx, locationID)
	c.locations[locationID] = locationResult{info: info, err: err}
	return info, err
}
