package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/storage/postgres"
)

var _ reports.Catalog = (*CatalogRepo)(nil)

// CatalogRepo resolves product, location and category metadata.
// Missing rows are reported as ledger.ErrMetadataUnavailable.
type CatalogRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCatalogRepo creates a new catalog repository.
func NewCatalogRepo(txm *postgres.TxManager) *CatalogRepo {
	return &CatalogRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CatalogRepo) productQuery(productID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"p.name",
			"COALESCE(c.name, '') AS category_name",
			"COALESCE(u.name, '') AS uom_name",
			"p.standard_cost",
		).
		From("products p").
		LeftJoin("product_categories c ON c.id = p.category_id").
		LeftJoin("uoms u ON u.id = p.uom_id").
		Where("p.id = ?", productID)
}

func (r *CatalogRepo) locationQuery(locationID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(postgres.ExtractDBColumns[ledger.LocationInfo]()...).
		From("stock_locations").
		Where("id = ?", locationID)
}

// Product implements ledger.Catalog.
func (r *CatalogRepo) Product(ctx context.Context, productID id.ID) (ledger.ProductInfo, error) {
	var info ledger.ProductInfo
	if err := r.get(ctx, &info, r.productQuery(productID)); err != nil {
		return ledger.ProductInfo{}, fmt.Errorf("product %s: %w", productID, err)
	}
	return info, nil
}

// Location implements ledger.Catalog.
func (r *CatalogRepo) Location(ctx context.Context, locationID id.ID) (ledger.LocationInfo, error) {
	var info ledger.LocationInfo
	if err := r.get(ctx, &info, r.locationQuery(locationID)); err != nil {
		return ledger.LocationInfo{}, fmt.Errorf("location %s: %w", locationID, err)
	}
	return info, nil
}

// CategoryName returns the display name of a product category.
func (r *CatalogRepo) CategoryName(ctx context.Context, categoryID id.ID) (string, error) {
	var name string
	q := r.builder.Select("name").From("product_categories").Where("id = ?", categoryID)
	if err := r.get(ctx, &name, q); err != nil {
		return "", fmt.Errorf("category %s: %w", categoryID, err)
	}
	return name, nil
}

func (r *CatalogRepo) get(ctx context.Context, dst any, q squirrel.SelectBuilder) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return ledger.ErrMetadataUnavailable
		}
		return err
	}
	return nil
}
