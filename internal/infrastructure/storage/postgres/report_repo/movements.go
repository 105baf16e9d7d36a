// Package report_repo provides PostgreSQL implementations of the report sources.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/storage/postgres"
)

var _ reports.MovementSource = (*MovementRepo)(nil)

// moveRow is one stock_moves row joined with both location usages.
type moveRow struct {
	ID            id.ID           `db:"id"`
	ProductID     id.ID           `db:"product_id"`
	CategoryID    id.ID           `db:"category_id"`
	LocationID    id.ID           `db:"location_id"`
	LocationUsage ledger.Usage    `db:"location_usage"`
	DestID        id.ID           `db:"location_dest_id"`
	DestUsage     ledger.Usage    `db:"location_dest_usage"`
	Quantity      decimal.Decimal `db:"quantity"`
	Date          time.Time       `db:"date"`
}

func (r moveRow) toRecord() ledger.Move {
	return ledger.Move{
		Product:  r.ProductID,
		Category: r.CategoryID,
		From:     ledger.Location{ID: r.LocationID, Usage: r.LocationUsage},
		To:       ledger.Location{ID: r.DestID, Usage: r.DestUsage},
		Qty:      r.Quantity,
		At:       r.Date.UTC(),
	}
}

var moveColumns = []string{
	"m.id",
	"m.product_id",
	"p.category_id",
	"m.location_id",
	"src.usage AS location_usage",
	"m.location_dest_id",
	"dst.usage AS location_dest_usage",
	"m.product_uom_qty AS quantity",
	"m.date",
}

// MovementRepo streams stock moves for the report engine.
type MovementRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// buildQuery renders the movement selection. The end date is inclusive, so
// the bound is the start of the following day.
func (r *MovementRepo) buildQuery(filter reports.MovementFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select(moveColumns...).
		From("stock_moves m").
		Join("products p ON p.id = m.product_id").
		Join("stock_locations src ON src.id = m.location_id").
		Join("stock_locations dst ON dst.id = m.location_dest_id").
		Where(squirrel.Lt{"m.date": filter.DateEnd.AddDate(0, 0, 1)})

	if len(filter.States) > 0 {
		q = q.Where("m.state = ANY(?)", filter.States)
	}

	switch {
	case len(filter.ProductIDs) > 0:
		q = q.Where("m.product_id = ANY(?)", filter.ProductIDs)
	case len(filter.CategoryIDs) > 0:
		q = q.Where("p.category_id = ANY(?)", filter.CategoryIDs)
	}

	if len(filter.LocationIDs) > 0 {
		q = q.Where(squirrel.Or{
			squirrel.Expr("m.location_id = ANY(?)", filter.LocationIDs),
			squirrel.Expr("m.location_dest_id = ANY(?)", filter.LocationIDs),
		})
	}

	if filter.Order == reports.OrderByDate {
		return q.OrderBy("m.product_id", "m.date", "m.id")
	}
	return q.OrderBy("m.product_id", "m.location_id", "m.location_dest_id", "m.date", "m.id")
}

// StreamMovements runs the query and hands every row to fn without
// buffering the result set.
func (r *MovementRepo) StreamMovements(ctx context.Context, filter reports.MovementFilter, fn func(ledger.Record) error) error {
	sql, args, err := r.buildQuery(filter).ToSql()
	if err != nil {
		return fmt.Errorf("build movements query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	scanner := pgxscan.NewRowScanner(rows)
	for rows.Next() {
		var row moveRow
		if err := scanner.Scan(&row); err != nil {
			return fmt.Errorf("scan movement: %w", err)
		}
		if err := fn(row.toRecord()); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate movements: %w", err)
	}
	return nil
}
