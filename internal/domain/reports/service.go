package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/journal"
	"stockledger/internal/domain/ledger"
	"stockledger/pkg/logger"
)

var tracer = otel.Tracer("stockledger/reports")

// Service provides report generation operations.
type Service struct {
	txm       tx.Manager
	movements MovementSource
	catalog   Catalog
	journal   JournalSource
	now       func() time.Time
}

// NewService creates a new reports service.
func NewService(txm tx.Manager, movements MovementSource, catalog Catalog, journal JournalSource) *Service {
	return &Service{
		txm:       txm,
		movements: movements,
		catalog:   catalog,
		journal:   journal,
		now:       time.Now,
	}
}

// StockInOut builds the stock movement balance report. Reads run inside one
// read-only snapshot; any source failure discards the whole report.
func (s *Service) StockInOut(ctx context.Context, filter StockInOutFilter) (*StockInOutReport, error) {
	filter = filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "reports.StockInOut",
		trace.WithAttributes(
			attribute.String("report.type", string(filter.Type)),
			attribute.String("report.state", string(filter.State)),
		))
	defer span.End()

	report := &StockInOutReport{
		Filter:    filter,
		DateStart: filter.DateStart,
		DateEnd:   filter.DateEnd,
		Type:      filter.Type,
		State:     filter.State,
	}

	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		agg := ledger.NewAggregator(filter.Params())

		err := s.movements.StreamMovements(ctx, filter.MovementFilter(), func(r ledger.Record) error {
			agg.Add(r)
			return nil
		})
		if err != nil {
			return fmt.Errorf("stream movements: %w", err)
		}

		rows, err := agg.Rows(ctx, s.catalog)
		if err != nil {
			return fmt.Errorf("finalize rows: %w", err)
		}

		desc, err := s.describe(ctx, filter)
		if err != nil {
			return fmt.Errorf("describe filter: %w", err)
		}

		report.Rows = rows
		report.Stats = agg.Stats()
		report.Description = desc
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, sourceError(err)
	}

	report.Totals = ComputeTotals(report.Rows)
	report.GeneratedAt = s.now()

	span.SetAttributes(attribute.Int("report.rows", len(report.Rows)))
	logger.Info(ctx, "stock in/out report built",
		"type", filter.Type,
		"date_start", filter.DateStart.Format(time.DateOnly),
		"date_end", filter.DateEnd.Format(time.DateOnly),
		"records", report.Stats.Seen,
		"skipped", report.Stats.Skipped,
		"rows", len(report.Rows),
		"dropped", report.Stats.Dropped,
	)

	return report, nil
}

// JournalSummary totals the posted lines of the given journal entries.
func (s *Service) JournalSummary(ctx context.Context, filter JournalFilter) (*JournalSummary, error) {
	if len(filter.MoveIDs) == 0 {
		return nil, apperror.NewValidation("at least one moveId is required")
	}

	ctx, span := tracer.Start(ctx, "reports.JournalSummary",
		trace.WithAttributes(attribute.Int("journal.moves", len(filter.MoveIDs))))
	defer span.End()

	var lines []journal.Line
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		lines, err = s.journal.Lines(ctx, filter.MoveIDs)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, sourceError(fmt.Errorf("load journal lines: %w", err))
	}

	summary := journal.Summarize(lines, filter.Reference)
	debit, credit := journal.Totals(summary)

	logger.Debug(ctx, "journal summary built", "moves", len(filter.MoveIDs), "lines", len(lines), "accounts", len(summary))

	return &JournalSummary{
		Lines:       summary,
		TotalDebit:  debit,
		TotalCredit: credit,
	}, nil
}

// ComputeTotals sums the report columns.
func ComputeTotals(rows []ledger.ReportRow) Totals {
	var t Totals
	for _, r := range rows {
		t.Initial = t.Initial.Add(r.Initial)
		t.Purchased = t.Purchased.Add(r.Purchased)
		t.ReturnToSupplier = t.ReturnToSupplier.Add(r.ReturnToSupplier)
		t.Sold = t.Sold.Add(r.Sold)
		t.ReturnFromCustomer = t.ReturnFromCustomer.Add(r.ReturnFromCustomer)
		t.Loss = t.Loss.Add(r.Loss)
		t.Gain = t.Gain.Add(r.Gain)
		t.NetIncoming = t.NetIncoming.Add(r.NetIncoming)
		t.NetOutgoing = t.NetOutgoing.Add(r.NetOutgoing)
		t.Ending = t.Ending.Add(r.Ending)
		t.Valuation = t.Valuation.Add(r.Valuation)
	}
	return t
}

// describe resolves display names of the filtered ids. Unknown ids are skipped.
func (s *Service) describe(ctx context.Context, filter StockInOutFilter) (Description, error) {
	var d Description

	for _, locID := range filter.LocationIDs {
		info, err := s.catalog.Location(ctx, locID)
		if err != nil {
			if errors.Is(err, ledger.ErrMetadataUnavailable) {
				continue
			}
			return d, err
		}
		d.Locations = append(d.Locations, info.Name)
	}

	for _, productID := range filter.ProductIDs {
		info, err := s.catalog.Product(ctx, productID)
		if err != nil {
			if errors.Is(err, ledger.ErrMetadataUnavailable) {
				continue
			}
			return d, err
		}
		d.Products = append(d.Products, info.Name)
	}

	for _, categoryID := range filter.CategoryIDs {
		name, err := s.categoryName(ctx, categoryID)
		if err != nil {
			return d, err
		}
		if name != "" {
			d.Categories = append(d.Categories, name)
		}
	}

	return d, nil
}

func (s *Service) categoryName(ctx context.Context, categoryID id.ID) (string, error) {
	name, err := s.catalog.CategoryName(ctx, categoryID)
	if errors.Is(err, ledger.ErrMetadataUnavailable) {
		return "", nil
	}
	return name, err
}

// sourceError maps failures of a report run to client-facing errors.
func sourceError(err error) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewTimeout(err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperror.NewSourceFailure(err)
}
