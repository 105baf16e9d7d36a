package reports

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/ledger"
)

// Normalize fills defaults and truncates both bounds to their UTC date.
func (f StockInOutFilter) Normalize() StockInOutFilter {
	if f.State == "" {
		f.State = StateDone
	}
	if f.Type == "" {
		f.Type = ledger.ModeDetailed
	}
	f.DateStart = truncateDate(f.DateStart)
	f.DateEnd = truncateDate(f.DateEnd)
	return f
}

// Validate checks the filter. A start after the end is allowed: every
// movement then lands in the opening balance.
func (f StockInOutFilter) Validate() error {
	if f.DateStart.IsZero() || f.DateEnd.IsZero() {
		return apperror.NewValidation("dateStart and dateEnd are required")
	}
	if !f.State.IsValid() {
		return apperror.NewInvalidInput("state", string(f.State))
	}
	if _, err := ledger.ParseMode(string(f.Type)); err != nil {
		return apperror.NewInvalidInput("type", string(f.Type))
	}
	return nil
}

// MovementFilter derives the source query. Product ids take precedence over
// categories: the category filter is dropped when products are given.
func (f StockInOutFilter) MovementFilter() MovementFilter {
	mf := MovementFilter{
		DateEnd:     f.DateEnd,
		States:      f.State.StoredStates(),
		ProductIDs:  f.ProductIDs,
		LocationIDs: f.LocationIDs,
		Order:       OrderByLocation,
	}
	if len(f.ProductIDs) == 0 {
		mf.CategoryIDs = f.CategoryIDs
	}
	if f.Type == ledger.ModeSummary {
		mf.Order = OrderByDate
	}
	return mf
}

// Params derives the aggregation parameters.
func (f StockInOutFilter) Params() ledger.Params {
	return ledger.Params{
		PeriodStart: f.DateStart,
		PeriodEnd:   f.DateEnd,
		Mode:        f.Type,
		Locations:   f.LocationIDs,
	}
}

func truncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
