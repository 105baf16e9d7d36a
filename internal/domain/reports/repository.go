package reports

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/journal"
	"stockledger/internal/domain/ledger"
)

// MovementSource streams stock movements matching a filter. Iteration stops
// at the first error from fn or from the underlying store.
type MovementSource interface {
	StreamMovements(ctx context.Context, filter MovementFilter, fn func(ledger.Record) error) error
}

// Catalog resolves product, location and category metadata.
type Catalog interface {
	ledger.Catalog
	CategoryName(ctx context.Context, categoryID id.ID) (string, error)
}

// JournalSource loads journal lines of the given moves.
type JournalSource interface {
	Lines(ctx context.Context, moveIDs []id.ID) ([]journal.Line, error)
}
