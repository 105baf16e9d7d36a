package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/journal"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/storage/postgres"
)

var _ reports.JournalSource = (*JournalRepo)(nil)

// JournalRepo reads journal items of account moves.
type JournalRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewJournalRepo creates a new journal repository.
func NewJournalRepo(txm *postgres.TxManager) *JournalRepo {
	return &JournalRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *JournalRepo) linesQuery(moveIDs []id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"am.id AS move_id",
			"am.name AS move_name",
			"COALESCE(am.ref, '') AS move_ref",
			"am.state AS move_state",
			"COALESCE(mc.name, '') AS move_currency",
			"a.name AS account_name",
			"COALESCE(lc.name, '') AS line_currency",
			"l.debit",
			"l.credit",
		).
		From("account_move_lines l").
		Join("account_moves am ON am.id = l.move_id").
		Join("accounts a ON a.id = l.account_id").
		LeftJoin("currencies lc ON lc.id = l.currency_id").
		LeftJoin("currencies mc ON mc.id = am.currency_id").
		Where("am.id = ANY(?)", moveIDs).
		OrderBy("am.date", "am.id", "l.id")
}

// Lines implements reports.JournalSource.
func (r *JournalRepo) Lines(ctx context.Context, moveIDs []id.ID) ([]journal.Line, error) {
	sql, args, err := r.linesQuery(moveIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build journal query: %w", err)
	}

	var lines []journal.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select journal lines: %w", err)
	}
	return lines, nil
}
