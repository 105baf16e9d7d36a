// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; the implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs report reads against one consistent snapshot.
type Manager interface {
	// ReadOnly executes fn in a read-only transaction. Every query issued
	// through the context passed to fn sees the same point-in-time state.
	// Nested calls reuse the transaction already present in ctx.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Func adapts a plain function to Manager. Used by callers that have no
// database behind them, such as in-memory sources in tests.
type Func func(ctx context.Context, fn func(ctx context.Context) error) error

// ReadOnly implements Manager.
func (f Func) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// Passthrough runs fn directly without a transaction.
var Passthrough Manager = Func(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})
