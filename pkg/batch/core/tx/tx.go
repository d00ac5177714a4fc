// Package tx abstracts transaction management so the sync core can commit and
// roll back a run's writes without knowing the storage engine.
package tx

import (
	"context"
	"database/sql"
)

// Tx represents an ongoing transaction.
type Tx interface {
	// Unwrap returns the adapter's native handle (for gorm, a *gorm.DB bound to the transaction).
	Unwrap() interface{}
}

// TransactionManager manages the lifecycle of transactions.
type TransactionManager interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context, opts ...*sql.TxOptions) (Tx, error)
	// Commit persists every change made within tx.
	Commit(tx Tx) error
	// Rollback undoes every change made within tx.
	Rollback(tx Tx) error
}

type txKey struct{}

// WithTx returns a context carrying t. Repositories join the carried transaction.
func WithTx(ctx context.Context, t Tx) context.Context {
	return context.WithValue(ctx, txKey{}, t)
}

// FromContext returns the transaction carried by ctx, if any.
func FromContext(ctx context.Context) (Tx, bool) {
	t, ok := ctx.Value(txKey{}).(Tx)
	return t, ok && t != nil
}

// WithoutTx returns a context that hides any carried transaction, for writes that must
// commit on their own (progress reports, run bookkeeping).
func WithoutTx(ctx context.Context) context.Context {
	if _, ok := FromContext(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, nil)
}

// NoopTransactionManager hands out transactions that apply writes immediately.
// It backs the in-memory store, where there is nothing to roll back.
type NoopTransactionManager struct{}

type noopTx struct{}

func (noopTx) Unwrap() interface{} { return nil }

// Begin implements TransactionManager.
func (NoopTransactionManager) Begin(context.Context, ...*sql.TxOptions) (Tx, error) {
	return noopTx{}, nil
}

// Commit implements TransactionManager.
func (NoopTransactionManager) Commit(Tx) error { return nil }

// Rollback implements TransactionManager.
func (NoopTransactionManager) Rollback(Tx) error { return nil }
