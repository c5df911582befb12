// Package repokit holds the seams repos are bound through
package repokit

import (
	"context"

	"wlmerge/internal/platform/store"
)

// Queryer is what a bound repo runs statements on
type Queryer = store.RowQuerier

// TxRunner is a Queryer that can also open a transaction
type TxRunner = store.TxRunner

// Binder makes a repo of type T over q. Services bind once per transaction
// so the same repo code runs inside and outside a tx
type Binder[T any] interface {
	Bind(q Queryer) T
}

// BindFunc adapts a constructor to Binder
type BindFunc[T any] func(Queryer) T

func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// InTx binds inside a transaction on db and hands the repo to fn
func InTx[T any](ctx context.Context, db TxRunner, b Binder[T], fn func(T) error) error {
	return db.Tx(ctx, func(q Queryer) error { return fn(b.Bind(q)) })
}
