package store

import (
	"context"
	"errors"
	"fmt"

	"wlmerge/internal/platform/store/ch"
)

// chClient is the part of *ch.CH the adapter calls
type chClient interface {
	Ping(ctx context.Context) error
	Insert(ctx context.Context, table string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) error
	Close() error
}

// clickhouseAdapter narrows a ch client to the Clickhouse seam. Inserts take
// rows as [][]any in table column order
type clickhouseAdapter struct {
	inner chClient
}

var (
	_ Clickhouse = (*clickhouseAdapter)(nil)
	_ Pinger     = (*clickhouseAdapter)(nil)
)

func newCHAdapter(c chClient) Clickhouse { return &clickhouseAdapter{inner: c} }

func (a *clickhouseAdapter) Insert(ctx context.Context, table string, data any) error {
	switch rows := data.(type) {
	case [][]any:
		return a.inner.Insert(ctx, table, rows)
	default:
		return fmt.Errorf("store: clickhouse insert into %s wants [][]any, got %T", table, data)
	}
}

func (a *clickhouseAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.inner.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

func (a *clickhouseAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	return a.inner.Exec(ctx, sql, args...)
}

func (a *clickhouseAdapter) Ping(ctx context.Context) error {
	if a == nil || a.inner == nil {
		return errors.New("ch: not connected")
	}
	return a.inner.Ping(ctx)
}

func (a *clickhouseAdapter) Close() error { return a.inner.Close() }

// chRows drops the error ch.Rows returns from Close
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
