package repokit

import (
	"context"
	"errors"
	"testing"

	"wlmerge/internal/platform/store"
)

type nopQ struct{ id int }

func (nopQ) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (nopQ) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (nopQ) QueryRow(context.Context, string, ...any) store.Row { return nil }

type txq struct {
	nopQ
	opened int
}

func (t *txq) Tx(_ context.Context, fn func(store.RowQuerier) error) error {
	t.opened++
	return fn(nopQ{id: 7})
}

type repo struct{ q Queryer }

func TestInTx_BindsTheTxQueryer(t *testing.T) {
	db := &txq{}
	b := BindFunc[repo](func(q Queryer) repo { return repo{q: q} })

	var got repo
	err := InTx(context.Background(), db, b, func(r repo) error { got = r; return nil })
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if db.opened != 1 {
		t.Fatalf("opened=%d want 1", db.opened)
	}
	if q, ok := got.q.(nopQ); !ok || q.id != 7 {
		t.Fatalf("repo bound to %#v, want the tx queryer", got.q)
	}
}

func TestInTx_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	b := BindFunc[repo](func(q Queryer) repo { return repo{q: q} })
	err := InTx(context.Background(), &txq{}, b, func(repo) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
}
