package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestFromPostgres(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"unique", &pgconn.PgError{Code: "23505"}, ErrorCodeConflict},
		{"serialization", &pgconn.PgError{Code: "40001"}, ErrorCodeUnavailable},
		{"deadlock wrapped", fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40P01"}), ErrorCodeUnavailable},
		{"connection class", &pgconn.PgError{Code: "08006"}, ErrorCodeUnavailable},
		{"syntax", &pgconn.PgError{Code: "42601"}, ErrorCodeDB},
		{"deadline", context.DeadlineExceeded, ErrorCodeUnavailable},
		{"plain", stderrs.New("closed pool"), ErrorCodeDB},
		{"already ours", NotFoundf("run"), ErrorCodeNotFound},
	}
	for _, c := range cases {
		got := FromPostgres(c.err, "recent runs")
		if CodeOf(got) != c.want {
			t.Fatalf("%s: code %v want %v", c.name, CodeOf(got), c.want)
		}
		if WireFrom(got).Message != "recent runs" {
			t.Fatalf("%s: message %q", c.name, WireFrom(got).Message)
		}
		if !stderrs.Is(got, c.err) {
			t.Fatalf("%s: cause lost", c.name)
		}
	}
	if FromPostgres(nil, "x") != nil {
		t.Fatalf("nil stays nil")
	}
}

func TestRetryable_Postgres(t *testing.T) {
	if !Retryable(fmt.Errorf("write: %w", &pgconn.PgError{Code: "40001"})) {
		t.Fatalf("serialization failure retries")
	}
	if Retryable(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violation does not retry")
	}
	if _, ok := PgError(stderrs.New("x")); ok {
		t.Fatalf("not a pg error")
	}
}
