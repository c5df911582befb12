package errors

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes the ledger cares about
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlock             = "40P01"
	pgLockNotAvailable     = "55P03"
	pgCannotConnectNow     = "57P03"
	pgReadOnly             = "25006"
)

// PgError returns the Postgres error at the root of err, if any
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// FromPostgres wraps a database error with msg and a code derived from it:
// unique violations become Conflict, transient and connection failures
// Unavailable, everything else DB. A nil err stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return Wrap(err, CodeOf(err), msg)
	}
	code := ErrorCodeDB
	switch {
	case stderrs.Is(err, context.Canceled), stderrs.Is(err, context.DeadlineExceeded):
		code = ErrorCodeUnavailable
	case pgTransient(err), pgConnection(err):
		code = ErrorCodeUnavailable
	default:
		if pgErr, ok := PgError(err); ok && pgErr.Code == pgUniqueViolation {
			code = ErrorCodeConflict
		}
	}
	return &Error{code: code, msg: msg, orig: err}
}

func pgTransient(err error) bool {
	pgErr, ok := PgError(err)
	if !ok {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlock, pgLockNotAvailable, pgCannotConnectNow, pgReadOnly:
		return true
	}
	return false
}

func pgConnection(err error) bool {
	var ce *pgconn.ConnectError
	if stderrs.As(err, &ce) {
		return true
	}
	if pgErr, ok := PgError(err); ok {
		// class 08 is connection exception
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return false
}
