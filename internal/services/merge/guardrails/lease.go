package guardrails

import (
	"context"
	"errors"
	"time"

	"wlmerge/internal/modkit/repokit"

	"github.com/google/uuid"
)

// ErrLeaseHeld signals another process is running a merge already
var ErrLeaseHeld = errors.New("merge: run lease already held")

// LeaseFunc runs do while holding the named lease
type LeaseFunc func(ctx context.Context, do func(context.Context) error) error

// MakeRunLease returns a LeaseFunc backed by the merge_leases table. A lease
// older than ttl is taken over, so a crashed run never blocks the next one.
// The row is deleted once do returns
func MakeRunLease(db repokit.TxRunner, name string, ttl time.Duration) LeaseFunc {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return func(ctx context.Context, do func(context.Context) error) error {
		holder := uuid.NewString()
		var claimed bool
		err := db.Tx(ctx, func(q repokit.Queryer) error {
			rows, err := q.Query(ctx, `
				insert into merge_leases (name, holder, expires_at)
				values ($1, $2, now() + make_interval(secs => $3))
				on conflict (name) do update
				set holder = excluded.holder, expires_at = excluded.expires_at
				where merge_leases.expires_at < now()
				returning true
			`, name, holder, ttl.Seconds())
			if err != nil {
				return err
			}
			defer rows.Close()
			claimed = rows.Next()
			return rows.Err()
		})
		if err != nil {
			return err
		}
		if !claimed {
			return ErrLeaseHeld
		}
		defer func() {
			// release on a fresh context, the run context may be done already
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_, _ = db.Exec(rctx, `delete from merge_leases where name = $1 and holder = $2`, name, holder)
		}()
		return do(ctx)
	}
}
