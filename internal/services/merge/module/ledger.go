package module

import (
	"context"

	"wlmerge/internal/modkit/repokit"
	"wlmerge/internal/services/merge/domain"
)

// ledger adapts the repo binder to domain.LedgerPort for read side callers
type ledger struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.LedgerRepo]
}

func (l ledger) RecentRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	return l.binder.Bind(l.db).RecentRuns(ctx, limit)
}
