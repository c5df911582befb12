package repo

import (
	"context"
	"errors"

	"wlmerge/internal/platform/store"
	"wlmerge/internal/services/merge/domain"
)

// ObservationsTable is the clickhouse table observations go to
const ObservationsTable = "descriptor_observations"

const observationsDDL = `
CREATE TABLE IF NOT EXISTS descriptor_observations (
	run_id      UUID,
	observed_at DateTime64(3, 'UTC'),
	artifact    LowCardinality(String),
	ordinal     UInt32,
	scheme      LowCardinality(String),
	host        String,
	port        UInt16,
	key         String,
	label       LowCardinality(String),
	whitelisted Bool
) ENGINE = MergeTree
PARTITION BY toYYYYMM(observed_at)
ORDER BY (artifact, host, observed_at)`

// CH writes observations through the store clickhouse seam
type CH struct {
	ch    store.Clickhouse
	chunk int
}

// NewCH returns a writer; chunk <= 0 selects 5000 rows per insert
func NewCH(ch store.Clickhouse, chunk int) *CH {
	if chunk <= 0 {
		chunk = 5000
	}
	return &CH{ch: ch, chunk: chunk}
}

var _ domain.ObservationWriter = (*CH)(nil)

// EnsureTable creates the table when missing
func (w *CH) EnsureTable(ctx context.Context) error {
	if w == nil || w.ch == nil {
		return errors.New("merge repo: clickhouse not configured")
	}
	return w.ch.Exec(ctx, observationsDDL)
}

// Write inserts obs in chunks; column order follows the DDL
func (w *CH) Write(ctx context.Context, obs []domain.Observation) error {
	if w == nil || w.ch == nil {
		return errors.New("merge repo: clickhouse not configured")
	}
	for i := 0; i < len(obs); i += w.chunk {
		end := min(i+w.chunk, len(obs))
		rows := make([][]any, 0, end-i)
		for _, o := range obs[i:end] {
			rows = append(rows, []any{
				o.RunID, o.ObservedAt.UTC(), o.Artifact, uint32(o.Ordinal),
				o.Scheme, o.Host, o.Port, o.Key, o.Label, o.Whitelisted,
			})
		}
		if err := w.ch.Insert(ctx, ObservationsTable, rows); err != nil {
			return err
		}
	}
	return nil
}
