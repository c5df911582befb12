// Package repo provides postgres and clickhouse access for merge runs
package repo

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"wlmerge/internal/modkit/repokit"
	perr "wlmerge/internal/platform/errors"
	"wlmerge/internal/services/merge/domain"
)

//go:embed schema.sql
var schemaSQL string

type (
	// PG is a Postgres binder for domain.LedgerRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.LedgerRepo
func NewPG() repokit.Binder[domain.LedgerRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.LedgerRepo { return &queries{q: q} }

// EnsureSchema runs the embedded DDL; every statement is idempotent
func (r *queries) EnsureSchema(ctx context.Context) error {
	_, err := r.q.Exec(ctx, schemaSQL)
	return perr.FromPostgres(err, "ensure ledger schema")
}

// StartRun inserts the run row (idempotent)
func (r *queries) StartRun(ctx context.Context, rep domain.Report) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO merge_runs (id, status, started_at, sources)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET status = excluded.status, started_at = excluded.started_at, finished_at = null, error = null
	`, rep.RunID, domain.StatusRunning, rep.StartedAt.UTC(), len(rep.Sources))
	return perr.FromPostgres(err, "start run")
}

// FinishRun stores final counters
func (r *queries) FinishRun(ctx context.Context, rep domain.Report) error {
	var errText string
	if rep.Err != nil {
		errText = rep.Err.Error()
	}
	_, err := r.q.Exec(ctx, `
		UPDATE merge_runs SET
			status = $2,
			finished_at = $3,
			sources = $4,
			sources_ok = $5,
			from_urls = $6,
			from_curated = $7,
			uniq = $8,
			duplicates = $9,
			merged = $10,
			whitelist = $11,
			excluded = $12,
			elapsed_ms = $13,
			error = NULLIF($14,'')
		WHERE id = $1
	`,
		rep.RunID, rep.Status, rep.FinishedAt.UTC(), len(rep.Sources), rep.SourcesOK(),
		rep.FromURLs, rep.FromCurated, rep.Unique, rep.Duplicates, rep.Merged, rep.Whitelist,
		rep.Excluded(), int(rep.FinishedAt.Sub(rep.StartedAt).Milliseconds()), errText,
	)
	return perr.FromPostgres(err, "finish run")
}

// InsertSources stores per source outcomes in input order
func (r *queries) InsertSources(ctx context.Context, runID string, srcs []domain.SourceResult) error {
	const q = `
		INSERT INTO merge_sources (run_id, ord, url, lines, bytes, attempt, stale, elapsed_ms, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9,''))
		ON CONFLICT (run_id, ord) DO NOTHING
	`
	for i, s := range srcs {
		var errText string
		if s.Err != nil {
			errText = s.Err.Error()
		}
		if _, err := r.q.Exec(ctx, q,
			runID, i, s.URL, len(s.Lines), s.Bytes, s.Attempt, s.Stale,
			int(s.Elapsed.Milliseconds()), errText,
		); err != nil {
			return perr.FromPostgres(err, fmt.Sprintf("insert source %d", i))
		}
	}
	return nil
}

// InsertExcluded stores dropped lines with their reasons
func (r *queries) InsertExcluded(ctx context.Context, runID, artifact string, rows []domain.ExcludedRow) error {
	if len(rows) == 0 {
		return nil
	}
	lines := make([]string, 0, len(rows))
	reasons := make([]string, 0, len(rows))
	for _, x := range rows {
		lines = append(lines, x.Line)
		reasons = append(reasons, x.Reason)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO merge_excluded (run_id, artifact, ord, line, reason)
		SELECT $1, $2, t.ord - 1, t.line, t.reason
		FROM UNNEST($3::text[], $4::text[]) WITH ORDINALITY AS t(line, reason, ord)
		ON CONFLICT (run_id, artifact, ord) DO NOTHING
	`, runID, artifact, lines, reasons)
	return perr.FromPostgres(err, "insert excluded")
}

// RecentRuns lists runs newest first
func (r *queries) RecentRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.q.Query(ctx, `
		SELECT id::text, status, started_at, finished_at, sources, sources_ok, from_urls,
		       from_curated, uniq, duplicates, merged, whitelist, excluded, elapsed_ms, error
		FROM merge_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "recent runs")
	}
	defer rows.Close()

	var out []domain.RunSummary
	for rows.Next() {
		var s domain.RunSummary
		var fin sql.NullTime
		var errText sql.NullString
		if err := rows.Scan(
			&s.ID, &s.Status, &s.StartedAt, &fin, &s.Sources, &s.SourcesOK, &s.FromURLs,
			&s.FromCurated, &s.Unique, &s.Duplicates, &s.Merged, &s.Whitelist, &s.Excluded,
			&s.ElapsedMS, &errText,
		); err != nil {
			return nil, perr.FromPostgres(err, "scan run")
		}
		if fin.Valid {
			t := fin.Time.UTC()
			s.FinishedAt = &t
		}
		s.StartedAt = s.StartedAt.UTC()
		s.Error = errText.String
		out = append(out, s)
	}
	return out, perr.FromPostgres(rows.Err(), "recent runs")
}
