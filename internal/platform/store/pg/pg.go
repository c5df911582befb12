// Package pg opens the pgx pool behind the run ledger
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the pool
type Config struct {
	URL      string
	MaxConns int32
	// AppName is reported as application_name in pg_stat_activity
	AppName string
	// Slow marks queries at or above it; zero disables the mark
	Slow time.Duration
}

// PG owns the pool and the optional tracer
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	Slow   time.Duration
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg.URL and builds the pool. It does not ping
func Open(ctx context.Context, cfg Config, tracer QueryTracer) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.AppName != "" {
		pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool, Tracer: tracer, Slow: cfg.Slow}, nil
}

// IsSlow reports whether elapsed crosses the slow mark
func (p *PG) IsSlow(elapsed time.Duration) bool {
	return p != nil && p.Slow > 0 && elapsed >= p.Slow
}

// Close closes the pool; nil safe
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
