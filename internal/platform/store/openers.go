package store

import (
	"context"
	"fmt"
	"time"

	chx "wlmerge/internal/platform/store/ch"
	"wlmerge/internal/platform/store/pg"
)

const (
	backoffStart = 150 * time.Millisecond
	backoffMax   = 5 * time.Second
)

// sleep is swapped in tests
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// openPG builds the pool and pings it with exponential backoff up to
// ConnectRetries extra attempts. The adapter is returned only once healthy
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}
	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		AppName:  cfg.AppName,
		Slow:     time.Duration(cfg.PG.SlowQueryMs) * time.Millisecond,
	}, tracer)
	if err != nil {
		return nil, fmt.Errorf("pg: open: %w", err)
	}
	a := newPGAdapter(p)

	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	backoff := backoffStart
	var lastErr error
	for attempt := 0; attempt <= max(cfg.PG.ConnectRetries, 0); attempt++ {
		if attempt > 0 {
			s.Log.Warn().Err(lastErr).Int("attempt", attempt).Dur("backoff", backoff).Msg("store: postgres not ready")
			if err := sleep(ctx, backoff); err != nil {
				p.Close()
				return nil, err
			}
			backoff = min(backoff*2, backoffMax)
		}
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = a.Ping(pctx)
		cancel()
		if lastErr == nil {
			return a, nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
	}
	p.Close()
	return nil, fmt.Errorf("pg: ping failed after %d attempts: %w", max(cfg.PG.ConnectRetries, 0)+1, lastErr)
}

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:         cfg.CH.URL,
		Role:        cfg.CH.Role,
		Tag:         cfg.AppName,
		DialTimeout: cfg.CH.DialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
