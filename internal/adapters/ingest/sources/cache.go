package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wlmerge/internal/platform/logger"
)

// Cache keeps the last good body of every URL on disk. Each URL maps to a
// .txt file plus a .meta sidecar
type Cache struct {
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

// cacheMeta is a tiny sidecar json with fields we actually use
type cacheMeta struct {
	URL         string    `json:"url"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	Attempt     int       `json:"attempt"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// NewCache opens dir, creating it when needed. maxAge <= 0 serves entries of
// any age
func NewCache(dir string, maxAge time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sources: cache dir: %w", err)
	}
	return &Cache{dir: dir, maxAge: maxAge, now: time.Now}, nil
}

func (c *Cache) paths(rawURL string) (body, meta string) {
	sum := sha256.Sum256([]byte(rawURL))
	base := filepath.Join(c.dir, hex.EncodeToString(sum[:12]))
	return base + ".txt", base + ".meta"
}

// Store saves b atomically
func (c *Cache) Store(b Blob) error {
	body, meta := c.paths(b.URL)
	if err := writeAtomic(body, b.Data); err != nil {
		return err
	}
	at := b.FetchedAt
	if at.IsZero() {
		at = c.now().UTC()
	}
	m, err := json.Marshal(cacheMeta{
		URL:         b.URL,
		ContentType: b.ContentType,
		Size:        int64(len(b.Data)),
		Attempt:     b.Attempt,
		FetchedAt:   at,
	})
	if err != nil {
		return err
	}
	return writeAtomic(meta, m)
}

// Load returns the cached body of rawURL when present and fresh enough
func (c *Cache) Load(rawURL string) (Blob, bool) {
	body, meta := c.paths(rawURL)
	raw, err := os.ReadFile(meta)
	if err != nil {
		return Blob{}, false
	}
	var m cacheMeta
	if err := json.Unmarshal(raw, &m); err != nil || m.URL != rawURL {
		return Blob{}, false
	}
	if c.maxAge > 0 && c.now().Sub(m.FetchedAt) > c.maxAge {
		return Blob{}, false
	}
	data, err := os.ReadFile(body)
	if err != nil || int64(len(data)) != m.Size {
		return Blob{}, false
	}
	return Blob{
		URL:         rawURL,
		Data:        data,
		ContentType: m.ContentType,
		Attempt:     m.Attempt,
		Stale:       true,
		FetchedAt:   m.FetchedAt,
	}, true
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// CachedFetcher remembers good bodies and falls back to them when the
// upstream is down
type CachedFetcher struct {
	inner Source
	cache *Cache
	log   logger.Logger
}

// NewCachedFetcher wraps inner with cache
func NewCachedFetcher(inner Source, cache *Cache) *CachedFetcher {
	return &CachedFetcher{inner: inner, cache: cache, log: *logger.Named("sources.cache")}
}

// Fetch tries the upstream first. A fresh body replaces the cached copy; on
// failure a cached copy is served with Stale set, otherwise the error stands
func (c *CachedFetcher) Fetch(ctx context.Context, rawURL string) (Blob, error) {
	b, err := c.inner.Fetch(ctx, rawURL)
	if err == nil {
		if serr := c.cache.Store(b); serr != nil {
			c.log.Warn().Err(serr).Str("url", rawURL).Msg("cache store failed")
		}
		return b, nil
	}
	if IsCanceled(err) {
		return Blob{}, err
	}
	if stale, ok := c.cache.Load(rawURL); ok {
		c.log.Warn().Err(err).Str("url", rawURL).Time("fetched_at", stale.FetchedAt).Msg("serving cached copy")
		return stale, nil
	}
	return Blob{}, err
}
