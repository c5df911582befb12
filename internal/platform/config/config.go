// Package config reads settings from environment variables. Every lookup is
// optional with a default; malformed values are logged and fall back
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"wlmerge/internal/platform/logger"
)

// Conf is a view over the environment under a key prefix such as CORE_MERGE_
type Conf struct{ prefix string }

// New returns the unprefixed root
func New() Conf { return Conf{} }

// Prefix narrows c; prefixes nest
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) lookup(k string) string { return strings.TrimSpace(os.Getenv(c.key(k))) }

// may parses key with parse. Unset keys return def silently, bad values
// return def with a warning naming the key
func may[T any](c Conf, key string, def T, kind string, parse func(string) (T, bool)) T {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, ok := parse(s); ok {
		return v
	}
	logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Interface("default", def).Msg("config: invalid " + kind + ", using default")
	return def
}

// MayString returns the trimmed value or def
func (c Conf) MayString(key, def string) string {
	if s := c.lookup(key); s != "" {
		return s
	}
	return def
}

func (c Conf) MayInt(key string, def int) int {
	return may(c, key, def, "int", func(s string) (int, bool) {
		n, err := strconv.Atoi(s)
		return n, err == nil
	})
}

func (c Conf) MayBool(key string, def bool) bool {
	return may(c, key, def, "bool", func(s string) (bool, bool) {
		b, err := strconv.ParseBool(s)
		return b, err == nil
	})
}

// MayDuration takes Go durations: 250ms, 15s, 72h
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, "duration", func(s string) (time.Duration, bool) {
		d, err := time.ParseDuration(s)
		return d, err == nil
	})
}

// MayCSV splits on commas and drops blank items. All blank is def
func (c Conf) MayCSV(key string, def []string) []string {
	return may(c, key, def, "list", func(s string) ([]string, bool) {
		var out []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return def, true
		}
		return out, true
	})
}

var sizeUnits = []struct {
	suffix string
	mul    int64
}{
	{"GiB", 1 << 30}, {"MiB", 1 << 20}, {"KiB", 1 << 10},
	{"GB", 1e9}, {"MB", 1e6}, {"KB", 1e3},
	{"B", 1},
}

// MaySize takes a positive byte count with an optional unit: 32MiB, 500KB, 4096
func (c Conf) MaySize(key string, def int64) int64 {
	return may(c, key, def, "size", func(s string) (int64, bool) {
		num, mul := s, int64(1)
		for _, u := range sizeUnits {
			if strings.HasSuffix(s, u.suffix) {
				num, mul = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.mul
				break
			}
		}
		n, err := strconv.ParseInt(num, 10, 64)
		return n * mul, err == nil && n > 0
	})
}
