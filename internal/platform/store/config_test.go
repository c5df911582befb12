// internal/platform/store/config_test.go
package store

import (
	"testing"
	"time"

	"wlmerge/internal/platform/config"
)

func TestFromConfig_DisabledWithoutURLs(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "")
	t.Setenv("SERVICE_CLICKHOUSE_DBURL", "")

	c := FromConfig(config.New(), "merge")
	if c.PG.Enabled || c.CH.Enabled {
		t.Fatalf("backends enabled without urls: %+v", c)
	}
	if c.AppName != "wlmerge-merge" || c.CH.Role != "merge" || c.PG.MaxConns != 4 {
		t.Fatalf("defaults %+v", c)
	}
}

func TestFromConfig_Enabled(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://u:p@db:5432/wl")
	t.Setenv("SERVICE_PGSQL_MAX_CONNS", "9")
	t.Setenv("SERVICE_CLICKHOUSE_DBURL", "clickhouse://ch:9000/wl")
	t.Setenv("SERVICE_CLICKHOUSE_DIAL_TIMEOUT", "3s")

	c := FromConfig(config.New(), "api")
	if !c.PG.Enabled || c.PG.MaxConns != 9 || c.PG.URL != "postgres://u:p@db:5432/wl" {
		t.Fatalf("pg %+v", c.PG)
	}
	if !c.CH.Enabled || c.CH.DialTimeout != 3*time.Second {
		t.Fatalf("ch %+v", c.CH)
	}
}
