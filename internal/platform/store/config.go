package store

import (
	"time"

	"wlmerge/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries is how many extra pings Open makes before giving up
	ConnectRetries int
	PingTimeout    time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
	// Role tags the connection in system.query_log ("merge", "api")
	Role        string
	DialTimeout time.Duration
}

// FromConfig reads SERVICE_PGSQL_* and SERVICE_CLICKHOUSE_*. A backend is
// enabled when its DBURL is set; both are optional for the merge binaries
func FromConfig(root config.Conf, role string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")

	pgURL := pg.MayString("DBURL", "")
	chURL := ch.MayString("DBURL", "")
	return Config{
		AppName: "wlmerge-" + role,
		PG: PGConfig{
			Enabled:        pgURL != "",
			URL:            pgURL,
			MaxConns:       int32(pg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs:    pg.MayInt("SLOW_MS", 500),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			ConnectRetries: pg.MayInt("CONNECT_RETRIES", 6),
			PingTimeout:    pg.MayDuration("PING_TIMEOUT", 5*time.Second),
		},
		CH: CHConfig{
			Enabled:     chURL != "",
			URL:         chURL,
			Role:        role,
			DialTimeout: ch.MayDuration("DIAL_TIMEOUT", 10*time.Second),
		},
	}
}
