package ch

import (
	"os"
	"strings"

	"wlmerge/internal/core/version"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo tags queries in system.query_log with the service, its
// role ("merge", "api") and the build that ran them
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	bi := version.Info()
	host, _ := os.Hostname()
	commit := bi.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	type product = struct{ Name, Version string }
	return clickhouse.ClientInfo{Products: []product{
		{Name: "wlmerge", Version: strings.TrimSpace(tag)},
		{Name: "role", Version: strings.TrimSpace(role)},
		{Name: bi.Service, Version: bi.Version},
		{Name: "commit", Version: commit},
		{Name: "host", Version: host},
	}}
}
