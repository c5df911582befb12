// Package domain holds the data structures and ports of a merge run
package domain

import (
	"time"

	"wlmerge/internal/adapters/ingest/sources"
	"wlmerge/internal/adapters/publish"
	"wlmerge/internal/core/exclude"
)

// Blob re-exports the fetched body shape used by Source
type Blob = sources.Blob

// Run statuses stored in the ledger
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusEmpty   = "empty"
	StatusError   = "error"
)

// SourceResult is what one fetch task hands back to the orchestrator
type SourceResult struct {
	URL     string
	Lines   []string
	Bytes   int
	Attempt int
	Stale   bool
	Err     error
	Elapsed time.Duration
}

// OK reports whether the source contributed lines
func (r SourceResult) OK() bool { return r.Err == nil && len(r.Lines) > 0 }

// Report summarizes one run
type Report struct {
	RunID      string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time

	Sources []SourceResult

	FromURLs          int
	FromCurated       int
	CuratedDuplicates int
	CuratedFound      bool

	Unique     int
	Duplicates int
	Merged     int
	Whitelist  int

	ExcludedMerged    []exclude.Excluded
	ExcludedWhitelist []exclude.Excluded
	ExcludeStats      []exclude.Stat

	Published []publish.Result
	Err       error
}

// Excluded returns the number of lines dropped by patterns in both outputs
func (r Report) Excluded() int { return len(r.ExcludedMerged) + len(r.ExcludedWhitelist) }

// SourcesOK counts sources that contributed lines
func (r Report) SourcesOK() int {
	n := 0
	for _, s := range r.Sources {
		if s.OK() {
			n++
		}
	}
	return n
}

// RunSummary is a ledger row as listed by the API
type RunSummary struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Sources     int        `json:"sources"`
	SourcesOK   int        `json:"sources_ok"`
	FromURLs    int        `json:"from_urls"`
	FromCurated int        `json:"from_curated"`
	Unique      int        `json:"unique"`
	Duplicates  int        `json:"duplicates"`
	Merged      int        `json:"merged"`
	Whitelist   int        `json:"whitelist"`
	Excluded    int        `json:"excluded"`
	ElapsedMS   int        `json:"elapsed_ms"`
	Error       string     `json:"error,omitempty"`
}

// Observation is one published descriptor as stored in ClickHouse
type Observation struct {
	RunID       string
	ObservedAt  time.Time
	Artifact    string
	Ordinal     int
	Scheme      string
	Host        string
	Port        uint16
	Key         string
	Label       string
	Whitelisted bool
}

// ArtifactInfo describes one file in the output directory
type ArtifactInfo struct {
	Name        string `json:"name"         example:"wl"`
	Path        string `json:"path"         example:"confs/wl.txt"`
	Present     bool   `json:"present"      example:"true"`
	Bytes       int    `json:"bytes"        example:"48213"`
	Descriptors int    `json:"descriptors"  example:"311"`
	Updated     string `json:"updated,omitempty" example:"09:05 | 16.10.2026"`
}
