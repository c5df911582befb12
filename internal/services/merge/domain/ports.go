package domain

import (
	"context"

	"wlmerge/internal/adapters/publish"
)

// RunnerPort is the public port of the merge module
type RunnerPort interface {
	Run(ctx context.Context) (Report, error)
}

// LedgerPort is what read side callers (the API) use
type LedgerPort interface {
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// LedgerRepo persists runs, per source outcomes and excluded lines
type LedgerRepo interface {
	// EnsureSchema creates the ledger tables when missing
	EnsureSchema(ctx context.Context) error

	// StartRun inserts a running row
	StartRun(ctx context.Context, rep Report) error

	// FinishRun stores the final counters and status
	FinishRun(ctx context.Context, rep Report) error

	// InsertSources stores one row per source
	InsertSources(ctx context.Context, runID string, srcs []SourceResult) error

	// InsertExcluded stores dropped lines for one artifact
	InsertExcluded(ctx context.Context, runID, artifact string, rows []ExcludedRow) error

	// RecentRuns lists the latest runs, newest first
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// ExcludedRow is one dropped line
type ExcludedRow struct {
	Line   string
	Reason string
}

// ObservationWriter appends observations to the columnar store
type ObservationWriter interface {
	EnsureTable(ctx context.Context) error
	Write(ctx context.Context, obs []Observation) error
}

// Source fetches one source URL
type Source interface {
	Fetch(ctx context.Context, rawURL string) (Blob, error)
}

// Publisher is re-exported so wiring does not import the adapter
type Publisher = publish.Publisher

// LocalStore is the output directory: it reads back the curated file and
// receives every artifact first
type LocalStore interface {
	Publisher
	Read(path string) ([]byte, error)
}

// ArtifactPort reads the published files back from the output directory
type ArtifactPort interface {
	// Artifact returns the file content; a missing file is a NotFound error
	Artifact(ctx context.Context, name string) ([]byte, error)
	// Artifacts lists every known artifact, present or not
	Artifacts(ctx context.Context) ([]ArtifactInfo, error)
}
