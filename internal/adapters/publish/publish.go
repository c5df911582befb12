// Package publish pushes generated artifacts to their destinations: a local
// directory, git hosting contents APIs and S3 compatible object storage
package publish

import (
	"context"
	"slices"
	"time"
)

// Outcome is what a Publish call did
type Outcome uint8

const (
	// Skipped means the target is disabled or not configured
	Skipped Outcome = iota
	// Unchanged means the remote already holds identical content
	Unchanged
	// Updated replaced existing content
	Updated
	// Created wrote content that did not exist
	Created
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	case Created:
		return "created"
	default:
		return "skipped"
	}
}

// Publisher writes content at path on one destination. Implementations skip
// the write when the destination already holds the same bytes
type Publisher interface {
	Name() string
	Publish(ctx context.Context, path string, content []byte) (Outcome, error)
}

// Result is one publish attempt for the run report
type Result struct {
	Target  string
	Path    string
	Outcome Outcome
	Err     error
	Elapsed time.Duration
}

// All publishes every file on every target it is meant for, in order. Failures are collected
// per target and never stop the remaining writes
func All(ctx context.Context, targets []Publisher, files []File) []Result {
	out := make([]Result, 0, len(targets)*len(files))
	for _, t := range targets {
		for _, f := range files {
			if !f.For(t.Name()) {
				continue
			}
			start := time.Now()
			o, err := t.Publish(ctx, f.Path, f.Content)
			out = append(out, Result{
				Target:  t.Name(),
				Path:    f.Path,
				Outcome: o,
				Err:     err,
				Elapsed: time.Since(start),
			})
		}
	}
	return out
}

// File is one artifact to publish
type File struct {
	Path    string
	Content []byte
	// Targets limits the file to the named publishers, empty means all
	Targets []string
}

// For reports whether the file goes to the named target
func (f File) For(target string) bool {
	return len(f.Targets) == 0 || slices.Contains(f.Targets, target)
}
