package publish

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	perr "wlmerge/internal/platform/errors"
)

// Dir writes artifacts below a local directory
type Dir struct {
	root string
}

// NewDir returns a publisher rooted at root
func NewDir(root string) *Dir { return &Dir{root: root} }

// Name implements Publisher
func (d *Dir) Name() string { return "local" }

// Root is the directory files are written to
func (d *Dir) Root() string { return d.root }

// Publish writes content atomically, leaving the file alone when unchanged
func (d *Dir) Publish(_ context.Context, path string, content []byte) (Outcome, error) {
	full := filepath.Join(d.root, filepath.FromSlash(path))
	old, err := os.ReadFile(full)
	switch {
	case err == nil && bytes.Equal(old, content):
		return Unchanged, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return Skipped, perr.Wrapf(err, perr.ErrorCodeUnknown, "read %s", full)
	}

	if mkErr := os.MkdirAll(filepath.Dir(full), 0o755); mkErr != nil {
		return Skipped, perr.Wrapf(mkErr, perr.ErrorCodeUnknown, "mkdir for %s", full)
	}
	tmp := full + ".part"
	if wErr := os.WriteFile(tmp, content, 0o644); wErr != nil {
		_ = os.Remove(tmp)
		return Skipped, perr.Wrapf(wErr, perr.ErrorCodeUnknown, "write %s", tmp)
	}
	if rErr := os.Rename(tmp, full); rErr != nil {
		_ = os.Remove(tmp)
		return Skipped, perr.Wrapf(rErr, perr.ErrorCodeUnknown, "rename %s", full)
	}
	if err != nil {
		return Created, nil
	}
	return Updated, nil
}

// Read returns the current content of path, or nil when it does not exist
func (d *Dir) Read(path string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(path)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return b, err
}
