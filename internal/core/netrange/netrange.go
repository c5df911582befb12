// Package netrange classifies IPv4 endpoints against a static table of named
// network ranges.
//
// The table is scanned in load order and the first range containing an address
// wins. Ranges may overlap with different labels; a later, more specific range
// is shadowed by an earlier, broader one. IPv6 is out of scope and never matches.
package netrange

import (
	_ "embed"
	"fmt"
	"net/netip"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed ranges.yaml
var embedded []byte

// Range is one named IPv4 prefix
type Range struct {
	Prefix netip.Prefix
	Label  string
}

// Table is an immutable ordered list of ranges, safe for concurrent use
type Table struct {
	ranges []Range
}

type fileRange struct {
	CIDR  string `yaml:"cidr"`
	Label string `yaml:"label"`
}

type file struct {
	Ranges []fileRange `yaml:"ranges"`
}

var (
	defOnce  sync.Once
	defTable *Table
	defErr   error
)

// Load parses the embedded range table
func Load() (*Table, error) { return FromYAML(embedded) }

// Default returns the embedded table, parsed once per process. It panics if the
// embedded table is invalid, which can only happen at build time
func Default() *Table {
	defOnce.Do(func() { defTable, defErr = Load() })
	if defErr != nil {
		panic(fmt.Sprintf("netrange: embedded table: %v", defErr))
	}
	return defTable
}

// LoadFile parses an operator supplied table from disk
func LoadFile(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read range table: %w", err)
	}
	return FromYAML(b)
}

// FromYAML parses a table document. Every entry must be an IPv4 prefix with no
// host bits set
func FromYAML(b []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode range table: %w", err)
	}
	ranges := make([]Range, 0, len(f.Ranges))
	for i, fr := range f.Ranges {
		p, err := netip.ParsePrefix(fr.CIDR)
		if err != nil {
			return nil, fmt.Errorf("range %d %q: %w", i, fr.CIDR, err)
		}
		if !p.Addr().Is4() {
			return nil, fmt.Errorf("range %d %q: not ipv4", i, fr.CIDR)
		}
		if p.Masked() != p {
			return nil, fmt.Errorf("range %d %q: host bits set", i, fr.CIDR)
		}
		ranges = append(ranges, Range{Prefix: p, Label: fr.Label})
	}
	return &Table{ranges: ranges}, nil
}

// New builds a table from ranges in the given order
func New(ranges []Range) *Table {
	cp := make([]Range, len(ranges))
	copy(cp, ranges)
	return &Table{ranges: cp}
}

// Len returns the number of ranges
func (t *Table) Len() int { return len(t.ranges) }

// Ranges returns a copy of the table in scan order
func (t *Table) Ranges() []Range {
	cp := make([]Range, len(t.ranges))
	copy(cp, t.ranges)
	return cp
}

// Classify returns the label of the first range containing ip. ok is false for
// anything that is not an IPv4 literal and for addresses outside every range
func (t *Table) Classify(ip string) (string, bool) {
	r, ok := t.lookup(ip)
	if !ok {
		return "", false
	}
	return r.Label, true
}

// IsWhitelisted reports whether ip falls in any range. It shares Classify's scan
func (t *Table) IsWhitelisted(ip string) bool {
	_, ok := t.lookup(ip)
	return ok
}

// CIDRText renders the classification for a display name: "CIDR: label",
// "CIDR" for an unlabeled range, or "" when ip is not whitelisted
func (t *Table) CIDRText(ip string) string {
	label, ok := t.Classify(ip)
	switch {
	case !ok:
		return ""
	case label == "":
		return "CIDR"
	default:
		return "CIDR: " + label
	}
}

func (t *Table) lookup(ip string) (Range, bool) {
	if t == nil {
		return Range{}, false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return Range{}, false
	}
	for _, r := range t.ranges {
		if r.Prefix.Contains(addr) {
			return r, true
		}
	}
	return Range{}, false
}

// Shadow is a range that can never match because an earlier range covers it
type Shadow struct {
	Range Range
	By    Range
}

// Shadowed lists ranges fully covered by an earlier entry. Only those with a
// different label change classification results, see Conflicting
func (t *Table) Shadowed() []Shadow {
	var out []Shadow
	for i, r := range t.ranges {
		for _, prev := range t.ranges[:i] {
			if prev.Prefix.Bits() <= r.Prefix.Bits() && prev.Prefix.Contains(r.Prefix.Addr()) {
				out = append(out, Shadow{Range: r, By: prev})
				break
			}
		}
	}
	return out
}

// Conflicting is Shadowed filtered to entries whose label differs from the
// covering range
func (t *Table) Conflicting() []Shadow {
	var out []Shadow
	for _, s := range t.Shadowed() {
		if s.Range.Label != s.By.Label {
			out = append(out, s)
		}
	}
	return out
}
