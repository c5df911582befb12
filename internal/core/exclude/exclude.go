// Package exclude drops descriptors matching operator supplied substrings.
//
// Patterns use a typed prefix: "#x" targets the remark, "@x" the credential or
// address part, "/x" a path parameter in raw (path=/x) or percent encoded
// (path%3D/x) form, and anything else matches anywhere in the line. Matching is
// caseless (see normalize.Fold) unless configured otherwise. The first matching
// pattern wins.
package exclude

import (
	"strings"

	"wlmerge/internal/core/normalize"
)

// DefaultPatterns are applied when no patterns are configured
var DefaultPatterns = []string{
	"rootface-@pwn1337-telegram",
	"01010101",
	"9292929",
	"38388282",
	"star_test1",
	"11111111-1111-1111-1111-111111111111",
}

// Kind is the part of a line a pattern targets
type Kind uint8

const (
	Anywhere Kind = iota
	Remark
	Address
	Path
)

func (k Kind) String() string {
	switch k {
	case Remark:
		return "remark"
	case Address:
		return "address"
	case Path:
		return "path"
	default:
		return "anywhere"
	}
}

// Pattern is one compiled exclusion rule
type Pattern struct {
	Raw     string
	Kind    Kind
	needles []string
	reason  string
}

// Compile builds a pattern. Needles are case folded unless caseSensitive
func Compile(raw string, caseSensitive bool) Pattern {
	p := raw
	if !caseSensitive {
		p = normalize.Fold(p)
	}
	switch {
	case strings.HasPrefix(p, "#"):
		return Pattern{Raw: raw, Kind: Remark, needles: []string{p}, reason: "remark contains: " + p}
	case strings.HasPrefix(p, "@"):
		return Pattern{Raw: raw, Kind: Address, needles: []string{p}, reason: "address contains: " + p}
	case strings.HasPrefix(p, "/"):
		needles := []string{"path=" + p, "path%3d" + p}
		if caseSensitive {
			needles = append(needles, "path%3D"+p)
		}
		return Pattern{Raw: raw, Kind: Path, needles: needles, reason: "path contains: " + p}
	default:
		return Pattern{Raw: raw, Kind: Anywhere, needles: []string{p}, reason: "contains: " + p}
	}
}

// Reason is the report label of the pattern
func (p Pattern) Reason() string { return p.reason }

func (p Pattern) match(text string) bool {
	for _, n := range p.needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// Excluded is a dropped line and the reason it was dropped
type Excluded struct {
	Line   string
	Reason string
}

// Stat counts drops per reason, in first seen order
type Stat struct {
	Reason string
	Count  int
}

// Result is the outcome of Filter
type Result struct {
	Kept     []string
	Excluded []Excluded
	Stats    []Stat
}

// Excluder applies a fixed pattern list
type Excluder struct {
	patterns      []Pattern
	caseSensitive bool
}

// New compiles patterns. A nil slice selects DefaultPatterns; an empty non-nil
// slice disables filtering
func New(patterns []string, caseSensitive bool) *Excluder {
	if patterns == nil {
		patterns = DefaultPatterns
	}
	e := &Excluder{caseSensitive: caseSensitive}
	for _, raw := range patterns {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		e.patterns = append(e.patterns, Compile(raw, caseSensitive))
	}
	return e
}

// Patterns returns the compiled patterns in match order
func (e *Excluder) Patterns() []Pattern {
	out := make([]Pattern, len(e.patterns))
	copy(out, e.patterns)
	return out
}

// Match returns the reason of the first pattern that matches line
func (e *Excluder) Match(line string) (string, bool) {
	text := line
	if !e.caseSensitive {
		text = normalize.Fold(text)
	}
	for _, p := range e.patterns {
		if p.match(text) {
			return p.reason, true
		}
	}
	return "", false
}

// Filter splits lines into kept and excluded, preserving order in both
func (e *Excluder) Filter(lines []string) Result {
	res := Result{Kept: make([]string, 0, len(lines))}
	idx := map[string]int{}
	for _, l := range lines {
		reason, hit := e.Match(l)
		if !hit {
			res.Kept = append(res.Kept, l)
			continue
		}
		res.Excluded = append(res.Excluded, Excluded{Line: l, Reason: reason})
		if i, ok := idx[reason]; ok {
			res.Stats[i].Count++
			continue
		}
		idx[reason] = len(res.Stats)
		res.Stats = append(res.Stats, Stat{Reason: reason, Count: 1})
	}
	return res
}

// Lines returns the excluded lines without reasons
func (r Result) Lines() []string {
	out := make([]string, 0, len(r.Excluded))
	for _, x := range r.Excluded {
		out = append(out, x.Line)
	}
	return out
}
