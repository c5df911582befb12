// Package merge turns a batch of raw descriptor lines into the published
// sequences.
//
// Stages run strictly in order over a fully materialized batch
// 1 priority reorder, stable
// 2 dedup by raw text and by canonical key, first occurrence wins
// 3 whitelist split, additive copy of lines whose IPv4 host is in a range
// 4 exclusion filter on each sequence independently
// 5 numbering, ordinals by final position in each sequence
//
// Nothing in here fails: per line problems degrade to the weakest safe default
// and the line is kept.
package merge

import (
	"strings"

	"wlmerge/internal/core/annotate"
	"wlmerge/internal/core/canonkey"
	"wlmerge/internal/core/descriptor"
	"wlmerge/internal/core/netrange"
)

// DefaultPriorityMarker moves lines carrying it to the front of the batch
const DefaultPriorityMarker = "@YoutubeUnBlockRu"

// Thanks maps a substring found in a line to the credit shown in its name
type Thanks struct {
	Marker string
	Credit string
}

// DefaultThanks is checked in order, the first marker found wins
var DefaultThanks = []Thanks{
	{Marker: "@YoutubeUnBlockRu", Credit: "@YoutubeUnBlockRu"},
	{Marker: "gbwl", Credit: "@gbwl"},
}

// Prioritize returns a copy of lines with every line containing marker moved
// ahead of the rest. Relative order inside each group is kept
func Prioritize(lines []string, marker string) []string {
	out := make([]string, 0, len(lines))
	if marker == "" {
		return append(out, lines...)
	}
	var rest []string
	for _, l := range lines {
		if strings.Contains(l, marker) {
			out = append(out, l)
		} else {
			rest = append(rest, l)
		}
	}
	return append(out, rest...)
}

// Deduper remembers raw lines and canonical keys across calls. It is not safe
// for concurrent use
type Deduper struct {
	raw  map[string]struct{}
	keys map[string]struct{}
	dups int
}

// NewDeduper returns an empty Deduper
func NewDeduper() *Deduper {
	return &Deduper{raw: map[string]struct{}{}, keys: map[string]struct{}{}}
}

// Add trims line and reports whether it is new. Empty lines, repeated raw text
// and repeated non-empty keys count as duplicates
func (d *Deduper) Add(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		d.dups++
		return "", false
	}
	if _, seen := d.raw[line]; seen {
		d.dups++
		return line, false
	}
	d.raw[line] = struct{}{}

	key := canonkey.Key(line)
	if key != "" {
		if _, seen := d.keys[key]; seen {
			d.dups++
			return line, false
		}
	}
	d.keys[key] = struct{}{}
	return line, true
}

// Duplicates returns how many lines were rejected so far
func (d *Deduper) Duplicates() int { return d.dups }

// Dedup returns the first occurrence of every logical descriptor in order and
// the number of dropped lines
func Dedup(lines []string) ([]string, int) {
	d := NewDeduper()
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if kept, ok := d.Add(l); ok {
			out = append(out, kept)
		}
	}
	return out, d.Duplicates()
}

// WhitelistHost returns the IPv4 endpoint host of line when the table contains it
func WhitelistHost(line string, t *netrange.Table) (string, bool) {
	ep, ok := descriptor.ParseEndpoint(line)
	if !ok || !t.IsWhitelisted(ep.Host) {
		return "", false
	}
	return ep.Host, true
}

// SplitWhitelist returns the lines whose endpoint host is a whitelisted IPv4
// literal. The input is not modified; the split is additive
func SplitWhitelist(lines []string, t *netrange.Table) []string {
	var out []string
	for _, l := range lines {
		if _, ok := WhitelistHost(l, t); ok {
			out = append(out, l)
		}
	}
	return out
}

// Attribution returns the credit of the first marker contained in line
func Attribution(line string, thanks []Thanks) string {
	for _, th := range thanks {
		if th.Marker != "" && strings.Contains(line, th.Marker) {
			return th.Credit
		}
	}
	return ""
}

// Numberer rewrites display names with ordinals and metadata
type Numberer struct {
	Annotator *annotate.Annotator
	Ranges    *netrange.Table
	Thanks    []Thanks
}

// Note collects the annotation inputs for line at ordinal
func (n Numberer) Note(line string, ordinal int) annotate.Note {
	note := annotate.Note{
		Ordinal:     ordinal,
		Attribution: Attribution(line, n.Thanks),
		ServerName:  descriptor.ServerName(line),
	}
	if ep, ok := descriptor.ParseEndpoint(line); ok && descriptor.IsIPLiteral(ep.Host) {
		note.CIDRText = n.Ranges.CIDRText(ep.Host)
	}
	return note
}

// Number annotates every line with its 1-based position. Lines that already
// carry an ordinal and the channel tag pass through unchanged
func (n Numberer) Number(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i, l := range lines {
		if n.Annotator.AlreadyNumbered(l) {
			out = append(out, l)
			continue
		}
		out = append(out, n.Annotator.Annotate(l, n.Note(l, i+1)))
	}
	return out
}
