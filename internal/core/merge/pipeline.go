package merge

import (
	"wlmerge/internal/core/annotate"
	"wlmerge/internal/core/exclude"
	"wlmerge/internal/core/netrange"
)

// Pipeline wires the stages with their collaborators. Zero fields fall back to
// the package defaults
type Pipeline struct {
	Ranges         *netrange.Table
	Excluder       *exclude.Excluder
	Annotator      *annotate.Annotator
	PriorityMarker string
	Thanks         []Thanks
}

// Result is everything one pass produces
type Result struct {
	// Merged and Whitelist are the numbered output sequences
	Merged    []string
	Whitelist []string

	ExcludedMerged    exclude.Result
	ExcludedWhitelist exclude.Result

	Input      int
	Unique     int
	Duplicates int
}

// NewPipeline returns a pipeline on the embedded range table and default patterns
func NewPipeline() *Pipeline {
	return &Pipeline{
		Ranges:         netrange.Default(),
		Excluder:       exclude.New(nil, false),
		Annotator:      annotate.New(""),
		PriorityMarker: DefaultPriorityMarker,
		Thanks:         DefaultThanks,
	}
}

func (p *Pipeline) defaults() Pipeline {
	c := *p
	if c.Ranges == nil {
		c.Ranges = netrange.Default()
	}
	if c.Excluder == nil {
		c.Excluder = exclude.New(nil, false)
	}
	if c.Annotator == nil {
		c.Annotator = annotate.New("")
	}
	if c.Thanks == nil {
		c.Thanks = DefaultThanks
	}
	return c
}

// Numberer returns the numbering stage of this pipeline
func (p *Pipeline) Numberer() Numberer {
	c := p.defaults()
	return Numberer{Annotator: c.Annotator, Ranges: c.Ranges, Thanks: c.Thanks}
}

// Run executes every stage over batch. It is deterministic and single threaded
func (p *Pipeline) Run(batch []string) Result {
	c := p.defaults()
	res := Result{Input: len(batch)}

	ordered := Prioritize(batch, c.PriorityMarker)
	unique, dups := Dedup(ordered)
	res.Unique, res.Duplicates = len(unique), dups

	wl := SplitWhitelist(unique, c.Ranges)

	res.ExcludedMerged = c.Excluder.Filter(unique)
	res.ExcludedWhitelist = c.Excluder.Filter(wl)

	num := Numberer{Annotator: c.Annotator, Ranges: c.Ranges, Thanks: c.Thanks}
	res.Merged = num.Number(res.ExcludedMerged.Kept)
	res.Whitelist = num.Number(res.ExcludedWhitelist.Kept)
	return res
}

// Curate dedups the hand curated lines against themselves and numbers them.
// They are not filtered; the operator chose them
func (p *Pipeline) Curate(lines []string) ([]string, int) {
	unique, dups := Dedup(lines)
	return p.Numberer().Number(unique), dups
}
