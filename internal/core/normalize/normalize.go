// Package normalize repairs fetched subscription text and pulls descriptor
// lines out of it.
//
// Pipeline order
// 1 charset decode (BOM, declared charset, UTF-8, replacement of invalid bytes)
// 2 strip control characters
// 3 split descriptors glued onto one line
// 4 keep lines that look like descriptors
//
// Fold is the comparison form used for case insensitive matching.
package normalize

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// folders hands out transformer chains; a chain is stateful and not safe
// for concurrent use
var folders = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Cf)), // ZWJ, ZWNJ, ZWSP, BOM
			width.Fold,
		)
	},
}

// Fold returns the caseless comparison form of s: NFKC, case folded, format
// characters removed and fullwidth forms narrowed. Pure ASCII is lowercased
// without touching the chain
func Fold(s string) string {
	if isASCII(s) {
		return strings.ToLower(s)
	}
	tr := folders.Get().(transform.Transformer)
	defer folders.Put(tr)
	tr.Reset()
	out, _, err := transform.String(tr, s)
	if err != nil {
		return s
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
