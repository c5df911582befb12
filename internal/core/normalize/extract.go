package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"wlmerge/internal/core/descriptor"
)

// minLineLen drops fragments too short to be a descriptor
const minLineLen = 10

var gluedRe = regexp.MustCompile(`(vmess|vless|trojan|ss|ssr|tuic|hysteria|hysteria2)://`)

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SplitGlued puts every scheme prefix at the start of its own line, so
// descriptors published back to back without a separator come apart
func SplitGlued(text string) string {
	return gluedRe.ReplaceAllString(text, "\n${1}://")
}

// Lines splits text on any line break and trims each line
func Lines(text string) []string {
	raw := strings.Split(lineBreaks.Replace(text), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		out = append(out, strings.TrimSpace(l))
	}
	return out
}

// LooksLikeDescriptor reports whether a trimmed line is a known scheme or at
// least has the user@host:port:... shape of one
func LooksLikeDescriptor(line string) bool {
	if descriptor.Known(line) {
		return true
	}
	return strings.Contains(line, "@") && strings.Count(line, ":") >= 2
}

// Extract returns the descriptor lines of a decoded subscription body in order.
// Comments, blanks and lines of 10 characters or fewer are skipped
func Extract(text string) []string {
	var out []string
	for _, l := range Lines(SplitGlued(text)) {
		if l == "" || strings.HasPrefix(l, "#") || utf8.RuneCountInString(l) <= minLineLen {
			continue
		}
		if LooksLikeDescriptor(l) {
			out = append(out, l)
		}
	}
	return out
}
