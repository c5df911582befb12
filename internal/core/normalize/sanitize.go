package normalize

import (
	"strings"
	"unicode/utf8"
)

// dropRune reports whether r is a control character a subscription line
// never carries. Line breaks and tabs survive, they are handled by Lines
func dropRune(r rune) bool {
	switch {
	case r == '\n', r == '\r', r == '\t':
		return false
	case r < 0x20, r == 0x7F:
		return true
	}
	return r >= 0x80 && r <= 0x9F
}

// Sanitize strips NUL, C0/C1 controls, DEL and stray invalid bytes.
// s is returned as is when nothing needs removing
func Sanitize(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	if strings.IndexFunc(s, dropRune) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if dropRune(r) {
			return -1
		}
		return r
	}, s)
}
