package artifact

import (
	"bytes"
	"strings"

	"wlmerge/internal/core/normalize"
)

// Curated is the hand maintained selection file split into its parts
type Curated struct {
	// Comments are the operator's comment lines; "" marks a single blank line
	Comments []string
	// Lines are the descriptor lines in file order
	Lines []string
}

// ParseCurated reads a selection file. The generated header block (title line
// and the profile lines right after it) is dropped, runs of blank lines
// collapse into one, and anything that is neither a comment nor a descriptor is
// ignored
func ParseCurated(content string) Curated {
	var c Curated
	skipHeader := false
	for _, l := range normalize.Lines(content) {
		if strings.HasPrefix(l, "#profile-title: "+TitleSelected) {
			skipHeader = true
			continue
		}
		if skipHeader {
			if isHeaderLine(l) {
				continue
			}
			skipHeader = false
		}

		switch {
		case l == "":
			if n := len(c.Comments); n > 0 && c.Comments[n-1] != "" {
				c.Comments = append(c.Comments, "")
			}
		case strings.HasPrefix(l, "#"):
			c.Comments = append(c.Comments, l)
		case normalize.LooksLikeDescriptor(l):
			c.Lines = append(c.Lines, l)
		}
	}
	for n := len(c.Comments); n > 0 && c.Comments[n-1] == ""; n-- {
		c.Comments = c.Comments[:n-1]
	}
	return c
}

func isHeaderLine(l string) bool {
	return strings.HasPrefix(l, "#profile-") || strings.HasPrefix(l, "#announce:")
}

// RenderCurated writes the selection file back: the short header, the
// operator's comments, then descriptors separated by blank lines
func RenderCurated(h Header, comments, lines []string) []byte {
	if h.Title == "" {
		h.Title = TitleSelected
	}
	var b bytes.Buffer
	h.writeProfile(&b)
	if len(comments) > 0 {
		b.WriteByte('\n')
		for _, c := range comments {
			b.WriteString(c)
			b.WriteByte('\n')
		}
	}
	if len(lines) > 0 && len(comments) > 0 {
		b.WriteByte('\n')
	}
	for i, l := range lines {
		b.WriteString(strings.ToValidUTF8(l, "\uFFFD"))
		b.WriteByte('\n')
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.Bytes()
}
