// Package annotate rewrites the display name of a descriptor.
//
// The new name embeds an ordinal, the flag and protocol tag, the server name,
// the range classification and attribution markers. Only the display name
// changes: the vmess "ps" field or the URI fragment. Connection fields are
// never touched.
package annotate

import (
	"regexp"
	"strconv"
	"strings"

	"wlmerge/internal/core/descriptor"
)

// DefaultChannelTag is appended to every rewritten display name
const DefaultChannelTag = "TG: @wlrustg"

// Sep joins display name parts
const Sep = " | "

var (
	flagRe    = regexp.MustCompile(`[\x{1F1E6}-\x{1F1FF}]{2}`)
	ordinalRe = regexp.MustCompile(`(?:#?\s*)(\d{1,3})(?:\.|\s+|$)`)
)

// Note carries the per descriptor inputs of a rewrite
type Note struct {
	Ordinal     int
	Attribution string
	ServerName  string
	CIDRText    string
}

// Annotator rewrites display names with a fixed channel tag
type Annotator struct {
	channelTag string
}

// New returns an Annotator. An empty tag selects DefaultChannelTag
func New(channelTag string) *Annotator {
	if channelTag == "" {
		channelTag = DefaultChannelTag
	}
	return &Annotator{channelTag: channelTag}
}

// ChannelTag returns the tag this annotator appends
func (a *Annotator) ChannelTag() string { return a.channelTag }

// Name builds the display name for line without embedding it
func (a *Annotator) Name(line string, n Note) string {
	scheme := descriptor.Detect(line)

	var b strings.Builder
	b.WriteString(strconv.Itoa(n.Ordinal))
	b.WriteString(". ")
	if flag := Flag(line); flag != "" {
		b.WriteString(flag)
		b.WriteByte(' ')
	}
	b.WriteString(scheme.Tag())

	parts := []string{b.String()}
	if n.ServerName != "" {
		parts = append(parts, "SNI: "+n.ServerName)
	}
	if n.CIDRText != "" {
		parts = append(parts, n.CIDRText)
	}
	parts = append(parts, a.channelTag)
	if n.Attribution != "" {
		parts = append(parts, "Thanks: "+n.Attribution)
	}
	return strings.Join(parts, Sep)
}

// Annotate returns line with its display name replaced. On any failure the
// input is returned unchanged
func (a *Annotator) Annotate(line string, n Note) string {
	out, err := a.annotate(line, n)
	if err != nil {
		return line
	}
	return out
}

func (a *Annotator) annotate(line string, n Note) (string, error) {
	name := a.Name(line, n)

	if descriptor.Detect(line) == descriptor.VMess {
		prefix := descriptor.VMess.Prefix()
		obj, err := descriptor.ParseVMess(line[len(prefix):])
		if err != nil {
			return "", err
		}
		if err := obj.SetString("ps", name); err != nil {
			return "", err
		}
		enc, err := obj.Encode()
		if err != nil {
			return "", err
		}
		return prefix + enc, nil
	}

	return descriptor.StripFragment(line) + "#" + QuoteFragment(name), nil
}

// Flag returns the first regional indicator pair of the current display name,
// or of the whole line when it has none
func Flag(line string) string {
	text := line
	if descriptor.Detect(line) == descriptor.VMess {
		if ps := Display(line); ps != "" {
			text = ps
		}
	} else if frag, ok := descriptor.Fragment(line); ok {
		text = frag
	}
	return flagRe.FindString(text)
}

// Display returns the current display text: the vmess ps field or the decoded
// fragment. It is "" when neither exists
func Display(line string) string {
	if descriptor.Detect(line) == descriptor.VMess {
		obj, err := descriptor.ParseVMess(line[len(descriptor.VMess.Prefix()):])
		if err != nil {
			return ""
		}
		return obj.Get("ps")
	}
	frag, _ := descriptor.Fragment(line)
	return frag
}

// AlreadyNumbered reports whether line carries an ordinal and this annotator's
// channel tag, in which case it is passed through as is
func (a *Annotator) AlreadyNumbered(line string) bool {
	line = strings.TrimSpace(line)
	if strings.Contains(line, a.channelTag) {
		return ordinalRe.MatchString(line)
	}
	display := Display(line)
	return strings.Contains(display, a.channelTag) && ordinalRe.MatchString(display)
}

// QuoteFragment percent encodes every byte outside the unreserved set, so
// spaces become %20 and '/' is escaped too
func QuoteFragment(s string) string {
	const upperhex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}
