// Package artifact renders the published subscription files and reads back the
// hand curated one.
package artifact

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// Titles of the three artifacts
const (
	TitleAll       = "WL RUS (all)"
	TitleWhitelist = "WL RUS (wl.txt)"
	TitleSelected  = "WL RUS (selected)"
)

// DefaultAnnounce is shown by subscription clients that support #announce
const DefaultAnnounce = "Сервера из подписки должны использоваться ТОЛЬКО при белых списках!"

// DefaultUpdateInterval is the client refresh hint in hours
const DefaultUpdateInterval = 24

// StampLayout formats the generation time, e.g. 09:30 | 16.10.2026
const StampLayout = "15:04 | 02.01.2006"

const separatorWidth = 50

const stampPrefix = "# Обновлено: "

// Header is the comment block written before the descriptors
type Header struct {
	Title          string
	UpdateInterval int
	Announce       string
	// UpdatedAt is rendered in its own location
	UpdatedAt time.Time
}

func (h Header) writeProfile(b *bytes.Buffer) {
	interval := h.UpdateInterval
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	announce := h.Announce
	if announce == "" {
		announce = DefaultAnnounce
	}
	b.WriteString("#profile-title: " + h.Title + "\n")
	b.WriteString("#profile-update-interval: " + strconv.Itoa(interval) + "\n")
	b.WriteString("#announce: " + announce + "\n")
}

// Render writes a full artifact: header, count, separator, blank line, then one
// descriptor per line. Invalid UTF-8 is replaced, never rejected
func Render(h Header, lines []string) []byte {
	var b bytes.Buffer
	h.writeProfile(&b)
	b.WriteString(stampPrefix + h.UpdatedAt.Format(StampLayout) + "\n")
	b.WriteString("# Всего конфигов: " + strconv.Itoa(len(lines)) + "\n")
	b.WriteString(strings.Repeat("#", separatorWidth) + "\n\n")
	for _, l := range lines {
		b.WriteString(strings.ToValidUTF8(l, "\uFFFD"))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// Body returns the descriptor lines of a rendered artifact, skipping comments
// and blank lines
func Body(content []byte) []string {
	var out []string
	for _, l := range strings.Split(string(content), "\n") {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Stamp returns the generation time text of a rendered artifact
func Stamp(content []byte) (string, bool) {
	for _, l := range strings.Split(string(content), "\n") {
		if v, ok := strings.CutPrefix(l, stampPrefix); ok {
			return strings.TrimSpace(v), true
		}
		if l != "" && !strings.HasPrefix(l, "#") {
			break
		}
	}
	return "", false
}
