package descriptor

import "strings"

// Scheme is the closed set of descriptor encodings the pipeline understands
type Scheme uint8

const (
	// Unknown is the opaque variant, only the raw text is meaningful
	Unknown Scheme = iota
	VMess
	VLESS
	Trojan
	SS
	SSR
	TUIC
	Hysteria
	Hysteria2
)

// prefixes are checked in order; no prefix is a prefix of another one
var prefixes = [...]struct {
	scheme Scheme
	prefix string
}{
	{VMess, "vmess://"},
	{VLESS, "vless://"},
	{Trojan, "trojan://"},
	{SS, "ss://"},
	{SSR, "ssr://"},
	{TUIC, "tuic://"},
	{Hysteria, "hysteria://"},
	{Hysteria2, "hysteria2://"},
}

// Detect returns the scheme of line by its prefix. Matching is case sensitive
func Detect(line string) Scheme {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p.prefix) {
			return p.scheme
		}
	}
	return Unknown
}

// Schemes lists every known scheme in detection order
func Schemes() []Scheme {
	out := make([]Scheme, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, p.scheme)
	}
	return out
}

// Prefix returns the literal line prefix including "://", or "" for Unknown
func (s Scheme) Prefix() string {
	for _, p := range prefixes {
		if p.scheme == s {
			return p.prefix
		}
	}
	return ""
}

// String returns the lowercase scheme name
func (s Scheme) String() string {
	if s == Unknown {
		return "unknown"
	}
	return strings.TrimSuffix(s.Prefix(), "://")
}

// Tag returns the upper case protocol tag used in display names
func (s Scheme) Tag() string {
	if s == Unknown {
		return "CONFIG"
	}
	return strings.ToUpper(s.String())
}

// IsURI reports whether the variant is encoded as user@host:port?query#fragment
func (s Scheme) IsURI() bool {
	return s != Unknown && s != VMess
}
