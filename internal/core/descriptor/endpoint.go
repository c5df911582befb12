package descriptor

import (
	"net/netip"
	"regexp"
	"strings"
	"unicode"
)

// Endpoint is the host and port a descriptor points at
type Endpoint struct {
	Host string
	Port uint16
}

// matcher is one step of the text fallback chain
type matcher struct {
	name   string
	re     *regexp.Regexp
	accept func(host string) bool
}

// hostChars mirrors a unicode word class plus dot and dash
const hostChars = `[\p{L}\p{N}_.-]+`

// fallback is tried in order, the first accepted match wins
var fallback = []matcher{
	{name: "userinfo", re: regexp.MustCompile(`(?i)@(` + hostChars + `):(\d{1,5})`)},
	{name: "host-param", re: regexp.MustCompile(`(?i)host=(` + hostChars + `).*?port=(\d{1,5})`)},
	{name: "address-param", re: regexp.MustCompile(`(?i)address=(` + hostChars + `).*?port=(\d{1,5})`)},
	{name: "authority", re: regexp.MustCompile(`(?i)//(` + hostChars + `):(\d{1,5})`)},
	{name: "ipv4", re: regexp.MustCompile(`(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}):(\d{1,5})`)},
	{name: "generic", re: regexp.MustCompile(`(` + hostChars + `):(\d{1,5})`), accept: hostLike},
}

// hostLike accepts tokens longer than one char that contain a dot or are
// alphanumeric once dots and dashes are dropped
func hostLike(host string) bool {
	if len(host) <= 1 {
		return false
	}
	if strings.Contains(host, ".") {
		return true
	}
	bare := strings.NewReplacer(".", "", "-", "").Replace(host)
	if bare == "" {
		return false
	}
	for _, r := range bare {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ParseEndpoint extracts the endpoint of line. Structured fields are used when
// the variant has them, otherwise the fallback chain runs. ok is false when
// nothing matched, which callers treat as "cannot classify"
func ParseEndpoint(line string) (Endpoint, bool) {
	if line == "" {
		return Endpoint{}, false
	}
	d, _ := Parse(line)
	return d.Endpoint()
}

// Endpoint is ParseEndpoint for an already parsed descriptor
func (d *Descriptor) Endpoint() (Endpoint, bool) {
	if ep, ok := d.structuredEndpoint(); ok {
		return ep, true
	}
	return matchEndpoint(d.Raw)
}

func (d *Descriptor) structuredEndpoint() (Endpoint, bool) {
	switch {
	case d.VMess != nil:
		host := d.VMess.First("add", "host", "ip")
		port, ok := d.VMess.Port()
		if host == "" || !ok || port == 0 {
			return Endpoint{}, false
		}
		return Endpoint{Host: host, Port: port}, true
	case d.URL != nil:
		host := d.URL.Hostname()
		port, ok := parsePort(d.URL.Port())
		if host == "" || !ok {
			return Endpoint{}, false
		}
		return Endpoint{Host: host, Port: port}, true
	}
	return Endpoint{}, false
}

func matchEndpoint(text string) (Endpoint, bool) {
	for _, m := range fallback {
		sub := m.re.FindStringSubmatch(text)
		if sub == nil {
			continue
		}
		port, ok := parsePort(sub[2])
		if !ok {
			continue
		}
		if m.accept != nil && !m.accept(sub[1]) {
			continue
		}
		return Endpoint{Host: sub[1], Port: port}, true
	}
	return Endpoint{}, false
}

// IsIPLiteral reports whether host is an IPv4 or IPv6 address
func IsIPLiteral(host string) bool {
	_, err := netip.ParseAddr(host)
	return err == nil
}

// ServerName returns the TLS server name a descriptor announces, or "".
// URI variants use the sni parameter, vmess uses sni then host then add, and
// everything else falls back to the endpoint host unless it is an IP literal
func ServerName(line string) string {
	if line == "" {
		return ""
	}
	d, _ := Parse(line)
	return d.ServerName()
}

// ServerName is the package level ServerName for an already parsed descriptor
func (d *Descriptor) ServerName() string {
	switch {
	case d.Scheme == VLESS || d.Scheme == Trojan:
		if sni := d.Param("sni"); sni != "" {
			return sni
		}
	case d.VMess != nil:
		if sni := d.VMess.First("sni", "host", "add"); sni != "" {
			return sni
		}
	}
	ep, ok := d.Endpoint()
	if !ok || IsIPLiteral(ep.Host) {
		return ""
	}
	return ep.Host
}
