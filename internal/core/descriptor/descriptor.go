// Package descriptor recognizes proxy descriptor lines and extracts their
// structural fields without validating the payload.
//
// A line is one of a closed set of variants (see Scheme). VMess lines wrap a
// base64 JSON object, the rest are URI shaped. Anything else is opaque and only
// its raw text is used downstream.
package descriptor

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	perr "wlmerge/internal/platform/errors"
)

// Descriptor is one parsed line
type Descriptor struct {
	Raw    string
	Scheme Scheme

	// URL is set for URI variants that parsed cleanly
	URL *url.URL
	// VMess is set when a vmess payload decoded to a JSON object
	VMess *VMessObject
	// Malformed marks a URI that failed to parse or a vmess payload that is
	// not base64
	Malformed bool
}

// Parse detects the variant of line and runs its parser. The returned descriptor
// is never nil. A non-nil error means a URI variant was malformed; a vmess
// payload that fails to decode is not an error, the descriptor is left opaque.
// The display fragment never takes part in parsing
func Parse(line string) (*Descriptor, error) {
	d := &Descriptor{Raw: line, Scheme: Detect(line)}
	switch {
	case d.Scheme == VMess:
		obj, err := ParseVMess(line[len(VMess.Prefix()):])
		if err == nil {
			d.VMess = obj
		}
		d.Malformed = errors.Is(err, ErrVMessEncoding)
	case d.Scheme.IsURI():
		link, _, _ := strings.Cut(line, "#")
		u, err := url.Parse(link)
		if err != nil {
			d.Malformed = true
			return d, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse %s uri", d.Scheme)
		}
		if p := u.Port(); p != "" {
			if _, err := strconv.ParseUint(p, 10, 16); err != nil {
				d.Malformed = true
				return d, perr.Newf(perr.ErrorCodeInvalidArgument, "%s port out of range: %q", d.Scheme, p)
			}
		}
		d.URL = u
	}
	return d, nil
}

// Opaque reports whether no structured fields are available
func (d *Descriptor) Opaque() bool {
	return d.URL == nil && d.VMess == nil
}

// Username returns the URI user part
func (d *Descriptor) Username() string {
	if d.URL == nil || d.URL.User == nil {
		return ""
	}
	return d.URL.User.Username()
}

// Hostname returns the lower cased URI host without brackets or port
func (d *Descriptor) Hostname() string {
	if d.URL == nil {
		return ""
	}
	return strings.ToLower(d.URL.Hostname())
}

// PortOr returns the URI port, or def when the port is missing or zero
func (d *Descriptor) PortOr(def uint16) uint16 {
	if d.URL == nil {
		return def
	}
	n, err := strconv.ParseUint(d.URL.Port(), 10, 16)
	if err != nil || n == 0 {
		return def
	}
	return uint16(n)
}

// Param returns the first non-empty value of a query parameter
func (d *Descriptor) Param(name string) string {
	if d.URL == nil {
		return ""
	}
	q, _ := url.ParseQuery(d.URL.RawQuery)
	for _, v := range q[name] {
		if v != "" {
			return v
		}
	}
	return ""
}

// Fragment returns the percent decoded text after the first '#', and whether
// the line has one at all
func Fragment(line string) (string, bool) {
	_, frag, ok := strings.Cut(line, "#")
	if !ok {
		return "", false
	}
	if dec, err := url.PathUnescape(frag); err == nil {
		return dec, true
	}
	return frag, true
}

// StripFragment returns line without its last '#' and what follows it
func StripFragment(line string) string {
	if i := strings.LastIndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// Known reports whether line starts with one of the known scheme prefixes
func Known(line string) bool {
	return Detect(line) != Unknown
}
