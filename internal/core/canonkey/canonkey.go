// Package canonkey derives the dedup identity of a descriptor.
//
// The key is the scheme specific field list joined with '|' after dropping empty
// fields, so it behaves like a set join rather than a fixed arity tuple. Two
// descriptors that differ only in which optional fields are empty may collide;
// that looseness is kept on purpose.
package canonkey

import (
	"strconv"
	"strings"

	"wlmerge/internal/core/descriptor"
)

const (
	// Sep joins key fields
	Sep = "|"

	opaqueLen  = 200
	failureLen = 100

	defaultPort = 443
)

// Key returns the canonical key of line. It never fails: opaque lines key on
// their first 200 characters, malformed URIs and undecodable vmess payloads on
// their first 100
func Key(line string) string {
	if line == "" {
		return ""
	}
	d, err := descriptor.Parse(line)
	if err != nil {
		return prefix(line, failureLen)
	}
	return Of(d)
}

// Of is Key for an already parsed descriptor. Malformed descriptors key on
// their first 100 characters
func Of(d *descriptor.Descriptor) string {
	if d.Malformed {
		return prefix(d.Raw, failureLen)
	}
	switch d.Scheme {
	case descriptor.VLESS:
		if d.URL == nil {
			return prefix(d.Raw, failureLen)
		}
		return join(
			d.Username(),
			d.Hostname(),
			strconv.Itoa(int(d.PortOr(defaultPort))),
			d.Param("security"),
			d.Param("sni"),
			d.Param("sid"),
			d.Param("pbk"),
			d.Param("type"),
			d.Param("flow"),
			d.Param("fp"),
			d.Param("encryption"),
		)
	case descriptor.Trojan:
		if d.URL == nil {
			return prefix(d.Raw, failureLen)
		}
		return join(
			d.Username(),
			d.Hostname(),
			strconv.Itoa(int(d.PortOr(defaultPort))),
			d.Param("security"),
			d.Param("sni"),
			d.Param("type"),
			d.Param("flow"),
			d.Param("fp"),
		)
	case descriptor.VMess:
		if d.VMess == nil {
			return prefix(d.Raw, opaqueLen)
		}
		v := d.VMess
		// ps is the display name, it is part of the vmess key
		return join(
			v.Get("id"),
			v.Get("add"),
			v.Get("port"),
			v.Get("net"),
			v.Get("host"),
			v.Get("path"),
			v.Get("tls"),
			v.Get("sni"),
			v.Get("type"),
			v.Get("ps"),
		)
	}
	return prefix(d.Raw, opaqueLen)
}

func join(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Sep)
}

// prefix returns the first n characters of s, counted in runes
func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
