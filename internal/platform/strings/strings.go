// Package strings validates the names and route prefixes modules are built with
package strings

import std "strings"

// MustString returns s, panicking with what when s is blank
func MustString(s, what string) string {
	if std.TrimSpace(s) == "" {
		panic(what + " is required")
	}
	return s
}

// MustPrefix normalizes a mount prefix to one leading slash and no trailing
// slash. "/" and blank are rejected; modules never mount at the root
func MustPrefix(s string) string {
	p := "/" + std.Trim(std.TrimSpace(s), "/")
	if p == "/" {
		panic("route prefix is required")
	}
	return p
}
