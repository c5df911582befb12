package modkit

import (
	"net/http"

	"wlmerge/internal/modkit/httpkit"
)

// Option configures a module at construction
type Option func(*Built)

// Built is the resolved configuration a module reads in New
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	// Ports carries what the caller injects; each module asserts its own type
	Ports any
	// Register adds routes after the module's own
	Register func(httpkit.Router)
}

// Build applies opts in order; later options win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	if b.Register == nil {
		b.Register = func(httpkit.Router) {}
	}
	b.Mw = append([]func(http.Handler) http.Handler(nil), b.Mw...)
	return b
}

// Defaults prepends a module's own name and prefix so caller options override them
func Defaults(name, prefix string, opts []Option) []Option {
	return append([]Option{WithName(name), WithPrefix(prefix)}, opts...)
}

// WithName names the module in logs and the registry
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix sets the mount prefix
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends per module middleware
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts injects the ports a module consumes from other modules
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// WithRegister adds extra routes to the module router
func WithRegister(fn func(httpkit.Router)) Option { return func(b *Built) { b.Register = fn } }
