// Package module holds the module contract, port lookup and the process
// registry the binaries use to share ports between modules
package module

import (
	phttp "wlmerge/internal/platform/net/http"
)

// Module mounts routes and exposes the ports other modules may consume
type Module interface {
	Name() string
	MountRoutes(r phttp.Router)
	Ports() any
}
