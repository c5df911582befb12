package httpkit

import (
	"net/http"

	phttp "wlmerge/internal/platform/net/http"
)

// Get mounts a body-less GET answering with the envelope
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Call(h))
}

// PostJSON mounts a POST whose body is bound and validated into T
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(h))
}
