package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
)

// Handler is the handler shape routes are registered with
type Handler = func(stdhttp.ResponseWriter, *stdhttp.Request)

// Router is the routing surface modules mount against
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Handle(path string, h stdhttp.Handler)
	Use(mw ...func(stdhttp.Handler) stdhttp.Handler)
	Route(prefix string, fn func(Router))
	Mux() stdhttp.Handler
}

// chiRouter adapts any chi.Router, root or sub
type chiRouter struct{ r chi.Router }

// AdaptChi wraps a chi router
func AdaptChi(r chi.Router) Router { return chiRouter{r: r} }

func (c chiRouter) Get(p string, h Handler)  { c.r.Get(p, h) }
func (c chiRouter) Post(p string, h Handler) { c.r.Post(p, h) }

func (c chiRouter) Handle(p string, h stdhttp.Handler) { c.r.Handle(p, h) }

func (c chiRouter) Use(mw ...func(stdhttp.Handler) stdhttp.Handler) { c.r.Use(mw...) }

func (c chiRouter) Route(prefix string, fn func(Router)) {
	c.r.Route(prefix, func(sub chi.Router) { fn(chiRouter{r: sub}) })
}

func (c chiRouter) Mux() stdhttp.Handler { return c.r }

// URLParam returns the named path parameter of the matched route
func URLParam(r *stdhttp.Request, key string) string { return chi.URLParam(r, key) }
