package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"wlmerge/internal/platform/config"
	"wlmerge/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server owns the chi root and the listening http.Server
type Server struct {
	mux   *chi.Mux
	srv   *stdhttp.Server
	grace time.Duration
}

// NewServer reads ADDR (default :4000), READ_HEADER_TIMEOUT, IDLE_TIMEOUT and
// SHUTDOWN_GRACE from cfg
func NewServer(cfg config.Conf) *Server {
	m := chi.NewRouter()
	return &Server{
		mux:   m,
		grace: cfg.MayDuration("SHUTDOWN_GRACE", 10*time.Second),
		srv: &stdhttp.Server{
			Addr:              cfg.MayString("ADDR", ":4000"),
			Handler:           m,
			ReadHeaderTimeout: cfg.MayDuration("READ_HEADER_TIMEOUT", 10*time.Second),
			IdleTimeout:       cfg.MayDuration("IDLE_TIMEOUT", 2*time.Minute),
		},
	}
}

// Router returns the root router
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr returns the configured listen address
func (s *Server) Addr() string { return s.srv.Addr }

// Run listens on the configured address until ctx is done, then drains
// in-flight requests for at most the shutdown grace
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.Named("http")
	done := make(chan error, 1)
	go func() { done <- s.srv.Serve(ln) }()
	log.Info().Str("addr", ln.Addr().String()).Msg("http listening")

	select {
	case err := <-done:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
	defer cancel()
	log.Info().Dur("grace", s.grace).Msg("http draining")
	if err := s.srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-done; !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}
