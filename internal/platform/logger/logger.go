// Package logger owns the process zerolog logger. It is configured from LOG_*
// on first use, and context helpers carry the run, source and request ids
// onto every line logged for them
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"wlmerge/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the logging type passed around the codebase
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level     string
	Format    string // console or json
	Service   string
	Component string
	Writer    io.Writer
	Caller    bool
	// SampleEvery keeps one line in N when above 1
	SampleEvery int
	Fields      map[string]string
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE, LOG_COMPONENT, LOG_CALLER
// and LOG_SAMPLE_EVERY
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:       rc.String("LEVEL", "debug"),
		Format:      strings.ToLower(rc.String("FORMAT", "console")),
		Service:     rc.String("SERVICE", ""),
		Component:   rc.String("COMPONENT", ""),
		Caller:      rc.Bool("CALLER", false),
		SampleEvery: rc.Int("SAMPLE_EVERY", 0),
	}
}

var (
	once sync.Once
	root atomic.Pointer[Logger]
)

// Init builds the root logger. Only the first call, explicit or through Get,
// has an effect
func Init(opt Options) {
	once.Do(func() {
		l := build(opt)
		root.Store(&l)
	})
}

// Get returns the root logger, building it from the environment if needed
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

func build(opt Options) Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stdout
	if opt.Writer != nil {
		w = opt.Writer
	}
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	b := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
	if opt.Caller {
		b = b.Caller()
	}
	for k, v := range map[string]string{"service": opt.Service, "component": opt.Component} {
		if v != "" {
			b = b.Str(k, v)
		}
	}
	for k, v := range opt.Fields {
		b = b.Str(k, v)
	}
	l := b.Logger()
	if opt.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
	}
	return l
}

// parseLevel accepts zerolog names plus "warning"; anything else is debug
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.DebugLevel
	}
	return lvl
}

type ctxField string

// fields are attached by C in this order
var fields = []ctxField{"request_id", "run_id", "source"}

func with(ctx context.Context, f ctxField, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, f, v)
}

// WithRequest tags ctx with an API request id
func WithRequest(ctx context.Context, id string) context.Context { return with(ctx, "request_id", id) }

// WithRun tags ctx with a merge run id, the key of the run ledger
func WithRun(ctx context.Context, id string) context.Context { return with(ctx, "run_id", id) }

// WithSource tags ctx with the source URL being fetched
func WithSource(ctx context.Context, url string) context.Context { return with(ctx, "source", url) }

// C returns the root logger with whatever ids ctx carries
func C(ctx context.Context) *Logger {
	b := Get().With()
	for _, f := range fields {
		if v, ok := ctx.Value(f).(string); ok {
			b = b.Str(string(f), v)
		}
	}
	l := b.Logger()
	return &l
}

// Named returns the root logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
