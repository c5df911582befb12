// Package net holds request scoped values shared by the transports
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// WithRequestID stores id where chi's RequestID middleware keeps it, so
// handlers see the same value whether or not the middleware ran
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}

// RequestID returns the request id on ctx, "" when absent
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }
