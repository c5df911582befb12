package middleware

import (
	"net/http"
	"time"

	"wlmerge/internal/platform/logger"
	pnet "wlmerge/internal/platform/net"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog tags the request context for logger.C and logs one event per
// request. Requests slower than slow log at warn; slow <= 0 disables that
func AccessLog(slow time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := pnet.RequestID(r.Context())
			if reqID != "" {
				w.Header().Set("X-Request-Id", reqID)
				r = r.WithContext(logger.WithRequest(r.Context(), reqID))
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log := logger.C(r.Context())
			ev := log.Info()
			switch {
			case status >= 500:
				ev = log.Error()
			case slow > 0 && elapsed >= slow:
				ev = log.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", elapsed).
				Msg("request done")
		})
	}
}
