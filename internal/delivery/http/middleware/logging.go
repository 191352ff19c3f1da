package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging records one line per request. Server-side failures are escalated to
// error level so a broken automation backend is visible without metrics.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		}
		if rw.statusCode >= http.StatusInternalServerError {
			slog.Error("HTTP Request", attrs...)
			return
		}
		slog.Info("HTTP Request", attrs...)
	})
}
