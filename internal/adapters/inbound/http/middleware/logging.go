package middleware

import (
	"net/http"
	"time"

	"github.com/architeacher/gateways/pkg/logger"
)

// AccessLogger writes one structured line per request. 5xx responses log at
// error level and 4xx at warn.
func AccessLogger(log logger.Logger, includeQueryParams bool) func(http.Handler) http.Handler {
	log = log.Component("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ShouldSkipAccessLog(r.Context()) {
				next.ServeHTTP(w, r)

				return
			}

			start := time.Now()
			wrapped := NewFlushableResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			reqLogger := log.WithContext(r.Context())

			event := reqLogger.Info()
			switch {
			case wrapped.StatusCode() >= http.StatusInternalServerError:
				event = reqLogger.Error()
			case wrapped.StatusCode() >= http.StatusBadRequest:
				event = reqLogger.Warn()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Str("proto", r.Proto).
				Int("status", wrapped.StatusCode()).
				Uint64("bytes", wrapped.BytesWritten()).
				Int64("duration_ms", time.Since(start).Milliseconds())

			if includeQueryParams && r.URL.RawQuery != "" {
				event.Str("query", r.URL.RawQuery)
			}

			if referer := r.Referer(); referer != "" {
				event.Str("referer", referer)
			}

			event.Msg("request handled")
		})
	}
}
