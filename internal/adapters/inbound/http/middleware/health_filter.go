package middleware

import (
	"context"
	"net/http"
	"strings"
)

const skipAccessLogKey contextKey = "skip_access_log"

var defaultHealthEndpoints = []string{
	"/health",
	"/health/liveness",
	"/health/readiness",
}

// HealthCheckFilter marks probe requests so the access logger leaves them out.
type HealthCheckFilter struct {
	healthEndpoints map[string]struct{}
	logHealthChecks bool
}

func NewHealthCheckFilter(logHealthChecks bool) *HealthCheckFilter {
	endpoints := make(map[string]struct{}, len(defaultHealthEndpoints))
	for _, endpoint := range defaultHealthEndpoints {
		endpoints[endpoint] = struct{}{}
	}

	return &HealthCheckFilter{
		healthEndpoints: endpoints,
		logHealthChecks: logHealthChecks,
	}
}

func (h *HealthCheckFilter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.logHealthChecks || !h.isHealthEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)

			return
		}

		ctx := context.WithValue(r.Context(), skipAccessLogKey, true)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *HealthCheckFilter) isHealthEndpoint(path string) bool {
	normalized := strings.TrimSuffix(path, "/")
	_, ok := h.healthEndpoints[normalized]

	return ok
}

func ShouldSkipAccessLog(ctx context.Context) bool {
	skip, ok := ctx.Value(skipAccessLogKey).(bool)

	return ok && skip
}
