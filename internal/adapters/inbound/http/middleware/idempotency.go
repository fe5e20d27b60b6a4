package middleware

import (
	"bytes"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/pkg/idempotency"
	"github.com/architeacher/gateways/pkg/logger"
)

// Idempotency replays the stored response of a previously completed request
// that carried the same Idempotency-Key. Only 2xx responses are stored.
func Idempotency(
	cache ports.IdempotencyCache,
	cfg config.Idempotency,
	log logger.Logger,
) func(http.Handler) http.Handler {
	log = log.Component("idempotency")

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled || cache == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(cfg.RequiredMethods, r.Method) {
				next.ServeHTTP(w, r)

				return
			}

			key := r.Header.Get(cfg.HeaderName)
			if key == "" {
				next.ServeHTTP(w, r)

				return
			}

			if err := idempotency.Validate(key); err != nil {
				writeErrorBody(w, http.StatusBadRequest, err.Error())

				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeErrorBody(w, http.StatusBadRequest, "request body could not be read")

				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			fingerprint := idempotency.Fingerprint(body)

			ctx := r.Context()
			reqLog := log.WithContext(ctx)
			cacheKey := idempotency.BuildCacheKey(r.Method, r.URL.Path, key)

			cached, err := cache.Get(ctx, cacheKey)
			if err != nil {
				reqLog.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed")
				degrade(w, r, next, cfg)

				return
			}

			if cached != nil {
				if cached.Fingerprint != "" && cached.Fingerprint != fingerprint {
					writeErrorBody(w, http.StatusUnprocessableEntity, "idempotency key was already used with a different request body")

					return
				}

				writeCachedResponse(w, cfg, cached)

				return
			}

			acquired, err := cache.SetLock(ctx, cacheKey, cfg.LockTTL)
			if err != nil {
				reqLog.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lock failed")
				degrade(w, r, next, cfg)

				return
			}

			if !acquired {
				writeErrorBody(w, http.StatusConflict, "a request with this idempotency key is already being processed")

				return
			}

			defer func() {
				if err := cache.ReleaseLock(ctx, cacheKey); err != nil {
					reqLog.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency lock")
				}
			}()

			recorder := newResponseRecorder(w)
			next.ServeHTTP(recorder, r.WithContext(idempotency.WithKey(ctx, key)))

			if recorder.statusCode < http.StatusOK || recorder.statusCode >= http.StatusMultipleChoices {
				return
			}

			response := &ports.CachedResponse{
				StatusCode:  recorder.statusCode,
				Headers:     recorder.capturedHeaders(),
				Body:        recorder.body.Bytes(),
				CreatedAt:   time.Now().UTC(),
				Fingerprint: fingerprint,
			}

			if err := cache.Set(ctx, cacheKey, response, cfg.CacheTTL); err != nil {
				reqLog.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotent response")
			}
		})
	}
}

func degrade(w http.ResponseWriter, r *http.Request, next http.Handler, cfg config.Idempotency) {
	if cfg.GracefulDegraded {
		next.ServeHTTP(w, r)

		return
	}

	writeErrorBody(w, http.StatusServiceUnavailable, "idempotency service temporarily unavailable")
}

func writeCachedResponse(w http.ResponseWriter, cfg config.Idempotency, cached *ports.CachedResponse) {
	for key, value := range cached.Headers {
		w.Header().Set(key, value)
	}

	w.Header().Set(cfg.ReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

// responseRecorder tees the response so it can be stored after the handler returns.
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	body        bytes.Buffer
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}

	r.statusCode = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}

	r.body.Write(b)

	return r.ResponseWriter.Write(b)
}

// capturedHeaders keeps the first value of every response header except the
// per-request ones.
func (r *responseRecorder) capturedHeaders() map[string]string {
	headers := make(map[string]string)

	for key, values := range r.ResponseWriter.Header() {
		if len(values) == 0 || key == RequestIDHeader || key == CorrelationIDHeader {
			continue
		}

		headers[key] = values[0]
	}

	return headers
}
