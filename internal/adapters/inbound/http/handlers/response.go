package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/pkg/decorator"
	"github.com/architeacher/gateways/pkg/idempotency"
	"github.com/architeacher/gateways/pkg/logger"
)

const (
	contentTypeHeader = "Content-Type"
	locationHeader    = "Location"
	cacheStatusHeader = "Cache-Status"
	applicationJSON   = "application/json"

	fieldID    = "id"
	fieldBody  = "body"
	fieldError = "error"

	msgMalformedID   = "Malformed id: %s"
	msgMalformedBody = "Malformed request body"
	msgInternalError = "internal server error"

	maxBodyBytes = 1 << 20
)

// responder writes JSON bodies and owns the error to status mapping.
type responder struct {
	logger logger.Logger
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(contentTypeHeader, applicationJSON)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeError renders err. Domain rejections become 400 with a kind to message
// map, validation failures a field to message map, and anything else a 500.
func (rs responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := mapError(err)

	if status == http.StatusInternalServerError {
		reqLog := rs.logger.WithContext(r.Context())
		reqLog.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	writeJSON(w, status, body)
}

// logCreated records a successful create together with the idempotency key
// the client sent, if any.
func (rs responder) logCreated(r *http.Request, resource, id string) {
	reqLog := rs.logger.WithContext(r.Context())
	event := reqLog.Info().
		Str("resource", resource).
		Str("id", id)

	if key, ok := idempotency.FromContext(r.Context()); ok {
		event.Str("idempotency_key", key)
	}

	event.Msg("resource created")
}

// writeReadError answers a not-found read with 204 and defers everything else to writeError.
func (rs responder) writeReadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrNotFound) {
		writeNoContent(w)

		return
	}

	rs.writeError(w, r, err)
}

func mapError(err error) (int, map[string]string) {
	var validationErrs *model.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, validationErrs.Fields()
	}

	if kind := model.ErrorKind(err); kind != "" {
		return http.StatusBadRequest, map[string]string{kind: model.ErrorMessage(err)}
	}

	return http.StatusInternalServerError, map[string]string{fieldError: msgInternalError}
}

func writeMalformedID(w http.ResponseWriter, raw string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{fieldID: fmt.Sprintf(msgMalformedID, raw)})
}

// decodeBody reads a JSON request body into dst. A failure has already been answered
// with 400 when it returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	if err := decoder.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{fieldBody: msgMalformedBody})

		return false
	}

	return true
}

// cacheStatusWriter surfaces the read cache outcome as a response header.
type cacheStatusWriter struct {
	w http.ResponseWriter
}

func (c cacheStatusWriter) SetCacheStatus(status decorator.CacheStatus) {
	c.w.Header().Set(cacheStatusHeader, string(status))
}

func withCacheStatus(w http.ResponseWriter, r *http.Request) *http.Request {
	return r.WithContext(decorator.WithCacheStatusRecorder(r.Context(), cacheStatusWriter{w: w}))
}
