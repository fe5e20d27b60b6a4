package handlers

import (
	"net/http"
	"time"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/usecases"
	"github.com/architeacher/gateways/internal/usecases/queries"
	"github.com/architeacher/gateways/pkg/logger"
)

type (
	dependencyCheckResponse struct {
		Status    string `json:"status"`
		LatencyMs uint64 `json:"latencyMs"`
		Message   string `json:"message,omitempty"`
	}

	livenessResponse struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Version   string    `json:"version"`
	}

	readinessResponse struct {
		Status    string                             `json:"status"`
		Timestamp time.Time                          `json:"timestamp"`
		Checks    map[string]dependencyCheckResponse `json:"checks"`
	}

	healthResponse struct {
		Status        string                             `json:"status"`
		Timestamp     time.Time                          `json:"timestamp"`
		Version       string                             `json:"version"`
		UptimeSeconds int64                              `json:"uptimeSeconds"`
		Checks        map[string]dependencyCheckResponse `json:"checks"`
	}

	HealthHandler struct {
		app *usecases.WebApplication
		responder
	}
)

func NewHealthHandler(app *usecases.WebApplication, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		app:       app,
		responder: responder{logger: log.Component("health_handler")},
	}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Queries.FetchLiveness.Execute(r.Context(), queries.FetchLivenessQuery{})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, livenessResponse{
		Status:    string(report.Status),
		Timestamp: report.Timestamp,
		Version:   report.Version,
	})
}

// Readiness answers 503 only when a critical dependency is down.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Queries.FetchReadiness.Execute(r.Context(), queries.FetchReadinessQuery{})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, healthStatusCode(report.Status), readinessResponse{
		Status:    string(report.Status),
		Timestamp: report.Timestamp,
		Checks:    toCheckResponses(report.Checks),
	})
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Queries.FetchHealthReport.Execute(r.Context(), queries.FetchHealthReportQuery{})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, healthStatusCode(report.Status), healthResponse{
		Status:        string(report.Status),
		Timestamp:     report.Timestamp,
		Version:       report.Version,
		UptimeSeconds: int64(report.Uptime.Seconds()),
		Checks:        toCheckResponses(report.Checks),
	})
}

func healthStatusCode(status model.HealthStatus) int {
	if status == model.HealthStatusDown {
		return http.StatusServiceUnavailable
	}

	return http.StatusOK
}

func toCheckResponses(checks map[string]model.DependencyCheck) map[string]dependencyCheckResponse {
	resp := make(map[string]dependencyCheckResponse, len(checks))
	for name, check := range checks {
		resp[name] = dependencyCheckResponse{
			Status:    string(check.Status),
			LatencyMs: check.LatencyMs,
			Message:   check.Message,
		}
	}

	return resp
}
