package http

import (
	"net/http"

	"github.com/architeacher/gateways/internal/adapters/inbound/http/handlers"
	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/internal/usecases"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/architeacher/gateways/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// AdminRouterConfig holds dependencies for the admin router.
type AdminRouterConfig struct {
	App           *usecases.WebApplication
	MetricsClient metrics.Client
	Config        *config.ServiceConfig
	Logger        logger.Logger
}

// NewAdminRouter serves the operational endpoints meant for the internal port.
func NewAdminRouter(cfg AdminRouterConfig) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	mountHealthRoutes(router, handlers.NewHealthHandler(cfg.App, cfg.Logger))

	if cfg.MetricsClient != nil {
		router.Method(http.MethodGet, "/metrics", cfg.MetricsClient.Handler())
	} else {
		cfg.Logger.Warn().Msg("admin router: metrics client not available, /metrics is not served")
	}

	router.Method(http.MethodGet, "/config", handlers.NewConfigHandler(cfg.Config))

	return router
}
