package http

import (
	"fmt"
	"net/http"

	"github.com/architeacher/gateways/internal/adapters/inbound/http/handlers"
	"github.com/architeacher/gateways/internal/adapters/inbound/http/middleware"
	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/internal/usecases"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/architeacher/gateways/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/throttled/throttled/v2"
	"go.opentelemetry.io/otel/trace"
)

type RouterConfig struct {
	App            *usecases.WebApplication
	Logger         logger.Logger
	MetricsClient  metrics.Client
	TracerProvider trace.TracerProvider
	Config         *config.ServiceConfig

	// RateLimitStore backs the GCRA limiter. Nil disables rate limiting.
	RateLimitStore throttled.GCRAStoreCtx
	// IdempotencyCache stores replayable create responses. Nil disables replay.
	IdempotencyCache ports.IdempotencyCache
}

func NewRouter(cfg RouterConfig) (http.Handler, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestTracking())
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Recovery(cfg.Logger))

	if cfg.Config.Telemetry.Traces.Enabled && cfg.TracerProvider != nil {
		router.Use(middleware.Tracer(cfg.Config.App.ServiceName, cfg.TracerProvider))
		cfg.Logger.Info().Msg("distributed tracing enabled")
	}

	if cfg.Config.Telemetry.Metrics.Enabled && cfg.MetricsClient != nil {
		router.Use(middleware.NewMetricsMiddleware(cfg.MetricsClient).Middleware)
		cfg.Logger.Info().Msg("HTTP metrics collection enabled")
	}

	if accessLog := cfg.Config.Logging.AccessLog; accessLog.Enabled {
		router.Use(middleware.NewHealthCheckFilter(accessLog.LogHealthChecks).Middleware)
		router.Use(middleware.AccessLogger(cfg.Logger, accessLog.IncludeQueryParams))
		cfg.Logger.Info().
			Bool("log_health_checks", accessLog.LogHealthChecks).
			Msg("structured access logging enabled")
	}

	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Config.PublicHTTPServer.AllowedOrigins))
	router.Use(chimiddleware.Timeout(cfg.Config.PublicHTTPServer.WriteTimeout))

	if cfg.Config.ThrottledRateLimiting.Enabled && cfg.RateLimitStore != nil {
		rateLimiter, err := middleware.ThrottledRateLimiting(cfg.Config.ThrottledRateLimiting, cfg.RateLimitStore, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("configuring rate limiting: %w", err)
		}

		router.Use(rateLimiter)
	}

	router.Use(middleware.Compression(cfg.Config.Compression, cfg.MetricsClient))
	router.Use(middleware.ConditionalGET(middleware.NewETagGenerator()))
	router.Use(middleware.Idempotency(cfg.IdempotencyCache, cfg.Config.Idempotency, cfg.Logger))

	mountHealthRoutes(router, handlers.NewHealthHandler(cfg.App, cfg.Logger))

	gateways := handlers.NewGatewayHandler(cfg.App, cfg.Logger)
	router.Route("/gateway", func(r chi.Router) {
		r.Get("/list", gateways.ListGateways)
		r.Get("/view/{id}", gateways.GetGateway)
		r.Post("/create", gateways.CreateGateway)
		r.Put("/update/{id}", gateways.UpdateGateway)
		r.Delete("/delete/{id}", gateways.DeleteGateway)
		r.Put("/{gatewayID}/attach/{deviceID}", gateways.AttachDevice)
		r.Put("/{gatewayID}/detach/{deviceID}", gateways.DetachDevice)
		r.Get("/devices/{id}", gateways.DevicesOf)
	})

	devices := handlers.NewDeviceHandler(cfg.App, cfg.Logger)
	router.Route("/device", func(r chi.Router) {
		r.Get("/list", devices.ListDevices)
		r.Get("/view/{id}", devices.GetDevice)
		r.Post("/create", devices.CreateDevice)
		r.Put("/update/{id}", devices.UpdateDevice)
		r.Delete("/delete/{id}", devices.DeleteDevice)
	})

	return router, nil
}

func mountHealthRoutes(router chi.Router, health *handlers.HealthHandler) {
	router.Get("/health", health.Health)
	router.Get("/health/liveness", health.Liveness)
	router.Get("/health/readiness", health.Readiness)
}
