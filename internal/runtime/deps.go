package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/architeacher/gateways/internal/adapters/repos"
	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/internal/infrastructure"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/internal/services"
	"github.com/architeacher/gateways/internal/usecases"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/architeacher/gateways/pkg/metrics"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/throttled/throttled/v2"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	infrastructureDep struct {
		publicHttpServer *http.Server
		adminHttpServer  *http.Server
		dbPool           *pgxpool.Pool
		cacheClient      *infrastructure.KeydbClient
		mqttClient       mqtt.Client
		logger           logger.Logger
		metricsClient    metrics.Client
		tracerProvider   otelTrace.TracerProvider
	}

	repositories struct {
		secretsRepo     ports.SecretsRepository
		store           ports.Store
		unitOfWork      ports.UnitOfWork
		pingStore       func(ctx context.Context) error
		queryCache      *repos.InventoryCacheRepository
		idempotencyRepo ports.IdempotencyCache
		rateLimitStore  throttled.GCRAStoreCtx
		publisher       ports.EventPublisher
		pingPublisher   func(ctx context.Context) error
	}

	servicesDep struct {
		gateways *services.GatewaysService
		devices  *services.DevicesService
		health   *services.HealthService
	}

	applications struct {
		webApp *usecases.WebApplication
	}

	dependencies struct {
		config       *config.ServiceConfig
		configLoader *config.Loader

		infra infrastructureDep

		repos repositories

		services servicesDep

		apps applications

		cleanupFuncs map[string]func(ctx context.Context) error
	}

	DependencyOption func(*dependencies) error
)

// initializeDependencies applies opts in order. A non-nil cfg is used as is
// instead of reading the environment.
func initializeDependencies(cfg *config.ServiceConfig, opts ...DependencyOption) (*dependencies, error) {
	deps := &dependencies{
		config:       cfg,
		cleanupFuncs: make(map[string]func(ctx context.Context) error),
	}

	for _, opt := range opts {
		if err := opt(deps); err != nil {
			return deps, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	return deps, nil
}

func (d *dependencies) cleanup(ctx context.Context) {
	for resource, cleanupFn := range d.cleanupFuncs {
		if err := cleanupFn(ctx); err != nil {
			d.infra.logger.Error().
				Err(err).
				Str("resource", resource).
				Msg("failed to shutdown the resource gracefully")
		}
	}
}
