package runtime

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	inbound "github.com/architeacher/gateways/internal/adapters/inbound/http"
	"github.com/architeacher/gateways/internal/adapters/inbound/http/middleware"
	"github.com/architeacher/gateways/internal/adapters/outbound/events"
	"github.com/architeacher/gateways/internal/adapters/repos"
	"github.com/architeacher/gateways/internal/adapters/repos/memory"
	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/internal/infrastructure"
	infraPostgres "github.com/architeacher/gateways/internal/infrastructure/postgres"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/internal/seed"
	"github.com/architeacher/gateways/internal/services"
	"github.com/architeacher/gateways/internal/usecases"
	"github.com/architeacher/gateways/pkg/decorator"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/architeacher/gateways/pkg/metrics"
	"github.com/architeacher/gateways/pkg/metrics/noop"
	"github.com/architeacher/gateways/pkg/metrics/prometheus"
	"github.com/throttled/throttled/v2/store/memstore"
)

func serveOptions(ctx context.Context) []DependencyOption {
	return append(storeOptions(ctx),
		WithTracing(ctx),
		WithSeedOnStart(ctx),
		WithApplication(),
		WithHTTPServer(),
		WithAdminHTTPServer(),
	)
}

// storeOptions wires everything the domain services need, without any server.
func storeOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfig(),
		WithLogger(),
		WithSecretsRepository(),
		WithConfigLoader(ctx),
		WithMetrics(),
		WithStore(ctx),
		WithCache(ctx),
		WithEventPublisher(),
		WithServices(),
	}
}

func WithConfig() DependencyOption {
	return func(d *dependencies) error {
		if d.config != nil {
			return d.config.Validate()
		}

		cfg, err := config.Init()
		if err != nil {
			return fmt.Errorf("initializing configuration: %w", err)
		}

		d.config = cfg

		return nil
	}
}

func WithLogger() DependencyOption {
	return func(d *dependencies) error {
		d.infra.logger = logger.New(d.config.Logging.Level, d.config.Logging.Format)

		return nil
	}
}

func WithSecretsRepository() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.SecretsStorage.Enabled {
			return nil
		}

		client, err := repos.NewVaultClient(d.config.SecretsStorage)
		if err != nil {
			return fmt.Errorf("creating vault client: %w", err)
		}

		d.repos.secretsRepo = repos.NewVaultRepository(client)

		return nil
	}
}

func WithConfigLoader(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if d.repos.secretsRepo == nil {
			return nil
		}

		loader := config.NewLoader(d.config, d.repos.secretsRepo, 0)

		version, err := loader.Load(ctx, d.repos.secretsRepo, d.config)
		if err != nil {
			return fmt.Errorf("loading secrets: %w", err)
		}

		d.configLoader = config.NewLoader(d.config, d.repos.secretsRepo, version)

		d.infra.logger.Info().Uint("version", version).Msg("secrets loaded from vault")

		return nil
	}
}

func WithMetrics() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Metrics.Enabled {
			d.infra.metricsClient = noop.NewMetricsClient()

			return nil
		}

		client := prometheus.NewClient(
			metrics.SanitizeName(d.config.App.ServiceName),
			prometheus.WithRuntimeCollectors(),
			prometheus.WithDescriptors(middleware.HTTPMetricDescriptors),
		)

		d.infra.metricsClient = client
		d.cleanupFuncs["metrics"] = client.Shutdown

		return nil
	}
}

func WithTracing(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Enabled || !d.config.Telemetry.Traces.Enabled {
			d.infra.tracerProvider = infrastructure.NewNoopTracerProvider()

			return nil
		}

		tp, shutdown, err := infrastructure.NewTracerProvider(ctx, d.config.App, d.config.Telemetry)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}

		d.infra.tracerProvider = tp
		d.cleanupFuncs["tracer"] = shutdown

		return nil
	}
}

// WithStore selects the persistence backend. The memory driver keeps all state
// in process and is meant for local runs and tests.
func WithStore(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if strings.EqualFold(d.config.Database.Driver, config.DatabaseDriverMemory) {
			store := memory.NewStore()

			d.repos.store = store.Repositories()
			d.repos.unitOfWork = store
			d.repos.pingStore = store.Ping

			d.infra.logger.Warn().Msg("using the in-memory store, data is lost on exit")

			return nil
		}

		pool, err := infraPostgres.NewPool(ctx, d.config.Database, d.config.Backoff, d.infra.logger)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		d.infra.dbPool = pool
		d.cleanupFuncs["database"] = func(context.Context) error {
			pool.Close()

			return nil
		}

		if d.config.Database.AutoMigrate {
			if err := repos.EnsureSchema(ctx, pool); err != nil {
				return fmt.Errorf("bootstrapping schema: %w", err)
			}
		}

		uow := repos.NewUnitOfWork(pool, repos.NewPgxScanner(), d.infra.logger)

		d.repos.store = uow.Repositories()
		d.repos.unitOfWork = uow
		d.repos.pingStore = uow.Ping

		return nil
	}
}

// WithCache connects to KeyDB and builds the stores backed by it. Without a
// cache the rate limiter falls back to an in-process store and both the query
// cache and idempotency are bypassed.
func WithCache(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Cache.Enabled {
			store, err := memstore.NewCtx(int(d.config.ThrottledRateLimiting.MaxKeys))
			if err != nil {
				return fmt.Errorf("creating in-memory rate limit store: %w", err)
			}

			d.repos.rateLimitStore = store

			return nil
		}

		client := infrastructure.NewKeyDBClient(d.config.Cache, d.infra.logger)
		if err := client.WaitReady(ctx, d.config.Backoff.Exponential(), d.config.Backoff.MaxElapsed); err != nil {
			_ = client.Close()

			return fmt.Errorf("connecting to cache: %w", err)
		}

		d.infra.cacheClient = client
		d.cleanupFuncs["cache"] = func(context.Context) error {
			return client.Close()
		}

		d.repos.queryCache = repos.NewInventoryCacheRepository(client, d.config.CircuitBreaker, d.infra.logger)
		d.repos.idempotencyRepo = repos.NewIdempotencyRepository(client)
		d.repos.rateLimitStore = repos.NewRateLimitStore(client)

		return nil
	}
}

func WithEventPublisher() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Events.Enabled {
			d.repos.publisher = events.NewNoopPublisher(d.infra.logger)

			return nil
		}

		client, err := infrastructure.NewMQTTClient(d.config.Events, d.infra.logger)
		if err != nil {
			return fmt.Errorf("connecting to event broker: %w", err)
		}

		publisher := events.NewMQTTPublisher(client, d.config.Events, d.infra.logger)

		d.infra.mqttClient = client
		d.repos.publisher = publisher
		d.repos.pingPublisher = publisher.Ping
		d.cleanupFuncs["mqtt"] = func(context.Context) error {
			client.Disconnect(250)

			return nil
		}

		return nil
	}
}

func WithServices() DependencyOption {
	return func(d *dependencies) error {
		d.services.devices = services.NewDevicesService(d.repos.store, d.repos.unitOfWork, d.infra.logger)
		d.services.gateways = services.NewGatewaysService(
			d.repos.store,
			d.repos.unitOfWork,
			d.services.devices,
			d.repos.publisher,
			d.config.Inventory.MaxGatewayDevices,
			d.infra.logger,
		)

		checkers := []ports.HealthChecker{
			services.NewDependencyCheck("database", true, d.repos.pingStore),
		}

		if d.infra.cacheClient != nil {
			checkers = append(checkers, services.NewDependencyCheck("cache", false, d.infra.cacheClient.Ping))
		}

		if d.repos.pingPublisher != nil {
			checkers = append(checkers, services.NewDependencyCheck("events", false, d.repos.pingPublisher))
		}

		d.services.health = services.NewHealthService(checkers...)

		return nil
	}
}

func WithSeedOnStart(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Inventory.SeedOnStart {
			return nil
		}

		if _, err := d.seeder().Run(ctx, seed.Demo()); err != nil {
			return fmt.Errorf("seeding inventory: %w", err)
		}

		return nil
	}
}

func WithApplication() DependencyOption {
	return func(d *dependencies) error {
		d.apps.webApp = usecases.NewWebApplication(
			d.services.gateways,
			d.services.devices,
			d.services.health,
			d.queryCaches(),
			d.infra.logger,
			d.infra.metricsClient,
			d.infra.tracerProvider,
		)

		return nil
	}
}

func WithHTTPServer() DependencyOption {
	return func(d *dependencies) error {
		cfg := d.config.PublicHTTPServer

		handler, err := inbound.NewRouter(inbound.RouterConfig{
			App:              d.apps.webApp,
			Logger:           d.infra.logger,
			MetricsClient:    d.infra.metricsClient,
			TracerProvider:   d.infra.tracerProvider,
			Config:           d.config,
			RateLimitStore:   d.repos.rateLimitStore,
			IdempotencyCache: d.repos.idempotencyRepo,
		})
		if err != nil {
			return fmt.Errorf("building http router: %w", err)
		}

		server := &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, strconv.FormatUint(uint64(cfg.Port), 10)),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		}

		d.infra.publicHttpServer = server

		return nil
	}
}

func WithAdminHTTPServer() DependencyOption {
	return func(d *dependencies) error {
		cfg := d.config.AdminHTTPServer
		if !cfg.Enabled {
			return nil
		}

		server := &http.Server{
			Addr: net.JoinHostPort(cfg.Host, strconv.FormatUint(uint64(cfg.Port), 10)),
			Handler: inbound.NewAdminRouter(inbound.AdminRouterConfig{
				App:           d.apps.webApp,
				MetricsClient: d.infra.metricsClient,
				Config:        d.config,
				Logger:        d.infra.logger,
			}),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		}

		d.infra.adminHttpServer = server

		return nil
	}
}

func (d *dependencies) seeder() *seed.Seeder {
	var invalidator decorator.CacheInvalidator
	if d.repos.queryCache != nil {
		invalidator = d.repos.queryCache
	}

	return seed.NewSeeder(
		d.repos.store,
		d.services.gateways,
		d.services.devices,
		invalidator,
		d.infra.metricsClient,
		d.infra.logger,
	)
}

func (d *dependencies) queryCaches() usecases.QueryCaches {
	if d.repos.queryCache == nil || !d.config.QueryCache.Enabled {
		return usecases.QueryCaches{}
	}

	cache := d.repos.queryCache
	writeTimeout := d.config.Cache.WriteTimeout

	return usecases.QueryCaches{
		Invalidator:  cache,
		GetGateway:   repos.NewGetGatewayCacheAdapter(cache),
		ListGateways: repos.NewListGatewaysCacheAdapter(cache),
		GetDevice:    repos.NewGetDeviceCacheAdapter(cache),
		ListDevices:  repos.NewListDevicesCacheAdapter(cache),
		GatewayConfig: decorator.CacheConfig{
			Enabled:      true,
			TTL:          d.config.QueryCache.GatewayTTL,
			WriteTimeout: writeTimeout,
		},
		DeviceConfig: decorator.CacheConfig{
			Enabled:      true,
			TTL:          d.config.QueryCache.DeviceTTL,
			WriteTimeout: writeTimeout,
		},
		ListConfig: decorator.CacheConfig{
			Enabled:      true,
			TTL:          d.config.QueryCache.ListTTL,
			WriteTimeout: writeTimeout,
		},
	}
}
