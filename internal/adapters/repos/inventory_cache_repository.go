package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/infrastructure"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/pkg/circuitbreaker"
	"github.com/architeacher/gateways/pkg/decorator"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	cacheVersion = "v1"

	gatewayKeyPrefix = "gateways:" + cacheVersion + ":"
	deviceKeyPrefix  = "devices:" + cacheVersion + ":"

	gatewayListKey = gatewayKeyPrefix + "list"
	deviceListKey  = deviceKeyPrefix + "list"
)

// purgePatterns cover every cached read model, whatever its version.
var purgePatterns = []string{"gateways:*", "devices:*"}

// InventoryCacheRepository stores serialized gateway and device read models in
// KeyDB. Every call goes through a circuit breaker so an unreachable cache
// fails fast and the queries fall back to the store.
type InventoryCacheRepository struct {
	client  *infrastructure.KeydbClient
	breaker *circuitbreaker.CircuitBreaker[[]byte]
	logger  logger.Logger
}

var (
	_ ports.QueryCache            = (*InventoryCacheRepository)(nil)
	_ decorator.CacheInvalidator = (*InventoryCacheRepository)(nil)
)

func NewInventoryCacheRepository(client *infrastructure.KeydbClient, cbConfig config.CircuitBreaker, log logger.Logger) *InventoryCacheRepository {
	log = log.Component("inventory_cache")

	breaker := circuitbreaker.New[[]byte](circuitbreaker.Config{
		Name:             "inventory-cache",
		Enabled:          cbConfig.Enabled,
		MaxRequests:      cbConfig.MaxRequests,
		Interval:         cbConfig.Interval,
		Timeout:          cbConfig.Timeout,
		FailureThreshold: cbConfig.FailureThreshold,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", string(from)).
				Str("to", string(to)).
				Msg("cache circuit breaker changed state")
		},
	})

	return &InventoryCacheRepository{
		client:  client,
		breaker: breaker,
		logger:  log,
	}
}

// Get reports a miss as (nil, false, nil). Connection failures and breaker
// rejections are wrapped with model.ErrCacheUnavailable.
func (r *InventoryCacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := circuitbreaker.Execute(r.breaker, func() ([]byte, error) {
		data, err := r.client.Get(ctx, key)
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return data, err
	})
	if err != nil {
		return nil, false, r.unavailable("get", key, err)
	}

	return data, data != nil, nil
}

func (r *InventoryCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := circuitbreaker.Execute(r.breaker, func() ([]byte, error) {
		return nil, r.client.Set(ctx, key, value, ttl)
	})
	if err != nil {
		return r.unavailable("set", key, err)
	}

	return nil
}

// PurgeAll drops every gateway and device read model.
func (r *InventoryCacheRepository) PurgeAll(ctx context.Context) error {
	for _, pattern := range purgePatterns {
		_, err := circuitbreaker.Execute(r.breaker, func() ([]byte, error) {
			removed, err := r.client.DeleteByPattern(ctx, pattern)
			if err == nil && removed > 0 {
				r.logger.Debug().Str("pattern", pattern).Int("removed", removed).Msg("purged cached read models")
			}

			return nil, err
		})
		if err != nil {
			return r.unavailable("purge", pattern, err)
		}
	}

	return nil
}

// Invalidate runs after every successful command.
func (r *InventoryCacheRepository) Invalidate(ctx context.Context) error {
	return r.PurgeAll(ctx)
}

func (r *InventoryCacheRepository) IsHealthy(ctx context.Context) bool {
	return r.client.IsHealthy(ctx)
}

func (r *InventoryCacheRepository) BreakerState() circuitbreaker.State {
	return r.breaker.State()
}

func (r *InventoryCacheRepository) unavailable(op, key string, err error) error {
	event := r.logger.Warn()
	if circuitbreaker.IsRejection(err) {
		event = r.logger.Debug()
	}

	event.Err(err).Str("op", op).Str("key", key).Msg("cache unavailable")

	return fmt.Errorf("%w: %s %s: %v", model.ErrCacheUnavailable, op, key, err)
}

func gatewayKey(id model.GatewayID) string {
	return gatewayKeyPrefix + "item:" + id.String()
}

func deviceKey(id model.DeviceID) string {
	return deviceKeyPrefix + "item:" + id.String()
}
