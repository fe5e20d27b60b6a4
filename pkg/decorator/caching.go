package decorator

import (
	"context"
	"time"
)

type (
	// CacheStatus represents the status of a cache operation.
	CacheStatus string

	cacheStatusKey struct{}

	// CacheConfig holds configuration for the caching decorator.
	CacheConfig struct {
		Enabled bool
		TTL     time.Duration
		// WriteTimeout bounds the cache write that follows a miss.
		WriteTimeout time.Duration
	}

	// CacheGetter retrieves items from cache.
	CacheGetter[Q Query, R Result] interface {
		Get(ctx context.Context, query Q) (R, bool, error)
	}

	// CacheSetter stores items in cache.
	CacheSetter[Q Query, R Result] interface {
		Set(ctx context.Context, query Q, result R, ttl time.Duration) error
	}

	// Cache combines getter and setter operations.
	Cache[Q Query, R Result] interface {
		CacheGetter[Q, R]
		CacheSetter[Q, R]
	}

	// CacheInvalidator drops cached query results after a successful write.
	CacheInvalidator interface {
		Invalidate(ctx context.Context) error
	}

	queryCachingDecorator[Q Query, R Result] struct {
		base   QueryHandler[Q, R]
		cache  Cache[Q, R]
		config CacheConfig
	}

	commandInvalidatingDecorator[C Command, R any] struct {
		base        CommandHandler[C, R]
		invalidator CacheInvalidator
	}

	// CacheStatusRecorder is implemented by values that want to learn the cache
	// outcome of the query they were passed through, such as an HTTP response.
	CacheStatusRecorder interface {
		SetCacheStatus(CacheStatus)
	}

	cacheStatusRecorderKey struct{}
)

const (
	CacheStatusHit    CacheStatus = "HIT"
	CacheStatusMiss   CacheStatus = "MISS"
	CacheStatusBypass CacheStatus = "BYPASS"
	CacheStatusError  CacheStatus = "ERROR"

	defaultCacheWriteTimeout = 2 * time.Second
)

// WithCacheStatus adds cache status to context.
func WithCacheStatus(ctx context.Context, status CacheStatus) context.Context {
	return context.WithValue(ctx, cacheStatusKey{}, status)
}

// GetCacheStatus retrieves cache status from context.
func GetCacheStatus(ctx context.Context) CacheStatus {
	if status, ok := ctx.Value(cacheStatusKey{}).(CacheStatus); ok {
		return status
	}

	return CacheStatusBypass
}

// WithCacheStatusRecorder attaches a recorder that is told the cache outcome.
func WithCacheStatusRecorder(ctx context.Context, recorder CacheStatusRecorder) context.Context {
	return context.WithValue(ctx, cacheStatusRecorderKey{}, recorder)
}

func reportCacheStatus(ctx context.Context, status CacheStatus) {
	if recorder, ok := ctx.Value(cacheStatusRecorderKey{}).(CacheStatusRecorder); ok && recorder != nil {
		recorder.SetCacheStatus(status)
	}
}

// NewQueryCachingDecorator creates a new caching decorator for queries.
func NewQueryCachingDecorator[Q Query, R Result](
	base QueryHandler[Q, R],
	cache Cache[Q, R],
	config CacheConfig,
) QueryHandler[Q, R] {
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaultCacheWriteTimeout
	}

	return queryCachingDecorator[Q, R]{
		base:   base,
		cache:  cache,
		config: config,
	}
}

func (d queryCachingDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	var zero R

	if !d.config.Enabled || d.cache == nil {
		reportCacheStatus(ctx, CacheStatusBypass)

		return d.base.Execute(WithCacheStatus(ctx, CacheStatusBypass), query)
	}

	cached, hit, err := d.cache.Get(ctx, query)
	if err == nil && hit {
		reportCacheStatus(ctx, CacheStatusHit)

		return cached, nil
	}

	status := CacheStatusMiss
	if err != nil {
		status = CacheStatusError
	}

	reportCacheStatus(ctx, status)

	result, err := d.base.Execute(WithCacheStatus(ctx, status), query)
	if err != nil {
		return zero, err
	}

	if status == CacheStatusMiss {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.WriteTimeout)
		defer cancel()

		_ = d.cache.Set(writeCtx, query, result, d.config.TTL)
	}

	return result, nil
}

// NewCommandInvalidatingDecorator invalidates cached reads after each successful command.
func NewCommandInvalidatingDecorator[C Command, R any](
	base CommandHandler[C, R],
	invalidator CacheInvalidator,
) CommandHandler[C, R] {
	if invalidator == nil {
		return base
	}

	return commandInvalidatingDecorator[C, R]{
		base:        base,
		invalidator: invalidator,
	}
}

func (d commandInvalidatingDecorator[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	result, err := d.base.Handle(ctx, cmd)
	if err != nil {
		return result, err
	}

	_ = d.invalidator.Invalidate(context.WithoutCancel(ctx))

	return result, nil
}
