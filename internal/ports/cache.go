package ports

import (
	"context"
	"time"
)

type (
	// CacheStatus represents the cache hit/miss status.
	CacheStatus string

	// CachedResponse represents a cached HTTP response.
	CachedResponse struct {
		StatusCode int               `json:"status_code"`
		Headers    map[string]string `json:"headers"`
		Body       []byte            `json:"body"`
		CreatedAt  time.Time         `json:"created_at"`

		// Fingerprint identifies the request body the response was produced for.
		Fingerprint string `json:"fingerprint,omitempty"`
	}

	// QueryCache stores serialized read model results.
	QueryCache interface {
		// Get returns the cached payload and whether it was a hit.
		Get(ctx context.Context, key string) ([]byte, bool, error)
		Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

		// PurgeAll drops every cached gateway and device read model.
		PurgeAll(ctx context.Context) error

		IsHealthy(ctx context.Context) bool
	}

	// IdempotencyCache defines the interface for idempotency caching operations.
	IdempotencyCache interface {
		// Get retrieves a cached response by idempotency key.
		// Returns nil, nil if the key does not exist.
		Get(ctx context.Context, key string) (*CachedResponse, error)

		Set(ctx context.Context, key string, response *CachedResponse, ttl time.Duration) error

		// SetLock acquires a processing lock for the given key.
		// Returns true if the lock was acquired, false if already locked.
		SetLock(ctx context.Context, key string, ttl time.Duration) (bool, error)

		ReleaseLock(ctx context.Context, key string) error

		IsHealthy(ctx context.Context) bool
	}
)

const (
	CacheStatusHit    CacheStatus = "HIT"
	CacheStatusMiss   CacheStatus = "MISS"
	CacheStatusBypass CacheStatus = "BYPASS"
)
