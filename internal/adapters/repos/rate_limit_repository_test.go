package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/architeacher/gateways/internal/adapters/repos"
	"github.com/stretchr/testify/require"
	"github.com/throttled/throttled/v2"
)

func TestRateLimitStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := newKeydbClient(mr)
	t.Cleanup(func() { _ = client.Close() })

	store := repos.NewRateLimitStore(client)
	ctx := context.Background()

	value, _, err := store.GetWithTime(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Zero(t, value)

	set, err := store.SetIfNotExistsWithTTL(ctx, "10.0.0.1", 100, time.Minute)
	require.NoError(t, err)
	require.True(t, set)
	require.True(t, mr.Exists("ratelimit:10.0.0.1"))

	swapped, err := store.CompareAndSwapWithTTL(ctx, "10.0.0.1", 100, 200, time.Minute)
	require.NoError(t, err)
	require.True(t, swapped)

	value, _, err = store.GetWithTime(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, int64(200), value)
}

func TestRateLimitStore_DrivesGCRALimiter(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := newKeydbClient(mr)
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := throttled.NewGCRARateLimiterCtx(repos.NewRateLimitStore(client), throttled.RateQuota{
		MaxRate:  throttled.PerMin(1),
		MaxBurst: 1,
	})
	require.NoError(t, err)

	var limited []bool
	for range 3 {
		isLimited, _, err := limiter.RateLimitCtx(context.Background(), "client", 1)
		require.NoError(t, err)

		limited = append(limited, isLimited)
	}

	require.Equal(t, []bool{false, false, true}, limited)
}
