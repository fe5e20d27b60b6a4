package usecases_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/architeacher/gateways/internal/adapters/repos/memory"
	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/services"
	"github.com/architeacher/gateways/internal/usecases"
	"github.com/architeacher/gateways/internal/usecases/commands"
	"github.com/architeacher/gateways/internal/usecases/queries"
	"github.com/architeacher/gateways/pkg/decorator"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/architeacher/gateways/pkg/metrics/noop"
	"github.com/stretchr/testify/require"
	otelNoop "go.opentelemetry.io/otel/trace/noop"
)

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls.Add(1)

	return nil
}

type mapCache[Q comparable, R any] struct {
	mu      sync.Mutex
	entries map[Q]R
}

func newMapCache[Q comparable, R any]() *mapCache[Q, R] {
	return &mapCache[Q, R]{entries: make(map[Q]R)}
}

func (c *mapCache[Q, R]) Get(_ context.Context, query Q) (R, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, ok := c.entries[query]

	return result, ok, nil
}

func (c *mapCache[Q, R]) Set(_ context.Context, query Q, result R, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[query] = result

	return nil
}

func (c *mapCache[Q, R]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

type testApp struct {
	app         *usecases.WebApplication
	invalidator *countingInvalidator
	gatewayHits *mapCache[queries.GetGatewayQuery, *model.Gateway]
}

func newTestApp(t *testing.T) testApp {
	t.Helper()

	store := memory.NewStore()
	log := logger.NewTestLogger()

	devicesSvc := services.NewDevicesService(store.Repositories(), store, log)
	gatewaysSvc := services.NewGatewaysService(store.Repositories(), store, devicesSvc, nil, 2, log)
	healthSvc := services.NewHealthService(services.NewDependencyCheck("memory", true, store.Ping))

	invalidator := &countingInvalidator{}
	gatewayCache := newMapCache[queries.GetGatewayQuery, *model.Gateway]()
	cacheConfig := decorator.CacheConfig{Enabled: true, TTL: time.Minute}

	app := usecases.NewWebApplication(
		gatewaysSvc,
		devicesSvc,
		healthSvc,
		usecases.QueryCaches{
			Invalidator:   invalidator,
			GetGateway:    gatewayCache,
			GatewayConfig: cacheConfig,
		},
		log,
		noop.NewMetricsClient(),
		otelNoop.NewTracerProvider(),
	)

	return testApp{app: app, invalidator: invalidator, gatewayHits: gatewayCache}
}

func (a testApp) createGateway(t *testing.T, serial string) *model.Gateway {
	t.Helper()

	gateway, err := a.app.Commands.CreateGateway.Handle(context.Background(), commands.CreateGatewayCommand{
		Input: model.GatewayInput{SerialNumber: serial, Name: serial, IPAddress: "192.168.0.1"},
	})
	require.NoError(t, err)

	return gateway
}

func (a testApp) createDevice(t *testing.T, uid int64) *model.Device {
	t.Helper()

	device, err := a.app.Commands.CreateDevice.Handle(context.Background(), commands.CreateDeviceCommand{
		Input: model.DeviceInput{UID: &uid, Vendor: "Cisco"},
	})
	require.NoError(t, err)

	return device
}

func TestWebApplication_GatewayLifecycle(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	ctx := context.Background()

	gateway := a.createGateway(t, "gw0")
	device := a.createDevice(t, 1)

	attached, err := a.app.Commands.AttachDevice.Handle(ctx, commands.AttachDeviceCommand{
		GatewayID: gateway.ID,
		DeviceID:  device.ID,
	})
	require.NoError(t, err)
	require.Len(t, attached.Devices, 1)

	devices, err := a.app.Queries.DevicesOf.Execute(ctx, queries.DevicesOfQuery{GatewayID: gateway.ID})
	require.NoError(t, err)
	require.Len(t, devices, 1)

	detached, err := a.app.Commands.DetachDevice.Handle(ctx, commands.DetachDeviceCommand{
		GatewayID: gateway.ID,
		DeviceID:  device.ID,
	})
	require.NoError(t, err)
	require.Empty(t, detached.Devices)

	updated, err := a.app.Commands.UpdateGateway.Handle(ctx, commands.UpdateGatewayCommand{
		ID:    gateway.ID,
		Input: model.GatewayInput{SerialNumber: "gw0", Name: "renamed", IPAddress: "192.168.0.2"},
	})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Name)

	removed, err := a.app.Commands.DeleteGateway.Handle(ctx, commands.DeleteGatewayCommand{ID: gateway.ID})
	require.NoError(t, err)
	require.True(t, removed)

	gateways, err := a.app.Queries.ListGateways.Execute(ctx, queries.ListGatewaysQuery{})
	require.NoError(t, err)
	require.Empty(t, gateways)

	// two creates, attach, detach, update and delete
	require.Equal(t, int32(6), a.invalidator.calls.Load())
}

func TestWebApplication_DeviceLifecycle(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	ctx := context.Background()

	device := a.createDevice(t, 7)

	fetched, err := a.app.Queries.GetDevice.Execute(ctx, queries.GetDeviceQuery{ID: device.ID})
	require.NoError(t, err)
	require.Equal(t, int64(7), fetched.UID)

	uid := int64(8)
	updated, err := a.app.Commands.UpdateDevice.Handle(ctx, commands.UpdateDeviceCommand{
		ID:    device.ID,
		Input: model.DeviceInput{UID: &uid, Vendor: "Sony", Status: "offline"},
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusOffline, updated.Status)

	list, err := a.app.Queries.ListDevices.Execute(ctx, queries.ListDevicesQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	removed, err := a.app.Commands.DeleteDevice.Handle(ctx, commands.DeleteDeviceCommand{ID: device.ID})
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = a.app.Commands.DeleteDevice.Handle(ctx, commands.DeleteDeviceCommand{ID: device.ID})
	require.NoError(t, err)
	require.False(t, removed)
}

func TestWebApplication_FailedCommandKeepsCache(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	ctx := context.Background()

	a.createGateway(t, "gw0")
	before := a.invalidator.calls.Load()

	_, err := a.app.Commands.CreateGateway.Handle(ctx, commands.CreateGatewayCommand{
		Input: model.GatewayInput{SerialNumber: "gw0", IPAddress: "10.0.0.1"},
	})
	require.ErrorIs(t, err, model.ErrGatewayInvalid)
	require.Equal(t, before, a.invalidator.calls.Load())
}

func TestWebApplication_GetGatewayIsCached(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	ctx := context.Background()

	gateway := a.createGateway(t, "gw0")

	first, err := a.app.Queries.GetGateway.Execute(ctx, queries.GetGatewayQuery{ID: gateway.ID})
	require.NoError(t, err)
	require.Equal(t, 1, a.gatewayHits.Len())

	second, err := a.app.Queries.GetGateway.Execute(ctx, queries.GetGatewayQuery{ID: gateway.ID})
	require.NoError(t, err)
	require.Same(t, first, second)

	_, err = a.app.Queries.GetGateway.Execute(ctx, queries.GetGatewayQuery{ID: model.NewGatewayID()})
	require.ErrorIs(t, err, model.ErrGatewayNotFound)
	require.Equal(t, 1, a.gatewayHits.Len(), "failures must not be cached")
}

func TestWebApplication_HealthQueries(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	ctx := context.Background()

	liveness, err := a.app.Queries.FetchLiveness.Execute(ctx, queries.FetchLivenessQuery{})
	require.NoError(t, err)
	require.Equal(t, model.HealthStatusOK, liveness.Status)

	readiness, err := a.app.Queries.FetchReadiness.Execute(ctx, queries.FetchReadinessQuery{})
	require.NoError(t, err)
	require.Equal(t, model.HealthStatusOK, readiness.Status)
	require.Contains(t, readiness.Checks, "memory")

	report, err := a.app.Queries.FetchHealthReport.Execute(ctx, queries.FetchHealthReportQuery{})
	require.NoError(t, err)
	require.Equal(t, model.HealthStatusOK, report.Status)
}

func TestWebApplication_LimitExceeded(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	ctx := context.Background()

	gateway := a.createGateway(t, "gw0")

	for uid := int64(1); uid <= 3; uid++ {
		device := a.createDevice(t, uid)

		_, err := a.app.Commands.AttachDevice.Handle(ctx, commands.AttachDeviceCommand{
			GatewayID: gateway.ID,
			DeviceID:  device.ID,
		})

		if uid <= 2 {
			require.NoError(t, err)

			continue
		}

		var domainErr *model.DomainError
		require.True(t, errors.As(err, &domainErr))
		require.ErrorIs(t, err, model.ErrDeviceLimitExceeded)
	}
}
