package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/architeacher/gateways/internal/adapters/repos/memory"
	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/services"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/stretchr/testify/require"
)

const testMaxDevices = 2

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.DeviceEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event model.DeviceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) Events() []model.DeviceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]model.DeviceEvent(nil), p.events...)
}

type fixture struct {
	store     *memory.Store
	gateways  *services.GatewaysService
	devices   *services.DevicesService
	publisher *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store := memory.NewStore()
	log := logger.NewTestLogger()
	publisher := &recordingPublisher{}

	devices := services.NewDevicesService(store.Repositories(), store, log)
	gateways := services.NewGatewaysService(store.Repositories(), store, devices, publisher, testMaxDevices, log)

	return fixture{
		store:     store,
		gateways:  gateways,
		devices:   devices,
		publisher: publisher,
	}
}

func (f fixture) gateway(t *testing.T, serial string) *model.Gateway {
	t.Helper()

	gateway, err := f.gateways.CreateGateway(context.Background(), model.GatewayInput{
		SerialNumber: serial,
		Name:         "gateway " + serial,
		IPAddress:    "10.0.0.1",
	})
	require.NoError(t, err)

	return gateway
}

func (f fixture) device(t *testing.T, uid int64) *model.Device {
	t.Helper()

	device, err := f.devices.CreateDevice(context.Background(), model.DeviceInput{
		UID:    &uid,
		Vendor: "vendor",
	})
	require.NoError(t, err)

	return device
}

func int64Ptr(v int64) *int64 {
	return &v
}
