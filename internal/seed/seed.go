package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/pkg/decorator"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/architeacher/gateways/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
)

const metricRecords = "seed.records"

type (
	// GatewayFixture is a demo gateway. Devices lists the uids attached to it.
	GatewayFixture struct {
		SerialNumber string
		Name         string
		IPAddress    string
		Devices      []int64
	}

	DeviceFixture struct {
		UID    int64
		Vendor string
	}

	Dataset struct {
		Gateways []GatewayFixture
		Devices  []DeviceFixture
	}

	// Result counts what a run changed.
	Result struct {
		GatewaysCreated int
		DevicesCreated  int
		Attached        int
		Skipped         int
	}

	Seeder struct {
		store       ports.Store
		gateways    ports.GatewaysService
		devices     ports.DevicesService
		invalidator decorator.CacheInvalidator
		metrics     metrics.Client
		logger      logger.Logger
	}
)

// Demo returns the sample inventory: three gateways, ten devices on gw0 and
// three unattached devices.
func Demo() Dataset {
	return Dataset{
		Gateways: []GatewayFixture{
			{SerialNumber: "gw0", Name: "gateway0", IPAddress: "10.8.6.50", Devices: []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
			{SerialNumber: "gw1", Name: "gateway0", IPAddress: "10.8.6.51"},
			{SerialNumber: "gw2", Name: "gateway0", IPAddress: "10.8.6.52"},
		},
		Devices: []DeviceFixture{
			{UID: 1, Vendor: "Sony"},
			{UID: 2, Vendor: "Apple"},
			{UID: 3, Vendor: "Cisco"},
			{UID: 4, Vendor: "Huawei"},
			{UID: 5, Vendor: "Panasonic"},
			{UID: 6, Vendor: "LG"},
			{UID: 7, Vendor: "Samsung"},
			{UID: 8, Vendor: "Logitech"},
			{UID: 9, Vendor: "TP-Link"},
			{UID: 10, Vendor: "Hawlett-Packard"},
			{UID: 11, Vendor: "IBM"},
			{UID: 12, Vendor: "AMD"},
			{UID: 13, Vendor: "Intel"},
		},
	}
}

// NewSeeder reads existing records straight from store and writes through the
// domain services. invalidator may be nil.
func NewSeeder(
	store ports.Store,
	gateways ports.GatewaysService,
	devices ports.DevicesService,
	invalidator decorator.CacheInvalidator,
	metricsClient metrics.Client,
	log logger.Logger,
) *Seeder {
	return &Seeder{
		store:       store,
		gateways:    gateways,
		devices:     devices,
		invalidator: invalidator,
		metrics:     metricsClient,
		logger:      log.Component("seed"),
	}
}

// Run loads data. Records whose serial number or uid already exist are left
// untouched, so running it twice is harmless. Only newly created devices are
// attached.
func (s *Seeder) Run(ctx context.Context, data Dataset) (Result, error) {
	var result Result

	created := make(map[int64]model.DeviceID, len(data.Devices))

	for _, fixture := range data.Devices {
		_, err := s.store.Devices.FetchByUID(ctx, fixture.UID)
		switch {
		case err == nil:
			result.Skipped++
			s.logger.Debug().Int64("uid", fixture.UID).Msg("device exists, skipping")

			continue
		case !errors.Is(err, model.ErrDeviceNotFound):
			return result, fmt.Errorf("looking up device %d: %w", fixture.UID, err)
		}

		uid := fixture.UID

		device, err := s.devices.CreateDevice(ctx, model.DeviceInput{UID: &uid, Vendor: fixture.Vendor})
		if err != nil {
			return result, fmt.Errorf("creating device %d: %w", fixture.UID, err)
		}

		created[fixture.UID] = device.ID
		result.DevicesCreated++
	}

	for _, fixture := range data.Gateways {
		gatewayID, err := s.ensureGateway(ctx, fixture, &result)
		if err != nil {
			return result, err
		}

		for _, uid := range fixture.Devices {
			deviceID, ok := created[uid]
			if !ok {
				continue
			}

			if _, err := s.gateways.AttachDevice(ctx, gatewayID, deviceID); err != nil {
				return result, fmt.Errorf("attaching device %d to %s: %w", uid, fixture.SerialNumber, err)
			}

			result.Attached++
		}
	}

	s.record(ctx, result)

	if result.GatewaysCreated+result.DevicesCreated > 0 && s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate query cache after seeding")
		}
	}

	s.logger.Info().
		Int("gateways_created", result.GatewaysCreated).
		Int("devices_created", result.DevicesCreated).
		Int("attached", result.Attached).
		Int("skipped", result.Skipped).
		Msg("seed completed")

	return result, nil
}

func (s *Seeder) ensureGateway(ctx context.Context, fixture GatewayFixture, result *Result) (model.GatewayID, error) {
	existing, err := s.store.Gateways.FetchBySerialNumber(ctx, fixture.SerialNumber)
	switch {
	case err == nil:
		result.Skipped++
		s.logger.Debug().Str("serial_number", fixture.SerialNumber).Msg("gateway exists, skipping")

		return existing.ID, nil
	case !errors.Is(err, model.ErrGatewayNotFound):
		return model.GatewayID{}, fmt.Errorf("looking up gateway %s: %w", fixture.SerialNumber, err)
	}

	gateway, err := s.gateways.CreateGateway(ctx, model.GatewayInput{
		SerialNumber: fixture.SerialNumber,
		Name:         fixture.Name,
		IPAddress:    fixture.IPAddress,
	})
	if err != nil {
		return model.GatewayID{}, fmt.Errorf("creating gateway %s: %w", fixture.SerialNumber, err)
	}

	result.GatewaysCreated++

	return gateway.ID, nil
}

func (s *Seeder) record(ctx context.Context, result Result) {
	if s.metrics == nil {
		return
	}

	s.metrics.Inc(ctx, metricRecords, result.GatewaysCreated, attribute.String("kind", "gateway"))
	s.metrics.Inc(ctx, metricRecords, result.DevicesCreated, attribute.String("kind", "device"))
}
