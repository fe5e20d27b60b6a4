package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/pkg/logger"
)

const DefaultMaxDevices = 10

type GatewaysService struct {
	store      ports.Store
	uow        ports.UnitOfWork
	devices    *DevicesService
	publisher  ports.EventPublisher
	maxDevices int
	logger     logger.Logger
	now        func() time.Time
}

func NewGatewaysService(
	store ports.Store,
	uow ports.UnitOfWork,
	devices *DevicesService,
	publisher ports.EventPublisher,
	maxDevices int,
	log logger.Logger,
) *GatewaysService {
	if maxDevices <= 0 {
		maxDevices = DefaultMaxDevices
	}

	return &GatewaysService{
		store:      store,
		uow:        uow,
		devices:    devices,
		publisher:  publisher,
		maxDevices: maxDevices,
		logger:     log.Component("gateways_service"),
		now:        time.Now,
	}
}

func (s *GatewaysService) ListGateways(ctx context.Context) ([]*model.Gateway, error) {
	gateways, err := s.store.Gateways.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing gateways: %w", err)
	}

	if len(gateways) == 0 {
		return gateways, nil
	}

	devices, err := s.store.Devices.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	byGateway := make(map[model.GatewayID][]*model.Device, len(gateways))
	for _, device := range devices {
		if device.IsAttached() {
			byGateway[*device.GatewayID] = append(byGateway[*device.GatewayID], device)
		}
	}

	for _, gateway := range gateways {
		gateway.Devices = byGateway[gateway.ID]
		if gateway.Devices == nil {
			gateway.Devices = make([]*model.Device, 0)
		}
	}

	return gateways, nil
}

func (s *GatewaysService) GetGateway(ctx context.Context, id model.GatewayID) (*model.Gateway, error) {
	return s.loadGateway(ctx, s.store, id, model.MsgGatewayNotFound)
}

func (s *GatewaysService) CreateGateway(ctx context.Context, in model.GatewayInput) (*model.Gateway, error) {
	gateway, err := model.NewGateway(in)
	if err != nil {
		s.logger.Warn().Str("serial_number", in.SerialNumber).Msg(model.ErrorMessage(err))

		return nil, err
	}

	err = s.uow.Within(ctx, func(ctx context.Context, store ports.Store) error {
		if err := s.ensureSerialFree(ctx, store.Gateways, gateway); err != nil {
			return err
		}

		if err := store.Gateways.Create(ctx, gateway); err != nil {
			if errors.Is(err, model.ErrDuplicate) {
				return model.NewDomainError(model.ErrGatewayInvalid, model.MsgSerialDuplicated)
			}

			return fmt.Errorf("creating gateway: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logRejection(err, gateway.ID, "gateway create rejected")

		return nil, err
	}

	s.logger.Info().Str("gateway_id", gateway.ID.String()).Str("serial_number", gateway.SerialNumber).Msg("gateway created")

	return gateway, nil
}

func (s *GatewaysService) UpdateGateway(ctx context.Context, id model.GatewayID, in model.GatewayInput) (*model.Gateway, error) {
	err := s.uow.Within(ctx, func(ctx context.Context, store ports.Store) error {
		gateway, err := store.Gateways.FetchByID(ctx, id)
		if err != nil {
			return notFound(err, model.ErrGatewayNotFound, model.MsgGatewayNotFoundOnUpdate, id)
		}

		if err := gateway.Apply(in); err != nil {
			return err
		}

		if err := s.ensureSerialFree(ctx, store.Gateways, gateway); err != nil {
			return err
		}

		if err := store.Gateways.Update(ctx, gateway); err != nil {
			switch {
			case errors.Is(err, model.ErrDuplicate):
				return model.NewDomainError(model.ErrGatewayInvalid, model.MsgSerialDuplicated)
			case errors.Is(err, model.ErrGatewayNotFound):
				return model.NewDomainError(model.ErrGatewayNotFound, model.MsgGatewayNotFoundOnUpdate, id.String())
			}

			return fmt.Errorf("updating gateway: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logRejection(err, id, "gateway update rejected")

		return nil, err
	}

	s.logger.Info().Str("gateway_id", id.String()).Msg("gateway updated")

	return s.GetGateway(ctx, id)
}

// DeleteGateway removes the gateway. Devices that referenced it become unattached.
func (s *GatewaysService) DeleteGateway(ctx context.Context, id model.GatewayID) (bool, error) {
	removed, err := s.store.Gateways.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("deleting gateway: %w", err)
	}

	if removed {
		s.logger.Info().Str("gateway_id", id.String()).Msg("gateway deleted")
	}

	return removed, nil
}

func (s *GatewaysService) AttachDevice(ctx context.Context, gatewayID model.GatewayID, deviceID model.DeviceID) (*model.Gateway, error) {
	events := make([]model.DeviceEvent, 0, 2)

	err := s.uow.WithinGateway(ctx, gatewayID, func(ctx context.Context, store ports.Store) error {
		device, err := store.Devices.FetchByID(ctx, deviceID)
		if err != nil {
			return notFound(err, model.ErrDeviceNotFound, model.MsgDeviceNotResolved, deviceID)
		}

		if device.IsAttachedTo(gatewayID) {
			return nil
		}

		attached, err := store.Devices.CountByGateway(ctx, gatewayID)
		if err != nil {
			return fmt.Errorf("counting attached devices: %w", err)
		}

		if attached >= s.maxDevices {
			return model.NewDomainError(model.ErrDeviceLimitExceeded, model.MsgDeviceLimitExceeded, s.maxDevices)
		}

		now := s.now()

		if device.IsAttached() {
			events = append(events, model.NewDeviceEvent(model.EventDeviceDetached, *device.GatewayID, deviceID, now))
		}

		device.AttachTo(gatewayID)

		if err := s.devices.save(ctx, store.Devices, device); err != nil {
			return err
		}

		events = append(events, model.NewDeviceEvent(model.EventDeviceAttached, gatewayID, deviceID, now))

		return nil
	})
	if err != nil {
		err = notFound(err, model.ErrGatewayNotFound, model.MsgGatewayNotResolved, gatewayID)
		s.logRejection(err, gatewayID, "device attach rejected")

		return nil, err
	}

	s.publish(ctx, events)

	return s.GetGateway(ctx, gatewayID)
}

func (s *GatewaysService) DetachDevice(ctx context.Context, gatewayID model.GatewayID, deviceID model.DeviceID) (*model.Gateway, error) {
	var events []model.DeviceEvent

	err := s.uow.WithinGateway(ctx, gatewayID, func(ctx context.Context, store ports.Store) error {
		device, err := store.Devices.FetchByID(ctx, deviceID)
		if err != nil {
			return notFound(err, model.ErrDeviceNotFound, model.MsgDeviceNotResolved, deviceID)
		}

		if !device.IsAttachedTo(gatewayID) {
			return model.NewDomainError(model.ErrDeviceNotAttached, model.MsgDeviceNotAttached, deviceID.String())
		}

		device.Detach()

		if err := s.devices.save(ctx, store.Devices, device); err != nil {
			return err
		}

		events = append(events, model.NewDeviceEvent(model.EventDeviceDetached, gatewayID, deviceID, s.now()))

		return nil
	})
	if err != nil {
		err = notFound(err, model.ErrGatewayNotFound, model.MsgGatewayNotResolved, gatewayID)
		s.logRejection(err, gatewayID, "device detach rejected")

		return nil, err
	}

	s.publish(ctx, events)

	return s.GetGateway(ctx, gatewayID)
}

func (s *GatewaysService) DevicesOf(ctx context.Context, id model.GatewayID) ([]*model.Device, error) {
	gateway, err := s.loadGateway(ctx, s.store, id, model.MsgGatewayNotFound)
	if err != nil {
		return nil, err
	}

	return gateway.Devices, nil
}

func (s *GatewaysService) loadGateway(ctx context.Context, store ports.Store, id model.GatewayID, format string) (*model.Gateway, error) {
	gateway, err := store.Gateways.FetchByID(ctx, id)
	if err != nil {
		return nil, notFound(err, model.ErrGatewayNotFound, format, id)
	}

	devices, err := store.Devices.ListByGateway(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing gateway devices: %w", err)
	}

	gateway.Devices = devices
	if gateway.Devices == nil {
		gateway.Devices = make([]*model.Device, 0)
	}

	return gateway, nil
}

func (s *GatewaysService) ensureSerialFree(ctx context.Context, repo ports.GatewayRepository, gateway *model.Gateway) error {
	owner, err := repo.FetchBySerialNumber(ctx, gateway.SerialNumber)
	switch {
	case err == nil && owner.ID != gateway.ID:
		return model.NewDomainError(model.ErrGatewayInvalid, model.MsgSerialDuplicated)
	case err != nil && !errors.Is(err, model.ErrGatewayNotFound):
		return fmt.Errorf("looking up gateway serial number: %w", err)
	}

	return nil
}

// publish runs after commit. Delivery failures are logged and never undo the change.
func (s *GatewaysService) publish(ctx context.Context, events []model.DeviceEvent) {
	if s.publisher == nil {
		return
	}

	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error().Err(err).
				Str("gateway_id", event.GatewayID).
				Str("device_id", event.DeviceID).
				Str("event", string(event.Type)).
				Msg("failed to publish device event")
		}
	}
}

func (s *GatewaysService) logRejection(err error, id model.GatewayID, msg string) {
	kind := model.ErrorKind(err)
	if kind == "" {
		return
	}

	s.logger.Warn().Str("gateway_id", id.String()).Str("kind", kind).Msg(msg)
}
