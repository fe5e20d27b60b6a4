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

type DevicesService struct {
	store  ports.Store
	uow    ports.UnitOfWork
	logger logger.Logger
	now    func() time.Time
}

func NewDevicesService(store ports.Store, uow ports.UnitOfWork, log logger.Logger) *DevicesService {
	return &DevicesService{
		store:  store,
		uow:    uow,
		logger: log.Component("devices_service"),
		now:    time.Now,
	}
}

func (s *DevicesService) ListDevices(ctx context.Context) ([]*model.Device, error) {
	devices, err := s.store.Devices.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	return devices, nil
}

func (s *DevicesService) GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	device, err := s.store.Devices.FetchByID(ctx, id)
	if err != nil {
		return nil, notFound(err, model.ErrDeviceNotFound, model.MsgDeviceNotFound, id)
	}

	return device, nil
}

func (s *DevicesService) CreateDevice(ctx context.Context, in model.DeviceInput) (*model.Device, error) {
	device, err := model.NewDevice(in, s.now())
	if err != nil {
		return nil, err
	}

	err = s.uow.Within(ctx, func(ctx context.Context, store ports.Store) error {
		_, err := store.Devices.FetchByUID(ctx, device.UID)
		switch {
		case err == nil:
			return model.NewDomainError(model.ErrDeviceInvalid, model.MsgUIDDuplicated)
		case !errors.Is(err, model.ErrDeviceNotFound):
			return fmt.Errorf("looking up device uid: %w", err)
		}

		if err := store.Devices.Create(ctx, device); err != nil {
			if errors.Is(err, model.ErrDuplicate) {
				return model.NewDomainError(model.ErrDeviceInvalid, model.MsgUIDDuplicated)
			}

			return fmt.Errorf("creating device: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logRejection(err, device.ID, "device create rejected")

		return nil, err
	}

	s.logger.Info().Str("device_id", device.ID.String()).Int64("uid", device.UID).Msg("device created")

	return device, nil
}

func (s *DevicesService) UpdateDevice(ctx context.Context, id model.DeviceID, in model.DeviceInput) (*model.Device, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *model.Device

	err := s.uow.Within(ctx, func(ctx context.Context, store ports.Store) error {
		device, err := store.Devices.FetchByID(ctx, id)
		if err != nil {
			return notFound(err, model.ErrDeviceNotFound, model.MsgDeviceNotFoundOnUpdate, id)
		}

		if err := device.Apply(in); err != nil {
			return err
		}

		if err := s.saveDetails(ctx, store.Devices, device); err != nil {
			return err
		}

		// The gateway link may have moved since the fetch.
		updated, err = store.Devices.FetchByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reloading device: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logRejection(err, id, "device update rejected")

		return nil, err
	}

	s.logger.Info().Str("device_id", id.String()).Msg("device updated")

	return updated, nil
}

func (s *DevicesService) DeleteDevice(ctx context.Context, id model.DeviceID) (bool, error) {
	removed, err := s.store.Devices.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("deleting device: %w", err)
	}

	if removed {
		s.logger.Info().Str("device_id", id.String()).Msg("device deleted")
	}

	return removed, nil
}

// save persists every field of device, the gateway reference included.
// Callers hold the gateway lock.
func (s *DevicesService) save(ctx context.Context, repo ports.DeviceRepository, device *model.Device) error {
	return s.write(ctx, repo, device, repo.Update)
}

// saveDetails persists device but keeps whatever gateway reference is stored.
func (s *DevicesService) saveDetails(ctx context.Context, repo ports.DeviceRepository, device *model.Device) error {
	return s.write(ctx, repo, device, repo.UpdateDetails)
}

// write rejects a uid held by a different device before running update.
func (s *DevicesService) write(
	ctx context.Context,
	repo ports.DeviceRepository,
	device *model.Device,
	update func(context.Context, *model.Device) error,
) error {
	owner, err := repo.FetchByUID(ctx, device.UID)
	switch {
	case err == nil && owner.ID != device.ID:
		return model.NewDomainError(model.ErrDeviceInvalid, model.MsgUIDTaken)
	case err != nil && !errors.Is(err, model.ErrDeviceNotFound):
		return fmt.Errorf("looking up device uid: %w", err)
	}

	if err := update(ctx, device); err != nil {
		switch {
		case errors.Is(err, model.ErrDuplicate):
			return model.NewDomainError(model.ErrDeviceInvalid, model.MsgUIDTaken)
		case errors.Is(err, model.ErrDeviceNotFound):
			return model.NewDomainError(model.ErrDeviceNotFound, model.MsgDeviceNotFoundOnUpdate, device.ID.String())
		}

		return fmt.Errorf("updating device: %w", err)
	}

	return nil
}

func (s *DevicesService) logRejection(err error, id model.DeviceID, msg string) {
	kind := model.ErrorKind(err)
	if kind == "" {
		return
	}

	s.logger.Warn().Str("device_id", id.String()).Str("kind", kind).Msg(msg)
}
