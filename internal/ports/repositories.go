package ports

import (
	"context"

	"github.com/architeacher/gateways/internal/domain/model"
)

type (
	// GatewayRepository persists gateways. Lookups that miss return model.ErrGatewayNotFound.
	GatewayRepository interface {
		Create(ctx context.Context, gateway *model.Gateway) error
		Update(ctx context.Context, gateway *model.Gateway) error
		// Delete removes the gateway and releases every device referencing it.
		// It reports whether a row was removed.
		Delete(ctx context.Context, id model.GatewayID) (bool, error)
		FetchByID(ctx context.Context, id model.GatewayID) (*model.Gateway, error)
		FetchBySerialNumber(ctx context.Context, serial string) (*model.Gateway, error)
		List(ctx context.Context) ([]*model.Gateway, error)
	}

	// DeviceRepository persists devices. Lookups that miss return model.ErrDeviceNotFound.
	DeviceRepository interface {
		Create(ctx context.Context, device *model.Device) error
		// Update writes every field, the gateway link included. Callers hold the gateway lock.
		Update(ctx context.Context, device *model.Device) error
		// UpdateDetails writes every field except the gateway link.
		UpdateDetails(ctx context.Context, device *model.Device) error
		Delete(ctx context.Context, id model.DeviceID) (bool, error)
		FetchByID(ctx context.Context, id model.DeviceID) (*model.Device, error)
		FetchByUID(ctx context.Context, uid int64) (*model.Device, error)
		List(ctx context.Context) ([]*model.Device, error)
		ListByGateway(ctx context.Context, id model.GatewayID) ([]*model.Device, error)
		CountByGateway(ctx context.Context, id model.GatewayID) (int, error)
	}

	// Store bundles the repositories bound to one unit of work.
	Store struct {
		Gateways GatewayRepository
		Devices  DeviceRepository
	}

	// UnitOfWork runs a function against repositories sharing one transaction.
	UnitOfWork interface {
		// Within runs fn transactionally.
		Within(ctx context.Context, fn func(ctx context.Context, store Store) error) error

		// WithinGateway runs fn transactionally while holding an exclusive lock on the gateway.
		// Returns model.ErrGatewayNotFound without calling fn when the gateway does not exist.
		WithinGateway(ctx context.Context, id model.GatewayID, fn func(ctx context.Context, store Store) error) error
	}
)
