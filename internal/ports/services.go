package ports

import (
	"context"

	"github.com/architeacher/gateways/internal/domain/model"
)

type (
	// DevicesService defines the device business operations.
	DevicesService interface {
		ListDevices(ctx context.Context) ([]*model.Device, error)

		// GetDevice returns a *model.DomainError wrapping model.ErrDeviceNotFound when absent.
		GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error)

		CreateDevice(ctx context.Context, in model.DeviceInput) (*model.Device, error)

		// UpdateDevice overwrites an existing device. It never creates one.
		UpdateDevice(ctx context.Context, id model.DeviceID, in model.DeviceInput) (*model.Device, error)

		// DeleteDevice reports whether a device was removed.
		DeleteDevice(ctx context.Context, id model.DeviceID) (bool, error)
	}

	// GatewaysService defines the gateway business operations, attach and detach included.
	GatewaysService interface {
		ListGateways(ctx context.Context) ([]*model.Gateway, error)
		GetGateway(ctx context.Context, id model.GatewayID) (*model.Gateway, error)
		CreateGateway(ctx context.Context, in model.GatewayInput) (*model.Gateway, error)
		UpdateGateway(ctx context.Context, id model.GatewayID, in model.GatewayInput) (*model.Gateway, error)
		DeleteGateway(ctx context.Context, id model.GatewayID) (bool, error)

		// AttachDevice links the device to the gateway, moving it from any other gateway.
		AttachDevice(ctx context.Context, gatewayID model.GatewayID, deviceID model.DeviceID) (*model.Gateway, error)
		DetachDevice(ctx context.Context, gatewayID model.GatewayID, deviceID model.DeviceID) (*model.Gateway, error)

		DevicesOf(ctx context.Context, id model.GatewayID) ([]*model.Device, error)
	}
)

// HealthService folds the dependency checks into liveness, readiness and full reports.
type HealthService interface {
	Liveness(ctx context.Context) (*model.LivenessReport, error)
	Readiness(ctx context.Context) (*model.ReadinessReport, error)
	Health(ctx context.Context) (*model.HealthReport, error)
}
