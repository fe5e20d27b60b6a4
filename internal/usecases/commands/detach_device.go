package commands

import (
	"context"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/pkg/decorator"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/architeacher/gateways/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	DetachDeviceCommand struct {
		GatewayID model.GatewayID
		DeviceID  model.DeviceID
	}

	DetachDeviceCommandHandler = decorator.CommandHandler[DetachDeviceCommand, *model.Gateway]

	detachDeviceCommandHandler struct {
		svc ports.GatewaysService
	}
)

func NewDetachDeviceCommandHandler(
	svc ports.GatewaysService,
	invalidator decorator.CacheInvalidator,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) DetachDeviceCommandHandler {
	return decorator.ApplyCommandDecorators[DetachDeviceCommand, *model.Gateway](
		decorator.NewCommandInvalidatingDecorator[DetachDeviceCommand, *model.Gateway](detachDeviceCommandHandler{svc: svc}, invalidator),
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h detachDeviceCommandHandler) Handle(ctx context.Context, cmd DetachDeviceCommand) (*model.Gateway, error) {
	return h.svc.DetachDevice(ctx, cmd.GatewayID, cmd.DeviceID)
}
