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
	AttachDeviceCommand struct {
		GatewayID model.GatewayID
		DeviceID  model.DeviceID
	}

	AttachDeviceCommandHandler = decorator.CommandHandler[AttachDeviceCommand, *model.Gateway]

	attachDeviceCommandHandler struct {
		svc ports.GatewaysService
	}
)

func NewAttachDeviceCommandHandler(
	svc ports.GatewaysService,
	invalidator decorator.CacheInvalidator,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) AttachDeviceCommandHandler {
	return decorator.ApplyCommandDecorators[AttachDeviceCommand, *model.Gateway](
		decorator.NewCommandInvalidatingDecorator[AttachDeviceCommand, *model.Gateway](attachDeviceCommandHandler{svc: svc}, invalidator),
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h attachDeviceCommandHandler) Handle(ctx context.Context, cmd AttachDeviceCommand) (*model.Gateway, error) {
	return h.svc.AttachDevice(ctx, cmd.GatewayID, cmd.DeviceID)
}
