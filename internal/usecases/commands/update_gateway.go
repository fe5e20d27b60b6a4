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
	UpdateGatewayCommand struct {
		ID    model.GatewayID
		Input model.GatewayInput
	}

	UpdateGatewayCommandHandler = decorator.CommandHandler[UpdateGatewayCommand, *model.Gateway]

	updateGatewayCommandHandler struct {
		svc ports.GatewaysService
	}
)

func NewUpdateGatewayCommandHandler(
	svc ports.GatewaysService,
	invalidator decorator.CacheInvalidator,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) UpdateGatewayCommandHandler {
	return decorator.ApplyCommandDecorators[UpdateGatewayCommand, *model.Gateway](
		decorator.NewCommandInvalidatingDecorator[UpdateGatewayCommand, *model.Gateway](updateGatewayCommandHandler{svc: svc}, invalidator),
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h updateGatewayCommandHandler) Handle(ctx context.Context, cmd UpdateGatewayCommand) (*model.Gateway, error) {
	return h.svc.UpdateGateway(ctx, cmd.ID, cmd.Input)
}
