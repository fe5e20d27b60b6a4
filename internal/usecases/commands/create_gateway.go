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
	CreateGatewayCommand struct {
		Input model.GatewayInput
	}

	CreateGatewayCommandHandler = decorator.CommandHandler[CreateGatewayCommand, *model.Gateway]

	createGatewayCommandHandler struct {
		svc ports.GatewaysService
	}
)

func NewCreateGatewayCommandHandler(
	svc ports.GatewaysService,
	invalidator decorator.CacheInvalidator,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) CreateGatewayCommandHandler {
	return decorator.ApplyCommandDecorators[CreateGatewayCommand, *model.Gateway](
		decorator.NewCommandInvalidatingDecorator[CreateGatewayCommand, *model.Gateway](createGatewayCommandHandler{svc: svc}, invalidator),
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h createGatewayCommandHandler) Handle(ctx context.Context, cmd CreateGatewayCommand) (*model.Gateway, error) {
	return h.svc.CreateGateway(ctx, cmd.Input)
}
