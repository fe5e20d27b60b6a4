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
	DeleteGatewayCommand struct {
		ID model.GatewayID
	}

	DeleteGatewayCommandHandler = decorator.CommandHandler[DeleteGatewayCommand, bool]

	deleteGatewayCommandHandler struct {
		svc ports.GatewaysService
	}
)

func NewDeleteGatewayCommandHandler(
	svc ports.GatewaysService,
	invalidator decorator.CacheInvalidator,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) DeleteGatewayCommandHandler {
	return decorator.ApplyCommandDecorators[DeleteGatewayCommand, bool](
		decorator.NewCommandInvalidatingDecorator[DeleteGatewayCommand, bool](deleteGatewayCommandHandler{svc: svc}, invalidator),
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h deleteGatewayCommandHandler) Handle(ctx context.Context, cmd DeleteGatewayCommand) (bool, error) {
	return h.svc.DeleteGateway(ctx, cmd.ID)
}
