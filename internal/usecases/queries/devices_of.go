package queries

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
	DevicesOfQuery struct {
		GatewayID model.GatewayID
	}

	DevicesOfQueryHandler = decorator.QueryHandler[DevicesOfQuery, []*model.Device]

	devicesOfQueryHandler struct {
		svc ports.GatewaysService
	}
)

func NewDevicesOfQueryHandler(
	svc ports.GatewaysService,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) DevicesOfQueryHandler {
	return decorator.ApplyQueryDecorators[DevicesOfQuery, []*model.Device](
		devicesOfQueryHandler{svc: svc},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h devicesOfQueryHandler) Execute(ctx context.Context, query DevicesOfQuery) ([]*model.Device, error) {
	return h.svc.DevicesOf(ctx, query.GatewayID)
}
