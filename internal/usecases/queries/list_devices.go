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
	ListDevicesQuery struct{}

	ListDevicesQueryHandler = decorator.QueryHandler[ListDevicesQuery, []*model.Device]

	listDevicesQueryHandler struct {
		svc ports.DevicesService
	}
)

func NewListDevicesQueryHandler(
	svc ports.DevicesService,
	cache decorator.Cache[ListDevicesQuery, []*model.Device],
	cacheConfig decorator.CacheConfig,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) ListDevicesQueryHandler {
	return decorator.ApplyQueryDecorators[ListDevicesQuery, []*model.Device](
		decorator.NewQueryCachingDecorator[ListDevicesQuery, []*model.Device](listDevicesQueryHandler{svc: svc}, cache, cacheConfig),
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h listDevicesQueryHandler) Execute(ctx context.Context, _ ListDevicesQuery) ([]*model.Device, error) {
	return h.svc.ListDevices(ctx)
}
