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
	ListGatewaysQuery struct{}

	ListGatewaysQueryHandler = decorator.QueryHandler[ListGatewaysQuery, []*model.Gateway]

	listGatewaysQueryHandler struct {
		svc ports.GatewaysService
	}
)

func NewListGatewaysQueryHandler(
	svc ports.GatewaysService,
	cache decorator.Cache[ListGatewaysQuery, []*model.Gateway],
	cacheConfig decorator.CacheConfig,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) ListGatewaysQueryHandler {
	return decorator.ApplyQueryDecorators[ListGatewaysQuery, []*model.Gateway](
		decorator.NewQueryCachingDecorator[ListGatewaysQuery, []*model.Gateway](listGatewaysQueryHandler{svc: svc}, cache, cacheConfig),
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h listGatewaysQueryHandler) Execute(ctx context.Context, _ ListGatewaysQuery) ([]*model.Gateway, error) {
	return h.svc.ListGateways(ctx)
}
