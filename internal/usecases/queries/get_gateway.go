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
	GetGatewayQuery struct {
		ID model.GatewayID
	}

	GetGatewayQueryHandler = decorator.QueryHandler[GetGatewayQuery, *model.Gateway]

	getGatewayQueryHandler struct {
		svc ports.GatewaysService
	}
)

func NewGetGatewayQueryHandler(
	svc ports.GatewaysService,
	cache decorator.Cache[GetGatewayQuery, *model.Gateway],
	cacheConfig decorator.CacheConfig,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) GetGatewayQueryHandler {
	return decorator.ApplyQueryDecorators[GetGatewayQuery, *model.Gateway](
		decorator.NewQueryCachingDecorator[GetGatewayQuery, *model.Gateway](getGatewayQueryHandler{svc: svc}, cache, cacheConfig),
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h getGatewayQueryHandler) Execute(ctx context.Context, query GetGatewayQuery) (*model.Gateway, error) {
	return h.svc.GetGateway(ctx, query.ID)
}
