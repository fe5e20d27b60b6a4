package usecases

import (
	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/internal/usecases/commands"
	"github.com/architeacher/gateways/internal/usecases/queries"
	"github.com/architeacher/gateways/pkg/decorator"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/architeacher/gateways/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	Commands struct {
		CreateGateway commands.CreateGatewayCommandHandler
		UpdateGateway commands.UpdateGatewayCommandHandler
		DeleteGateway commands.DeleteGatewayCommandHandler
		AttachDevice  commands.AttachDeviceCommandHandler
		DetachDevice  commands.DetachDeviceCommandHandler

		CreateDevice commands.CreateDeviceCommandHandler
		UpdateDevice commands.UpdateDeviceCommandHandler
		DeleteDevice commands.DeleteDeviceCommandHandler
	}

	Queries struct {
		ListGateways queries.ListGatewaysQueryHandler
		GetGateway   queries.GetGatewayQueryHandler
		DevicesOf    queries.DevicesOfQueryHandler

		ListDevices queries.ListDevicesQueryHandler
		GetDevice   queries.GetDeviceQueryHandler

		FetchLiveness     queries.FetchLivenessQueryHandler
		FetchReadiness    queries.FetchReadinessQueryHandler
		FetchHealthReport queries.FetchHealthReportQueryHandler
	}

	// QueryCaches groups the read-through caches. A zero value disables caching.
	QueryCaches struct {
		Invalidator decorator.CacheInvalidator

		GetGateway   decorator.Cache[queries.GetGatewayQuery, *model.Gateway]
		ListGateways decorator.Cache[queries.ListGatewaysQuery, []*model.Gateway]
		GetDevice    decorator.Cache[queries.GetDeviceQuery, *model.Device]
		ListDevices  decorator.Cache[queries.ListDevicesQuery, []*model.Device]

		GatewayConfig decorator.CacheConfig
		DeviceConfig  decorator.CacheConfig
		ListConfig    decorator.CacheConfig
	}

	WebApplication struct {
		Commands Commands
		Queries  Queries
	}
)

func NewWebApplication(
	gatewaysSvc ports.GatewaysService,
	devicesSvc ports.DevicesService,
	healthSvc ports.HealthService,
	caches QueryCaches,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) *WebApplication {
	invalidator := caches.Invalidator

	return &WebApplication{
		Commands: Commands{
			CreateGateway: commands.NewCreateGatewayCommandHandler(gatewaysSvc, invalidator, log, metricsClient, tracerProvider),
			UpdateGateway: commands.NewUpdateGatewayCommandHandler(gatewaysSvc, invalidator, log, metricsClient, tracerProvider),
			DeleteGateway: commands.NewDeleteGatewayCommandHandler(gatewaysSvc, invalidator, log, metricsClient, tracerProvider),
			AttachDevice:  commands.NewAttachDeviceCommandHandler(gatewaysSvc, invalidator, log, metricsClient, tracerProvider),
			DetachDevice:  commands.NewDetachDeviceCommandHandler(gatewaysSvc, invalidator, log, metricsClient, tracerProvider),

			CreateDevice: commands.NewCreateDeviceCommandHandler(devicesSvc, invalidator, log, metricsClient, tracerProvider),
			UpdateDevice: commands.NewUpdateDeviceCommandHandler(devicesSvc, invalidator, log, metricsClient, tracerProvider),
			DeleteDevice: commands.NewDeleteDeviceCommandHandler(devicesSvc, invalidator, log, metricsClient, tracerProvider),
		},
		Queries: Queries{
			ListGateways: queries.NewListGatewaysQueryHandler(gatewaysSvc, caches.ListGateways, caches.ListConfig, log, metricsClient, tracerProvider),
			GetGateway:   queries.NewGetGatewayQueryHandler(gatewaysSvc, caches.GetGateway, caches.GatewayConfig, log, metricsClient, tracerProvider),
			DevicesOf:    queries.NewDevicesOfQueryHandler(gatewaysSvc, log, metricsClient, tracerProvider),

			ListDevices: queries.NewListDevicesQueryHandler(devicesSvc, caches.ListDevices, caches.ListConfig, log, metricsClient, tracerProvider),
			GetDevice:   queries.NewGetDeviceQueryHandler(devicesSvc, caches.GetDevice, caches.DeviceConfig, log, metricsClient, tracerProvider),

			FetchLiveness:     queries.NewFetchLivenessQueryHandler(healthSvc, log, metricsClient, tracerProvider),
			FetchReadiness:    queries.NewFetchReadinessQueryHandler(healthSvc, log, metricsClient, tracerProvider),
			FetchHealthReport: queries.NewFetchHealthReportQueryHandler(healthSvc, log, metricsClient, tracerProvider),
		},
	}
}
