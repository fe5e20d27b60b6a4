package events

import (
	"context"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/pkg/logger"
)

// NoopPublisher drops events. It is used when MQTT is disabled.
type NoopPublisher struct {
	logger logger.Logger
}

var _ ports.EventPublisher = NoopPublisher{}

func NewNoopPublisher(log logger.Logger) NoopPublisher {
	return NoopPublisher{logger: log.Component("noop_publisher")}
}

func (p NoopPublisher) Publish(ctx context.Context, event model.DeviceEvent) error {
	log := p.logger.WithContext(ctx)
	log.Debug().
		Str("event", string(event.Type)).
		Str("gateway_id", event.GatewayID).
		Str("device_id", event.DeviceID).
		Msg("device event dropped, publishing disabled")

	return nil
}
