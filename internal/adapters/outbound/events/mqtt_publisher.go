package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/ports"
	"github.com/architeacher/gateways/pkg/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type (
	// Broker is the part of mqtt.Client the publisher needs.
	Broker interface {
		Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
		IsConnectionOpen() bool
	}

	// MQTTPublisher announces attach and detach events on
	// {prefix}/gateways/{gatewayId}/devices/{deviceId}/{event}.
	MQTTPublisher struct {
		broker  Broker
		prefix  string
		qos     byte
		timeout time.Duration
		logger  logger.Logger
	}
)

var _ ports.EventPublisher = (*MQTTPublisher)(nil)

func NewMQTTPublisher(broker Broker, cfg config.Events, log logger.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		broker:  broker,
		prefix:  strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:     cfg.QoS,
		timeout: cfg.PublishTimeout,
		logger:  log.Component("mqtt_publisher"),
	}
}

func (p *MQTTPublisher) Publish(ctx context.Context, event model.DeviceEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling %s event: %w", event.Type, err)
	}

	topic := Topic(p.prefix, event)
	token := p.broker.Publish(topic, p.qos, false, payload)

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publishing to %s: timed out after %s", topic, timeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	log := p.logger.WithContext(ctx)
	log.Debug().Str("topic", topic).Msg("device event published")

	return nil
}

// Ping fails while the broker connection is down.
func (p *MQTTPublisher) Ping(context.Context) error {
	if !p.broker.IsConnectionOpen() {
		return fmt.Errorf("mqtt connection is not open")
	}

	return nil
}

func Topic(prefix string, event model.DeviceEvent) string {
	return fmt.Sprintf("%s/gateways/%s/devices/%s/%s", prefix, event.GatewayID, event.DeviceID, event.Type)
}
