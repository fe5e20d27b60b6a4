package infrastructure

import (
	"fmt"

	"github.com/architeacher/gateways/internal/config"
	appLogger "github.com/architeacher/gateways/pkg/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// NewMQTTClient connects to the configured broker. The client reconnects on
// its own after the first successful connection.
func NewMQTTClient(cfg config.Events, logger appLogger.Logger) (mqtt.Client, error) {
	log := logger.Component("mqtt")

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetOnConnectHandler(func(mqtt.Client) {
			log.Info().Str("broker", cfg.BrokerURL).Msg("connected to mqtt broker")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Str("broker", cfg.BrokerURL).Msg("lost connection to mqtt broker")
		})

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("connecting to mqtt broker %s: timed out after %s", cfg.BrokerURL, cfg.ConnectTimeout)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to mqtt broker %s: %w", cfg.BrokerURL, err)
	}

	return client, nil
}
