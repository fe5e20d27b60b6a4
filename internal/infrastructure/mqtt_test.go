package infrastructure

import (
	"testing"
	"time"

	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestNewMQTTClient_UnreachableBroker(t *testing.T) {
	t.Parallel()

	client, err := NewMQTTClient(config.Events{
		BrokerURL:      "tcp://127.0.0.1:1",
		ClientID:       "gatewayd-test",
		ConnectTimeout: 2 * time.Second,
	}, logger.NewTestLogger())

	require.Error(t, err)
	require.Nil(t, client)
	require.Contains(t, err.Error(), "connecting to mqtt broker")
}
