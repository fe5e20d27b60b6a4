package http_test

import (
	"net/http"
	"testing"

	inbound "github.com/architeacher/gateways/internal/adapters/inbound/http"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/architeacher/gateways/pkg/metrics/prometheus"
	"github.com/stretchr/testify/require"
)

func TestAdminRouter(t *testing.T) {
	t.Parallel()

	metricsClient := prometheus.NewClient("gatewayd_test")
	metricsClient.Inc(t.Context(), "commands.create_gateway.success", int64(1))

	router := inbound.NewAdminRouter(inbound.AdminRouterConfig{
		App:           newTestApp(t),
		MetricsClient: metricsClient,
		Config:        testConfig(),
		Logger:        logger.NewTestLogger(),
	})

	t.Run("metrics exposition", func(t *testing.T) {
		t.Parallel()

		rec := do(t, router, http.MethodGet, "/metrics", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "gatewayd_test_commands_create_gateway_success")
	})

	t.Run("config dump hides secrets", func(t *testing.T) {
		t.Parallel()

		rec := do(t, router, http.MethodGet, "/config", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"max_gateway_devices":2`)
		require.NotContains(t, rec.Body.String(), "super-secret")
	})

	t.Run("probes", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"/health", "/health/liveness", "/health/readiness"} {
			require.Equal(t, http.StatusOK, do(t, router, http.MethodGet, path, nil).Code, path)
		}
	})
}
