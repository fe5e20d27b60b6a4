package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/architeacher/gateways/internal/adapters/repos/memory"
	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/internal/services"
	"github.com/architeacher/gateways/internal/usecases"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/architeacher/gateways/pkg/metrics/noop"
	"github.com/stretchr/testify/require"
	otelNoop "go.opentelemetry.io/otel/trace/noop"
)

const testMaxDevices = 2

func testConfig() *config.ServiceConfig {
	return &config.ServiceConfig{
		App:       config.App{ServiceName: "gatewayd-test"},
		Inventory: config.Inventory{MaxGatewayDevices: testMaxDevices},
		PublicHTTPServer: config.PublicHTTPServer{
			WriteTimeout:   5 * time.Second,
			AllowedOrigins: []string{"https://console.example.com"},
		},
		Database: config.Database{Password: "super-secret"},
		Idempotency: config.Idempotency{
			Enabled:         true,
			CacheTTL:        time.Hour,
			LockTTL:         time.Minute,
			RequiredMethods: []string{http.MethodPost},
			HeaderName:      "Idempotency-Key",
			ReplayedHeader:  "Idempotent-Replayed",
		},
		Compression: config.Compression{
			Enabled:   true,
			Level:     5,
			MinSize:   256,
			SkipPaths: []string{"/health"},
		},
	}
}

func newTestApp(t *testing.T) *usecases.WebApplication {
	t.Helper()

	store := memory.NewStore()
	log := logger.NewTestLogger()

	devices := services.NewDevicesService(store.Repositories(), store, log)
	gateways := services.NewGatewaysService(store.Repositories(), store, devices, nil, testMaxDevices, log)
	health := services.NewHealthService(services.NewDependencyCheck("database", true, store.Ping))

	return usecases.NewWebApplication(
		gateways,
		devices,
		health,
		usecases.QueryCaches{},
		log,
		noop.NewMetricsClient(),
		otelNoop.NewTracerProvider(),
	)
}

func do(t *testing.T, handler http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		payload.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&payload).Encode(b))
	}

	req := httptest.NewRequest(method, target, &payload)
	req.Header.Set("Content-Type", "application/json")

	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())

	return out
}
