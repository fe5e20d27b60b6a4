package prometheus_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/architeacher/gateways/pkg/metrics"
	"github.com/architeacher/gateways/pkg/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestClientInc(t *testing.T) {
	t.Parallel()

	client := prometheus.NewClient("gateways")
	ctx := context.Background()

	client.Inc(ctx, "commands.attachdevicecommand.success", 1)
	client.Inc(ctx, "commands.attachdevicecommand.success", int64(2))
	client.Inc(ctx, "commands.attachdevicecommand.success", "ignored")
	client.Inc(ctx, "commands.attachdevicecommand.success", -1)

	count, err := testutil.GatherAndCount(client.Registry(), "gateways_commands_attachdevicecommand_success")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	families, err := client.Registry().Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.InDelta(t, 3.0, families[0].GetMetric()[0].GetCounter().GetValue(), 0.0001)
}

func TestClientLabelsFixedAtFirstUse(t *testing.T) {
	t.Parallel()

	client := prometheus.NewClient("gateways")
	ctx := context.Background()

	client.Inc(ctx, "http_requests_total", 1,
		attribute.String("http.method", "GET"),
		attribute.String("http.status_code", "200"),
	)
	client.Inc(ctx, "http_requests_total", 1,
		attribute.String("http.method", "PUT"),
		attribute.String("unexpected", "x"),
	)

	count, err := testutil.GatherAndCount(client.Registry(), "gateways_http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestClientObserveUsesDescriptor(t *testing.T) {
	t.Parallel()

	client := prometheus.NewClient("gateways", prometheus.WithDescriptors(map[string]metrics.Descriptor{
		"http_request_duration_seconds": {Description: "Request latency.", Buckets: []float64{0.1, 1}},
	}))

	client.Observe(context.Background(), "http_request_duration_seconds", 0.05, attribute.String("http.method", "GET"))

	families, err := client.Registry().Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "Request latency.", families[0].GetHelp())
	require.Len(t, families[0].GetMetric()[0].GetHistogram().GetBucket(), 2)
}

func TestClientHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	client := prometheus.NewClient("gateways", prometheus.WithRuntimeCollectors())
	client.Inc(context.Background(), "seed.records", 13)

	rec := httptest.NewRecorder()
	client.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "gateways_seed_records 13")
	require.Contains(t, string(body), "go_goroutines")
}
