package infrastructure

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/architeacher/gateways/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type exporterFactory func(ctx context.Context, cfg config.Telemetry) (sdktrace.SpanExporter, error)

var exporters = map[string]exporterFactory{
	"grpc":   newGRPCExporter,
	"stdout": newStdoutExporter,
}

// NewTracerProvider builds the SDK tracer provider for gatewayd, installs it
// globally with W3C trace context propagation and returns its shutdown func.
func NewTracerProvider(ctx context.Context, appConfig config.App, telemetryConfig config.Telemetry) (trace.TracerProvider, func(context.Context) error, error) {
	newExporter, ok := exporters[strings.ToLower(telemetryConfig.ExporterType)]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported exporter type %q", telemetryConfig.ExporterType)
	}

	exporter, err := newExporter(ctx, telemetryConfig)
	if err != nil {
		return nil, nil, err
	}

	res, err := serviceResource(ctx, appConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("describing service resource: %w", err)
	}

	sampler := sdktrace.TraceIDRatioBased(samplerRatio(telemetryConfig.Traces.SamplerRatio))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, tp.Shutdown, nil
}

func NewNoopTracerProvider() trace.TracerProvider {
	return noop.NewTracerProvider()
}

func serviceResource(ctx context.Context, app config.App) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(app.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
		semconv.DeploymentEnvironment(app.Env.Name),
		attribute.String("commit_sha", config.CommitSHA),
	}

	if hostName, err := os.Hostname(); err == nil {
		attrs = append(attrs, semconv.HostName(hostName))
	}

	return resource.New(ctx, resource.WithAttributes(attrs...))
}

// samplerRatio keeps the ratio within [0, 1]. Zero means unset and samples everything.
func samplerRatio(ratio float64) float64 {
	switch {
	case ratio <= 0, ratio > 1:
		return 1
	default:
		return ratio
	}
}

func newStdoutExporter(context.Context, config.Telemetry) (sdktrace.SpanExporter, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("creating stdout trace exporter: %w", err)
	}

	return exporter, nil
}

// newGRPCExporter dials the collector lazily; an unreachable collector only
// surfaces when spans are exported.
func newGRPCExporter(ctx context.Context, cfg config.Telemetry) (sdktrace.SpanExporter, error) {
	conn, err := grpc.NewClient(
		net.JoinHostPort(cfg.OtelGRPCHost, cfg.OtelGRPCPort),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collector connection: %w", err)
	}

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(otlptracegrpc.WithGRPCConn(conn)))
	if err != nil {
		return nil, fmt.Errorf("creating otlp trace exporter: %w", err)
	}

	return exporter, nil
}
