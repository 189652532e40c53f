package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ServiceName identifies this process in exported telemetry.
const ServiceName = "voicesvc"

// Provider bundles the meter provider with the HTTP handler that exposes it.
type Provider struct {
	// MeterProvider creates the instruments in Metrics.
	MeterProvider metric.MeterProvider

	// Handler serves the Prometheus exposition format. Nil when metrics are disabled.
	Handler http.Handler

	shutdown func(context.Context) error
}

// NewProvider returns a Prometheus-backed provider when enabled, otherwise a
// no-op provider whose instruments discard every measurement.
func NewProvider(enabled bool) (*Provider, error) {
	if !enabled {
		return &Provider{
			MeterProvider: noop.NewMeterProvider(),
			shutdown:      func(context.Context) error { return nil },
		}, nil
	}

	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(ServiceName))

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	return &Provider{
		MeterProvider: mp,
		Handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		shutdown:      mp.Shutdown,
	}, nil
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}
