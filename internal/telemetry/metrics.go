// internal/telemetry/metrics.go
package telemetry

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "github.com/javajoker/agrimarket-backend"

// InitMeterProvider initializes the Prometheus exporter and MeterProvider.
// It returns an http.Handler for the /metrics endpoint and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

// Metrics holds the business counters. Instruments are created from the
// global provider, which forwards to whatever provider is installed later.
type Metrics struct {
	ordersCreated        otelmetric.Int64Counter
	ordersCancelled      otelmetric.Int64Counter
	statusChanges        otelmetric.Int64Counter
	reservationsRejected otelmetric.Int64Counter
	notifications        otelmetric.Int64Counter
	orderValue           otelmetric.Float64Histogram
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the process wide Metrics.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = newMetrics(otel.Meter(meterName))
	})
	return defaultMetrics
}

func newMetrics(meter otelmetric.Meter) *Metrics {
	m := &Metrics{}
	// Instrument creation only fails on invalid names; the returned noop
	// instruments are safe to use either way.
	m.ordersCreated, _ = meter.Int64Counter("agrimarket.orders.created",
		otelmetric.WithDescription("Orders placed"))
	m.ordersCancelled, _ = meter.Int64Counter("agrimarket.orders.cancelled",
		otelmetric.WithDescription("Orders cancelled by buyers"))
	m.statusChanges, _ = meter.Int64Counter("agrimarket.orders.status_changes",
		otelmetric.WithDescription("Administrative order status changes"))
	m.reservationsRejected, _ = meter.Int64Counter("agrimarket.inventory.reservations_rejected",
		otelmetric.WithDescription("Orders rejected for insufficient inventory"))
	m.notifications, _ = meter.Int64Counter("agrimarket.notifications",
		otelmetric.WithDescription("Notification delivery attempts"))
	m.orderValue, _ = meter.Float64Histogram("agrimarket.orders.value",
		otelmetric.WithDescription("Order totals"))
	return m
}

func (m *Metrics) OrderCreated(ctx context.Context, category string, total float64) {
	attrs := otelmetric.WithAttributes(attribute.String("category", category))
	m.ordersCreated.Add(ctx, 1, attrs)
	m.orderValue.Record(ctx, total, attrs)
}

func (m *Metrics) OrderCancelled(ctx context.Context) {
	m.ordersCancelled.Add(ctx, 1)
}

func (m *Metrics) StatusChanged(ctx context.Context, status string) {
	m.statusChanges.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) ReservationRejected(ctx context.Context) {
	m.reservationsRejected.Add(ctx, 1)
}

func (m *Metrics) NotificationDelivered(ctx context.Context, channel, status string) {
	m.notifications.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("status", status),
	))
}
