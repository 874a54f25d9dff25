package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal metric.Int64Counter
	HTTPDurationMs    metric.Float64Histogram

	// Business metrics
	DoseTransitionsTotal metric.Int64Counter
	RemindersFiredTotal  metric.Int64Counter
	StockRefillsTotal    metric.Int64Counter
	StockLevel           metric.Int64Histogram
}

// InitMetrics initializes all custom metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/CareMeds-Health/medication-service")

	httpRequestsTotal, err := meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	httpDurationMs, err := meter.Float64Histogram(
		"http_server_duration_milliseconds",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	doseTransitionsTotal, err := meter.Int64Counter(
		"dose_transitions_total",
		metric.WithDescription("Total number of dose status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	remindersFiredTotal, err := meter.Int64Counter(
		"reminders_fired_total",
		metric.WithDescription("Total number of reminder notifications fired"),
		metric.WithUnit("{reminder}"),
	)
	if err != nil {
		return nil, err
	}

	stockRefillsTotal, err := meter.Int64Counter(
		"stock_refills_total",
		metric.WithDescription("Total number of stock refill operations"),
		metric.WithUnit("{refill}"),
	)
	if err != nil {
		return nil, err
	}

	stockLevel, err := meter.Int64Histogram(
		"medicine_stock_level",
		metric.WithDescription("Stock level observed after inventory changes"),
		metric.WithUnit("{dose}"),
	)
	if err != nil {
		return nil, err
	}

	log.Println("✓ Custom metrics initialized")

	return &Metrics{
		HTTPRequestsTotal:    httpRequestsTotal,
		HTTPDurationMs:       httpDurationMs,
		DoseTransitionsTotal: doseTransitionsTotal,
		RemindersFiredTotal:  remindersFiredTotal,
		StockRefillsTotal:    stockRefillsTotal,
		StockLevel:           stockLevel,
	}, nil
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPDurationMs.Record(ctx, durationMs, metric.WithAttributes(attrs...))
}

// RecordDoseTransition records a dose state transition metric
func (m *Metrics) RecordDoseTransition(ctx context.Context, transition string) {
	if m == nil {
		return
	}
	m.DoseTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transition", transition),
	))
}

// RecordReminderFired records a reminder notification metric
func (m *Metrics) RecordReminderFired(ctx context.Context, dueNow bool) {
	if m == nil {
		return
	}
	m.RemindersFiredTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("due_now", dueNow),
	))
}

// RecordStockRefill records a refill operation and the resulting stock level
func (m *Metrics) RecordStockRefill(ctx context.Context, medicineID string, newLevel int) {
	if m == nil {
		return
	}
	m.StockRefillsTotal.Add(ctx, 1)
	m.StockLevel.Record(ctx, int64(newLevel), metric.WithAttributes(
		attribute.String("medicine_id", medicineID),
	))
}
