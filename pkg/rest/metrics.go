package rest

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/coinbase-advanced/lib/telemetry"
)

type restMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

func newRESTMetrics() *restMetrics {
	meter := otel.Meter("coinbase.rest")
	m := &restMetrics{requests: nil, latency: nil}

	m.requests, _ = meter.Int64Counter("coinbase_rest_requests",
		metric.WithDescription("REST calls sent to Coinbase Advanced Trade"),
		metric.WithUnit("{request}"))

	m.latency, _ = meter.Float64Histogram("coinbase_rest_request_latency",
		metric.WithDescription("Round-trip latency of REST calls"),
		metric.WithUnit("ms"))

	return m
}

func (m *restMetrics) record(ctx context.Context, method, endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if elapsed < 0 {
		elapsed = 0
	}
	attrs := metric.WithAttributes(telemetry.RequestAttributes(method, endpoint, status)...)
	if m.requests != nil {
		m.requests.Add(ctx, 1, attrs)
	}
	if m.latency != nil {
		m.latency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}
}
