package ws

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/coachpo/coinbase-advanced/lib/telemetry"
)

type wsMetrics struct {
	frames metric.Int64Counter
}

func newWSMetrics() *wsMetrics {
	meter := otel.Meter("coinbase.ws")
	m := &wsMetrics{frames: nil}
	m.frames, _ = meter.Int64Counter("coinbase_ws_frames",
		metric.WithDescription("WebSocket frames received from Coinbase Advanced Trade"),
		metric.WithUnit("{frame}"))
	return m
}

func (m *wsMetrics) record(channel, outcome string) {
	if m == nil || m.frames == nil {
		return
	}
	m.frames.Add(context.Background(), 1, metric.WithAttributes(telemetry.FrameAttributes(channel, outcome)...))
}
