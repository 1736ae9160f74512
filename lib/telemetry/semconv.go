package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by the REST and WebSocket instruments.
const (
	// AttrMethod is the HTTP method of a REST call.
	AttrMethod = attribute.Key("method")
	// AttrEndpoint names the client operation (ListAccounts, GetProduct, ...).
	AttrEndpoint = attribute.Key("endpoint")
	// AttrStatus is the HTTP status code, 0 when no response arrived.
	AttrStatus = attribute.Key("status")
	// AttrChannel is the WebSocket channel of a frame.
	AttrChannel = attribute.Key("channel")
	// AttrOutcome classifies how a frame was handled.
	AttrOutcome = attribute.Key("outcome")
)

// Frame outcomes.
const (
	OutcomeDispatched = "dispatched"
	OutcomeAck        = "ack"
	OutcomeError      = "error"
	OutcomeDecode     = "decode_error"
	OutcomeUnknown    = "unknown_channel"
)

// RequestAttributes returns the attribute set of a REST request metric.
func RequestAttributes(method, endpoint string, status int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrMethod.String(method),
		AttrEndpoint.String(endpoint),
		AttrStatus.Int(status),
	}
}

// FrameAttributes returns the attribute set of a WebSocket frame metric.
func FrameAttributes(channel, outcome string) []attribute.KeyValue {
	if channel == "" {
		channel = "none"
	}
	return []attribute.KeyValue{
		AttrChannel.String(channel),
		AttrOutcome.String(outcome),
	}
}
