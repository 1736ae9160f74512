package ws

import (
	json "github.com/goccy/go-json"

	"github.com/coachpo/coinbase-advanced/errs"
	"github.com/coachpo/coinbase-advanced/lib/telemetry"
	"github.com/coachpo/coinbase-advanced/pkg/models"
)

const dispatchOp = "ws.Dispatch"

// decoders maps an inbound channel name to the model its frames decode into.
var decoders = map[models.Channel]func() models.Event{
	models.ChannelHeartbeats:   func() models.Event { return new(models.HeartbeatEvent) },
	models.ChannelHeartbeat:    func() models.Event { return new(models.HeartbeatEvent) },
	models.ChannelCandles:      func() models.Event { return new(models.CandlesEvent) },
	models.ChannelMarketTrades: func() models.Event { return new(models.MarketTradesEvent) },
	models.ChannelStatus:       func() models.Event { return new(models.StatusEvent) },
	models.ChannelTicker:       func() models.Event { return new(models.TickerEvent) },
	models.ChannelTickerBatch:  func() models.Event { return new(models.TickerBatchEvent) },
	models.ChannelL2Data:       func() models.Event { return new(models.Level2Event) },
	models.ChannelUser:         func() models.Event { return new(models.UserEvent) },
}

type frameHeader struct {
	Type    string         `json:"type"`
	Channel models.Channel `json:"channel"`
	Message string         `json:"message"`
}

// Decode classifies one frame and decodes it into its event model. Events
// are returned as pointers (*models.CandlesEvent, *models.HeartbeatEvent...).
// Subscription acknowledgements yield (nil, nil).
func Decode(frame []byte) (models.Event, error) {
	event, _, _, err := decode(frame)
	return event, err
}

func decode(frame []byte) (models.Event, models.Channel, string, error) {
	var header frameHeader
	if err := json.Unmarshal(frame, &header); err != nil {
		return nil, "", telemetry.OutcomeDecode, errs.Decode(dispatchOp, "frame", err)
	}

	if header.Type == "error" {
		body := make(map[string]any)
		_ = json.Unmarshal(frame, &body)
		return nil, header.Channel, telemetry.OutcomeError, errs.New(dispatchOp, errs.CodeExchange,
			errs.WithMessage(header.Message), errs.WithBody(body))
	}
	if header.Channel == models.ChannelSubscriptions {
		return nil, header.Channel, telemetry.OutcomeAck, nil
	}

	build, ok := decoders[header.Channel]
	if !ok {
		return nil, header.Channel, telemetry.OutcomeUnknown, errs.New(dispatchOp, errs.CodeUnknownChannel,
			errs.WithField("channel"), errs.WithMessage("unknown channel "+string(header.Channel)))
	}
	event := build()
	if err := models.Decode(frame, string(header.Channel), event); err != nil {
		return nil, header.Channel, telemetry.OutcomeDecode, errs.New(dispatchOp, errs.CodeDecode,
			errs.WithField(string(header.Channel)), errs.WithMessage("decode "+string(header.Channel)+" frame"),
			errs.WithCause(err))
	}
	return event, header.Channel, telemetry.OutcomeDispatched, nil
}

// Dispatch decodes frame and hands the event to the callback registered for
// its channel. No callback runs when an error is returned.
func (c *Client) Dispatch(frame []byte) (models.Event, error) {
	event, channel, outcome, err := decode(frame)
	c.metrics.record(string(channel), outcome)
	if err != nil || event == nil {
		return event, err
	}
	if cb := c.callback(channel); cb != nil {
		cb(event)
	}
	return event, nil
}
