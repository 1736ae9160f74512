package ws

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/coinbase-advanced/errs"
	"github.com/coachpo/coinbase-advanced/pkg/models"
)

const (
	heartbeatFrame = `{"channel":"heartbeats","client_id":"","timestamp":"2023-06-23T20:31:26.122969572Z","sequence_num":0,"events":[{"current_time":"2023-06-23 20:31:56.121961769 +0000 UTC m=+91717.525857105","heartbeat_counter":3049}]}`
	tickerFrame    = `{"channel":"ticker","client_id":"","timestamp":"2023-02-09T20:30:37.167359596Z","sequence_num":0,"events":[{"type":"snapshot","tickers":[{"type":"ticker","product_id":"BTC-USD","price":"21932.98","volume_24_h":"16038.28770938","low_24_h":"21835.29","high_24_h":"23011.18","low_52_w":"15460","high_52_w":"48240","price_percent_chg_24_h":"-4.15775596190603"}]}]}`
	l2Frame        = `{"channel":"l2_data","client_id":"","timestamp":"2023-02-09T20:32:50.714964855Z","sequence_num":0,"events":[{"type":"snapshot","product_id":"BTC-USD","updates":[{"side":"bid","event_time":"1970-01-01T00:00:00Z","price_level":"21921.73","new_quantity":"0.06317902"}]}]}`
	ackFrame       = `{"channel":"subscriptions","client_id":"","timestamp":"2023-02-09T20:32:50.714964855Z","sequence_num":1,"events":[{"subscriptions":{"ticker":["BTC-USD"]}}]}`
	errorFrame     = `{"type":"error","message":"authentication failure"}`
	unknownFrame   = `{"channel":"futures_balance_summary","events":[]}`
	badTickerFrame = `{"channel":"ticker","events":[{"type":"snapshot","tickers":[{"product_id":"BTC-USD","price":"not-a-number"}]}]}`
)

func TestDecodeRoutesByChannel(t *testing.T) {
	event, err := Decode([]byte(heartbeatFrame))
	require.NoError(t, err)
	hb, ok := event.(*models.HeartbeatEvent)
	require.True(t, ok, "got %T", event)
	require.Equal(t, int64(3049), hb.HeartbeatCounter)
	require.Equal(t, models.ChannelHeartbeats, hb.Channel())

	event, err = Decode([]byte(tickerFrame))
	require.NoError(t, err)
	ticker, ok := event.(*models.TickerEvent)
	require.True(t, ok, "got %T", event)
	require.Equal(t, "21932.98", ticker.Tickers()[0].Price.String())

	event, err = Decode([]byte(l2Frame))
	require.NoError(t, err)
	l2, ok := event.(*models.Level2Event)
	require.True(t, ok, "got %T", event)
	require.Equal(t, models.ChannelL2Data, l2.Channel())
	require.Len(t, l2.Events[0].Updates, 1)
}

func TestDecodeAcknowledgement(t *testing.T) {
	event, err := Decode([]byte(ackFrame))
	if err != nil || event != nil {
		t.Fatalf("expected (nil, nil) for subscriptions ack, got (%v, %v)", event, err)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		code  errs.Code
	}{
		{"exchange error", errorFrame, errs.CodeExchange},
		{"unknown channel", unknownFrame, errs.CodeUnknownChannel},
		{"bad payload", badTickerFrame, errs.CodeDecode},
		{"not json", `not json`, errs.CodeDecode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := Decode([]byte(tc.frame))
			if event != nil {
				t.Fatalf("expected no event, got %T", event)
			}
			if !errs.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestExchangeErrorCarriesMessage(t *testing.T) {
	_, err := Decode([]byte(errorFrame))
	e, ok := err.(*errs.E)
	require.True(t, ok)
	require.Equal(t, "authentication failure", e.Message)
}

func TestDecodeErrorNamesChannel(t *testing.T) {
	_, err := Decode([]byte(badTickerFrame))
	e, ok := err.(*errs.E)
	require.True(t, ok)
	require.Equal(t, "ticker", e.Field)
}

func TestDispatchInvokesRegisteredCallback(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	var got []models.Event
	require.NoError(t, c.On(models.ChannelLevel2, func(e models.Event) { got = append(got, e) }))
	require.NoError(t, c.On(models.ChannelHeartbeats, func(e models.Event) { got = append(got, e) }))

	for _, frame := range []string{l2Frame, heartbeatFrame, tickerFrame, ackFrame} {
		_, _ = c.Dispatch([]byte(frame))
	}
	require.Len(t, got, 2)
	require.Equal(t, models.ChannelL2Data, got[0].Channel())
	require.Equal(t, models.ChannelHeartbeats, got[1].Channel())

	_, err = c.Dispatch([]byte(badTickerFrame))
	require.Error(t, err)
	require.Len(t, got, 2)
}

func TestDispatchUnknownChannelInvokesNoCallback(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	calls := 0
	for _, ch := range []models.Channel{models.ChannelHeartbeats, models.ChannelCandles, models.ChannelMarketTrades,
		models.ChannelStatus, models.ChannelTicker, models.ChannelTickerBatch, models.ChannelLevel2, models.ChannelUser} {
		require.NoError(t, c.On(ch, func(models.Event) { calls++ }))
	}

	event, err := c.Dispatch([]byte(unknownFrame))
	require.Nil(t, event)
	require.True(t, errs.IsCode(err, errs.CodeUnknownChannel), "got %v", err)
	require.Zero(t, calls)
}

func TestOnRejectsDuplicatesAndInvalid(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	noop := func(models.Event) {}

	require.NoError(t, c.On(models.ChannelTicker, noop))
	if err := c.On(models.ChannelTicker, noop); !errs.IsCode(err, errs.CodeInvalid) {
		t.Fatalf("expected duplicate registration to fail, got %v", err)
	}
	if err := c.On("bogus", noop); !errs.IsCode(err, errs.CodeInvalid) {
		t.Fatalf("expected unknown channel to fail, got %v", err)
	}
	if err := c.On(models.ChannelCandles, nil); !errs.IsCode(err, errs.CodeInvalid) {
		t.Fatalf("expected nil callback to fail, got %v", err)
	}
}

func TestNewRejectsNonWebsocketURL(t *testing.T) {
	if _, err := New(Options{URL: "https://example.com"}); !errs.IsCode(err, errs.CodeConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}
