package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/coachpo/coinbase-advanced/errs"
	"github.com/coachpo/coinbase-advanced/pkg/models"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

// fakeFeed accepts one connection, records the subscribe frames, pushes
// frames and then either waits for the client to close or drops the socket.
type fakeFeed struct {
	server     *httptest.Server
	push       []string
	drop       bool
	subscribed chan []subscribeFrame
}

func newFakeFeed(t *testing.T, push []string, drop bool) *fakeFeed {
	t.Helper()
	f := &fakeFeed{push: push, drop: drop, subscribed: make(chan []subscribeFrame, 1)}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := r.Context()
		var frames []subscribeFrame
		for i := 0; i < 2; i++ {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var frame subscribeFrame
			_ = json.Unmarshal(data, &frame)
			frames = append(frames, frame)
		}
		f.subscribed <- frames
		for _, msg := range f.push {
			if err := conn.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
				return
			}
		}
		if f.drop {
			_ = conn.CloseNow()
			return
		}
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeFeed) url() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func TestSubscribeReceivesAndCloses(t *testing.T) {
	feed := newFakeFeed(t, []string{ackFrame, tickerFrame, unknownFrame, heartbeatFrame}, false)
	c, err := New(Options{
		URL:         feed.url(),
		TokenSource: staticToken("jwt-token"),
		Clock:       func() time.Time { return time.Unix(1700000000, 0) },
	})
	require.NoError(t, err)

	var mu sync.Mutex
	var failures []error
	c.OnError(func(err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
	})
	heartbeat := make(chan *models.HeartbeatEvent, 1)
	require.NoError(t, c.On(models.ChannelHeartbeats, func(e models.Event) {
		heartbeat <- e.(*models.HeartbeatEvent)
	}))
	tickers := make(chan *models.TickerEvent, 1)

	sub, err := c.Subscribe(context.Background(), []string{"BTC-USD"}, models.ChannelTicker, func(e models.Event) {
		tickers <- e.(*models.TickerEvent)
	})
	require.NoError(t, err)

	frames := <-feed.subscribed
	require.Len(t, frames, 2)
	require.Equal(t, subscribeFrame{Type: "subscribe", ProductIDs: []string{"BTC-USD"}, Channel: "ticker",
		JWT: "jwt-token", Timestamp: 1700000000}, frames[0])
	require.Equal(t, "heartbeats", frames[1].Channel)

	select {
	case ev := <-tickers:
		require.Equal(t, "BTC-USD", ev.Tickers()[0].ProductID)
	case <-time.After(5 * time.Second):
		t.Fatal("ticker event not delivered")
	}
	select {
	case ev := <-heartbeat:
		require.Equal(t, int64(3049), ev.HeartbeatCounter)
	case <-time.After(5 * time.Second):
		t.Fatal("heartbeat not delivered")
	}
	require.Equal(t, StateReceiving, sub.State())

	mu.Lock()
	require.Len(t, failures, 1)
	require.True(t, errs.IsCode(failures[0], errs.CodeUnknownChannel))
	mu.Unlock()

	if err := c.On(models.ChannelCandles, func(models.Event) {}); !errs.IsCode(err, errs.CodeInvalid) {
		t.Fatalf("expected registration after start to fail, got %v", err)
	}

	require.NoError(t, c.Close())
	<-sub.Done()
	require.Equal(t, StateClosed, sub.State())
	require.NoError(t, sub.Err())
}

func TestTransportFailureEndsSubscription(t *testing.T) {
	feed := newFakeFeed(t, []string{heartbeatFrame}, true)
	c, err := New(Options{URL: feed.url()})
	require.NoError(t, err)

	reported := make(chan error, 4)
	c.OnError(func(err error) { reported <- err })

	sub, err := c.Subscribe(context.Background(), []string{"BTC-USD"}, models.ChannelMarketTrades, nil)
	require.NoError(t, err)

	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription did not end after the socket dropped")
	}
	require.Equal(t, StateErrored, sub.State())
	require.True(t, errs.IsCode(sub.Err(), errs.CodeNetwork), "got %v", sub.Err())
	require.True(t, errs.IsCode(<-reported, errs.CodeNetwork))
	require.NoError(t, c.Close())
}

func TestPublicSubscribeOmitsJWT(t *testing.T) {
	feed := newFakeFeed(t, nil, false)
	c, err := New(Options{URL: feed.url()})
	require.NoError(t, err)

	sub, err := c.Subscribe(context.Background(), []string{"ETH-USD"}, models.ChannelLevel2, nil)
	require.NoError(t, err)
	frames := <-feed.subscribed
	require.Equal(t, "level2", frames[0].Channel)
	require.Empty(t, frames[0].JWT)

	require.NoError(t, sub.Close())
	require.Equal(t, StateClosed, sub.State())
	require.NoError(t, c.Close())
}

func TestSubscribeDialFailure(t *testing.T) {
	c, err := New(Options{URL: "ws://127.0.0.1:1", HandshakeTimeout: time.Second})
	require.NoError(t, err)
	_, err = c.Subscribe(context.Background(), []string{"BTC-USD"}, models.ChannelTicker, nil)
	if !errs.IsCode(err, errs.CodeNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestCloseDuringDialReleasesConnection(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	closed := make(chan websocket.StatusCode, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.Read(r.Context()); err != nil {
				closed <- websocket.CloseStatus(err)
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	c, err := New(Options{URL: "ws" + strings.TrimPrefix(server.URL, "http")})
	require.NoError(t, err)

	result := make(chan error, 1)
	go func() {
		_, err := c.Subscribe(context.Background(), []string{"BTC-USD"}, models.ChannelTicker, nil)
		result <- err
	}()

	<-entered
	require.NoError(t, c.Close())
	close(release)

	select {
	case err := <-result:
		require.True(t, errs.IsCode(err, errs.CodeInvalid), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("subscribe did not return")
	}
	select {
	case status := <-closed:
		require.Equal(t, websocket.StatusNormalClosure, status)
	case <-time.After(5 * time.Second):
		t.Fatal("connection left open after close")
	}
	require.Empty(t, c.subs)
}
