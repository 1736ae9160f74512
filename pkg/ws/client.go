// Package ws implements the Coinbase Advanced Trade market data WebSocket.
//
// Each Subscribe call owns one connection and one receive goroutine. Frames
// are decoded by channel and handed to the callback registered for that
// channel. The client never reconnects: a transport failure ends the
// subscription in StateErrored and the caller decides what to do next.
package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
	"github.com/sourcegraph/conc"

	"github.com/coachpo/coinbase-advanced/config"
	"github.com/coachpo/coinbase-advanced/errs"
	"github.com/coachpo/coinbase-advanced/internal/observability"
	"github.com/coachpo/coinbase-advanced/pkg/models"
	"github.com/coachpo/coinbase-advanced/pkg/signer"
)

const readLimit = 16 << 20

// Callback receives decoded events of one channel. It runs on the receive
// goroutine of the subscription that produced the frame.
type Callback func(models.Event)

// Options configures a Client. Zero durations and an empty URL fall back to
// config.Default().
type Options struct {
	URL string
	// TokenSource signs subscribe frames. Public channels accept unsigned
	// subscriptions; user needs a token.
	TokenSource      signer.TokenSource
	Logger           observability.Logger
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	HTTPClient       *http.Client
	Clock            func() time.Time
}

func (o Options) withDefaults() Options {
	defaults := config.Default().Websocket
	if strings.TrimSpace(o.URL) == "" {
		o.URL = defaults.URL
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaults.WriteTimeout
	}
	o.Logger = observability.Or(o.Logger)
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Client manages WebSocket subscriptions.
type Client struct {
	opts    Options
	metrics *wsMetrics

	mu        sync.RWMutex
	callbacks map[models.Channel]Callback
	onError   func(error)
	started   bool
	closed    bool
	subs      map[*Subscription]struct{}

	workers conc.WaitGroup
}

// New builds a client from opts.
func New(opts Options) (*Client, error) {
	opts = opts.withDefaults()
	if !strings.HasPrefix(opts.URL, "ws://") && !strings.HasPrefix(opts.URL, "wss://") {
		return nil, errs.New("ws.New", errs.CodeConfig, errs.WithMessage("websocket url must use ws or wss: "+opts.URL))
	}
	return &Client{
		opts:      opts,
		metrics:   newWSMetrics(),
		callbacks: make(map[models.Channel]Callback),
		subs:      make(map[*Subscription]struct{}),
	}, nil
}

// On registers cb for channel. Callbacks are fixed once the first
// subscription starts and each channel takes one callback. Registering for
// level2 receives l2_data frames.
func (c *Client) On(channel models.Channel, cb Callback) error {
	const op = "ws.On"
	if cb == nil {
		return errs.New(op, errs.CodeInvalid, errs.WithField("callback"), errs.WithMessage("callback required"))
	}
	if !channel.Valid() || channel == models.ChannelSubscriptions {
		return errs.New(op, errs.CodeInvalid, errs.WithField("channel"), errs.WithMessage("unsupported channel "+string(channel)))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return errs.New(op, errs.CodeInvalid, errs.WithField("channel"),
			errs.WithMessage("callbacks cannot change after a subscription started"))
	}
	inbound := channel.Inbound()
	if _, exists := c.callbacks[inbound]; exists {
		return errs.New(op, errs.CodeInvalid, errs.WithField("channel"),
			errs.WithMessage("callback already registered for "+string(inbound)))
	}
	c.callbacks[inbound] = cb
	return nil
}

// OnError sets the sink for receive-loop errors. Without one, errors are
// logged.
func (c *Client) OnError(fn func(error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

func (c *Client) callback(channel models.Channel) Callback {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callbacks[channel]
}

func (c *Client) report(err error) {
	c.mu.RLock()
	sink := c.onError
	c.mu.RUnlock()
	if sink != nil {
		sink(err)
		return
	}
	c.opts.Logger.Error("websocket frame failed", observability.F("error", err))
}

type subscribeFrame struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channel    string   `json:"channel"`
	JWT        string   `json:"jwt,omitempty"`
	Timestamp  int64    `json:"timestamp"`
}

// Subscribe dials a connection, subscribes to channel for productIDs plus the
// heartbeats channel, and starts receiving. cb, when non-nil, is registered
// for channel as with On. It returns once both subscribe frames are written.
// Cancelling ctx ends the subscription.
func (c *Client) Subscribe(ctx context.Context, productIDs []string, channel models.Channel, cb Callback) (*Subscription, error) {
	const op = "ws.Subscribe"
	if !channel.Valid() || channel == models.ChannelSubscriptions {
		return nil, errs.New(op, errs.CodeInvalid, errs.WithField("channel"), errs.WithMessage("unsupported channel "+string(channel)))
	}
	if cb != nil {
		if err := c.On(channel, cb); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errs.New(op, errs.CodeInvalid, errs.WithMessage("client closed"))
	}
	c.started = true
	c.mu.Unlock()

	sub := newSubscription(channel, productIDs)
	sub.setState(StateConnecting)

	token := ""
	if c.opts.TokenSource != nil {
		t, err := c.opts.TokenSource.Token()
		if err != nil {
			sub.finish(StateErrored, err)
			return nil, err
		}
		token = t
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.HandshakeTimeout)
	conn, _, err := websocket.Dial(dialCtx, c.opts.URL, &websocket.DialOptions{HTTPClient: c.opts.HTTPClient})
	cancel()
	if err != nil {
		wrapped := errs.New(op, errs.CodeNetwork, errs.WithMessage("dial "+c.opts.URL), errs.WithCause(err))
		sub.finish(StateErrored, wrapped)
		return nil, wrapped
	}
	conn.SetReadLimit(readLimit)
	sub.conn = conn

	frames := []subscribeFrame{c.subscribeFrame(productIDs, channel, token)}
	if channel != models.ChannelHeartbeats {
		frames = append(frames, c.subscribeFrame(productIDs, models.ChannelHeartbeats, token))
	}
	for _, frame := range frames {
		if err := c.write(ctx, conn, frame); err != nil {
			_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
			wrapped := errs.New(op, errs.CodeNetwork, errs.WithMessage("write subscribe frame"), errs.WithCause(err))
			sub.finish(StateErrored, wrapped)
			return nil, wrapped
		}
	}
	sub.setState(StateSubscribed)
	c.opts.Logger.Info("websocket subscribed",
		observability.F("channel", string(channel)), observability.F("products", strings.Join(productIDs, ",")))

	// Close may have run while the dial was in flight.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "client closed")
		sub.finish(StateClosed, nil)
		return nil, errs.New(op, errs.CodeInvalid, errs.WithMessage("client closed"))
	}
	c.subs[sub] = struct{}{}
	loopCtx, stop := context.WithCancel(ctx)
	sub.stop = stop
	c.workers.Go(func() {
		defer stop()
		c.readLoop(loopCtx, sub)
		c.mu.Lock()
		delete(c.subs, sub)
		c.mu.Unlock()
	})
	c.mu.Unlock()
	return sub, nil
}

func (c *Client) subscribeFrame(productIDs []string, channel models.Channel, token string) subscribeFrame {
	ids := productIDs
	if ids == nil {
		ids = []string{}
	}
	return subscribeFrame{
		Type:       "subscribe",
		ProductIDs: ids,
		Channel:    string(channel),
		JWT:        token,
		Timestamp:  c.opts.Clock().Unix(),
	}
}

func (c *Client) write(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

func (c *Client) readLoop(ctx context.Context, sub *Subscription) {
	for {
		_, data, err := sub.conn.Read(ctx)
		if err != nil {
			if sub.closing.Load() || ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				_ = sub.conn.Close(websocket.StatusNormalClosure, "")
				sub.finish(StateClosed, nil)
				return
			}
			wrapped := errs.New("ws.readLoop", errs.CodeNetwork, errs.WithMessage("read websocket"), errs.WithCause(err))
			_ = sub.conn.Close(websocket.StatusInternalError, "")
			sub.finish(StateErrored, wrapped)
			c.report(wrapped)
			return
		}
		sub.setState(StateReceiving)
		if _, err := c.Dispatch(data); err != nil {
			c.report(err)
		}
	}
}

// Close closes every open subscription and waits for their receive
// goroutines to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	subs := make([]*Subscription, 0, len(c.subs))
	for sub := range c.subs {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	var joined error
	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			joined = errors.Join(joined, err)
		}
	}
	c.workers.Wait()
	return joined
}
