// Package rest implements the Coinbase Advanced Trade brokerage REST API.
//
// Every call goes through one request path: the query is appended after the
// path, the body is marshalled once and those bytes are both signed and sent,
// the call is bounded by the configured timeout and, when enabled, waits on a
// client-side token bucket. Calls are never retried.
package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/coachpo/coinbase-advanced/config"
	"github.com/coachpo/coinbase-advanced/errs"
	"github.com/coachpo/coinbase-advanced/internal/observability"
	"github.com/coachpo/coinbase-advanced/internal/query"
	"github.com/coachpo/coinbase-advanced/pkg/models"
	"github.com/coachpo/coinbase-advanced/pkg/signer"
)

// APIPrefix is prepended to every endpoint path.
const APIPrefix = "/api/v3/brokerage"

const maxErrorBody = 64 << 10

// Options configures a Client. Zero values fall back to Config, and Config
// itself falls back to config.Default().
type Options struct {
	Config     config.Settings
	HTTPClient *http.Client
	// Signer overrides the signer derived from Config.Credentials. When both
	// are empty requests are sent unsigned, which only public endpoints accept.
	Signer  signer.Signer
	Limiter *rate.Limiter
	Logger  observability.Logger
	Clock   func() time.Time
	// MaxPages bounds the *All pagination loops.
	MaxPages int
}

func (o Options) withDefaults() Options {
	defaults := config.Default()
	if strings.TrimSpace(o.Config.REST.BaseURL) == "" {
		o.Config.REST.BaseURL = defaults.REST.BaseURL
	}
	if o.Config.REST.HTTPTimeout <= 0 {
		o.Config.REST.HTTPTimeout = defaults.REST.HTTPTimeout
	}
	if o.MaxPages <= 0 {
		o.MaxPages = o.Config.REST.MaxPages
	}
	if o.MaxPages <= 0 {
		o.MaxPages = defaults.REST.MaxPages
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.Limiter == nil && o.Config.REST.RateLimit > 0 {
		burst := o.Config.REST.RateBurst
		if burst <= 0 {
			burst = 1
		}
		o.Limiter = rate.NewLimiter(rate.Limit(o.Config.REST.RateLimit), burst)
	}
	o.Logger = observability.Or(o.Logger)
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Client is a Coinbase Advanced Trade REST client. It is safe for concurrent
// use.
type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	signer   signer.Signer
	limiter  *rate.Limiter
	logger   observability.Logger
	clock    func() time.Time
	maxPages int
	metrics  *restMetrics
}

// New builds a client from opts.
func New(opts Options) (*Client, error) {
	opts = opts.withDefaults()

	base := strings.TrimRight(strings.TrimSpace(opts.Config.REST.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" {
		return nil, errs.New("rest.New", errs.CodeConfig,
			errs.WithMessage(fmt.Sprintf("invalid base url %q", base)), errs.WithCause(err))
	}

	sign := opts.Signer
	if sign == nil && opts.Config.Credentials.HasCredentials() {
		sign, err = signer.New(opts.Config.Credentials, parsed.Host)
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		baseURL:  base,
		timeout:  opts.Config.REST.HTTPTimeout,
		http:     opts.HTTPClient,
		signer:   sign,
		limiter:  opts.Limiter,
		logger:   opts.Logger,
		clock:    opts.Clock,
		maxPages: opts.MaxPages,
		metrics:  newRESTMetrics(),
	}, nil
}

// NewFromLegacyKeys builds a production client signing with an HMAC key pair.
func NewFromLegacyKeys(apiKey, secret string, opts ...config.Option) (*Client, error) {
	cfg := config.Apply(config.Default(), append([]config.Option{config.WithLegacyKeys(apiKey, secret)}, opts...)...)
	return New(Options{Config: cfg})
}

// NewFromCloudKeys builds a production client signing with an ES256 JWT
// derived from a cloud API key.
func NewFromCloudKeys(keyName, privateKeyPEM string, opts ...config.Option) (*Client, error) {
	cfg := config.Apply(config.Default(), append([]config.Option{config.WithCloudKeys(keyName, privateKeyPEM)}, opts...)...)
	return New(Options{Config: cfg})
}

// request describes one API call.
type request struct {
	op     string
	method string
	path   string
	query  *query.Builder
	body   any
}

// do sends req and decodes a 2xx body into out (when non-nil) under name.
func (c *Client) do(ctx context.Context, req request, name string, out any) error {
	raw, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := models.Decode(raw, name, out); err != nil {
		var e *errs.E
		if errors.As(err, &e) && e.Op == "decode" {
			e.Op = req.op
		}
		c.logger.Error("rest decode failed",
			observability.F("op", req.op), observability.F("model", name), observability.F("error", err))
		return err
	}
	return nil
}

// send performs the HTTP exchange and returns the 2xx body.
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	path := APIPrefix + req.path
	target := c.baseURL + path
	if req.query != nil {
		target += req.query.Encode()
	}

	var payload []byte
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, errs.New(req.op, errs.CodeInvalid, errs.WithMessage("encode request body"), errs.WithCause(err))
		}
		payload = encoded
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errs.New(req.op, errs.CodeRateLimited,
				errs.WithMessage("client rate limiter wait"), errs.WithCause(err))
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(reqCtx, req.method, target, bodyReader)
	if err != nil {
		return nil, errs.New(req.op, errs.CodeInvalid, errs.WithMessage("build request"), errs.WithCause(err))
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.signer != nil {
		headers, err := c.signer.Sign(req.method, path, payload)
		if err != nil {
			return nil, err
		}
		for key, values := range headers {
			for _, v := range values {
				httpReq.Header.Set(key, v)
			}
		}
	}

	started := c.clock()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.record(ctx, req.method, req.op, 0, c.clock().Sub(started))
		c.logger.Error("rest request failed",
			observability.F("op", req.op), observability.F("method", req.method),
			observability.F("path", path), observability.F("error", err))
		return nil, errs.New(req.op, errs.CodeNetwork, errs.WithMessage("send request"), errs.WithCause(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	elapsed := c.clock().Sub(started)
	c.metrics.record(ctx, req.method, req.op, resp.StatusCode, elapsed)
	if err != nil {
		return nil, errs.New(req.op, errs.CodeNetwork, errs.WithHTTP(resp.StatusCode),
			errs.WithMessage("read response body"), errs.WithCause(err))
	}

	c.logger.Debug("rest request",
		observability.F("op", req.op), observability.F("method", req.method), observability.F("path", path),
		observability.F("status", resp.StatusCode), observability.F("duration_ms", elapsed.Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		apiErr := errs.FromResponse(req.op, resp.StatusCode, raw)
		c.logger.Error("rest request rejected",
			observability.F("op", req.op), observability.F("status", resp.StatusCode), observability.F("error", apiErr))
		return nil, apiErr
	}
	return raw, nil
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}

// orDefault returns v when positive and def otherwise.
func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
