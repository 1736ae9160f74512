package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/coinbase-advanced/config"
	"github.com/coachpo/coinbase-advanced/errs"
	"github.com/coachpo/coinbase-advanced/pkg/signer"
)

var fixedNow = time.Unix(1700000000, 0)

// recorded is one request seen by the fake exchange.
type recorded struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

type fakeExchange struct {
	t        *testing.T
	server   *httptest.Server
	requests []recorded
	respond  func(n int, r recorded) (int, string)
}

func newFakeExchange(t *testing.T, respond func(n int, r recorded) (int, string)) *fakeExchange {
	t.Helper()
	f := &fakeExchange{t: t, respond: respond}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec := recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		}
		f.requests = append(f.requests, rec)
		status, payload := f.respond(len(f.requests)-1, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeExchange) client(opts ...func(*Options)) *Client {
	f.t.Helper()
	cfg := config.Default()
	cfg.REST.BaseURL = f.server.URL
	cfg.REST.RateLimit = 0
	hmac := signer.NewHMAC("key", "secret")
	hmac.Clock = func() time.Time { return fixedNow }
	o := Options{Config: cfg, Signer: hmac, HTTPClient: f.server.Client()}
	for _, opt := range opts {
		opt(&o)
	}
	c, err := New(o)
	if err != nil {
		f.t.Fatalf("new client: %v", err)
	}
	return c
}

func respondWith(status int, body string) func(int, recorded) (int, string) {
	return func(int, recorded) (int, string) { return status, body }
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	cfg := config.Default()
	cfg.REST.BaseURL = "://nope"
	if _, err := New(Options{Config: cfg}); !errs.IsCode(err, errs.CodeConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestNewDerivesSignerFromCredentials(t *testing.T) {
	c, err := NewFromLegacyKeys("k", "s")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := c.signer.(*signer.HMAC); !ok {
		t.Fatalf("expected HMAC signer, got %T", c.signer)
	}
	if c.limiter == nil {
		t.Fatalf("expected default rate limiter")
	}
	if c.maxPages != 1000 {
		t.Fatalf("expected default page bound 1000, got %d", c.maxPages)
	}
}

func TestSignedRequestExcludesQuery(t *testing.T) {
	f := newFakeExchange(t, respondWith(http.StatusOK, `{"accounts":[],"has_next":false,"cursor":"","size":0}`))
	_, err := f.client().ListAccounts(context.Background(), 0, "abc")
	require.NoError(t, err)
	require.Len(t, f.requests, 1)

	got := f.requests[0]
	require.Equal(t, "/api/v3/brokerage/accounts", got.Path)
	require.Equal(t, "limit=49&cursor=abc", got.Query)
	require.Equal(t, "key", got.Header.Get(signer.HeaderKey))
	require.Equal(t, "1700000000", got.Header.Get(signer.HeaderTimestamp))
	want := signer.Signature("secret", "1700000000", http.MethodGet, "/api/v3/brokerage/accounts", nil)
	require.Equal(t, want, got.Header.Get(signer.HeaderSign))
}

func TestSignedBodyMatchesTransmittedBytes(t *testing.T) {
	f := newFakeExchange(t, respondWith(http.StatusOK, `{"results":[{"success":true,"failure_reason":"","order_id":"o1"}]}`))
	_, err := f.client().CancelOrders(context.Background(), []string{"o1"})
	require.NoError(t, err)

	got := f.requests[0]
	require.Equal(t, `{"order_ids":["o1"]}`, got.Body)
	require.Equal(t, "application/json", got.Header.Get("Content-Type"))
	want := signer.Signature("secret", "1700000000", http.MethodPost, "/api/v3/brokerage/orders/batch_cancel/", []byte(got.Body))
	require.Equal(t, want, got.Header.Get(signer.HeaderSign))
}

func TestUnsignedClientSendsNoAuthHeaders(t *testing.T) {
	f := newFakeExchange(t, respondWith(http.StatusOK, `{"iso":"2023-05-01T10:00:00Z","epochSeconds":"1682935200","epochMillis":"1682935200000"}`))
	c := f.client(func(o *Options) { o.Signer = nil })

	got, err := c.GetUnixTime(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1682935200), got.EpochSeconds.IntPart())
	require.Empty(t, f.requests[0].Header.Get(signer.HeaderSign))
	require.Empty(t, f.requests[0].Header.Get(signer.HeaderAuth))
}

func TestErrorEnvelopeIsKeptVerbatim(t *testing.T) {
	body := `{"error":"NOT_FOUND","message":"account not found","error_details":"no such uuid","preview_failure_reason":"x"}`
	f := newFakeExchange(t, respondWith(http.StatusNotFound, body))

	_, err := f.client().GetAccount(context.Background(), "8bfc20d7-f7c6-4422-bf07-8243ca4169fe")
	var e *errs.E
	require.True(t, errors.As(err, &e), "expected *errs.E, got %T", err)
	require.Equal(t, errs.CodeNotFound, e.Code)
	require.Equal(t, http.StatusNotFound, e.HTTP)
	require.Equal(t, "rest.GetAccount", e.Op)
	require.Equal(t, "NOT_FOUND", e.APIError)
	require.Equal(t, "account not found", e.Message)
	require.Equal(t, "no such uuid", e.Details)
	require.Equal(t, "x", e.Body["preview_failure_reason"])
}

func TestErrorStatusClassification(t *testing.T) {
	cases := map[int]errs.Code{
		http.StatusUnauthorized:        errs.CodeAuth,
		http.StatusForbidden:           errs.CodeAuth,
		http.StatusTooManyRequests:     errs.CodeRateLimited,
		http.StatusServiceUnavailable:  errs.CodeUnavailable,
		http.StatusInternalServerError: errs.CodeUnavailable,
	}
	for status, code := range cases {
		f := newFakeExchange(t, respondWith(status, "upstream said no"))
		_, err := f.client().GetUnixTime(context.Background())
		if !errs.IsCode(err, code) {
			t.Fatalf("status %d: expected %s, got %v", status, code, err)
		}
		var e *errs.E
		errors.As(err, &e)
		if e.Body["reason"] != "upstream said no" {
			t.Fatalf("status %d: expected plain-text reason, got %v", status, e.Body)
		}
	}
}

func TestTransportErrorKeepsCause(t *testing.T) {
	f := newFakeExchange(t, respondWith(http.StatusOK, `{}`))
	c := f.client()
	f.server.Close()

	_, err := c.GetUnixTime(context.Background())
	if !errs.IsCode(err, errs.CodeNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	var e *errs.E
	errors.As(err, &e)
	if e.Unwrap() == nil {
		t.Fatalf("expected wrapped transport cause")
	}
}

func TestCancelledContextIsNetworkError(t *testing.T) {
	f := newFakeExchange(t, respondWith(http.StatusOK, `{}`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.client().GetUnixTime(ctx)
	if !errs.IsCode(err, errs.CodeNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestDecodeErrorCarriesOperation(t *testing.T) {
	f := newFakeExchange(t, respondWith(http.StatusOK, `{"epochSeconds":"1"}`))
	_, err := f.client().GetUnixTime(context.Background())

	var e *errs.E
	require.True(t, errors.As(err, &e))
	require.Equal(t, errs.CodeDecode, e.Code)
	require.Equal(t, "rest.GetUnixTime", e.Op)
	require.True(t, strings.HasSuffix(e.Field, ".iso"), "field %q", e.Field)
}

func TestErrorBodyIsTruncated(t *testing.T) {
	huge := strings.Repeat("x", maxErrorBody+100)
	f := newFakeExchange(t, respondWith(http.StatusBadGateway, huge))
	_, err := f.client().GetUnixTime(context.Background())

	var e *errs.E
	require.True(t, errors.As(err, &e))
	require.Len(t, e.Body["reason"], maxErrorBody)
}
