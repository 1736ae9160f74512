package signer

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coachpo/coinbase-advanced/config"
	"github.com/coachpo/coinbase-advanced/errs"
)

var fixedNow = time.Unix(1700000000, 0)

func TestSignatureDeterministic(t *testing.T) {
	body := []byte(`{"order_ids":["a"]}`)
	a := Signature("secret", "1700000000", "POST", "/api/v3/brokerage/orders/batch_cancel/", body)
	b := Signature("secret", "1700000000", "POST", "/api/v3/brokerage/orders/batch_cancel/", body)
	if a != b {
		t.Fatalf("signature not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}

	variants := []string{
		Signature("secret2", "1700000000", "POST", "/api/v3/brokerage/orders/batch_cancel/", body),
		Signature("secret", "1700000001", "POST", "/api/v3/brokerage/orders/batch_cancel/", body),
		Signature("secret", "1700000000", "GET", "/api/v3/brokerage/orders/batch_cancel/", body),
		Signature("secret", "1700000000", "POST", "/api/v3/brokerage/orders", body),
		Signature("secret", "1700000000", "POST", "/api/v3/brokerage/orders/batch_cancel/", []byte(`{"order_ids":["b"]}`)),
	}
	for i, v := range variants {
		if v == a {
			t.Fatalf("variant %d collided with base signature", i)
		}
	}
}

func TestSignatureKnownVector(t *testing.T) {
	// HMAC-SHA256("key", "The quick brown fox jumps over the lazy dog")
	got := Signature("key", "The quick brown ", "fox jumps ", "over the lazy dog", nil)
	want := "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	if got != want {
		t.Fatalf("Signature() = %s, want %s", got, want)
	}
}

func TestHMACSignHeaders(t *testing.T) {
	s := NewHMAC(" key ", "secret")
	s.Clock = func() time.Time { return fixedNow }

	h, err := s.Sign("GET", "/api/v3/brokerage/accounts", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if h.Get(HeaderAccept) != "application/json" {
		t.Fatalf("missing accept header: %v", h)
	}
	if h.Get(HeaderKey) != "key" {
		t.Fatalf("expected trimmed key, got %q", h.Get(HeaderKey))
	}
	if h.Get(HeaderTimestamp) != "1700000000" {
		t.Fatalf("unexpected timestamp %q", h.Get(HeaderTimestamp))
	}
	want := Signature("secret", "1700000000", "GET", "/api/v3/brokerage/accounts", nil)
	if h.Get(HeaderSign) != want {
		t.Fatalf("unexpected signature %q", h.Get(HeaderSign))
	}
}

func TestJWTSignClaims(t *testing.T) {
	key, pemKey := newTestKey(t)
	s := NewJWT("organizations/o/apiKeys/k", pemKey, "api.coinbase.com")
	s.Clock = func() time.Time { return fixedNow }
	s.Rand = bytes.NewReader(make([]byte, 16))

	h, err := s.Sign("GET", "/api/v3/brokerage/accounts", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	auth := h.Get(HeaderAuth)
	if !strings.HasPrefix(auth, "Bearer ") {
		t.Fatalf("expected bearer token, got %q", auth)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims,
		func(*jwt.Token) (any, error) { return &key.PublicKey, nil },
		jwt.WithTimeFunc(func() time.Time { return fixedNow.Add(time.Second) }),
		jwt.WithValidMethods([]string{"ES256"}),
	)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if token.Header["kid"] != "organizations/o/apiKeys/k" {
		t.Fatalf("unexpected kid %v", token.Header["kid"])
	}
	nonce, _ := token.Header["nonce"].(string)
	if len(nonce) != 64 {
		t.Fatalf("expected sha256 hex nonce, got %q", nonce)
	}
	if claims.Subject != "organizations/o/apiKeys/k" || claims.Issuer != "coinbase-cloud" {
		t.Fatalf("unexpected sub/iss %q/%q", claims.Subject, claims.Issuer)
	}
	if claims.URI != "GET api.coinbase.com/api/v3/brokerage/accounts" {
		t.Fatalf("unexpected uri %q", claims.URI)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != "retail_rest_api_proxy" {
		t.Fatalf("unexpected audience %v", claims.Audience)
	}
	if got := claims.ExpiresAt.Sub(claims.NotBefore.Time); got != 60*time.Second {
		t.Fatalf("expected 60s lifetime, got %s", got)
	}
}

func TestJWTWebsocketToken(t *testing.T) {
	key, pemKey := newTestKey(t)
	s := NewJWT("name", pemKey, "api.coinbase.com")
	s.Clock = func() time.Time { return fixedNow }

	raw, err := s.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	claims := &Claims{}
	_, err = jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return &key.PublicKey, nil },
		jwt.WithTimeFunc(func() time.Time { return fixedNow }),
	)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.URI != "" || len(claims.Audience) != 0 {
		t.Fatalf("websocket token must not carry uri/aud: %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.NotBefore.Time); got != 120*time.Second {
		t.Fatalf("expected 120s lifetime, got %s", got)
	}
}

func TestJWTRejectsMalformedKey(t *testing.T) {
	s := NewJWT("name", "not a pem", "api.coinbase.com")
	_, err := s.Sign("GET", "/api/v3/brokerage/time", nil)
	if !errs.IsCode(err, errs.CodeConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestNewSelectsScheme(t *testing.T) {
	legacy, err := New(config.Credentials{Scheme: config.SchemeLegacy, APIKey: "k", APISecret: "s"}, "api.coinbase.com")
	if err != nil {
		t.Fatalf("legacy: %v", err)
	}
	if _, ok := legacy.(*HMAC); !ok {
		t.Fatalf("expected HMAC signer, got %T", legacy)
	}
	cloud, err := New(config.Credentials{Scheme: config.SchemeCloud, APIKey: "k", APISecret: "pem"}, "api.coinbase.com")
	if err != nil {
		t.Fatalf("cloud: %v", err)
	}
	if _, ok := cloud.(TokenSource); !ok {
		t.Fatalf("expected cloud signer to issue websocket tokens")
	}
	if _, err := New(config.Credentials{Scheme: "bogus"}, ""); !errs.IsCode(err, errs.CodeConfig) {
		t.Fatalf("expected config error for unknown scheme, got %v", err)
	}
}

func newTestKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	block := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	return key, string(block)
}
