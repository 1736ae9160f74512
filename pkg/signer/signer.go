// Package signer produces per-request authentication artifacts for the
// Coinbase Advanced Trade API.
//
// Two schemes are supported: legacy API keys sign a request with HMAC-SHA256
// and send the result as CB-ACCESS-* headers; cloud API keys sign a short
// lived ES256 JWT sent as a bearer token.
package signer

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coachpo/coinbase-advanced/config"
	"github.com/coachpo/coinbase-advanced/errs"
)

// Header names used by the legacy scheme.
const (
	HeaderAccept    = "accept"
	HeaderKey       = "CB-ACCESS-KEY"
	HeaderTimestamp = "CB-ACCESS-TIMESTAMP"
	HeaderSign      = "CB-ACCESS-SIGN"
	HeaderAuth      = "Authorization"
)

// Signer computes the authentication headers for one request. path is the
// request path without query string and body the exact bytes transmitted.
type Signer interface {
	Sign(method, path string, body []byte) (http.Header, error)
}

// TokenSource issues bearer tokens for websocket subscriptions.
type TokenSource interface {
	Token() (string, error)
}

// New picks the scheme named by creds. host is the REST host (no scheme)
// embedded in cloud JWT uri claims.
func New(creds config.Credentials, host string) (Signer, error) {
	switch creds.Scheme {
	case config.SchemeLegacy, "":
		return NewHMAC(creds.APIKey, creds.APISecret), nil
	case config.SchemeCloud:
		return NewJWT(creds.APIKey, creds.APISecret, host), nil
	default:
		return nil, errs.New("signer", errs.CodeConfig,
			errs.WithMessage(fmt.Sprintf("unsupported auth scheme %q", creds.Scheme)))
	}
}

// HMAC implements the legacy shared-secret scheme.
type HMAC struct {
	apiKey string
	secret string

	// Clock overrides time.Now for deterministic signatures.
	Clock func() time.Time
}

// NewHMAC returns a legacy signer.
func NewHMAC(apiKey, secret string) *HMAC {
	return &HMAC{apiKey: strings.TrimSpace(apiKey), secret: secret, Clock: time.Now}
}

// Sign implements Signer.
func (s *HMAC) Sign(method, path string, body []byte) (http.Header, error) {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	signature := Signature(s.secret, timestamp, method, path, body)

	h := make(http.Header, 4)
	h.Set(HeaderAccept, "application/json")
	h.Set(HeaderKey, s.apiKey)
	h.Set(HeaderTimestamp, timestamp)
	h.Set(HeaderSign, signature)
	return h, nil
}

func (s *HMAC) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

// Signature returns hex(HMAC_SHA256(secret, timestamp+method+path+body)).
func Signature(secret, timestamp, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte(method))
	_, _ = mac.Write([]byte(path))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// newNonce returns hex(sha256(16 random bytes)).
func newNonce(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, 16)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}
