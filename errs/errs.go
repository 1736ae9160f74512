// Package errs provides the structured error envelope returned across the Coinbase Advanced Trade client.
package errs

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Code identifies an error category.
type Code string

const (
	// CodeRateLimited indicates that the request exceeded rate limits.
	CodeRateLimited Code = "rate_limited"
	// CodeAuth indicates authentication or authorization errors.
	CodeAuth Code = "auth"
	// CodeInvalid indicates invalid input provided by the caller.
	CodeInvalid Code = "invalid_request"
	// CodeExchange indicates an exchange-side failure.
	CodeExchange Code = "exchange_error"
	// CodeNetwork indicates a network transport failure.
	CodeNetwork Code = "network"
	// CodeNotFound indicates a missing resource.
	CodeNotFound Code = "not_found"
	// CodeUnavailable indicates the service is temporarily unavailable.
	CodeUnavailable Code = "unavailable"
	// CodeDecode indicates a payload that could not be mapped onto its model.
	CodeDecode Code = "decode"
	// CodeConfig indicates unusable client configuration such as a malformed key.
	CodeConfig Code = "config"
	// CodeUnknownChannel indicates a websocket frame for a channel the client does not know.
	CodeUnknownChannel Code = "unknown_channel"
)

// E captures structured error information produced by the client.
//
// APIError, Message and Details mirror the exchange error envelope
// (`error`, `message`, `error_details`) without modification. Body holds the
// whole decoded envelope, or {"reason": text} when the response was not JSON.
type E struct {
	Op       string
	Code     Code
	HTTP     int
	APIError string
	Message  string
	Details  string
	Field    string
	Body     map[string]any
	Metadata map[string]string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the operation and error code.
func New(op string, code Code, opts ...Option) *E {
	e := &E{
		Op:       strings.TrimSpace(op),
		Code:     code,
		HTTP:     0,
		APIError: "",
		Message:  "",
		Details:  "",
		Field:    "",
		Body:     nil,
		Metadata: nil,
		cause:    nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithHTTP records the associated HTTP status code.
func WithHTTP(status int) Option {
	return func(e *E) {
		e.HTTP = status
	}
}

// WithAPIError copies the exchange envelope fields verbatim.
func WithAPIError(apiError, message, details string) Option {
	return func(e *E) {
		e.APIError = apiError
		e.Message = message
		e.Details = details
	}
}

// WithBody records the decoded error body.
func WithBody(body map[string]any) Option {
	return func(e *E) {
		e.Body = body
	}
}

// WithField names the payload field or channel that caused the failure.
func WithField(field string) Option {
	trimmed := strings.TrimSpace(field)
	return func(e *E) {
		e.Field = trimmed
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

// WithMetadata merges the provided metadata into the error envelope.
func WithMetadata(meta map[string]string) Option {
	return func(e *E) {
		if len(meta) == 0 {
			return
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]string, len(meta))
		}
		for k, v := range meta {
			key := strings.TrimSpace(k)
			if key == "" {
				continue
			}
			e.Metadata[key] = strings.TrimSpace(v)
		}
	}
}

// WithMetadataField appends a single metadata key/value pair.
func WithMetadataField(key, value string) Option {
	return func(e *E) {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]string, 1)
		}
		e.Metadata[trimmedKey] = strings.TrimSpace(value)
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, "op="+op)
	}

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.HTTP > 0 {
		parts = append(parts, "http="+strconv.Itoa(e.HTTP))
	}
	if e.APIError != "" {
		parts = append(parts, "error="+strconv.Quote(e.APIError))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.Details != "" {
		parts = append(parts, "details="+strconv.Quote(e.Details))
	}
	if e.Field != "" {
		parts = append(parts, "field="+strconv.Quote(e.Field))
	}
	if reason, ok := e.Body["reason"].(string); ok && e.APIError == "" && e.Message == "" {
		parts = append(parts, "reason="+strconv.Quote(reason))
	}
	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+strconv.Quote(e.Metadata[k]))
		}
		parts = append(parts, "meta="+strings.Join(pairs, ","))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// CodeForStatus classifies an HTTP status code.
func CodeForStatus(status int) Code {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CodeAuth
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusTooManyRequests:
		return CodeRateLimited
	case status == http.StatusBadRequest:
		return CodeInvalid
	case status >= http.StatusInternalServerError:
		return CodeUnavailable
	default:
		return CodeExchange
	}
}

// FromResponse builds an error from a non-2xx response body.
// Bodies that are not a JSON object are reported as {"reason": text}.
func FromResponse(op string, status int, body []byte) *E {
	envelope := make(map[string]any)
	if err := json.Unmarshal(body, &envelope); err != nil || envelope == nil {
		envelope = map[string]any{"reason": string(body)}
	}
	return New(op, CodeForStatus(status),
		WithHTTP(status),
		WithBody(envelope),
		WithAPIError(stringField(envelope, "error"), stringField(envelope, "message"), stringField(envelope, "error_details")),
	)
}

// Decode reports a payload that could not be decoded into its model.
func Decode(op, field string, cause error) *E {
	return New(op, CodeDecode, WithField(field), WithMessage("decode "+field), WithCause(cause))
}

// IsCode reports whether err wraps an *E with the given code.
func IsCode(err error, code Code) bool {
	var e *E
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
