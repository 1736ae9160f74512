package models

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/coachpo/coinbase-advanced/internal/numeric"
)

// Time is a timestamp decoded from RFC3339 text with any number of
// fractional-second digits. Empty strings and null decode to the zero time.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// ParseTime parses RFC3339 text, truncating fractional seconds beyond
// nanosecond precision.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		end := dot + 1
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end-dot-1 > 9 {
			s = s[:dot+10] + s[end:]
		}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON renders RFC3339 in UTC with as many fractional digits as the
// value carries, so decoded payloads re-encode without loss.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(strconv.Quote(t.UTC().Format(time.RFC3339Nano))), nil
}

// Number is a decimal wire value. The exchange sends decimals as quoted
// strings and sometimes as "" for "not applicable"; Valid is false in that
// case.
type Number struct {
	decimal.Decimal
	Valid bool
}

// NewNumber wraps d as a valid Number.
func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d, Valid: true}
}

// MustNumber parses s and panics on failure. Intended for constants and tests.
func MustNumber(s string) Number {
	return NewNumber(decimal.RequireFromString(s))
}

// NumberPtr returns a pointer to a valid Number holding d.
func NumberPtr(d decimal.Decimal) *Number {
	n := NewNumber(d)
	return &n
}

// String renders the decimal, or "" when unset.
func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return numeric.Format(n.Decimal)
}

// UnmarshalJSON accepts quoted or bare decimals, "" and null.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isNull(b) || bytes.Equal(b, []byte(`""`)) {
		*n = Number{}
		return nil
	}
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("number: %w", err)
		}
		s = unquoted
	}
	d, ok := numeric.Parse(s)
	if !ok {
		return fmt.Errorf("number: invalid decimal %q", s)
	}
	*n = NewNumber(d)
	return nil
}

// MarshalJSON renders a quoted decimal string.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(n.String())), nil
}

// Seconds is a unix-seconds timestamp the exchange sends either quoted or
// bare. "" and null decode to 0.
type Seconds int64

// Time converts u to a UTC time.
func (u Seconds) Time() time.Time {
	return time.Unix(int64(u), 0).UTC()
}

// UnmarshalJSON accepts quoted or bare integers, "" and null.
func (u *Seconds) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*u = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("seconds: invalid value %q", s)
	}
	*u = Seconds(v)
	return nil
}

// MarshalJSON renders the quoted form the exchange sends.
func (u Seconds) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(u), 10))), nil
}

// Flag is a boolean the exchange sends either bare or quoted.
type Flag bool

// UnmarshalJSON accepts true, false, their quoted forms, "" and null.
func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	switch s {
	case "", "null", "false":
		*f = false
	case "true":
		*f = true
	default:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("flag: invalid boolean %q", s)
		}
		*f = Flag(v)
	}
	return nil
}
