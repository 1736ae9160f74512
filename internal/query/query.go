// Package query builds request query strings where only present parameters are emitted.
package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout used for date-range filters and order cancel times.
const DateLayout = "2006-01-02T15:04:05Z"

// Colons and commas are legal in a query component and the exchange documents
// its timestamps and status lists unescaped.
var unescapeReserved = strings.NewReplacer("%3A", ":", "%2C", ",")

// Builder accumulates key=value pairs in insertion order. The first pair is
// prefixed with '?' and subsequent pairs with '&'.
type Builder struct {
	sb strings.Builder
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) add(key, value string) *Builder {
	if b.sb.Len() == 0 {
		b.sb.WriteByte('?')
	} else {
		b.sb.WriteByte('&')
	}
	b.sb.WriteString(url.QueryEscape(key))
	b.sb.WriteByte('=')
	b.sb.WriteString(unescapeReserved.Replace(url.QueryEscape(value)))
	return b
}

// String appends key when value is non-empty.
func (b *Builder) String(key, value string) *Builder {
	if value == "" {
		return b
	}
	return b.add(key, value)
}

// Int appends key when value is positive.
func (b *Builder) Int(key string, value int) *Builder {
	if value <= 0 {
		return b
	}
	return b.add(key, strconv.Itoa(value))
}

// Date appends key formatted with DateLayout in UTC when t is set.
func (b *Builder) Date(key string, t time.Time) *Builder {
	if t.IsZero() {
		return b
	}
	return b.add(key, t.UTC().Format(DateLayout))
}

// Unix appends key as unix seconds.
func (b *Builder) Unix(key string, t time.Time) *Builder {
	return b.add(key, strconv.FormatInt(t.Unix(), 10))
}

// Joined appends key once with values joined by commas.
func (b *Builder) Joined(key string, values []string) *Builder {
	if len(values) == 0 {
		return b
	}
	return b.add(key, strings.Join(values, ","))
}

// Repeated appends key once per value.
func (b *Builder) Repeated(key string, values []string) *Builder {
	for _, v := range values {
		b.add(key, v)
	}
	return b
}

// Encode returns the accumulated query, including the leading '?', or "".
func (b *Builder) Encode() string {
	return b.sb.String()
}
