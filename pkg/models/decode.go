// Package models holds the typed request and response payloads of the
// Coinbase Advanced Trade API together with their JSON decoding rules.
//
// Every response object keeps the keys it does not model in an Extra map so
// new fields added by the exchange survive a round trip through the client.
// Keys a model cannot work without are declared required; a payload missing
// one fails with an errs.CodeDecode error naming the field.
package models

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/coachpo/coinbase-advanced/errs"
)

// Extra holds payload keys a model does not declare.
type Extra map[string]json.RawMessage

// Has reports whether key was present in the payload.
func (e Extra) Has(key string) bool {
	_, ok := e[key]
	return ok
}

var errMissing = errors.New("required field missing")

var nullLiteral = []byte("null")

// decodeObject decodes data into dst (a pointer to an alias of the model
// type), checks required keys and collects undeclared keys into extra.
func decodeObject(data []byte, name string, dst any, extra *Extra, required ...string) error {
	if isNull(data) {
		return nil
	}
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.Decode("decode", name, err)
	}
	for _, key := range required {
		if v, ok := raw[key]; !ok || isNull(v) {
			return errs.Decode("decode", name+"."+key, errMissing)
		}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		var inner *errs.E
		if errors.As(err, &inner) {
			return inner
		}
		return errs.Decode("decode", name, err)
	}

	known := knownFields(reflect.TypeOf(dst).Elem())
	for key, value := range raw {
		if _, ok := known[key]; ok {
			continue
		}
		if *extra == nil {
			*extra = make(Extra)
		}
		(*extra)[key] = value
	}
	return nil
}

// Decode unmarshals a payload into v and normalises failures into
// errs.CodeDecode errors attributed to name.
func Decode(data []byte, name string, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		var inner *errs.E
		if errors.As(err, &inner) {
			return inner
		}
		return errs.Decode("decode", name, err)
	}
	return nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), nullLiteral)
}

var fieldCache sync.Map

func knownFields(t reflect.Type) map[string]struct{} {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]struct{})
	}
	set := make(map[string]struct{})
	collectFields(t, set)
	fieldCache.Store(t, set)
	return set
}

func collectFields(t reflect.Type, set map[string]struct{}) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, set)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		set[name] = struct{}{}
	}
}
