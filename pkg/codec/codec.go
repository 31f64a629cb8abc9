// Package codec serializes the ordered object stream a crawl step
// produces into the bytes stored under its cache key, and reconstructs
// it on replay. Decoding is atomic: a payload either yields the full
// original sequence or an error, never a partial one.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/crawlkit/crawlcache/pkg/pipeline"
)

// ErrDecode indicates a stored payload could not be fully
// reconstructed. Callers must treat the entry as absent.
var ErrDecode = errors.New("cache entry decode failed")

// envelope tags one serialized object with its kind. Exactly one of
// Request and Item is set.
type envelope struct {
	Kind    pipeline.Kind   `json:"kind"`
	Request *requestPayload `json:"request,omitempty"`
	Item    json.RawMessage `json:"item,omitempty"`
}

// requestPayload is the persisted form of a follow-up request. The
// DontCache and Replayed markers are deliberately absent: they are
// transient flags and must never survive a round-trip. Meta values
// round-trip with plain JSON typing, so numeric values come back as
// float64 regardless of the Go type they were captured with.
type requestPayload struct {
	URL     string         `json:"url"`
	Method  string         `json:"method,omitempty"`
	Body    []byte         `json:"body,omitempty"`
	Headers http.Header    `json:"headers,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
	TTL     *time.Duration `json:"ttl,omitempty"`
}

// Encode serializes objs preserving order.
func Encode(objs []pipeline.Object) ([]byte, error) {
	envelopes := make([]envelope, 0, len(objs))
	for i, obj := range objs {
		switch obj.Kind {
		case pipeline.KindRequest:
			if obj.Request == nil {
				return nil, fmt.Errorf("encode object %d: request kind without request", i)
			}
			envelopes = append(envelopes, envelope{
				Kind: pipeline.KindRequest,
				Request: &requestPayload{
					URL:     obj.Request.URL,
					Method:  obj.Request.Method,
					Body:    obj.Request.Body,
					Headers: obj.Request.Headers,
					Meta:    obj.Request.Meta,
					TTL:     obj.Request.TTL,
				},
			})
		case pipeline.KindItem:
			if obj.Item == nil {
				return nil, fmt.Errorf("encode object %d: item kind without item", i)
			}
			raw, err := json.Marshal(obj.Item)
			if err != nil {
				return nil, fmt.Errorf("encode object %d: %w", i, err)
			}
			envelopes = append(envelopes, envelope{Kind: pipeline.KindItem, Item: raw})
		default:
			return nil, fmt.Errorf("encode object %d: unknown kind %q", i, obj.Kind)
		}
	}
	return json.Marshal(envelopes)
}

// Decode reconstructs the object sequence from data, coercing item
// fields per the declared types. Any object or field that fails to
// decode fails the whole payload with ErrDecode.
func Decode(data []byte, types pipeline.FieldTypes) ([]pipeline.Object, error) {
	var envelopes []envelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	objs := make([]pipeline.Object, 0, len(envelopes))
	for i, env := range envelopes {
		switch env.Kind {
		case pipeline.KindRequest:
			if env.Request == nil {
				return nil, fmt.Errorf("%w: object %d: missing request payload", ErrDecode, i)
			}
			objs = append(objs, pipeline.RequestObject(&pipeline.Request{
				URL:     env.Request.URL,
				Method:  env.Request.Method,
				Body:    env.Request.Body,
				Headers: env.Request.Headers,
				Meta:    env.Request.Meta,
				TTL:     env.Request.TTL,
			}))
		case pipeline.KindItem:
			if env.Item == nil {
				return nil, fmt.Errorf("%w: object %d: missing item payload", ErrDecode, i)
			}
			item, err := decodeItem(env.Item, types)
			if err != nil {
				return nil, fmt.Errorf("%w: object %d: %v", ErrDecode, i, err)
			}
			objs = append(objs, pipeline.ItemObject(item))
		default:
			return nil, fmt.Errorf("%w: object %d: unknown kind %q", ErrDecode, i, env.Kind)
		}
	}
	return objs, nil
}

// decodeItem unmarshals one item and applies the declared coercions.
// Numbers are read via json.Number so integer fields reject fractional
// values instead of silently truncating.
func decodeItem(raw json.RawMessage, types pipeline.FieldTypes) (pipeline.Item, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}

	item := make(pipeline.Item, len(fields))
	for name, value := range fields {
		coerced, err := coerceField(value, types[name])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		item[name] = coerced
	}
	return item, nil
}

func coerceField(value any, ft pipeline.FieldType) (any, error) {
	switch ft {
	case pipeline.FieldString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return s, nil

	case pipeline.FieldInt:
		n, ok := value.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %T", value)
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %s", n)
		}
		return i, nil

	case pipeline.FieldFloat:
		n, ok := value.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", value)
		}
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil

	case pipeline.FieldBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", value)
		}
		return b, nil

	case pipeline.FieldTime:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected RFC3339 time string, got %T", value)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, err
		}
		return t, nil

	default:
		// Undeclared field: default JSON typing, with numbers as
		// float64 so output matches plain json.Unmarshal. Arrays and
		// objects are walked so nested numbers normalize too.
		return normalizeValue(value)
	}
}

// normalizeValue converts json.Number to float64 at any depth of an
// undeclared field value.
func normalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case []any:
		for i, elem := range v {
			norm, err := normalizeValue(elem)
			if err != nil {
				return nil, err
			}
			v[i] = norm
		}
		return v, nil
	case map[string]any:
		for key, elem := range v {
			norm, err := normalizeValue(elem)
			if err != nil {
				return nil, err
			}
			v[key] = norm
		}
		return v, nil
	default:
		return value, nil
	}
}
