package codec

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/crawlkit/crawlcache/pkg/pipeline"
)

var testTypes = pipeline.FieldTypes{
	"title":      pipeline.FieldString,
	"price":      pipeline.FieldFloat,
	"stock":      pipeline.FieldInt,
	"available":  pipeline.FieldBool,
	"fetched_at": pipeline.FieldTime,
}

func TestRoundTrip_MixedSequence(t *testing.T) {
	ttl := 30 * time.Minute
	objs := []pipeline.Object{
		pipeline.ItemObject(pipeline.Item{
			"title":      "A Light in the Attic",
			"price":      float64(51.77),
			"stock":      int64(22),
			"available":  true,
			"fetched_at": time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		}),
		pipeline.RequestObject(&pipeline.Request{
			URL:     "https://example.com/page/2",
			Method:  "GET",
			Headers: map[string][]string{"Accept": {"text/html"}},
			Meta:    map[string]any{"depth": "2"},
			TTL:     &ttl,
		}),
		pipeline.ItemObject(pipeline.Item{
			"title": "Tipping the Velvet",
			"stock": int64(0),
		}),
		pipeline.RequestObject(&pipeline.Request{
			URL:    "https://example.com/detail/17",
			Method: "POST",
			Body:   []byte("page=17"),
		}),
	}

	data, err := Encode(objs)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Decode(data, testTypes)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !reflect.DeepEqual(objs, decoded) {
		t.Errorf("round-trip mismatch:\n got %#v\nwant %#v", decoded, objs)
	}
}

func TestRoundTrip_OrderPreserved(t *testing.T) {
	objs := []pipeline.Object{
		pipeline.ItemObject(pipeline.Item{"title": "first"}),
		pipeline.RequestObject(&pipeline.Request{URL: "https://example.com/a"}),
		pipeline.ItemObject(pipeline.Item{"title": "second"}),
		pipeline.RequestObject(&pipeline.Request{URL: "https://example.com/b"}),
		pipeline.ItemObject(pipeline.Item{"title": "third"}),
	}

	data, err := Encode(objs)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(data, testTypes)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(decoded) != len(objs) {
		t.Fatalf("decoded %d objects, want %d", len(decoded), len(objs))
	}
	for i := range objs {
		if decoded[i].Kind != objs[i].Kind {
			t.Errorf("object %d kind = %q, want %q", i, decoded[i].Kind, objs[i].Kind)
		}
	}
}

func TestEncode_DropsTransientMarkers(t *testing.T) {
	objs := []pipeline.Object{
		pipeline.RequestObject(&pipeline.Request{
			URL:       "https://example.com/",
			DontCache: true,
			Replayed:  true,
		}),
	}

	data, err := Encode(objs)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(data, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	req := decoded[0].Request
	if req.DontCache {
		t.Error("DontCache marker survived a round-trip")
	}
	if req.Replayed {
		t.Error("Replayed marker survived a round-trip")
	}
}

func TestDecode_IntCoercionRejectsFraction(t *testing.T) {
	data := []byte(`[{"kind":"item","item":{"stock":3.5}}]`)

	_, err := Decode(data, testTypes)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Decode error = %v, want ErrDecode", err)
	}
}

func TestDecode_IntCoercionRejectsString(t *testing.T) {
	data := []byte(`[{"kind":"item","item":{"stock":"3"}}]`)

	_, err := Decode(data, testTypes)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Decode error = %v, want ErrDecode", err)
	}
}

func TestDecode_FailsAtomically(t *testing.T) {
	// Second object is bad: nothing from the first may leak out.
	data := []byte(`[{"kind":"item","item":{"title":"ok"}},{"kind":"item","item":{"stock":"bad"}}]`)

	objs, err := Decode(data, testTypes)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Decode error = %v, want ErrDecode", err)
	}
	if objs != nil {
		t.Errorf("Decode returned %d objects alongside an error", len(objs))
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	data := []byte(`[{"kind":"response","item":{}}]`)

	_, err := Decode(data, nil)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Decode error = %v, want ErrDecode", err)
	}
}

func TestDecode_MissingPayload(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"request without payload", `[{"kind":"request"}]`},
		{"item without payload", `[{"kind":"item"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), nil)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("Decode error = %v, want ErrDecode", err)
			}
		})
	}
}

func TestDecode_TruncatedPayload(t *testing.T) {
	objs := []pipeline.Object{pipeline.ItemObject(pipeline.Item{"title": "x"})}
	data, err := Encode(objs)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	_, err = Decode(data[:len(data)/2], testTypes)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Decode error = %v, want ErrDecode", err)
	}
}

func TestDecode_TimeCoercion(t *testing.T) {
	data := []byte(`[{"kind":"item","item":{"fetched_at":"not a time"}}]`)
	if _, err := Decode(data, testTypes); !errors.Is(err, ErrDecode) {
		t.Errorf("Decode error = %v, want ErrDecode", err)
	}

	data = []byte(`[{"kind":"item","item":{"fetched_at":"2026-08-30T12:00:00Z"}}]`)
	objs, err := Decode(data, testTypes)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	got, ok := objs[0].Item["fetched_at"].(time.Time)
	if !ok {
		t.Fatalf("fetched_at decoded as %T, want time.Time", objs[0].Item["fetched_at"])
	}
	want := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("fetched_at = %v, want %v", got, want)
	}
}

func TestDecode_UndeclaredFieldDefaultsToJSONTyping(t *testing.T) {
	data := []byte(`[{"kind":"item","item":{"extra":4,"note":"hi"}}]`)

	objs, err := Decode(data, testTypes)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := objs[0].Item["extra"]; got != float64(4) {
		t.Errorf("extra = %#v (%T), want float64(4)", got, got)
	}
	if got := objs[0].Item["note"]; got != "hi" {
		t.Errorf("note = %#v, want %q", got, "hi")
	}
}

func TestRoundTrip_NestedUndeclaredFields(t *testing.T) {
	objs := []pipeline.Object{
		pipeline.ItemObject(pipeline.Item{
			"title":   "A Light in the Attic",
			"ratings": []any{float64(4), float64(5)},
			"attrs": map[string]any{
				"pages":  float64(200),
				"binder": map[string]any{"weight": float64(0.3)},
				"sizes":  []any{[]any{float64(1), float64(2)}},
			},
		}),
	}

	data, err := Encode(objs)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(data, testTypes)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !reflect.DeepEqual(objs, decoded) {
		t.Errorf("round-trip mismatch:\n got %#v\nwant %#v", decoded, objs)
	}
}

func TestEncode_EmptySequence(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	objs, err := Decode(data, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(objs) != 0 {
		t.Errorf("decoded %d objects from empty sequence", len(objs))
	}
}
