package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestPayloadRoundTripPreservesKeyOrder(t *testing.T) {
	t.Parallel()

	raw := `{"zebra":"z","alpha":["a","b"],"nested":{"inner":"1","other":"2"}}`

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	keys := make([]string, 0, p.Len())
	for _, f := range p.Fields() {
		keys = append(keys, f.Key)
	}
	if !reflect.DeepEqual(keys, []string{"zebra", "alpha", "nested"}) {
		t.Fatalf("unexpected key order: %v", keys)
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != raw {
		t.Fatalf("round trip mismatch:\n got %s\nwant %s", out, raw)
	}
}

func TestPayloadScalarCoercion(t *testing.T) {
	t.Parallel()

	var p Payload
	if err := json.Unmarshal([]byte(`{"n":3.5,"b":true,"x":null}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for key, want := range map[string]string{"n": "3.5", "b": "true", "x": ""} {
		v, ok := p.Get(key)
		if !ok {
			t.Fatalf("key %s missing", key)
		}
		if v.Kind != KindString || v.Str != want {
			t.Fatalf("key %s: got kind=%d str=%q, want string %q", key, v.Kind, v.Str, want)
		}
	}
}

func TestPayloadRejectsNonObject(t *testing.T) {
	t.Parallel()

	var p Payload
	if err := json.Unmarshal([]byte(`["a","b"]`), &p); err == nil {
		t.Fatal("expected error for non-object payload")
	}
}

func TestPayloadSetReplacesExistingKey(t *testing.T) {
	t.Parallel()

	var p Payload
	p.Set("k", StringValue("first"))
	p.Set("other", StringValue("x"))
	p.Set("k", StringValue("second"))

	if p.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", p.Len())
	}
	v, _ := p.Get("k")
	if v.Str != "second" {
		t.Fatalf("expected replacement, got %q", v.Str)
	}
}

func TestValueMarshalEmptyList(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(ListValue())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "[]" {
		t.Fatalf("expected [], got %s", out)
	}
}
