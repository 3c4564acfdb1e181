package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind discriminates the shapes an analysis payload value can take.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindObject
)

// Value is one node of a schema-less analysis payload: a string, a list of
// values, or a nested object. Numbers, booleans, and nulls coming from the
// model are carried in their textual form.
type Value struct {
	Kind Kind
	Str  string
	List []Value
	Obj  Payload
}

// StringValue wraps a plain string.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// ListValue wraps a list of values.
func ListValue(items ...Value) Value {
	return Value{Kind: KindList, List: items}
}

// ObjectValue wraps a nested payload.
func ObjectValue(p Payload) Value {
	return Value{Kind: KindObject, Obj: p}
}

// Field is one key/value pair of a payload object.
type Field struct {
	Key   string
	Value Value
}

// Payload is a string-keyed object that preserves the order its keys were
// stored in. The model chooses its own output structure, so nothing beyond
// "object at the top level" is assumed.
type Payload struct {
	fields []Field
}

// Len returns the number of keys.
func (p Payload) Len() int {
	return len(p.fields)
}

// Fields returns the key/value pairs in stored order.
func (p Payload) Fields() []Field {
	return p.fields
}

// Get returns the value for key, if present.
func (p Payload) Get(key string) (Value, bool) {
	for _, f := range p.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Set replaces the value for an existing key or appends a new one.
func (p *Payload) Set(key string, v Value) {
	for i, f := range p.fields {
		if f.Key == key {
			p.fields[i].Value = v
			return
		}
	}
	p.fields = append(p.fields, Field{Key: key, Value: v})
}

// MarshalJSON serializes the payload as a JSON object in stored key order.
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for %q: %w", f.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object, preserving key order via token
// streaming instead of an unordered map.
func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("payload must be a JSON object, got %v", tok)
	}

	parsed, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalJSON serializes a single value according to its kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindObject:
		return json.Marshal(v.Obj)
	default:
		return json.Marshal(v.Str)
	}
}

func decodeObject(dec *json.Decoder) (Payload, error) {
	var p Payload
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Payload{}, fmt.Errorf("read object key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return Payload{}, fmt.Errorf("object key must be a string, got %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return Payload{}, err
		}
		p.Set(key, v)
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return Payload{}, fmt.Errorf("read object end: %w", err)
	}
	return p, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("read value: %w", err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj, err := decodeObject(dec)
			if err != nil {
				return Value{}, err
			}
			return ObjectValue(obj), nil
		case '[':
			list := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				list = append(list, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("read list end: %w", err)
			}
			return Value{Kind: KindList, List: list}, nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return StringValue(t), nil
	case json.Number:
		return StringValue(t.String()), nil
	case bool:
		return StringValue(strconv.FormatBool(t)), nil
	case nil:
		return StringValue(""), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}
