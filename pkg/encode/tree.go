package encode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
)

// Pair is one entry of a Map.
type Pair struct {
	Key   string
	Value any
}

// Map is a mapping that keeps its keys in insertion order, both when
// encoded and when decoded from JSON.
type Map []Pair

// Get returns the value of the first pair with the given key.
func (m Map) Get(key string) (any, bool) {
	for _, p := range m {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Without returns a copy of m with every pair named key removed.
func (m Map) Without(key string) Map {
	out := make(Map, 0, len(m))
	for _, p := range m {
		if p.Key != key {
			out = append(out, p)
		}
	}
	return out
}

// MarshalJSON encodes m as a JSON object in pair order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, p := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(p.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := enc.Encode(p.Value); err != nil {
			return nil, fmt.Errorf("key '%s': %w", p.Key, err)
		}
	}
	buf.WriteByte('}')
	// Encoder terminates every value with a newline; compact drops them.
	var out bytes.Buffer
	if err := json.Compact(&out, buf.Bytes()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into m, keeping key order.
func (m *Map) UnmarshalJSON(data []byte) error {
	v, err := Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	obj, ok := v.(Map)
	if !ok {
		return fmt.Errorf("expected a JSON object, got %T", v)
	}
	*m = obj
	return nil
}

// Decode reads one JSON value from r into a tree. Objects become Maps in
// source order, arrays become []any and numbers json.Number.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return decodeValue(dec)
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch tok {
	case json.Delim('{'):
		obj := Map{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Pair{Key: key, Value: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case json.Delim('['):
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return tok, nil
	}
}

// shape is how a tree node is treated.
type shape int

const (
	scalar shape = iota
	mapping
	sequence
)

var errKeyType = errors.New("mapping keys must be strings")

// inspect classifies v. Mappings are returned as pairs, sequences as their
// elements. Pointers and interfaces are followed.
func inspect(v any) (shape, Map, []any, error) {
	switch t := v.(type) {
	case nil:
		return scalar, nil, nil, nil
	case Map:
		return mapping, t, nil, nil
	case map[string]any:
		return mapping, sortedPairs(reflect.ValueOf(t)), nil, nil
	case []any:
		return sequence, nil, t, nil
	case []byte, json.Number:
		return scalar, nil, nil, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return scalar, nil, nil, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return scalar, nil, nil, fmt.Errorf("%w, got %s", errKeyType, rv.Type())
		}
		return mapping, sortedPairs(rv), nil, nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return scalar, nil, nil, nil
		}
		elems := make([]any, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
		return sequence, nil, elems, nil
	}
	return scalar, nil, nil, nil
}

func sortedPairs(rv reflect.Value) Map {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	pairs := make(Map, len(keys))
	for i, k := range keys {
		pairs[i] = Pair{Key: k.String(), Value: rv.MapIndex(k).Interface()}
	}
	return pairs
}
