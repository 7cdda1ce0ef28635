package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the content value types.
// Only Null, String, Int, Bool, Bytes, List and Object implement it.
type Value interface {
	value()
}

// Null is an explicit absent value.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a text value.
type String string

func (String) value() {}

// Int is an integer value. Content never carries floats.
type Int int64

func (Int) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Bytes is a raw blob, used for palette and pixel data of packed images.
type Bytes []byte

func (Bytes) value() {}

// List is an ordered sequence of values.
type List []Value

func (List) value() {}

// Object maps string keys to values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// Lookup returns the value stored under key. Content written by hand uses
// snake_case while exported editor data uses camelCase, so a miss on a
// snake_case key retries with its camelCase spelling.
func (o Object) Lookup(key string) (Value, bool) {
	if v, ok := o[key]; ok {
		return v, true
	}
	if camel := CamelCase(key); camel != key {
		if v, ok := o[camel]; ok {
			return v, true
		}
	}
	return nil, false
}

// Int returns the integer under key, or def when absent or not an Int.
func (o Object) Int(key string, def int64) int64 {
	v, ok := o.Lookup(key)
	if !ok {
		return def
	}
	if n, ok := v.(Int); ok {
		return int64(n)
	}
	return def
}

// String returns the string under key, or def when absent or not a String.
func (o Object) String(key, def string) string {
	v, ok := o.Lookup(key)
	if !ok {
		return def
	}
	if s, ok := v.(String); ok {
		return string(s)
	}
	return def
}

// Bool returns the boolean under key, or def when absent or not a Bool.
func (o Object) Bool(key string, def bool) bool {
	v, ok := o.Lookup(key)
	if !ok {
		return def
	}
	if b, ok := v.(Bool); ok {
		return bool(b)
	}
	return def
}

// List returns the list under key, or nil.
func (o Object) List(key string) List {
	v, ok := o.Lookup(key)
	if !ok {
		return nil
	}
	l, _ := v.(List)
	return l
}

// Object returns the nested object under key, or nil.
func (o Object) Object(key string) Object {
	v, ok := o.Lookup(key)
	if !ok {
		return nil
	}
	obj, _ := v.(Object)
	return obj
}

// Ints converts a list of Int values. Non-integers are skipped.
func (l List) Ints() []int64 {
	out := make([]int64, 0, len(l))
	for _, v := range l {
		if n, ok := v.(Int); ok {
			out = append(out, int64(n))
		}
	}
	return out
}

// Strings converts a list of String values. Non-strings are skipped.
func (l List) Strings() []string {
	out := make([]string, 0, len(l))
	for _, v := range l {
		if s, ok := v.(String); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// CamelCase converts snake_case to camelCase ("actor_id" -> "actorId").
func CamelCase(s string) string {
	parts := strings.Split(s, "_")
	if len(parts) == 1 {
		return s
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(strings.ToLower(p[1:]))
	}
	return b.String()
}

// FromAny converts decoded YAML/JSON/CUE output into a Value.
// Floats are rejected unless they hold an exact integer.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of range: %d", val)
		}
		return Int(val), nil
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("floats are not allowed in content: %v", val)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
		if val >= math.MaxInt64 || val < math.MinInt64 {
			return nil, fmt.Errorf("integer out of range: %v", val)
		}
		return Int(int64(val)), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats are not allowed in content: %s", val)
		}
		return Int(n), nil
	case []byte:
		return Bytes(val), nil
	case []any:
		out := make(List, len(val))
		for i, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = conv
		}
		return out, nil
	case map[string]any:
		out := make(Object, len(val))
		for k, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = conv
		}
		return out, nil
	case map[any]any:
		out := make(Object, len(val))
		for k, elem := range val {
			key := fmt.Sprint(k)
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", key, err)
			}
			out[key] = conv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// Size estimates the heap footprint of v in bytes. It is a budget figure for
// residency accounting, not an exact measurement.
func Size(v Value) int64 {
	switch val := v.(type) {
	case nil, Null:
		return 0
	case String:
		return 16 + int64(len(val))
	case Int, Bool:
		return 8
	case Bytes:
		return 24 + int64(len(val))
	case List:
		n := int64(24)
		for _, e := range val {
			n += 16 + Size(e)
		}
		return n
	case Object:
		n := int64(48)
		for k, e := range val {
			n += 16 + int64(len(k)) + 16 + Size(e)
		}
		return n
	default:
		return 0
	}
}

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	switch val := v.(type) {
	case Bytes:
		return Bytes(bytes.Clone(val))
	case List:
		out := make(List, len(val))
		for i, e := range val {
			out[i] = Clone(e)
		}
		return out
	case Object:
		out := make(Object, len(val))
		for k, e := range val {
			out[k] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// Unmarshal decodes JSON into a Value. null becomes Null; floats are rejected.
func Unmarshal(b []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromAny(raw)
}

// UnmarshalObject decodes a JSON object.
func UnmarshalObject(b []byte) (Object, error) {
	v, err := Unmarshal(b)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	return obj, nil
}
