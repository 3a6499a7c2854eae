package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies the concrete type a Value holds.
type ValueKind string

// Value kinds mirror the token classes found in vendor parameter files.
const (
	KindString ValueKind = "string"
	KindInt    ValueKind = "int"
	KindFloat  ValueKind = "float"
	KindBool   ValueKind = "bool"
	KindList   ValueKind = "list"
)

// Value is a single parameter value: a scalar (string, integer, float,
// boolean) or an ordered list of scalars. Values are immutable once built.
// The zero Value is the empty string.
type Value struct {
	kind ValueKind
	str  string
	i    int64
	f    float64
	b    bool
	list []Value
}

// StringValue wraps a string scalar.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// IntValue wraps an integer scalar.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue wraps a floating-point scalar.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue wraps a boolean scalar.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// ListValue wraps an ordered sequence of values. The slice is copied.
func ListValue(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Kind reports which variant the value holds.
func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return KindString
	}
	return v.kind
}

// String returns the string payload when the value is a string scalar.
func (v Value) String() (string, bool) {
	return v.str, v.Kind() == KindString
}

// Int returns the integer payload when the value is an integer scalar.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

// Float returns the float payload when the value is a float scalar.
func (v Value) Float() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// Float64 returns a numeric value as float64, accepting both integer and
// float scalars.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Bool returns the boolean payload when the value is a boolean scalar.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// List returns a copy of the list payload when the value is a list.
func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	cp := make([]Value, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// Text renders the value for display and for loosely typed document fields.
// Lists render as space-joined items.
func (v Value) Text() string {
	switch v.Kind() {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.Text()
		}
		return strings.Join(parts, " ")
	default:
		return v.str
	}
}

// Equal reports whether two values hold the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindBool:
		return v.b == other.b
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	default:
		return v.str == other.str
	}
}

// MarshalJSON encodes scalars as their native JSON type and lists as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		return json.Marshal(v.list)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON decodes native JSON types back into the matching kind.
// Numbers without a fractional part or exponent become integers.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	decoded, err := valueFromJSON(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func valueFromJSON(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return StringValue(""), nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return IntValue(i), nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("decode number %q: %w", s, err)
		}
		return FloatValue(f), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, entry := range t {
			item, err := valueFromJSON(entry)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Value{kind: KindList, list: items}, nil
	default:
		return Value{}, fmt.Errorf("unsupported parameter value type %T", raw)
	}
}
