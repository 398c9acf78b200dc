// Package attrs implements the CHDA compact binary encoding for per-element
// property records and material records.
//
// Records are key-to-value maps over a closed set of value kinds, so the
// encoder has a fixed, testable enumeration rather than an open-ended
// dynamic object.
package attrs

import "errors"

// Kind enumerates the value kinds a record field can hold. The byte values
// are part of the on-disk format.
type Kind uint8

const (
	KindString Kind = 1 + iota
	KindInt
	KindFloat
	KindBool
	KindFloatArray
	KindIntArray
	KindStringArray
)

// ErrUnknownKind indicates a value-kind byte outside the closed set.
var ErrUnknownKind = errors.New("unknown attribute value kind")

// Value is one typed record field.
type Value struct {
	Kind Kind

	Str    string
	Int    int64
	Float  float64
	Bool   bool
	Floats []float64
	Ints   []int64
	Strs   []string
}

// String constructs a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Int constructs an integer value.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float constructs a float value.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// Bool constructs a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Floats constructs a float array value.
func Floats(fs ...float64) Value { return Value{Kind: KindFloatArray, Floats: fs} }

// Ints constructs an integer array value.
func Ints(is ...int64) Value { return Value{Kind: KindIntArray, Ints: is} }

// Strings constructs a string array value.
func Strings(ss ...string) Value { return Value{Kind: KindStringArray, Strs: ss} }

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindBool:
		return v.Bool == o.Bool
	case KindFloatArray:
		if len(v.Floats) != len(o.Floats) {
			return false
		}
		for i := range v.Floats {
			if v.Floats[i] != o.Floats[i] {
				return false
			}
		}
		return true
	case KindIntArray:
		if len(v.Ints) != len(o.Ints) {
			return false
		}
		for i := range v.Ints {
			if v.Ints[i] != o.Ints[i] {
				return false
			}
		}
		return true
	case KindStringArray:
		if len(v.Strs) != len(o.Strs) {
			return false
		}
		for i := range v.Strs {
			if v.Strs[i] != o.Strs[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Record is one element's or material's attribute map, keyed by field name.
type Record map[string]Value

// GetString returns the string field value, if present and of string kind.
func (r Record) GetString(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// GetFloat returns the float field value, if present and of float kind.
func (r Record) GetFloat(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v.Kind != KindFloat {
		return 0, false
	}
	return v.Float, true
}
