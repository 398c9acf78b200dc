package attrs

import (
	"errors"
	"fmt"
)

// ErrUnsupportedValue indicates a producer property that does not fit the
// closed value-kind set.
var ErrUnsupportedValue = errors.New("unsupported attribute value")

// FromAny converts a decoded-JSON producer value into a typed Value.
// JSON numbers arrive as float64 and stay floats; producers needing integer
// semantics use the typed constructors directly.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Float(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case []any:
		return sliceFromAny(t)
	case nil:
		return Value{}, fmt.Errorf("%w: null", ErrUnsupportedValue)
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func sliceFromAny(items []any) (Value, error) {
	if len(items) == 0 {
		return Strings(), nil
	}
	switch items[0].(type) {
	case string:
		out := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return Value{}, fmt.Errorf("%w: mixed array", ErrUnsupportedValue)
			}
			out = append(out, s)
		}
		return Strings(out...), nil
	case float64:
		out := make([]float64, 0, len(items))
		for _, it := range items {
			f, ok := it.(float64)
			if !ok {
				return Value{}, fmt.Errorf("%w: mixed array", ErrUnsupportedValue)
			}
			out = append(out, f)
		}
		return Floats(out...), nil
	default:
		return Value{}, fmt.Errorf("%w: array of %T", ErrUnsupportedValue, items[0])
	}
}

// Any converts the value back to its producer JSON shape, the inverse of
// FromAny. Unknown kinds yield nil.
func (v Value) Any() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	case KindFloatArray:
		return v.Floats
	case KindIntArray:
		return v.Ints
	case KindStringArray:
		return v.Strs
	default:
		return nil
	}
}

// RecordFromAny converts a decoded-JSON property bag into a Record,
// skipping values outside the closed kind set.
func RecordFromAny(m map[string]any) Record {
	if len(m) == 0 {
		return nil
	}
	rec := make(Record, len(m))
	for k, v := range m {
		val, err := FromAny(v)
		if err != nil {
			continue
		}
		rec[k] = val
	}
	return rec
}
