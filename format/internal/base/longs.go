package base

import (
	"fmt"
	"reflect"
)

// Longs extracts an []int64 from a decoded NBT value. NBT decoders hand
// long arrays back as []int64, but lists of longs and legacy files decode
// as []any or []int32; all of those are accepted.
func Longs(v any) ([]int64, error) {
	if v == nil {
		return nil, nil
	}
	if longs, ok := v.([]int64); ok {
		return longs, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Slice:
		out := make([]int64, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			n, ok := toInt64(rv.Index(i).Interface())
			if !ok {
				return nil, fmt.Errorf("unexpected long array element type %T", rv.Index(i).Interface())
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected long array type %T", v)
	}
}

// Bytes extracts a []byte from a decoded NBT value.
func Bytes(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case []byte:
		return val, nil
	case []any:
		out := make([]byte, len(val))
		for i, e := range val {
			n, ok := toInt64(e)
			if !ok {
				return nil, fmt.Errorf("unexpected byte array element type %T", e)
			}
			out[i] = byte(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected byte array type %T", v)
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case byte:
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
