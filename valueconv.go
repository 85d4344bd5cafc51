package quickle

import "reflect"

// reflectValueOf unwraps x (possibly already a reflect.Value) to a
// reflect.Value, matching how the teacher's dict.go makes its equal/hash
// helpers usable both from raw `any` values and from already-reflected
// callers.
func reflectValueOf(x any) reflect.Value {
	if rv, ok := x.(reflect.Value); ok {
		return rv
	}
	return reflect.ValueOf(x)
}

func toI64(x any) int64 {
	switch v := x.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	}
	return reflectValueOf(x).Int()
}

func toU64(x any) uint64 {
	switch v := x.(type) {
	case uint:
		return uint64(v)
	case uint8:
		return uint64(v)
	case uint16:
		return uint64(v)
	case uint32:
		return uint64(v)
	case uint64:
		return v
	case uintptr:
		return uint64(v)
	}
	return reflectValueOf(x).Uint()
}

func toF64(x any) float64 {
	switch v := x.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	}
	return reflectValueOf(x).Float()
}

func toC128(x any) complex128 {
	switch v := x.(type) {
	case complex64:
		return complex128(v)
	case complex128:
		return v
	}
	return reflectValueOf(x).Complex()
}

func toAnySlice(x any) []any {
	switch v := x.(type) {
	case Tuple:
		return []any(v)
	case []any:
		return v
	}
	rv := reflectValueOf(x)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
