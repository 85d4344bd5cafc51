package quickle

// Cross-width value equality and hashing for Mapping/Set keys, generalized
// from the teacher's dict.go (equal/hash/kind), which solved the same
// problem (Python-style `1 == 1.0 == big.Int(1)` equality) for an arbitrary
// Python object graph. This version narrows the matrix to the taxonomy this
// codec actually carries and drops the legacy py2 ByteString bridging and
// the unsafe private-field workaround: every struct type this codec defines
// (Date, Time, DateTime, ...) has only exported fields. Any other struct value
// used as a key, registered or not, is compared and hashed by reflecting over
// its fields, which requires those fields to be exported.

import (
	"hash/maphash"
	"math"
	"math/big"
)

type kind int

const (
	kInvalid kind = iota
	kBool
	kInt
	kUint
	kFloat
	kComplex
	kBigInt
	kSlice
	kMapping
	kSet
	kFrozenSet
	kStruct
	kOther
)

// kindOf special-cases *Mapping/*Set/FrozenSet ahead of the generic struct
// fallback, the same way xreflect.go's deepEqual does: all three hold their
// contents behind an unexported *gomap.Map field, so reflecting over their
// fields (as the generic kStruct path does) would panic trying to
// Interface() an unexported field instead of comparing/hashing by contents.
func kindOf(x any) kind {
	switch x.(type) {
	case bool:
		return kBool
	case int, int8, int16, int32, int64:
		return kInt
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return kUint
	case float32, float64:
		return kFloat
	case complex64, complex128:
		return kComplex
	case *big.Int:
		return kBigInt
	case Tuple, []any:
		return kSlice
	case *Mapping:
		return kMapping
	case *Set:
		return kSet
	case FrozenSet:
		return kFrozenSet
	}
	rv := reflectValueOf(x)
	if rv.IsValid() && rv.Kind().String() == "struct" {
		return kStruct
	}
	return kOther
}

// valueEqual implements the Mapping/Set key-equality contract: numeric
// values compare equal across width (int/uint/float/complex/*big.Int) the
// way Python's numeric tower does, Bytes/string/ByteArray are never equal to
// each other, tuples/ordered-sequences compare elementwise, structs compare
// field-by-field, and everything else falls back to Go's ==.
func valueEqual(xa, xb any) bool {
	switch a := xa.(type) {
	case string:
		b, ok := xb.(string)
		return ok && a == b
	case Bytes:
		b, ok := xb.(Bytes)
		return ok && string(a) == string(b)
	case ByteArray:
		b, ok := xb.(ByteArray)
		return ok && string(a) == string(b)
	}
	switch xb.(type) {
	case string, Bytes, ByteArray:
		return false
	}

	ak, bk := kindOf(xa), kindOf(xb)
	switch ak {
	case kBool:
		b, ok := xb.(bool)
		return ok && xa.(bool) == b
	case kInt:
		return eqNumeric(bk, xb, toI64(xa), false)
	case kUint:
		return eqNumeric(bk, xb, int64(toU64(xa)), true)
	case kFloat:
		return eqFloat(bk, xb, toF64(xa))
	case kComplex:
		return eqComplex(bk, xb, toC128(xa))
	case kBigInt:
		return eqBigInt(bk, xb, xa.(*big.Int))
	case kSlice:
		if bk != kSlice {
			return false
		}
		return eqSlice(toAnySlice(xa), toAnySlice(xb))
	case kMapping:
		b, ok := xb.(*Mapping)
		return ok && eqMapping(xa.(*Mapping), b)
	case kSet:
		b, ok := xb.(*Set)
		return ok && eqSetValue(xa.(*Set), b)
	case kFrozenSet:
		b, ok := xb.(FrozenSet)
		return ok && eqFrozenSet(xa.(FrozenSet), b)
	case kStruct:
		if bk != kStruct {
			return false
		}
		return eqStruct(xa, xb)
	}
	return xa == xb
}

func eqNumeric(bk kind, xb any, ai int64, aUnsigned bool) bool {
	switch bk {
	case kInt:
		return ai == toI64(xb)
	case kUint:
		bu := toU64(xb)
		if aUnsigned {
			return uint64(ai) == bu
		}
		return ai >= 0 && uint64(ai) == bu
	case kFloat:
		return float64(ai) == toF64(xb)
	case kComplex:
		c := toC128(xb)
		return imag(c) == 0 && float64(ai) == real(c)
	case kBigInt:
		return big.NewInt(ai).Cmp(xb.(*big.Int)) == 0
	}
	return false
}

func eqFloat(bk kind, xb any, af float64) bool {
	switch bk {
	case kInt:
		return af == float64(toI64(xb))
	case kUint:
		return af == float64(toU64(xb))
	case kFloat:
		return af == toF64(xb)
	case kComplex:
		c := toC128(xb)
		return imag(c) == 0 && af == real(c)
	case kBigInt:
		bf := new(big.Float).SetInt(xb.(*big.Int))
		af2 := big.NewFloat(af)
		return bf.Cmp(af2) == 0
	}
	return false
}

func eqComplex(bk kind, xb any, ac complex128) bool {
	switch bk {
	case kInt:
		return imag(ac) == 0 && real(ac) == float64(toI64(xb))
	case kUint:
		return imag(ac) == 0 && real(ac) == float64(toU64(xb))
	case kFloat:
		return imag(ac) == 0 && real(ac) == toF64(xb)
	case kComplex:
		return ac == toC128(xb)
	case kBigInt:
		if imag(ac) != 0 {
			return false
		}
		bf := new(big.Float).SetInt(xb.(*big.Int))
		return bf.Cmp(big.NewFloat(real(ac))) == 0
	}
	return false
}

func eqBigInt(bk kind, xb any, a *big.Int) bool {
	switch bk {
	case kInt:
		return a.IsInt64() && a.Int64() == toI64(xb)
	case kUint:
		return a.Sign() >= 0 && a.IsUint64() && a.Uint64() == toU64(xb)
	case kFloat:
		bf := new(big.Float).SetInt(a)
		return bf.Cmp(big.NewFloat(toF64(xb))) == 0
	case kComplex:
		c := toC128(xb)
		if imag(c) != 0 {
			return false
		}
		bf := new(big.Float).SetInt(a)
		return bf.Cmp(big.NewFloat(real(c))) == 0
	case kBigInt:
		return a.Cmp(xb.(*big.Int)) == 0
	}
	return false
}

func eqSlice(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func eqMapping(a, b *Mapping) bool {
	if a.Len() != b.Len() {
		return false
	}
	eq := true
	a.Iter(func(k, va any) bool {
		vb, ok := b.Get(k)
		if !ok || !valueEqual(va, vb) {
			eq = false
			return false
		}
		return true
	})
	return eq
}

func eqSetValue(a, b *Set) bool {
	if a.Len() != b.Len() {
		return false
	}
	eq := true
	a.Iter(func(v any) bool {
		if !b.Has(v) {
			eq = false
			return false
		}
		return true
	})
	return eq
}

func eqFrozenSet(a, b FrozenSet) bool {
	if a.Len() != b.Len() {
		return false
	}
	eq := true
	a.Iter(func(v any) bool {
		if !b.Has(v) {
			eq = false
			return false
		}
		return true
	})
	return eq
}

func eqStruct(xa, xb any) bool {
	va, vb := reflectValueOf(xa), reflectValueOf(xb)
	if va.Type() != vb.Type() {
		return false
	}
	for i := 0; i < va.NumField(); i++ {
		if !valueEqual(va.Field(i).Interface(), vb.Field(i).Interface()) {
			return false
		}
	}
	return true
}

// valueHash must agree with valueEqual: equal values must hash equal.
func valueHash(seed maphash.Seed, x any) uint64 {
	switch v := x.(type) {
	case string:
		return 1 ^ maphash_String(seed, v)
	case Bytes:
		return 2 ^ maphash_String(seed, string(v))
	case ByteArray:
		return 3 ^ maphash_String(seed, string(v))
	case bool:
		return hashInt64(bint(v))
	}

	switch kindOf(x) {
	case kInt:
		return hashInt64(toI64(x))
	case kUint:
		u := toU64(x)
		if u <= math.MaxInt64 {
			return hashInt64(int64(u))
		}
		return hashInt64(int64(u - math.MaxInt64 - 1))
	case kFloat:
		f := toF64(x)
		if i, ok := asExactInt64(f); ok {
			return hashInt64(i)
		}
		return hashInt64(int64(math.Float64bits(f)))
	case kComplex:
		c := toC128(x)
		if imag(c) == 0 {
			return valueHash(seed, complexRealOnly(c))
		}
		return hashInt64(int64(math.Float64bits(real(c)))) ^ hashInt64(int64(math.Float64bits(imag(c))))
	case kBigInt:
		b := x.(*big.Int)
		if b.IsInt64() {
			return hashInt64(b.Int64())
		}
		return hashInt64(int64(b.BitLen())) ^ maphash_String(seed, b.String())
	case kSlice:
		h := uint64(7)
		for _, e := range toAnySlice(x) {
			h = h*31 + valueHash(seed, e)
		}
		return h
	case kMapping:
		// XOR-combined so hash agrees with valueEqual regardless of the
		// mapping's insertion order.
		h := uint64(13)
		x.(*Mapping).Iter(func(k, v any) bool {
			h ^= valueHash(seed, k)*31 + valueHash(seed, v)
			return true
		})
		return h
	case kSet:
		h := uint64(17)
		x.(*Set).Iter(func(v any) bool {
			h ^= valueHash(seed, v)
			return true
		})
		return h
	case kFrozenSet:
		h := uint64(19)
		x.(FrozenSet).Iter(func(v any) bool {
			h ^= valueHash(seed, v)
			return true
		})
		return h
	case kStruct:
		rv := reflectValueOf(x)
		h := uint64(11)
		for i := 0; i < rv.NumField(); i++ {
			h = h*31 + valueHash(seed, rv.Field(i).Interface())
		}
		return h
	}
	panic("quickle: unhashable value")
}

func complexRealOnly(c complex128) float64 { return real(c) }

func hashInt64(i int64) uint64 { return uint64(i) * 0x9E3779B97F4A7C15 }

func asExactInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func bint(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
