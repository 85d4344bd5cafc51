package quickle

// Conversions between taxonomy representations, for callers that don't want
// to care which wire form a value took.

import (
	"fmt"
	"math/big"
)

// AsInt64 accepts either integer representation (narrow int64 or wide
// *big.Int) and returns it as an int64, failing if a wide value doesn't fit.
func AsInt64(x any) (int64, error) {
	switch x := x.(type) {
	case int64:
		return x, nil
	case *big.Int:
		if !x.IsInt64() {
			return 0, fmt.Errorf("integer outside of int64 range")
		}
		return x.Int64(), nil
	}
	return 0, fmt.Errorf("expect int64|*big.Int; got %T", x)
}

// AsBytes accepts a Bytes or ByteArray value and returns it as Bytes.
func AsBytes(x any) (Bytes, error) {
	switch x := x.(type) {
	case Bytes:
		return x, nil
	case ByteArray:
		return Bytes(x), nil
	}
	return nil, fmt.Errorf("expect Bytes|ByteArray; got %T", x)
}
