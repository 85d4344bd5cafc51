package quickle

import "math/big"

// bigIntToLE returns the minimal-width little-endian two's-complement byte
// representation of v, matching the wire form LONG1/LONG4 carry (and the
// form this codec's integer narrowing falls back to for any value LONG1/4
// covers). Zero encodes as no bytes at all.
//
// big.Int's Euclidean Mod always returns a non-negative remainder, which for
// modulus 2^(8n) is exactly the n-byte two's-complement bit pattern of v for
// any v and any sufficiently large n; that lets the reduction replace a
// manual invert-and-add-one.
func bigIntToLE(v *big.Int) []byte {
	if v.Sign() == 0 {
		return nil
	}
	n := (v.BitLen() + 7) / 8
	for {
		lo := new(big.Int).Lsh(big.NewInt(-1), uint(8*n-1))
		hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(8*n-1)), big.NewInt(1))
		if v.Cmp(lo) >= 0 && v.Cmp(hi) <= 0 {
			break
		}
		n++
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
	u := new(big.Int).Mod(v, mod)
	be := u.Bytes() // big-endian, may be shorter than n
	le := make([]byte, n)
	m := len(be)
	for j := 0; j < m; j++ {
		le[j] = be[m-1-j]
	}
	return le
}

// bigIntFromLE is the inverse of bigIntToLE: it interprets b as a little-
// endian two's-complement integer. Grounded on the teacher's decodeLong,
// reimplemented via big.Int subtraction instead of manual bit flipping.
func bigIntFromLE(b []byte) *big.Int {
	n := len(b)
	if n == 0 {
		return big.NewInt(0)
	}
	be := make([]byte, n)
	for i, v := range b {
		be[n-1-i] = v
	}
	u := new(big.Int).SetBytes(be)
	if b[n-1]&0x80 == 0 {
		return u
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
	return u.Sub(u, mod)
}
