// Package quickle is a library for encoding/decoding a closed taxonomy of
// values to/from a pickle-protocol-5-derived binary stack bytecode.
//
// Use Decoder to decode a buffer, for example:
//
//	d := quickle.NewDecoder()
//	obj, err := d.Decode(data, buffers) // obj is any, buffers are out-of-band []Buffer
//
// Use Encoder to encode a value into a byte slice, for example:
//
//	e := quickle.NewEncoder()
//	data, buffers, err := e.Encode(obj)
//
// The following table summarizes the mapping between taxonomy entries and Go
// types:
//
//	Taxonomy	       Go
//	--------	       --
//
//	null	        ↔  quickle.None
//	bool	        ↔  bool
//	integer	        ↔  int64 (narrow)
//	integer	        ↔  *big.Int (wide)
//	float	        ↔  float64
//	complex	        ↔  complex128
//	byte string     ↔  quickle.Bytes    (~)
//	byte buffer     ↔  quickle.ByteArray
//	buffer handle   ↔  quickle.Buffer / quickle.BufferSource
//	text string     ↔  string           (+)
//	ordered sequence ↔ []any
//	tuple	        ↔  quickle.Tuple
//	mapping	        ↔  *quickle.Mapping
//	set	        ↔  *quickle.Set
//	frozen set      ↔  quickle.FrozenSet
//	date/time       ↔  quickle.Date, quickle.Time, quickle.DateTime, quickle.Duration
//	timezone        ↔  quickle.UTC, quickle.FixedZone, quickle.ZoneInfo
//
// Struct instances and enum members are mapped through a caller-supplied
// Registry rather than through built-in Go types: a struct descriptor
// (StructType) exposes field order, defaults and a constructor, and an enum
// descriptor (EnumType) maps members to/from their name or integer value. On
// decode, an unrecognized struct/enum registry code is reported as a
// DecodeError rather than causing undefined behavior; on encode, any value
// whose reflect.Type is not registered and does not match one of the
// built-in taxonomy kinds is reported as an EncodeError.
//
// This package deliberately does not support Python's class/instance escape
// hatch (arbitrary GLOBAL/REDUCE opcodes): it is a closed-taxonomy codec, so
// decoding untrusted input never causes arbitrary code execution.
//
// Protocol
//
// Unlike the general pickle protocol, this package implements a single fixed
// wire profile: there is no protocol negotiation, no ASCII/protocol-0 opcode
// family, and no legacy compatibility mode. A stream may optionally begin
// with a PROTO marker and contain FRAME markers; both are accepted and
// ignored by the decoder for interoperability, but the encoder never emits
// them.
//
// --------
//
// (+) text strings must be valid UTF-8 on both encode and decode; malformed
// UTF-8 is rejected rather than passed through.
//
// (~) Bytes and string are never considered equal to each other as mapping
// or set keys, even when they hold the same underlying bytes.
package quickle
