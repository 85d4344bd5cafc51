package quickle

import "math"

// Little/big-endian byte packing helpers shared by encoder.go and
// decoder.go. Kept free-standing rather than inlined so the wire layout for
// each width is defined in exactly one place.

func putUint16LE(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putUint24LE(b []byte, v uint32) { b[0] = byte(v); b[1] = byte(v >> 8); b[2] = byte(v >> 16) }
func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
func putUint64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func uint16LE(v uint16) []byte { b := make([]byte, 2); putUint16LE(b, v); return b }
func uint24LE(v uint32) []byte { b := make([]byte, 3); putUint24LE(b, v); return b }
func uint32LE(v uint32) []byte { b := make([]byte, 4); putUint32LE(b, v); return b }
func uint64LE(v uint64) []byte { b := make([]byte, 8); putUint64LE(b, v); return b }
func int32LE(v int32) []byte   { return uint32LE(uint32(v)) }

func getUint16LE(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func getUint24LE(b []byte) uint32 { return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 }
func getUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func getUint64LE(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
func getInt32LE(b []byte) int32 { return int32(getUint32LE(b)) }

func float64ToBE(f float64) []byte {
	bits := math.Float64bits(f)
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * (7 - i)))
	}
	return b
}

func float64FromBE(b []byte) float64 {
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(b[i]) << (8 * (7 - i))
	}
	return math.Float64frombits(bits)
}
