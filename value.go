package quickle

// None is the null value. The zero value is the only meaningful value.
type None struct{}

// Tuple is a fixed-arity ordered sequence, distinct from an ordinary []any
// (which decodes/encodes as a mutable list). Tuples are immutable by
// convention: the codec never mutates one after constructing it, but Go
// cannot enforce that at the type level.
type Tuple []any

// Bytes is an immutable byte string. It is never equal to a string or to a
// ByteArray as a Mapping/Set key, even when the underlying bytes match.
type Bytes []byte

// ByteArray is a mutable byte buffer.
type ByteArray []byte

// BufferSource is the external-collaborator contract for an out-of-band
// buffer handle (component J-adjacent, §4.D/§4.G). A caller supplying a
// strided or non-contiguous view implements this directly instead of using
// Buffer.
type BufferSource interface {
	Bytes() []byte
	ReadOnly() bool
	Contiguous() bool
}

// Buffer is the built-in BufferSource implementation for a plain in-memory
// byte slice; Go slices are always contiguous, so Contiguous always reports
// true.
type Buffer struct {
	Data     []byte
	Readonly bool
}

func (b Buffer) Bytes() []byte    { return b.Data }
func (b Buffer) ReadOnly() bool   { return b.Readonly }
func (b Buffer) Contiguous() bool { return true }

// BufferIterator hands out-of-band buffers to a Decoder in order, one per
// NEXT_BUFFER opcode. It is the natural Go equivalent of the "iterator of
// buffer handles" collaborator from the spec: a slice plus a cursor.
type BufferIterator struct {
	buffers []Buffer
	pos     int
	// supplied distinguishes "no iterator at all" (Decode called with a nil
	// buffers slice) from "an iterator that ran dry" (a non-nil slice,
	// possibly already exhausted): spec.md §4.G reports these as two
	// different errors (missing-buffer vs buffer-underflow).
	supplied bool
}

// NewBufferIterator wraps buffers for consumption by a single Decode call.
func NewBufferIterator(buffers []Buffer) *BufferIterator {
	return &BufferIterator{buffers: buffers, supplied: buffers != nil}
}

func (it *BufferIterator) next() (Buffer, bool) {
	if it == nil || it.pos >= len(it.buffers) {
		return Buffer{}, false
	}
	b := it.buffers[it.pos]
	it.pos++
	return b, true
}
