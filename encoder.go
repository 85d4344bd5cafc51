package quickle

import (
	"math"
	"math/big"
	"reflect"
	"unicode/utf8"
)

// EncoderConfig configures an Encoder, mirroring the teacher's
// EncoderConfig/NewEncoderWithConfig pattern.
type EncoderConfig struct {
	// Memoize controls whether repeated/shared/self-referential values are
	// back-referenced via the memo table. Disabling it produces larger,
	// purely-tree-shaped output and makes cyclic input an encode error
	// instead of a supported construct.
	Memoize bool
	// CollectBuffers, when true, pulls Buffer/BufferSource values out into
	// the out-of-band buffer list (NEXT_BUFFER/READONLY_BUFFER) instead of
	// inlining their bytes.
	CollectBuffers bool
	// Registry resolves struct/enum Go types to registry codes. Required
	// only if the encoded value graph contains registered types.
	Registry Registry
	// MaxDepth bounds recursion; 0 selects the default of 1000.
	MaxDepth int
	// WriteBufferSize is the initial output buffer capacity; 0 selects a
	// small built-in default.
	WriteBufferSize int
}

// Encoder serializes values to the wire format.
type Encoder struct {
	config  EncoderConfig
	out     *outputBuffer
	memo    *encoderMemo
	depth   int
	buffers []Buffer
}

// NewEncoder returns an Encoder with memoization on and the default
// recursion limit.
func NewEncoder() *Encoder {
	return NewEncoderWithConfig(EncoderConfig{Memoize: true})
}

// NewEncoderWithConfig returns an Encoder configured per cfg.
func NewEncoderWithConfig(cfg EncoderConfig) *Encoder {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 1000
	}
	return &Encoder{
		config: cfg,
		out:    newOutputBuffer(cfg.WriteBufferSize),
		memo:   newEncoderMemo(),
	}
}

// Encode serializes v, returning the finished byte stream and any
// out-of-band buffers collected along the way (nil unless CollectBuffers is
// set and at least one buffer value was encountered).
func (e *Encoder) Encode(v any) ([]byte, []Buffer, error) {
	e.out.reset()
	e.memo.Reset()
	e.buffers = e.buffers[:0]
	e.depth = 0

	if err := e.encodeValue(v); err != nil {
		return nil, nil, err
	}
	if err := e.out.writeByte(opStop); err != nil {
		return nil, nil, err
	}

	out := make([]byte, e.out.len())
	copy(out, e.out.bytes())

	var bufs []Buffer
	if len(e.buffers) > 0 {
		bufs = make([]Buffer, len(e.buffers))
		copy(bufs, e.buffers)
	}
	return out, bufs, nil
}

func (e *Encoder) emitGet(id uint32) error {
	if id < 256 {
		if err := e.out.writeByte(opBinget); err != nil {
			return err
		}
		return e.out.writeByte(byte(id))
	}
	if err := e.out.writeByte(opLongBinget); err != nil {
		return err
	}
	return e.out.write(uint32LE(id))
}

func (e *Encoder) memoizeFresh() error {
	if !e.config.Memoize {
		return nil
	}
	if _, err := e.memo.PutFresh(); err != nil {
		return err
	}
	return e.out.writeByte(opMemoize)
}

// handleOf returns the identity handle for reference-kind Go values
// (pointer, slice, map): those are the only kinds this encoder tracks for
// sharing/cycle detection, matching the teacher's own (partial, TODO-marked)
// cycle handling for the same kinds.
func handleOf(rv reflect.Value) (uintptr, bool) {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Len() == 0 {
			return 0, false
		}
		return rv.Pointer(), true
	case reflect.Map, reflect.Ptr:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	}
	return 0, false
}

func (e *Encoder) encodeValue(v any) error {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.config.MaxDepth {
		return encErr(errEncodeRecursion, "exceeded max depth %d", e.config.MaxDepth)
	}

	if v == nil {
		return e.out.writeByte(opNone)
	}

	switch x := v.(type) {
	case None:
		return e.out.writeByte(opNone)
	case bool:
		if x {
			return e.out.writeByte(opNewtrue)
		}
		return e.out.writeByte(opNewfalse)
	case int:
		return e.encodeInteger(big.NewInt(int64(x)))
	case int8:
		return e.encodeInteger(big.NewInt(int64(x)))
	case int16:
		return e.encodeInteger(big.NewInt(int64(x)))
	case int32:
		return e.encodeInteger(big.NewInt(int64(x)))
	case int64:
		return e.encodeInteger(big.NewInt(x))
	case uint:
		return e.encodeInteger(new(big.Int).SetUint64(uint64(x)))
	case uint8:
		return e.encodeInteger(big.NewInt(int64(x)))
	case uint16:
		return e.encodeInteger(big.NewInt(int64(x)))
	case uint32:
		return e.encodeInteger(big.NewInt(int64(x)))
	case uint64:
		return e.encodeInteger(new(big.Int).SetUint64(x))
	case *big.Int:
		return e.encodeInteger(x)
	case float32:
		return e.encodeFloat(float64(x))
	case float64:
		return e.encodeFloat(x)
	case complex64:
		return e.encodeComplex(complex128(x))
	case complex128:
		return e.encodeComplex(x)
	case string:
		return e.encodeText(x)
	case Bytes:
		return e.encodeBytesValue([]byte(x), false)
	case ByteArray:
		return e.encodeByteArray([]byte(x))
	case Buffer:
		return e.encodeBuffer(x)
	case Tuple:
		return e.encodeTuple(x)
	case []any:
		return e.encodeList(x)
	case *Mapping:
		return e.encodeMapping(x)
	case *Set:
		return e.encodeSet(x)
	case FrozenSet:
		return e.encodeFrozenSet(x)
	case Date:
		return e.encodeDate(x)
	case Time:
		return e.encodeTime(x)
	case DateTime:
		return e.encodeDateTime(x)
	case Duration:
		return e.encodeDuration(x)
	case UTC:
		return e.out.writeByte(opTimezoneUTC)
	case FixedZone:
		return e.encodeFixedZone(x)
	case ZoneInfo:
		return e.encodeZoneInfo(x)
	}

	if bs, ok := v.(BufferSource); ok {
		return e.encodeBufferSource(bs)
	}

	rv := reflect.ValueOf(v)
	if e.config.Registry != nil {
		if code, desc, ok := e.config.Registry.CodeOfStruct(rv.Type()); ok {
			return e.encodeStructInstance(v, code, desc)
		}
		if code, desc, ok := e.config.Registry.CodeOfEnum(rv.Type()); ok {
			return e.encodeEnumMember(v, code, desc)
		}
	}

	// A struct (or pointer to one) is shaped like something that belongs in
	// the registry: treat it as a registry miss. Anything else (chan, func,
	// an unregistered map, ...) isn't shaped like any taxonomy entry at all.
	if k := rv.Kind(); k == reflect.Struct || (k == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct) {
		return encErr(errUnknownType, "no registry entry for %T", v)
	}
	return encErr(errUnsupportedType, "%T is outside the supported value taxonomy", v)
}

func (e *Encoder) encodeInteger(v *big.Int) error {
	if v.Sign() >= 0 && v.IsInt64() {
		i := v.Int64()
		switch {
		case i < 256:
			if err := e.out.writeByte(opBinint1); err != nil {
				return err
			}
			return e.out.writeByte(byte(i))
		case i < 65536:
			if err := e.out.writeByte(opBinint2); err != nil {
				return err
			}
			return e.out.write(uint16LE(uint16(i)))
		case i <= math.MaxInt32:
			if err := e.out.writeByte(opBinint); err != nil {
				return err
			}
			return e.out.write(int32LE(int32(i)))
		}
	}
	return e.encodeWideInteger(v)
}

func (e *Encoder) encodeWideInteger(v *big.Int) error {
	b := bigIntToLE(v)
	if len(b) > math.MaxInt32 {
		return encErr(errEncodeOverflow, "integer magnitude exceeds 2^31 bytes")
	}
	if len(b) < 256 {
		if err := e.out.writeByte(opLong1); err != nil {
			return err
		}
		if err := e.out.writeByte(byte(len(b))); err != nil {
			return err
		}
		return e.out.write(b)
	}
	if err := e.out.writeByte(opLong4); err != nil {
		return err
	}
	if err := e.out.write(uint32LE(uint32(len(b)))); err != nil {
		return err
	}
	return e.out.write(b)
}

func (e *Encoder) encodeFloat(f float64) error {
	if err := e.out.writeByte(opBinfloat); err != nil {
		return err
	}
	return e.out.write(float64ToBE(f))
}

func (e *Encoder) encodeComplex(c complex128) error {
	if err := e.out.writeByte(opComplex); err != nil {
		return err
	}
	if err := e.out.write(float64ToBE(real(c))); err != nil {
		return err
	}
	return e.out.write(float64ToBE(imag(c)))
}

func (e *Encoder) encodeText(s string) error {
	if !utf8.ValidString(s) {
		return encErr(errBadText, "text value is not valid utf-8")
	}
	n := len(s)
	switch {
	case n < 256:
		if err := e.out.writeByte(opShortBinunicode); err != nil {
			return err
		}
		if err := e.out.writeByte(byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint32:
		if err := e.out.writeByte(opBinunicode); err != nil {
			return err
		}
		if err := e.out.write(uint32LE(uint32(n))); err != nil {
			return err
		}
	default:
		if err := e.out.writeByte(opBinunicode8); err != nil {
			return err
		}
		if err := e.out.write(uint64LE(uint64(n))); err != nil {
			return err
		}
	}
	if err := e.out.write([]byte(s)); err != nil {
		return err
	}
	return e.memoizeFresh()
}

func (e *Encoder) encodeBytesValue(b []byte, tryRef bool) error {
	n := len(b)
	switch {
	case n < 256:
		if err := e.out.writeByte(opShortBinbytes); err != nil {
			return err
		}
		if err := e.out.writeByte(byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint32:
		if err := e.out.writeByte(opBinbytes); err != nil {
			return err
		}
		if err := e.out.write(uint32LE(uint32(n))); err != nil {
			return err
		}
	default:
		if err := e.out.writeByte(opBinbytes8); err != nil {
			return err
		}
		if err := e.out.write(uint64LE(uint64(n))); err != nil {
			return err
		}
	}
	if err := e.out.write(b); err != nil {
		return err
	}
	return e.memoizeFresh()
}

func (e *Encoder) encodeByteArray(b []byte) error {
	handle, trackable := uintptr(0), false
	if len(b) > 0 {
		handle, trackable = reflect.ValueOf(b).Pointer(), true
	}
	if trackable && e.config.Memoize {
		if id, ok := e.memo.Get(handle); ok {
			return e.emitGet(id)
		}
	}
	if err := e.out.writeByte(opByteArray8); err != nil {
		return err
	}
	if err := e.out.write(uint64LE(uint64(len(b)))); err != nil {
		return err
	}
	if err := e.out.write(b); err != nil {
		return err
	}
	if !e.config.Memoize {
		return nil
	}
	if trackable {
		if _, err := e.memo.Put(handle); err != nil {
			return err
		}
		return e.out.writeByte(opMemoize)
	}
	return e.memoizeFresh()
}

func (e *Encoder) encodeBuffer(b Buffer) error {
	return e.encodeBufferSource(b)
}

func (e *Encoder) encodeBufferSource(bs BufferSource) error {
	if !e.config.CollectBuffers {
		if bs.ReadOnly() {
			return e.encodeBytesValue(bs.Bytes(), false)
		}
		return e.encodeByteArray(bs.Bytes())
	}
	if !bs.Contiguous() {
		return encErr(errBadBuffer, "non-contiguous buffer cannot be collected out-of-band")
	}
	e.buffers = append(e.buffers, Buffer{Data: bs.Bytes(), Readonly: bs.ReadOnly()})
	if err := e.out.writeByte(opNextBuffer); err != nil {
		return err
	}
	if bs.ReadOnly() {
		if err := e.out.writeByte(opReadonlyBuffer); err != nil {
			return err
		}
	}
	return e.memoizeFresh()
}

const batchSize = 1000

func (e *Encoder) encodeTuple(t Tuple) error {
	l := len(t)
	if l == 0 {
		if err := e.out.writeByte(opEmptyTuple); err != nil {
			return err
		}
		return e.memoizeFresh()
	}

	var handle uintptr
	var trackable bool
	if e.config.Memoize {
		handle, trackable = reflect.ValueOf([]any(t)).Pointer(), true
		if id, ok := e.memo.Get(handle); ok {
			return e.emitGet(id)
		}
	}

	short := l <= 3
	if !short {
		if err := e.out.writeByte(opMark); err != nil {
			return err
		}
	}
	for _, item := range t {
		if err := e.encodeValue(item); err != nil {
			return err
		}
	}

	if trackable {
		if id, ok := e.memo.Get(handle); ok {
			// A reentrant encode of this same tuple (reached while encoding
			// one of its own elements) already built and memoized it;
			// discard our redundant element pushes and link to that copy.
			if short {
				for i := 0; i < l; i++ {
					if err := e.out.writeByte(opPop); err != nil {
						return err
					}
				}
			} else {
				if err := e.out.writeByte(opPopMark); err != nil {
					return err
				}
			}
			return e.emitGet(id)
		}
	}

	if short {
		op := byte(opTuple1)
		switch l {
		case 2:
			op = opTuple2
		case 3:
			op = opTuple3
		}
		if err := e.out.writeByte(op); err != nil {
			return err
		}
	} else {
		if err := e.out.writeByte(opTuple); err != nil {
			return err
		}
	}

	if !e.config.Memoize {
		return nil
	}
	if trackable {
		if _, err := e.memo.Put(handle); err != nil {
			return err
		}
	} else if _, err := e.memo.PutFresh(); err != nil {
		return err
	}
	return e.out.writeByte(opMemoize)
}

func (e *Encoder) encodeList(items []any) error {
	l := len(items)
	var handle uintptr
	var trackable bool
	if e.config.Memoize && l > 0 {
		handle, trackable = reflect.ValueOf(items).Pointer(), true
		if id, ok := e.memo.Get(handle); ok {
			return e.emitGet(id)
		}
	}

	if err := e.out.writeByte(opEmptyList); err != nil {
		return err
	}
	if e.config.Memoize {
		if trackable {
			if _, err := e.memo.Put(handle); err != nil {
				return err
			}
		} else if _, err := e.memo.PutFresh(); err != nil {
			return err
		}
		if err := e.out.writeByte(opMemoize); err != nil {
			return err
		}
	}

	for start := 0; start < l; start += batchSize {
		end := start + batchSize
		if end > l {
			end = l
		}
		if end-start == 1 {
			if err := e.encodeValue(items[start]); err != nil {
				return err
			}
			if err := e.out.writeByte(opAppend); err != nil {
				return err
			}
			continue
		}
		if err := e.out.writeByte(opMark); err != nil {
			return err
		}
		for i := start; i < end; i++ {
			if err := e.encodeValue(items[i]); err != nil {
				return err
			}
		}
		if err := e.out.writeByte(opAppends); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeMapping(d *Mapping) error {
	var handle uintptr
	var trackable bool
	if e.config.Memoize && d.m != nil {
		handle, trackable = reflect.ValueOf(d).Pointer(), true
		if id, ok := e.memo.Get(handle); ok {
			return e.emitGet(id)
		}
	}

	if err := e.out.writeByte(opEmptyDict); err != nil {
		return err
	}
	if e.config.Memoize {
		if trackable {
			if _, err := e.memo.Put(handle); err != nil {
				return err
			}
		} else if _, err := e.memo.PutFresh(); err != nil {
			return err
		}
		if err := e.out.writeByte(opMemoize); err != nil {
			return err
		}
	}

	type kv struct{ k, v any }
	var pairs []kv
	d.Iter(func(k, v any) bool {
		pairs = append(pairs, kv{k, v})
		return true
	})

	for start := 0; start < len(pairs); start += batchSize {
		end := start + batchSize
		if end > len(pairs) {
			end = len(pairs)
		}
		if end-start == 1 {
			p := pairs[start]
			if err := e.encodeValue(p.k); err != nil {
				return err
			}
			if err := e.encodeValue(p.v); err != nil {
				return err
			}
			if err := e.out.writeByte(opSetitem); err != nil {
				return err
			}
			continue
		}
		if err := e.out.writeByte(opMark); err != nil {
			return err
		}
		for i := start; i < end; i++ {
			if err := e.encodeValue(pairs[i].k); err != nil {
				return err
			}
			if err := e.encodeValue(pairs[i].v); err != nil {
				return err
			}
		}
		if err := e.out.writeByte(opSetitems); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeSet(s *Set) error {
	var handle uintptr
	var trackable bool
	if e.config.Memoize && s.m != nil {
		handle, trackable = reflect.ValueOf(s).Pointer(), true
		if id, ok := e.memo.Get(handle); ok {
			return e.emitGet(id)
		}
	}

	if err := e.out.writeByte(opEmptySet); err != nil {
		return err
	}
	if e.config.Memoize {
		if trackable {
			if _, err := e.memo.Put(handle); err != nil {
				return err
			}
		} else if _, err := e.memo.PutFresh(); err != nil {
			return err
		}
		if err := e.out.writeByte(opMemoize); err != nil {
			return err
		}
	}

	var items []any
	s.Iter(func(v any) bool {
		items = append(items, v)
		return true
	})

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := e.out.writeByte(opMark); err != nil {
			return err
		}
		for i := start; i < end; i++ {
			if err := e.encodeValue(items[i]); err != nil {
				return err
			}
		}
		if err := e.out.writeByte(opAdditems); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeFrozenSet(fs FrozenSet) error {
	if fs.Len() == 0 {
		if err := e.out.writeByte(opMark); err != nil {
			return err
		}
		if err := e.out.writeByte(opFrozenset); err != nil {
			return err
		}
		return e.memoizeFresh()
	}

	var handle uintptr
	var trackable bool
	if e.config.Memoize && fs.m != nil {
		handle, trackable = reflect.ValueOf(fs.m).Pointer(), true
		if id, ok := e.memo.Get(handle); ok {
			return e.emitGet(id)
		}
	}

	if err := e.out.writeByte(opMark); err != nil {
		return err
	}
	var refErr error
	fs.Iter(func(v any) bool {
		if err := e.encodeValue(v); err != nil {
			refErr = err
			return false
		}
		return true
	})
	if refErr != nil {
		return refErr
	}

	if trackable {
		if id, ok := e.memo.Get(handle); ok {
			if err := e.out.writeByte(opPopMark); err != nil {
				return err
			}
			return e.emitGet(id)
		}
	}

	if err := e.out.writeByte(opFrozenset); err != nil {
		return err
	}
	if !e.config.Memoize {
		return nil
	}
	if trackable {
		if _, err := e.memo.Put(handle); err != nil {
			return err
		}
	} else if _, err := e.memo.PutFresh(); err != nil {
		return err
	}
	return e.out.writeByte(opMemoize)
}

func (e *Encoder) encodeDate(d Date) error {
	if err := e.out.writeByte(opDate); err != nil {
		return err
	}
	if err := e.out.write(uint16LE(uint16(d.Year))); err != nil {
		return err
	}
	if err := e.out.writeByte(d.Month); err != nil {
		return err
	}
	if err := e.out.writeByte(d.Day); err != nil {
		return err
	}
	return e.memoizeFresh()
}

func (e *Encoder) writeTimeFields(hour, minute, second uint8, usec uint32, fold bool) error {
	h := hour
	if fold {
		h |= 0x80
	}
	if err := e.out.writeByte(h); err != nil {
		return err
	}
	if err := e.out.writeByte(minute); err != nil {
		return err
	}
	if err := e.out.writeByte(second); err != nil {
		return err
	}
	return e.out.write(uint24LE(usec))
}

func (e *Encoder) encodeTime(t Time) error {
	if t.Zone != nil {
		if err := e.encodeValue(t.Zone); err != nil {
			return err
		}
		if err := e.out.writeByte(opTimeTZ); err != nil {
			return err
		}
		if err := e.writeTimeFields(t.Hour, t.Minute, t.Second, t.Microsecond, t.Fold); err != nil {
			return err
		}
		return e.memoizeFresh()
	}
	if err := e.out.writeByte(opTime); err != nil {
		return err
	}
	if err := e.writeTimeFields(t.Hour, t.Minute, t.Second, t.Microsecond, t.Fold); err != nil {
		return err
	}
	return e.memoizeFresh()
}

func (e *Encoder) encodeDateTime(dt DateTime) error {
	op := byte(opDatetime)
	if dt.Zone != nil {
		op = opDatetimeTZ
		if err := e.encodeValue(dt.Zone); err != nil {
			return err
		}
	}
	if err := e.out.writeByte(op); err != nil {
		return err
	}
	if err := e.out.write(uint16LE(uint16(dt.Year))); err != nil {
		return err
	}
	if err := e.out.writeByte(dt.Month); err != nil {
		return err
	}
	if err := e.out.writeByte(dt.Day); err != nil {
		return err
	}
	if err := e.writeTimeFields(dt.Hour, dt.Minute, dt.Second, dt.Microsecond, dt.Fold); err != nil {
		return err
	}
	return e.memoizeFresh()
}

func (e *Encoder) encodeDuration(d Duration) error {
	if err := e.out.writeByte(opTimedelta); err != nil {
		return err
	}
	if err := e.out.write(int32LE(d.Days)); err != nil {
		return err
	}
	if err := e.out.write(uint24LE(uint32(d.Seconds))); err != nil {
		return err
	}
	if err := e.out.write(uint24LE(uint32(d.Microseconds))); err != nil {
		return err
	}
	return e.memoizeFresh()
}

func (e *Encoder) encodeFixedZone(z FixedZone) error {
	if err := e.out.writeByte(opTimezone); err != nil {
		return err
	}
	secWord, usecWord := encodeTZOffset(z.Offset)
	if err := e.out.write(uint24LE(secWord)); err != nil {
		return err
	}
	if err := e.out.write(uint24LE(usecWord)); err != nil {
		return err
	}
	return e.memoizeFresh()
}

func (e *Encoder) encodeZoneInfo(z ZoneInfo) error {
	if err := e.encodeText(z.Key); err != nil {
		return err
	}
	if err := e.out.writeByte(opZoneinfo); err != nil {
		return err
	}
	return e.memoizeFresh()
}

func (e *Encoder) emitRegistryCode(narrowOp, op16, op32 byte, code uint32) error {
	switch {
	case code < 256:
		if err := e.out.writeByte(narrowOp); err != nil {
			return err
		}
		return e.out.writeByte(byte(code))
	case code < 65536:
		if err := e.out.writeByte(op16); err != nil {
			return err
		}
		return e.out.write(uint16LE(uint16(code)))
	default:
		if err := e.out.writeByte(op32); err != nil {
			return err
		}
		return e.out.write(uint32LE(code))
	}
}

func (e *Encoder) encodeStructInstance(v any, code uint32, desc StructType) error {
	rv := reflect.ValueOf(v)
	var handle uintptr
	var trackable bool
	if e.config.Memoize {
		if h, ok := handleOf(rv); ok {
			handle, trackable = h, true
			if id, ok := e.memo.Get(handle); ok {
				return e.emitGet(id)
			}
		}
	}

	if err := e.emitRegistryCode(opStruct1, opStruct2, opStruct4, code); err != nil {
		return err
	}
	if e.config.Memoize {
		if trackable {
			if _, err := e.memo.Put(handle); err != nil {
				return err
			}
		} else if _, err := e.memo.PutFresh(); err != nil {
			return err
		}
		if err := e.out.writeByte(opMemoize); err != nil {
			return err
		}
	}

	if err := e.out.writeByte(opMark); err != nil {
		return err
	}
	fields := desc.Fields()
	for i := range fields {
		if err := e.encodeValue(desc.Get(v, i)); err != nil {
			return err
		}
	}
	return e.out.writeByte(opBuildStruct)
}

func (e *Encoder) encodeEnumMember(v any, code uint32, desc EnumType) error {
	if desc.IsIntEnum() {
		if err := e.encodeInteger(big.NewInt(desc.Value(v))); err != nil {
			return err
		}
	} else {
		if err := e.encodeText(desc.Name(v)); err != nil {
			return err
		}
	}
	if err := e.emitRegistryCode(opEnum1, opEnum2, opEnum4, code); err != nil {
		return err
	}
	return e.memoizeFresh()
}
