package quickle

import (
	"math"
	"math/big"
	"unicode/utf8"
)

// DecoderConfig configures a Decoder, mirroring the teacher's
// DecoderConfig/NewDecoderWithConfig pattern.
type DecoderConfig struct {
	// Registry resolves struct/enum registry codes to descriptors. Required
	// only if the stream contains STRUCT*/ENUM* opcodes.
	Registry Registry
	// MaxDepth bounds recursion through nested containers; 0 selects 1000.
	MaxDepth int
}

// Decoder parses the wire format back into values. A Decoder consumes a
// complete, already-assembled byte slice: there is no support for streaming
// decode over partial buffers.
type Decoder struct {
	config DecoderConfig
	stack  valueStack
	marks  markStack
	memo   decoderMemo
	r      byteReader
	depth  int
	bufs   *BufferIterator
}

// resetThreshold is the per-arena (stack, marks, memo) reset threshold from
// spec.md §5: "if any allocation exceeded its reset threshold (stack, memo,
// marks - each with an independent threshold, default 64), the oversize
// structure is released so the next call starts from baseline."
const resetThreshold = 64

// NewDecoder returns a Decoder with the default recursion limit.
func NewDecoder() *Decoder { return NewDecoderWithConfig(DecoderConfig{}) }

// NewDecoderWithConfig returns a Decoder configured per cfg.
func NewDecoderWithConfig(cfg DecoderConfig) *Decoder {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 1000
	}
	return &Decoder{config: cfg}
}

// Decode parses data (plus any out-of-band buffers referenced by
// NEXT_BUFFER) and returns the single resulting value.
func (d *Decoder) Decode(data []byte, buffers []Buffer) (any, error) {
	d.stack.resetIfOversize(resetThreshold)
	d.marks.resetIfOversize(resetThreshold)
	d.memo.Reset(resetThreshold)
	d.r = byteReader{buf: data}
	d.depth = 0
	d.bufs = NewBufferIterator(buffers)

	for {
		op, err := d.r.readByte()
		if err != nil {
			return nil, err
		}
		if op == opStop {
			return d.stack.pop(0)
		}
		if err := d.step(op); err != nil {
			return nil, err
		}
	}
}

func (d *Decoder) fence() int { return d.marks.fence() }

// popMark pops the mark stack and unwinds the matching depth increment from
// opMark, so the decoder's recursion guard (spec.md §5) tracks live MARK
// nesting rather than every MARK ever seen.
func (d *Decoder) popMark() (int, error) {
	pos, err := d.marks.pop()
	if err != nil {
		return 0, err
	}
	d.depth--
	return pos, nil
}

func (d *Decoder) memoizeTop() error {
	v, err := d.stack.top(d.fence())
	if err != nil {
		return err
	}
	d.memo.Append(v)
	return nil
}

func (d *Decoder) step(op byte) error {
	switch op {
	case opProto:
		_, err := d.r.readByte()
		return err
	case opFrame:
		_, err := d.r.readN(8)
		return err

	case opMark:
		d.depth++
		if d.depth > d.config.MaxDepth {
			return decErr(errDecodeRecursion, "exceeded max depth %d", d.config.MaxDepth)
		}
		d.marks.push(d.stack.len())
		return nil
	case opPop:
		_, err := d.stack.pop(d.fence())
		return err
	case opPopMark:
		pos, err := d.popMark()
		if err != nil {
			return err
		}
		d.stack.truncate(pos)
		return nil

	case opNone:
		d.stack.push(None{})
		return nil
	case opNewtrue:
		d.stack.push(true)
		return nil
	case opNewfalse:
		d.stack.push(false)
		return nil

	case opBinint1:
		b, err := d.r.readByte()
		if err != nil {
			return err
		}
		d.stack.push(int64(b))
		return nil
	case opBinint2:
		b, err := d.r.readN(2)
		if err != nil {
			return err
		}
		d.stack.push(int64(getUint16LE(b)))
		return nil
	case opBinint:
		b, err := d.r.readN(4)
		if err != nil {
			return err
		}
		d.stack.push(int64(getInt32LE(b)))
		return nil
	case opLong1:
		n, err := d.r.readByte()
		if err != nil {
			return err
		}
		b, err := d.r.readN(int(n))
		if err != nil {
			return err
		}
		d.stack.push(narrowBigInt(bigIntFromLE(b)))
		return nil
	case opLong4:
		nb, err := d.r.readN(4)
		if err != nil {
			return err
		}
		n := getUint32LE(nb)
		if n > math.MaxInt32 {
			return decErr(errMalformed, "LONG4 length field %d is negative", int32(n))
		}
		b, err := d.r.readN(int(n))
		if err != nil {
			return err
		}
		d.stack.push(narrowBigInt(bigIntFromLE(b)))
		return nil

	case opBinfloat:
		b, err := d.r.readN(8)
		if err != nil {
			return err
		}
		d.stack.push(float64FromBE(b))
		return nil
	case opComplex:
		b, err := d.r.readN(16)
		if err != nil {
			return err
		}
		d.stack.push(complex(float64FromBE(b[:8]), float64FromBE(b[8:])))
		return nil

	case opShortBinunicode:
		return d.loadText(func() (uint64, error) { b, err := d.r.readByte(); return uint64(b), err })
	case opBinunicode:
		return d.loadText(func() (uint64, error) { b, err := d.r.readN(4); if err != nil { return 0, err }; return uint64(getUint32LE(b)), nil })
	case opBinunicode8:
		return d.loadText(func() (uint64, error) { b, err := d.r.readN(8); if err != nil { return 0, err }; return getUint64LE(b), nil })

	case opShortBinbytes:
		return d.loadBytes(func() (uint64, error) { b, err := d.r.readByte(); return uint64(b), err })
	case opBinbytes:
		return d.loadBytes(func() (uint64, error) { b, err := d.r.readN(4); if err != nil { return 0, err }; return uint64(getUint32LE(b)), nil })
	case opBinbytes8:
		return d.loadBytes(func() (uint64, error) { b, err := d.r.readN(8); if err != nil { return 0, err }; return getUint64LE(b), nil })
	case opByteArray8:
		n, err := d.r.readN(8)
		if err != nil {
			return err
		}
		return d.loadByteArray(getUint64LE(n))

	case opNextBuffer:
		buf, ok := d.bufs.next()
		if !ok {
			if d.bufs.supplied {
				return decErr(errBufferUnderflow, "NEXT_BUFFER: out-of-band buffer iterator exhausted")
			}
			return decErr(errMissingBuffer, "NEXT_BUFFER with no out-of-band buffer iterator supplied")
		}
		d.stack.push(buf)
		return nil
	case opReadonlyBuffer:
		top, err := d.stack.pop(d.fence())
		if err != nil {
			return err
		}
		buf, ok := top.(Buffer)
		if !ok {
			return decErr(errTypeMismatch, "READONLY_BUFFER applied to non-buffer %T", top)
		}
		buf.Readonly = true
		d.stack.push(buf)
		return nil

	case opEmptyTuple:
		d.stack.push(Tuple{})
		return nil
	case opTuple1:
		return d.loadTupleN(1)
	case opTuple2:
		return d.loadTupleN(2)
	case opTuple3:
		return d.loadTupleN(3)
	case opTuple:
		pos, err := d.popMark()
		if err != nil {
			return err
		}
		items := d.stack.sliceFrom(pos)
		t := make(Tuple, len(items))
		copy(t, items)
		d.stack.truncate(pos)
		d.stack.push(t)
		return nil

	case opEmptyList:
		d.stack.push([]any{})
		return nil
	case opAppend:
		return d.loadAppend()
	case opAppends:
		return d.loadAppends()

	case opEmptyDict:
		d.stack.push(NewMapping())
		return nil
	case opSetitem:
		return d.loadSetitem()
	case opSetitems:
		return d.loadSetitems()

	case opEmptySet:
		d.stack.push(NewSet())
		return nil
	case opAdditems:
		return d.loadAdditems()
	case opFrozenset:
		pos, err := d.popMark()
		if err != nil {
			return err
		}
		items := d.stack.sliceFrom(pos)
		fs := NewFrozenSet(items...)
		d.stack.truncate(pos)
		d.stack.push(fs)
		return nil

	case opBinget:
		idx, err := d.r.readByte()
		if err != nil {
			return err
		}
		return d.pushMemo(int(idx))
	case opLongBinget:
		b, err := d.r.readN(4)
		if err != nil {
			return err
		}
		return d.pushMemo(int(getUint32LE(b)))
	case opMemoize:
		return d.memoizeTop()

	case opBuildStruct:
		return d.loadBuildStruct()
	case opStruct1:
		return d.loadStructHeader(func() (uint32, error) { b, err := d.r.readByte(); return uint32(b), err })
	case opStruct2:
		return d.loadStructHeader(func() (uint32, error) { b, err := d.r.readN(2); if err != nil { return 0, err }; return uint32(getUint16LE(b)), nil })
	case opStruct4:
		return d.loadStructHeader(func() (uint32, error) { b, err := d.r.readN(4); if err != nil { return 0, err }; return getUint32LE(b), nil })

	case opEnum1:
		return d.loadEnum(func() (uint32, error) { b, err := d.r.readByte(); return uint32(b), err })
	case opEnum2:
		return d.loadEnum(func() (uint32, error) { b, err := d.r.readN(2); if err != nil { return 0, err }; return uint32(getUint16LE(b)), nil })
	case opEnum4:
		return d.loadEnum(func() (uint32, error) { b, err := d.r.readN(4); if err != nil { return 0, err }; return getUint32LE(b), nil })

	case opDate:
		return d.loadDate()
	case opTime:
		return d.loadTime(false)
	case opTimeTZ:
		return d.loadTime(true)
	case opDatetime:
		return d.loadDateTime(false)
	case opDatetimeTZ:
		return d.loadDateTime(true)
	case opTimedelta:
		return d.loadDuration()
	case opTimezoneUTC:
		d.stack.push(UTC{})
		return nil
	case opTimezone:
		return d.loadTimezone()
	case opZoneinfo:
		return d.loadZoneinfo()
	}

	return &InvalidOpcodeError{Op: op, Pos: d.r.pos - 1}
}

// narrowBigInt demotes a *big.Int that fits in an int64 back to int64, so
// decode never hands back a wide value for a magnitude that fits narrow
// (the encoder never produces LONG1/LONG4 for values BININT1/2/J would
// cover, but a crafted stream legally can per the opcode's own schema; we
// still normalize on the way out to keep the in-memory representation
// consistent with what Encode would have produced).
func narrowBigInt(b *big.Int) any {
	if b.IsInt64() {
		return b.Int64()
	}
	return b
}

func (d *Decoder) loadText(readLen func() (uint64, error)) error {
	n, err := readLen()
	if err != nil {
		return err
	}
	if n > math.MaxInt {
		return decErr(errDecodeOverflow, "text length %d exceeds addressable size", n)
	}
	b, err := d.r.readN(int(n))
	if err != nil {
		return err
	}
	if !utf8.Valid(b) {
		return decErr(errMalformed, "text value is not valid utf-8")
	}
	d.stack.push(string(b))
	return nil
}

func (d *Decoder) loadBytes(readLen func() (uint64, error)) error {
	n, err := readLen()
	if err != nil {
		return err
	}
	if n > math.MaxInt {
		return decErr(errDecodeOverflow, "bytes length %d exceeds addressable size", n)
	}
	b, err := d.r.readN(int(n))
	if err != nil {
		return err
	}
	out := make([]byte, len(b))
	copy(out, b)
	d.stack.push(Bytes(out))
	return nil
}

func (d *Decoder) loadByteArray(n uint64) error {
	if n > math.MaxInt {
		return decErr(errDecodeOverflow, "bytearray length %d exceeds addressable size", n)
	}
	b, err := d.r.readN(int(n))
	if err != nil {
		return err
	}
	out := make([]byte, len(b))
	copy(out, b)
	d.stack.push(ByteArray(out))
	return nil
}

func (d *Decoder) loadTupleN(n int) error {
	if d.stack.len() < n {
		return decErr(errStackUnderflow, "TUPLE%d needs %d values", n, n)
	}
	items := d.stack.sliceFrom(d.stack.len() - n)
	t := make(Tuple, n)
	copy(t, items)
	d.stack.truncate(d.stack.len() - n)
	d.stack.push(t)
	return nil
}

func (d *Decoder) loadAppend() error {
	item, err := d.stack.pop(d.fence())
	if err != nil {
		return err
	}
	return d.appendToList(item)
}

// appendToList mutates the list already on top of the stack in place, since
// ordered sequences are represented directly as []any rather than a boxed
// pointer type.
func (d *Decoder) appendToList(item any) error {
	pos := d.stack.len() - 1
	if pos < d.fence() {
		return decErr(errStackUnderflow, "append below fence")
	}
	lst, ok := d.stack.items[pos].([]any)
	if !ok {
		return decErr(errTypeMismatch, "APPEND applied to %T", d.stack.items[pos])
	}
	d.stack.items[pos] = append(lst, item)
	return nil
}

func (d *Decoder) loadAppends() error {
	pos, err := d.popMark()
	if err != nil {
		return err
	}
	items := d.stack.sliceFrom(pos)
	extra := make([]any, len(items))
	copy(extra, items)
	d.stack.truncate(pos)
	listPos := d.stack.len() - 1
	if listPos < d.fence() {
		return decErr(errStackUnderflow, "appends below fence")
	}
	lst, ok := d.stack.items[listPos].([]any)
	if !ok {
		return decErr(errTypeMismatch, "APPENDS applied to %T", d.stack.items[listPos])
	}
	d.stack.items[listPos] = append(lst, extra...)
	return nil
}

func (d *Decoder) loadSetitem() error {
	value, err := d.stack.pop(d.fence())
	if err != nil {
		return err
	}
	key, err := d.stack.pop(d.fence())
	if err != nil {
		return err
	}
	top, err := d.stack.top(d.fence())
	if err != nil {
		return err
	}
	m, ok := top.(*Mapping)
	if !ok {
		return decErr(errTypeMismatch, "SETITEM applied to %T", top)
	}
	m.Set(key, value)
	return nil
}

func (d *Decoder) loadSetitems() error {
	pos, err := d.popMark()
	if err != nil {
		return err
	}
	items := d.stack.sliceFrom(pos)
	if len(items)%2 != 0 {
		return decErr(errMalformed, "SETITEMS with odd number of values")
	}
	pairs := make([]any, len(items))
	copy(pairs, items)
	d.stack.truncate(pos)
	mapPos := d.stack.len() - 1
	if mapPos < d.fence() {
		return decErr(errStackUnderflow, "setitems below fence")
	}
	m, ok := d.stack.items[mapPos].(*Mapping)
	if !ok {
		return decErr(errTypeMismatch, "SETITEMS applied to %T", d.stack.items[mapPos])
	}
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return nil
}

func (d *Decoder) loadAdditems() error {
	pos, err := d.popMark()
	if err != nil {
		return err
	}
	items := d.stack.sliceFrom(pos)
	extra := make([]any, len(items))
	copy(extra, items)
	d.stack.truncate(pos)
	setPos := d.stack.len() - 1
	if setPos < d.fence() {
		return decErr(errStackUnderflow, "additems below fence")
	}
	s, ok := d.stack.items[setPos].(*Set)
	if !ok {
		return decErr(errTypeMismatch, "ADDITEMS applied to %T", d.stack.items[setPos])
	}
	for _, v := range extra {
		s.Add(v)
	}
	return nil
}

func (d *Decoder) pushMemo(idx int) error {
	v, ok := d.memo.Get(idx)
	if !ok {
		return decErr(errMissingMemo, "no memo entry at index %d", idx)
	}
	d.stack.push(v)
	return nil
}

func (d *Decoder) loadStructHeader(readCode func() (uint32, error)) error {
	code, err := readCode()
	if err != nil {
		return err
	}
	if d.config.Registry == nil {
		return decErr(errUnknownRegistry, "no registry configured, struct code %d", code)
	}
	desc, ok := d.config.Registry.StructByCode(code)
	if !ok {
		return decErr(errUnknownRegistry, "unknown struct registry code %d", code)
	}
	d.stack.push(desc.New())
	return nil
}

func (d *Decoder) loadBuildStruct() error {
	pos, err := d.popMark()
	if err != nil {
		return err
	}
	fields := d.stack.sliceFrom(pos)
	values := make([]any, len(fields))
	copy(values, fields)
	d.stack.truncate(pos)

	objPos := d.stack.len() - 1
	if objPos < d.fence() {
		return decErr(errStackUnderflow, "BUILD_STRUCT below fence")
	}
	obj := d.stack.items[objPos]

	if d.config.Registry == nil {
		return decErr(errUnknownRegistry, "no registry configured for BUILD_STRUCT")
	}
	return d.fillStruct(obj, values)
}

func (d *Decoder) fillStruct(obj any, values []any) error {
	desc, ok := d.structDescFor(obj)
	if !ok {
		return decErr(errTypeMismatch, "BUILD_STRUCT: %T is not a registered struct instance", obj)
	}
	fields := desc.Fields()
	defaults := desc.Defaults()
	n := len(fields)
	if len(values) > n {
		return decErr(errMalformed, "BUILD_STRUCT supplied %d values for %d fields", len(values), n)
	}
	defaultStart := n - len(defaults)
	for i := 0; i < n; i++ {
		switch {
		case i < len(values):
			desc.Set(obj, i, values[i])
		case i >= defaultStart:
			desc.Set(obj, i, defaults[i-defaultStart])
		default:
			return decErr(errMissingField, "BUILD_STRUCT missing required field %q", fields[i])
		}
	}
	return nil
}

// structDescFor looks up the descriptor for a just-allocated instance by its
// reflect.Type, mirroring the inverse lookup the encoder does via
// Registry.CodeOfStruct.
func (d *Decoder) structDescFor(obj any) (StructType, bool) {
	if d.config.Registry == nil {
		return nil, false
	}
	_, desc, ok := d.config.Registry.CodeOfStruct(reflectValueOf(obj).Type())
	return desc, ok
}

func (d *Decoder) loadEnum(readCode func() (uint32, error)) error {
	code, err := readCode()
	if err != nil {
		return err
	}
	value, err := d.stack.pop(d.fence())
	if err != nil {
		return err
	}
	if d.config.Registry == nil {
		return decErr(errUnknownRegistry, "no registry configured, enum code %d", code)
	}
	desc, ok := d.config.Registry.EnumByCode(code)
	if !ok {
		return decErr(errUnknownRegistry, "unknown enum registry code %d", code)
	}
	var member any
	if desc.IsIntEnum() {
		iv, err := AsInt64(value)
		if err != nil {
			return decErr(errTypeMismatch, "ENUM value %v is not an integer", value)
		}
		member, ok = desc.ByValue(iv)
	} else {
		name, isStr := value.(string)
		if !isStr {
			return decErr(errTypeMismatch, "ENUM name %v is not a string", value)
		}
		member, ok = desc.ByName(name)
	}
	if !ok {
		return decErr(errMalformed, "enum value %v has no matching member", value)
	}
	d.stack.push(member)
	return nil
}

func (d *Decoder) loadDate() error {
	yb, err := d.r.readN(2)
	if err != nil {
		return err
	}
	month, err := d.r.readByte()
	if err != nil {
		return err
	}
	day, err := d.r.readByte()
	if err != nil {
		return err
	}
	d.stack.push(Date{Year: int16(getUint16LE(yb)), Month: month, Day: day})
	return nil
}

func (d *Decoder) readTimeFields() (hour, minute, second uint8, usec uint32, fold bool, err error) {
	hb, err := d.r.readByte()
	if err != nil {
		return
	}
	fold = hb&0x80 != 0
	hour = hb &^ 0x80
	minute, err = d.r.readByte()
	if err != nil {
		return
	}
	second, err = d.r.readByte()
	if err != nil {
		return
	}
	ub, err := d.r.readN(3)
	if err != nil {
		return
	}
	usec = getUint24LE(ub)
	return
}

func (d *Decoder) loadTime(withZone bool) error {
	hour, minute, second, usec, fold, err := d.readTimeFields()
	if err != nil {
		return err
	}
	var zone TZInfo
	if withZone {
		z, err := d.stack.pop(d.fence())
		if err != nil {
			return err
		}
		zi, ok := z.(TZInfo)
		if !ok {
			return decErr(errTypeMismatch, "TIME_TZ tzinfo is %T", z)
		}
		zone = zi
	}
	d.stack.push(Time{Hour: hour, Minute: minute, Second: second, Microsecond: usec, Fold: fold, Zone: zone})
	return nil
}

func (d *Decoder) loadDateTime(withZone bool) error {
	yb, err := d.r.readN(2)
	if err != nil {
		return err
	}
	month, err := d.r.readByte()
	if err != nil {
		return err
	}
	day, err := d.r.readByte()
	if err != nil {
		return err
	}
	hour, minute, second, usec, fold, err := d.readTimeFields()
	if err != nil {
		return err
	}
	var zone TZInfo
	if withZone {
		z, err := d.stack.pop(d.fence())
		if err != nil {
			return err
		}
		zi, ok := z.(TZInfo)
		if !ok {
			return decErr(errTypeMismatch, "DATETIME_TZ tzinfo is %T", z)
		}
		zone = zi
	}
	d.stack.push(DateTime{
		Year: int16(getUint16LE(yb)), Month: month, Day: day,
		Hour: hour, Minute: minute, Second: second, Microsecond: usec, Fold: fold,
		Zone: zone,
	})
	return nil
}

func (d *Decoder) loadDuration() error {
	db, err := d.r.readN(4)
	if err != nil {
		return err
	}
	sb, err := d.r.readN(3)
	if err != nil {
		return err
	}
	ub, err := d.r.readN(3)
	if err != nil {
		return err
	}
	d.stack.push(Duration{
		Days:         getInt32LE(db),
		Seconds:      int32(getUint24LE(sb)),
		Microseconds: int32(getUint24LE(ub)),
	})
	return nil
}

func (d *Decoder) loadTimezone() error {
	sb, err := d.r.readN(3)
	if err != nil {
		return err
	}
	ub, err := d.r.readN(3)
	if err != nil {
		return err
	}
	off := decodeTZOffset(getUint24LE(sb), getUint24LE(ub))
	d.stack.push(FixedZone{Offset: off})
	return nil
}

func (d *Decoder) loadZoneinfo() error {
	v, err := d.stack.pop(d.fence())
	if err != nil {
		return err
	}
	key, ok := v.(string)
	if !ok {
		return decErr(errTypeMismatch, "ZONEINFO key is %T", v)
	}
	d.stack.push(ZoneInfo{Key: key})
	return nil
}
