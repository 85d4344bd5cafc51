package quickle

// Opcodes. The core set is pickle-protocol-5 compatible; the extension block
// (0xb0-0xc0) is specific to this codec's closed taxonomy: structs, enums,
// complex numbers and the date/time family.
const (
	opMark           = '(' // push MARK
	opStop           = '.' // stop; value below is the result
	opPop            = '0' // discard the top of stack
	opPopMark        = '1' // discard everything above the top mark
	opBinint         = 'J' // push int32 LE
	opBinint1        = 'K' // push uint8
	opBinint2        = 'M' // push uint16 LE
	opNone           = 'N' // push None
	opBinunicode     = 'X' // push str; uint32 LE len, len bytes utf-8
	opAppend         = 'a' // list.append(item)
	opAppends        = 'e' // list.extend(items above mark)
	opEmptyDict      = '}' // push empty dict
	opEmptyList      = ']' // push empty list
	opEmptyTuple     = ')' // push empty tuple
	opSetitem        = 's' // dict[key] = value
	opSetitems       = 'u' // dict.update(pairs above mark)
	opTuple          = 't' // pop mark, push tuple of popped items
	opBinfloat       = 'G' // push float64 big-endian
	opBinget         = 'h' // push memo[uint8]
	opLongBinget     = 'j' // push memo[uint32 LE]
	opTuple1         = '\x85'
	opTuple2         = '\x86'
	opTuple3         = '\x87'
	opNewtrue        = '\x88'
	opNewfalse       = '\x89'
	opLong1          = '\x8a' // uint8 n, n bytes little-endian two's complement
	opLong4          = '\x8b' // uint32 LE n, n bytes little-endian two's complement
	opBinbytes       = 'B'    // uint32 LE len, len bytes
	opShortBinbytes  = 'C'    // uint8 len, len bytes
	opShortBinunicode = '\x8c' // uint8 len, len bytes utf-8
	opBinunicode8    = '\x8d' // uint64 LE len, len bytes utf-8
	opBinbytes8      = '\x8e' // uint64 LE len, len bytes
	opEmptySet       = '\x8f'
	opAdditems       = '\x90' // set.update(items above mark)
	opFrozenset      = '\x91' // pop mark, push frozenset of popped items
	opMemoize        = '\x94' // append top of stack to memo
	opByteArray8     = '\x96' // uint64 LE len, len bytes, mutable
	opNextBuffer     = '\x97' // push next out-of-band buffer
	opReadonlyBuffer = '\x98' // mark top-of-stack buffer readonly
	opProto          = '\x80' // uint8 protocol, ignored
	opFrame          = '\x95' // uint64 LE frame length, ignored

	// Extension opcodes (0xb0-0xc0): struct/enum registry, complex, date/time.
	opBuildStruct  = '\xb0' // pop mark, fill fields into struct instance below
	opStruct1      = '\xb1' // uint8 registry code; push uninitialized struct instance
	opStruct2      = '\xb2' // uint16 LE registry code
	opStruct4      = '\xb3' // uint32 LE registry code
	opEnum1        = '\xb4' // uint8 registry code; pop value, push enum member
	opEnum2        = '\xb5' // uint16 LE registry code
	opEnum4        = '\xb6' // uint32 LE registry code
	opComplex      = '\xb7' // two float64 big-endian (real, imag)
	opTimedelta    = '\xb8' // int32 LE days, int24 LE seconds, int24 LE microseconds
	opDate         = '\xb9' // uint16 LE year, uint8 month, uint8 day
	opTime         = '\xba' // uint8 hour(bit7=fold), uint8 minute, uint8 second, uint24 LE microsecond
	opDatetime     = '\xbb' // date fields + time fields, naive
	opTimeTZ       = '\xbc' // opTime fields, then consumes a tzinfo below
	opDatetimeTZ   = '\xbd' // opDatetime fields, then consumes a tzinfo below
	opTimezoneUTC  = '\xbe' // push the UTC singleton
	opTimezone     = '\xbf' // uint24 LE seconds (bit23 set => negative day), uint24 LE microseconds
	opZoneinfo     = '\xc0' // pop text key, push a named timezone
)

// highestOpcode is the numerically highest opcode in the alphabet. The
// decoder does not consult it: any byte without a case in Decoder.step is
// reported as an InvalidOpcodeError.
const highestOpcode = opZoneinfo
