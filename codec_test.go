package quickle

import (
	"encoding/hex"
	"math/big"
	"reflect"
	"testing"
	"time"
)

// roundTripCase is a (name, value) pair fed to the round-trip and
// repeat-encode tests below and to the fuzz corpus seed (fuzz_test.go).
type roundTripCase struct {
	name  string
	value any
}

func encodeDecodeCases() []roundTripCase {
	return []roundTripCase{
		{"none", None{}},
		{"true", true},
		{"false", false},
		{"int-zero", int64(0)},
		{"int-small", int64(1)},
		{"int-neg-one", int64(-1)},
		{"int-binint1-max", int64(255)},
		{"int-binint2", int64(1000)},
		{"int-binint", int64(1 << 30)},
		{"int-wide", new(big.Int).Lsh(big.NewInt(1), 100)},
		{"int-wide-neg", new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 100))},
		{"float", 3.14159},
		{"complex", complex(1.5, -2.25)},
		{"text-ascii", "hi"},
		{"text-utf8", "héllo wörld ☺"},
		{"bytes", Bytes("byte string")},
		{"bytearray", ByteArray("mutable")},
		{"empty-list", []any{}},
		{"list-shared-int", []any{int64(1), int64(1)}},
		{"list-mixed", []any{int64(1), "two", 3.0, None{}}},
		{"empty-tuple", Tuple{}},
		{"tuple1", Tuple{int64(1)}},
		{"tuple2", Tuple{int64(1), int64(2)}},
		{"tuple3", Tuple{int64(1), int64(2), int64(3)}},
		{"tuple-long", Tuple{int64(1), int64(2), int64(3), int64(4), int64(5)}},
		{"frozenset", NewFrozenSet(int64(1), int64(2), "three")},
		{"date", Date{Year: 2024, Month: 3, Day: 14}},
		{"time-naive", Time{Hour: 13, Minute: 30, Second: 5, Microsecond: 123456}},
		{"time-utc", Time{Hour: 0, Minute: 0, Second: 0, Zone: UTC{}}},
		{"datetime-naive", DateTime{Year: 2024, Month: 3, Day: 14, Hour: 9, Minute: 0, Second: 0}},
		{"datetime-utc", DateTime{Year: 2024, Month: 3, Day: 14, Hour: 9, Zone: UTC{}}},
		{"duration", DurationFromGo(90 * time.Minute)},
		{"fixedzone", FixedZone{Offset: -5 * time.Hour}},
		{"zoneinfo", ZoneInfo{Key: "America/New_York"}},
	}
}

func TestRoundTripIdentity(t *testing.T) {
	for _, tt := range encodeDecodeCases() {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewEncoder()
			data, _, err := enc.Encode(tt.value)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			dec := NewDecoder()
			got, err := dec.Decode(data, nil)
			if err != nil {
				t.Fatalf("decode: %v (data=%x)", err, data)
			}
			if !deepEqual(got, tt.value) {
				t.Errorf("round trip mismatch:\nhave %#v\nwant %#v\ndata %x", got, tt.value, data)
			}
		})
	}
}

func TestIdempotentRepeat(t *testing.T) {
	for _, tt := range encodeDecodeCases() {
		enc := NewEncoder()
		d1, _, err := enc.Encode(tt.value)
		if err != nil {
			t.Fatalf("%s: encode: %v", tt.name, err)
		}
		d2, _, err := enc.Encode(tt.value)
		if err != nil {
			t.Fatalf("%s: second encode: %v", tt.name, err)
		}
		if !reflect.DeepEqual(d1, d2) {
			t.Errorf("%s: repeated encode not byte-identical:\n%x\n%x", tt.name, d1, d2)
		}
	}
}

func TestEncoderMemoReset(t *testing.T) {
	enc := NewEncoder()
	shared := []any{int64(1)}
	v := []any{shared, shared}

	d1, _, err := enc.Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	d2, _, err := enc.Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d1, d2) {
		t.Fatalf("memo not reset between calls:\n%x\n%x", d1, d2)
	}
}

// hexBytes decodes a space-separated hex literal, as used by spec.md's
// scenario table (S1-S7).
func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	var clean []byte
	for _, c := range []byte(s) {
		if c == ' ' {
			continue
		}
		clean = append(clean, c)
	}
	b, err := hex.DecodeString(string(clean))
	if err != nil {
		t.Fatalf("bad hex literal %q: %v", s, err)
	}
	return b
}

// TestScenarios exercises spec.md §8's concrete encode/decode table (S1-S7).
func TestScenarios(t *testing.T) {
	t.Run("S1-none", func(t *testing.T) {
		checkEncodeBytes(t, nil, "4e 2e")
		checkDecodeValue(t, "4e 2e", None{})
	})
	t.Run("S2-int-1", func(t *testing.T) {
		checkEncodeBytes(t, int64(1), "4b 01 2e")
		checkDecodeValue(t, "4b 01 2e", int64(1))
	})
	t.Run("S3-int-neg-1", func(t *testing.T) {
		checkEncodeBytes(t, int64(-1), "8a 01 ff 2e")
		checkDecodeValue(t, "8a 01 ff 2e", int64(-1))
	})
	t.Run("S4-empty-list", func(t *testing.T) {
		checkEncodeBytes(t, []any{}, "5d 94 2e")
		checkDecodeValue(t, "5d 94 2e", []any{})
	})
	t.Run("S5-list-shared-int-not-memoized", func(t *testing.T) {
		checkEncodeBytes(t, []any{int64(1), int64(1)}, "5d 94 28 4b 01 4b 01 65 2e")
		checkDecodeValue(t, "5d 94 28 4b 01 4b 01 65 2e", []any{int64(1), int64(1)})
	})
	t.Run("S7-text-hi", func(t *testing.T) {
		checkEncodeBytes(t, "hi", "8c 02 68 69 94 2e")
		checkDecodeValue(t, "8c 02 68 69 94 2e", "hi")
	})
	t.Run("S6-self-referential-list", func(t *testing.T) {
		L := make([]any, 1)
		L[0] = L

		enc := NewEncoder()
		data, _, err := enc.Encode(L)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}

		dec := NewDecoder()
		v, err := dec.Decode(data, nil)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		got, ok := v.([]any)
		if !ok || len(got) != 1 {
			t.Fatalf("decoded %#v, want a 1-element list", v)
		}
		inner, ok := got[0].([]any)
		if !ok {
			t.Fatalf("decoded list[0] is %T, want []any", got[0])
		}
		if reflect.ValueOf(got).Pointer() != reflect.ValueOf(inner).Pointer() {
			t.Fatalf("decoded list is not self-referential: L != L[0]")
		}
	})
}

func checkEncodeBytes(t *testing.T, v any, wantHex string) {
	t.Helper()
	enc := NewEncoder()
	data, _, err := enc.Encode(v)
	if err != nil {
		t.Fatalf("encode(%#v): %v", v, err)
	}
	want := hexBytes(t, wantHex)
	if !reflect.DeepEqual(data, want) {
		t.Errorf("encode(%#v) = %x, want %x", v, data, want)
	}
}

func checkDecodeValue(t *testing.T, dataHex string, want any) {
	t.Helper()
	dec := NewDecoder()
	got, err := dec.Decode(hexBytes(t, dataHex), nil)
	if err != nil {
		t.Fatalf("decode(%s): %v", dataHex, err)
	}
	if !deepEqual(got, want) {
		t.Errorf("decode(%s) = %#v, want %#v", dataHex, got, want)
	}
}

func TestCycleThroughTuple(t *testing.T) {
	// A recursive-through-itself tuple must speculatively emit its elements
	// then roll back with POP/POP_MARK + BINGET once the cycle is detected
	// (spec.md §4.D, §9). Go's Tuple ([]any) can alias itself the same way
	// a plain list does.
	T := make(Tuple, 1)
	T[0] = T

	enc := NewEncoder()
	data, _, err := enc.Encode(T)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	dec := NewDecoder()
	v, err := dec.Decode(data, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := v.(Tuple)
	if !ok || len(got) != 1 {
		t.Fatalf("decoded %#v, want a 1-tuple", v)
	}
	inner, ok := got[0].(Tuple)
	if !ok {
		t.Fatalf("decoded tuple[0] is %T, want Tuple", got[0])
	}
	if reflect.ValueOf([]any(got)).Pointer() != reflect.ValueOf([]any(inner)).Pointer() {
		t.Fatalf("decoded tuple is not self-referential")
	}
}

func TestMemoCorrectness(t *testing.T) {
	// A shared subvalue must be inlined exactly once; subsequent occurrences
	// must be BINGET/LONG_BINGET references (spec.md §8 property 3).
	shared := []any{int64(1), int64(2), int64(3)}
	v := Tuple{shared, shared, shared}

	enc := NewEncoder()
	data, _, err := enc.Encode(v)
	if err != nil {
		t.Fatal(err)
	}

	var gets int
	for _, b := range data {
		if b == opBinget || b == opLongBinget {
			gets++
		}
	}
	if gets != 2 {
		t.Errorf("expected 2 back-references for a 3x-shared value, got %d (data=%x)", gets, data)
	}

	dec := NewDecoder()
	got, err := dec.Decode(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	tup, ok := got.(Tuple)
	if !ok || len(tup) != 3 {
		t.Fatalf("decoded %#v, want a 3-tuple", got)
	}
	p0 := reflect.ValueOf(tup[0]).Pointer()
	for i := 1; i < 3; i++ {
		if reflect.ValueOf(tup[i]).Pointer() != p0 {
			t.Errorf("element %d does not share identity with element 0", i)
		}
	}
}

func TestAtomsNeverMemoized(t *testing.T) {
	v := []any{int64(5), int64(5), true, true, None{}, None{}}
	enc := NewEncoder()
	data, _, err := enc.Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range data {
		if b == opBinget || b == opLongBinget {
			t.Fatalf("atoms must never be memoized, found a back-reference in %x", data)
		}
	}
}

func TestRecursionLimit(t *testing.T) {
	var v any = int64(0)
	for i := 0; i < 10; i++ {
		v = []any{v}
	}
	enc := NewEncoderWithConfig(EncoderConfig{Memoize: true, MaxDepth: 5})
	_, _, err := enc.Encode(v)
	if err == nil {
		t.Fatal("expected recursion-limit error")
	}
	ee, ok := err.(*EncodeError)
	if !ok || ee.Code != errEncodeRecursion {
		t.Fatalf("got %v, want EncodeError{Code: %q}", err, errEncodeRecursion)
	}
}

func TestUnregisteredStructType(t *testing.T) {
	type widget struct{ X int }
	_, _, err := NewEncoder().Encode(widget{X: 1})
	if err == nil {
		t.Fatal("expected unknown-type error for an unregistered struct")
	}
	ee, ok := err.(*EncodeError)
	if !ok || ee.Code != errUnknownType {
		t.Fatalf("got %v, want EncodeError{Code: %q}", err, errUnknownType)
	}
}

func TestUnsupportedTypeNonStruct(t *testing.T) {
	_, _, err := NewEncoder().Encode(make(chan int))
	if err == nil {
		t.Fatal("expected unsupported-type error for a channel value")
	}
	ee, ok := err.(*EncodeError)
	if !ok || ee.Code != errUnsupportedType {
		t.Fatalf("got %v, want EncodeError{Code: %q}", err, errUnsupportedType)
	}
}

func TestDecodeRecursionLimit(t *testing.T) {
	// Nested single-element lists never emit MARK (encodeList's one-item
	// batch uses bare APPEND), so use 2-element lists to actually exercise
	// the mark-nesting depth the decoder's recursion guard tracks.
	enc := NewEncoder()
	var v any = int64(0)
	for i := 0; i < 10; i++ {
		v = []any{v, int64(i)}
	}
	data, _, err := enc.Encode(v)
	if err != nil {
		t.Fatal(err)
	}

	dec := NewDecoderWithConfig(DecoderConfig{MaxDepth: 5})
	_, err = dec.Decode(data, nil)
	if err == nil {
		t.Fatal("expected recursion-limit error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Code != errDecodeRecursion {
		t.Fatalf("got %v, want DecodeError{Code: %q}", err, errDecodeRecursion)
	}
}

func TestBufferUnderflowAfterExhaustion(t *testing.T) {
	data := []byte{opNextBuffer, opNextBuffer, opStop}
	_, err := NewDecoder().Decode(data, []Buffer{{Data: []byte("one")}})
	if err == nil {
		t.Fatal("expected buffer-underflow error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Code != errBufferUnderflow {
		t.Fatalf("got %v, want DecodeError{Code: %q}", err, errBufferUnderflow)
	}
}

func TestDecodeInvalidOpcode(t *testing.T) {
	_, err := NewDecoder().Decode([]byte{0xff}, nil)
	if err == nil {
		t.Fatal("expected invalid-opcode error")
	}
	oe, ok := err.(*InvalidOpcodeError)
	if !ok || oe.Op != 0xff {
		t.Fatalf("got %v, want InvalidOpcodeError{Op: 0xff}", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, err := NewDecoder().Decode([]byte{opBinunicode, 0xff, 0xff, 0xff, 0xff}, nil)
	if err == nil {
		t.Fatal("expected truncated error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Code != errTruncated {
		t.Fatalf("got %v, want DecodeError{Code: %q}", err, errTruncated)
	}
}

func TestDecodeStackUnderflow(t *testing.T) {
	_, err := NewDecoder().Decode([]byte{opAppend, opStop}, nil)
	if err == nil {
		t.Fatal("expected stack-underflow error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Code != errStackUnderflow {
		t.Fatalf("got %v, want DecodeError{Code: %q}", err, errStackUnderflow)
	}
}

func TestDecodeMissingMemo(t *testing.T) {
	_, err := NewDecoder().Decode([]byte{opBinget, 7, opStop}, nil)
	if err == nil {
		t.Fatal("expected missing-memo error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Code != errMissingMemo {
		t.Fatalf("got %v, want DecodeError{Code: %q}", err, errMissingMemo)
	}
}

func TestDecodeAppendTypeMismatch(t *testing.T) {
	// EMPTY_TUPLE then APPEND: APPEND requires a mutable list below it.
	_, err := NewDecoder().Decode([]byte{opEmptyTuple, opNone, opAppend, opStop}, nil)
	if err == nil {
		t.Fatal("expected type-mismatch error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Code != errTypeMismatch {
		t.Fatalf("got %v, want DecodeError{Code: %q}", err, errTypeMismatch)
	}
}

func TestProtoAndFrameAreSkipped(t *testing.T) {
	data := []byte{opProto, 5, opFrame, 0, 0, 0, 0, 0, 0, 0, 0, opNone, opStop}
	v, err := NewDecoder().Decode(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(None); !ok {
		t.Fatalf("got %#v, want None", v)
	}
}

func TestOutOfBandBuffer(t *testing.T) {
	enc := NewEncoderWithConfig(EncoderConfig{Memoize: true, CollectBuffers: true})
	data, bufs, err := enc.Encode(Buffer{Data: []byte("side channel"), Readonly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(bufs) != 1 || string(bufs[0].Data) != "side channel" {
		t.Fatalf("expected one collected buffer, got %#v", bufs)
	}

	dec := NewDecoder()
	v, err := dec.Decode(data, bufs)
	if err != nil {
		t.Fatal(err)
	}
	buf, ok := v.(Buffer)
	if !ok || string(buf.Data) != "side channel" || !buf.Readonly {
		t.Fatalf("got %#v, want readonly Buffer(side channel)", v)
	}
}

func TestNextBufferWithoutIteratorFails(t *testing.T) {
	_, err := NewDecoder().Decode([]byte{opNextBuffer, opStop}, nil)
	if err == nil {
		t.Fatal("expected missing-buffer error")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Code != errMissingBuffer {
		t.Fatalf("got %v, want DecodeError{Code: %q}", err, errMissingBuffer)
	}
}

func TestMappingRoundTrip(t *testing.T) {
	m := NewMapping()
	m.Set("a", int64(1))
	m.Set(int64(2), "two")
	m.Set(3.0, Tuple{int64(1), int64(2)})

	enc := NewEncoder()
	data, _, err := enc.Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	dec := NewDecoder()
	got, err := dec.Decode(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	gm, ok := got.(*Mapping)
	if !ok {
		t.Fatalf("got %T, want *Mapping", got)
	}
	if !deepEqual(gm, m) {
		t.Errorf("round trip mismatch:\nhave %#v\nwant %#v", gm, m)
	}
}

func TestSetRoundTrip(t *testing.T) {
	s := NewSet()
	s.Add(int64(1))
	s.Add("two")
	s.Add(3.0)

	enc := NewEncoder()
	data, _, err := enc.Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	dec := NewDecoder()
	got, err := dec.Decode(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	gs, ok := got.(*Set)
	if !ok {
		t.Fatalf("got %T, want *Set", got)
	}
	if !deepEqual(gs, s) {
		t.Errorf("round trip mismatch:\nhave %#v\nwant %#v", gs, s)
	}
}

func TestCrossWidthNumericMapKey(t *testing.T) {
	// spec.md's value taxonomy requires Python-style cross-width numeric
	// equality for container keys: 1 == 1.0 == big.Int(1).
	m := NewMapping()
	m.Set(int64(1), "narrow")
	if v, ok := m.Get(1.0); !ok || v != "narrow" {
		t.Errorf("Get(1.0) = (%v, %v), want (\"narrow\", true)", v, ok)
	}
	if v, ok := m.Get(big.NewInt(1)); !ok || v != "narrow" {
		t.Errorf("Get(big.NewInt(1)) = (%v, %v), want (\"narrow\", true)", v, ok)
	}
}

func TestBytesAndStringNeverEqualAsKeys(t *testing.T) {
	m := NewMapping()
	m.Set(Bytes("x"), "bytes-value")
	if _, ok := m.Get("x"); ok {
		t.Errorf("string key matched a Bytes key; they must never compare equal")
	}
}

// TestFrozenSetAsMappingKey exercises a frozen set (spec.md §3 #14) used as
// a Mapping key / Set element, which must compare and hash by contents
// rather than panic over FrozenSet's unexported backing field.
func TestFrozenSetAsMappingKey(t *testing.T) {
	k1 := NewFrozenSet(int64(1), int64(2))
	k2 := NewFrozenSet(int64(2), int64(1)) // same contents, different insertion order

	m := NewMapping()
	m.Set(k1, "value")
	if v, ok := m.Get(k2); !ok || v != "value" {
		t.Errorf("Get(k2) = (%v, %v), want (\"value\", true)", v, ok)
	}

	s := NewSet()
	s.Add(k1)
	if !s.Has(k2) {
		t.Errorf("Set.Has(k2) = false, want true for an equal-contents FrozenSet")
	}
}
