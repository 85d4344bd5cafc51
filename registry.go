package quickle

import "reflect"

// StructType is the external-collaborator contract for a registered record
// type (component J). New/Get/Set let the codec build and walk an instance
// without knowing its concrete Go type; Fields/Defaults describe its shape.
type StructType interface {
	// Fields returns the ordered field names. Its length sets how many
	// fields the encoder emits and BUILD_STRUCT's default-filling rule; the
	// names appear in error messages.
	Fields() []string
	// Defaults returns default values aligned to the tail of Fields(): a
	// struct with 5 fields and 2 defaults takes its defaults for fields 3
	// and 4 when the wire form supplies fewer values than Fields().
	Defaults() []any
	// New allocates a new, field-uninitialized instance.
	New() any
	// Set assigns the value at field index i on an instance from New.
	Set(obj any, i int, v any)
	// Get reads the value at field index i from an instance.
	Get(obj any, i int) any
}

// EnumType is the external-collaborator contract for a registered enum
// type (component J).
type EnumType interface {
	// IsIntEnum reports whether members are identified by integer value
	// (true) or by name (false).
	IsIntEnum() bool
	ByValue(v int64) (any, bool)
	ByName(name string) (any, bool)
	Name(member any) string
	Value(member any) int64
}

// Registry is the caller-supplied mapping between small integer registry
// codes and user-defined struct/enum descriptors (component J, §3 Type
// registry). SimpleRegistry below is a ready-to-use implementation; callers
// needing different storage (e.g. a generated dense table) can implement
// Registry directly.
type Registry interface {
	StructByCode(code uint32) (StructType, bool)
	EnumByCode(code uint32) (EnumType, bool)
	CodeOfStruct(t reflect.Type) (uint32, StructType, bool)
	CodeOfEnum(t reflect.Type) (uint32, EnumType, bool)
}

type structEntry struct {
	typ  reflect.Type
	desc StructType
}

type enumEntry struct {
	typ  reflect.Type
	desc EnumType
}

// SimpleRegistry is a Registry backed by explicit code<->type registration.
type SimpleRegistry struct {
	structs       map[uint32]structEntry
	structsByType map[reflect.Type]uint32
	enums         map[uint32]enumEntry
	enumsByType   map[reflect.Type]uint32
}

// NewSimpleRegistry returns an empty registry ready for RegisterStruct/
// RegisterEnum calls.
func NewSimpleRegistry() *SimpleRegistry {
	return &SimpleRegistry{
		structs:       make(map[uint32]structEntry),
		structsByType: make(map[reflect.Type]uint32),
		enums:         make(map[uint32]enumEntry),
		enumsByType:   make(map[reflect.Type]uint32),
	}
}

// RegisterStruct associates code with the Go type of sample (typically a
// pointer produced by desc.New()). Both encode and decode use code to find
// desc again.
func (r *SimpleRegistry) RegisterStruct(code uint32, sample any, desc StructType) {
	t := reflect.TypeOf(sample)
	r.structs[code] = structEntry{typ: t, desc: desc}
	r.structsByType[t] = code
}

// RegisterEnum associates code with the Go type of sample (a member value).
func (r *SimpleRegistry) RegisterEnum(code uint32, sample any, desc EnumType) {
	t := reflect.TypeOf(sample)
	r.enums[code] = enumEntry{typ: t, desc: desc}
	r.enumsByType[t] = code
}

func (r *SimpleRegistry) StructByCode(code uint32) (StructType, bool) {
	e, ok := r.structs[code]
	if !ok {
		return nil, false
	}
	return e.desc, true
}

func (r *SimpleRegistry) EnumByCode(code uint32) (EnumType, bool) {
	e, ok := r.enums[code]
	if !ok {
		return nil, false
	}
	return e.desc, true
}

func (r *SimpleRegistry) CodeOfStruct(t reflect.Type) (uint32, StructType, bool) {
	code, ok := r.structsByType[t]
	if !ok {
		return 0, nil, false
	}
	return code, r.structs[code].desc, true
}

func (r *SimpleRegistry) CodeOfEnum(t reflect.Type) (uint32, EnumType, bool) {
	code, ok := r.enumsByType[t]
	if !ok {
		return 0, nil, false
	}
	return code, r.enums[code].desc, true
}
