package debug

import "encoding/binary"

// Container identifies which object-file format the emitter is targeting.
// DWARF byte order follows the container: target endianness for ELF,
// always little-endian for Mach-O.
type Container int

const (
	ContainerELF Container = iota
	ContainerMachO
)

// Target describes the ABI the emitter produces DWARF for. PointerWidth is
// 4 for p32 targets, 8 for p64; anything else is rejected by NewEmitter as
// UnsupportedTarget.
type Target struct {
	PointerWidth int
	Endianness   binary.ByteOrder
	Container    Container
}

// byteOrder resolves the byte order DWARF bytes for this target are written
// in, per the documented behavior: target endianness for ELF, little-endian for Mach-O.
func (t Target) byteOrder() binary.ByteOrder {
	if t.Container == ContainerMachO {
		return binary.LittleEndian
	}

	if t.Endianness != nil {
		return t.Endianness
	}

	return binary.LittleEndian
}

// TypeKind enumerates the type-specific DIE encodings the documented design names.
type TypeKind int

const (
	TypeBool TypeKind = iota
	TypeInteger
	TypeOptionalPointer // pointer-like optional: bare base_type, encoding address
	TypeOptional        // non-pointer optional: {maybe: bool, val: payload}
	TypeSlice           // {ptr: *T, len: usize}
	TypePointer         // plain pointer
	TypeStruct
	TypeTuple
	TypeEnum
	TypeTaggedUnion
	TypeUnion // bare union
	TypeErrorSet
	TypeErrorUnion
	TypeUnsupported
)

// VariantDesc is one member of an enum or error set: a name and, for error
// sets, the assigned global value (enums fall back to ordinal index when no
// explicit value is supplied).
type VariantDesc struct {
	Name     string
	Value    uint64
	HasValue bool
}

// FieldDesc is one field of a struct or tuple, or one member of a bare
// union. Offset is the semantic module's precomputed ABI field offset
// except
// for tagged/error unions, whose offsets the DIE builder computes itself
// from the Union sizes below.
type FieldDesc struct {
	Name   string
	Type   *TypeDesc
	Offset uint64
}

// UnionSizes carries the tag/payload size and alignment a tagged union or
// error union's semantic module reports, from which the DIE
// builder computes member offsets via internal/layout.
type UnionSizes struct {
	TagSize      uint64
	TagAlign     uint64
	PayloadSize  uint64
	PayloadAlign uint64
}

// TypeDesc is the narrow, front-end-agnostic type descriptor this module
// consumes in place of any particular compiler's AST/HIR. Only the fields relevant to Kind are populated.
type TypeDesc struct {
	Kind     TypeKind
	Name     string
	ABISize  uint64
	ABIAlign uint64

	Signed bool // TypeInteger

	Pointee *TypeDesc // TypePointer, TypeOptionalPointer

	Fields []FieldDesc // TypeStruct, TypeTuple, TypeUnion (bare union members)

	Variants []VariantDesc // TypeEnum; TypeErrorSet when Resolved

	// TypeOptional: payload type, offset computed via layout.CalculateOptionalLayout.
	// TypeTaggedUnion: the nested union's payload type.
	// TypeErrorUnion: the success-path payload type.
	Payload *TypeDesc

	// TypeTaggedUnion: the discriminant type (emitted as the "tag" member).
	// TypeErrorUnion: reuses ErrorSet instead.
	Tag *TypeDesc

	// TypeErrorUnion: the error-set type of the "err" member.
	ErrorSet *TypeDesc

	Union UnionSizes // TypeTaggedUnion, TypeErrorUnion (via ErrorSet/Payload abi size+align)

	// TypeErrorSet only: false for an inferred error set not yet resolved,
	// or for anyerror; the reference is deferred instead of emitted inline.
	Resolved bool
}

// DeclKind distinguishes the two declaration shapes the documented design names.
type DeclKind int

const (
	DeclFunction DeclKind = iota
	DeclGlobalVariable
)

// ParamDesc is one formal parameter's name and type. The DIE builder emits
// nothing for parameters: no formal_parameter DIE and no subroutine_type
// attribute refers to them.
type ParamDesc struct {
	Name string
	Type *TypeDesc
}

// FuncBody carries the line-program-relevant facts about a function's body:
// the absolute source line of its opening brace and of its closing brace.
// The Emitter computes the prologue's line-delta reloc slot by tracking the previous commit's ClosingBraceLine
// itself, since that relative baseline spans declarations rather than
// belonging to any one of them.
type FuncBody struct {
	OpeningBraceLine int64
	ClosingBraceLine int64
}

// ErrorSetDesc describes the whole-program global error set materialized by
// a commit_error_set call: every named error any translation
// unit produced or inferred, collapsed to one enumeration_type DIE.
type ErrorSetDesc struct {
	ABISize uint64
	Members []VariantDesc
}

// DeclDesc describes one declaration the compiler is committing. It mirrors
// the documented "Consumed (from the semantic module)" list: type, value (via
// Body for functions), has_runtime_bits, fully_qualified_name, source line.
type DeclDesc struct {
	Kind DeclKind
	Name string // fully_qualified_name

	// DeclFunction: the return type (nil/HasRuntimeBits=false for void).
	// DeclGlobalVariable: reused as the variable's own type.
	ReturnType     *TypeDesc
	HasRuntimeBits bool
	Params         []ParamDesc
	Body           FuncBody
}
