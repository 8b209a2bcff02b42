package debug

// DWARF tag, attribute, and form constants this emitter uses. Kept as a
// local vocabulary (rather than importing debug/dwarf) because the emitter
// only ever needs to encode these values, never decode arbitrary DWARF —
// matching the original dwarf_writer.go, which defined its own small
// constant set instead of pulling in the stdlib debug/dwarf package.
const (
	dwTagCompileUnit    = 0x11
	dwTagSubprogram     = 0x2e
	dwTagBaseType       = 0x24
	dwTagPointerType    = 0x0f
	dwTagStructureType  = 0x13
	dwTagMember         = 0x0d
	dwTagEnumerationType = 0x04
	dwTagEnumerator     = 0x28
	dwTagUnionType      = 0x17
	dwTagUnspecifiedType = 0x3b
	dwTagVariable       = 0x34
)

const (
	dwAtName        = 0x03
	dwAtByteSize    = 0x0b
	dwAtEncoding    = 0x3e
	dwAtType        = 0x49
	dwAtLowPC       = 0x11
	dwAtHighPC      = 0x12
	dwAtDataMemberLoc = 0x38
	dwAtConstValue  = 0x1c
	dwAtStmtList    = 0x10
	dwAtCompDir     = 0x1b
	dwAtProducer    = 0x25
	dwAtLanguage    = 0x13
	dwAtDeclaration = 0x3c
)

const (
	dwFormAddr    = 0x01
	dwFormData1   = 0x0b
	dwFormData4   = 0x06
	dwFormData8   = 0x07
	dwFormSdata   = 0x0d
	dwFormUdata   = 0x0f
	dwFormStrp    = 0x0e
	dwFormRef4    = 0x13
	dwFormFlag    = 0x0c
	dwFormFlagPresent = 0x19
	dwFormSecOffset = 0x17
)

// DW_ATE base-type encodings.
const (
	dwAteBoolean      = 0x02
	dwAteSigned       = 0x05
	dwAteUnsigned     = 0x07
	dwAteUnsignedChar = 0x08
	dwAteAddress      = 0x01
)

// Abbreviation codes. This fixed 12-entry table replaces
// the original ad hoc 1-15 numbering in dwarf_writer.go with one sized
// exactly to this emitter's type-kind vocabulary; codes are never
// renumbered once assigned; abbrevCount does not include the terminating 0
// entry every abbreviation list implicitly carries.
const (
	abbrevCompileUnit        = 1
	abbrevSubprogram         = 2
	abbrevSubprogramRetVoid  = 3
	abbrevBaseType           = 4
	abbrevPointerType        = 5
	abbrevStructureType      = 6
	abbrevMember             = 7
	abbrevEnumerationType    = 8
	abbrevEnumerator         = 9
	abbrevUnionType          = 10
	abbrevUnspecifiedType    = 11
	abbrevVariable           = 12
	abbrevCount              = 12
)

type abbrevAttr struct {
	attr byte
	form byte
}

type abbrevDecl struct {
	code     byte
	tag      byte
	children bool
	attrs    []abbrevAttr
}

// abbrevTable is the fixed declaration list this emitter ever produces. It
// is identical for every compile unit, so it is built once by the Emitter
// and its bytes are reused verbatim.
var abbrevTable = []abbrevDecl{
	{
		// Attribute order matches the literal field order the documented design
		// prescribes for the CU header body: stmt_list, low_pc, high_pc,
		// name, comp_dir, producer, language.
		code: abbrevCompileUnit, tag: dwTagCompileUnit, children: true,
		attrs: []abbrevAttr{
			{dwAtStmtList, dwFormSecOffset},
			{dwAtLowPC, dwFormAddr},
			{dwAtHighPC, dwFormData8},
			{dwAtName, dwFormStrp},
			{dwAtCompDir, dwFormStrp},
			{dwAtProducer, dwFormStrp},
			{dwAtLanguage, dwFormData1},
		},
	},
	{
		// Attribute order matches the literal per-declaration write order
		// the documented design prescribes: low_pc, high_pc, type, name. children:
		// true because every function DIE closes its own (empty) children
		// list with abbrev 0 immediately after its name.
		code: abbrevSubprogram, tag: dwTagSubprogram, children: true,
		attrs: []abbrevAttr{
			{dwAtLowPC, dwFormAddr},
			{dwAtHighPC, dwFormData8},
			{dwAtType, dwFormRef4},
			{dwAtName, dwFormStrp},
		},
	},
	{
		code: abbrevSubprogramRetVoid, tag: dwTagSubprogram, children: true,
		attrs: []abbrevAttr{
			{dwAtLowPC, dwFormAddr},
			{dwAtHighPC, dwFormData8},
			{dwAtName, dwFormStrp},
		},
	},
	{
		code: abbrevBaseType, tag: dwTagBaseType, children: false,
		attrs: []abbrevAttr{
			{dwAtName, dwFormStrp},
			{dwAtEncoding, dwFormData1},
			{dwAtByteSize, dwFormData1},
		},
	},
	{
		code: abbrevPointerType, tag: dwTagPointerType, children: false,
		attrs: []abbrevAttr{
			{dwAtByteSize, dwFormData1},
			{dwAtType, dwFormRef4},
		},
	},
	{
		// byte_size before name, matching the documented write order for
		// struct/tuple: "structure_type with byte size (ULEB), name,
		// then one struct_member per field."
		code: abbrevStructureType, tag: dwTagStructureType, children: true,
		attrs: []abbrevAttr{
			{dwAtByteSize, dwFormUdata},
			{dwAtName, dwFormStrp},
		},
	},
	{
		code: abbrevMember, tag: dwTagMember, children: false,
		attrs: []abbrevAttr{
			{dwAtName, dwFormStrp},
			{dwAtType, dwFormRef4},
			{dwAtDataMemberLoc, dwFormUdata},
		},
	},
	{
		code: abbrevEnumerationType, tag: dwTagEnumerationType, children: true,
		attrs: []abbrevAttr{
			{dwAtByteSize, dwFormData1},
			{dwAtName, dwFormStrp},
		},
	},
	{
		// const_value is a fixed 8-byte value per the documented behavior: "name and
		// an 8-byte constant value."
		code: abbrevEnumerator, tag: dwTagEnumerator, children: false,
		attrs: []abbrevAttr{
			{dwAtName, dwFormStrp},
			{dwAtConstValue, dwFormData8},
		},
	},
	{
		code: abbrevUnionType, tag: dwTagUnionType, children: true,
		attrs: []abbrevAttr{
			{dwAtByteSize, dwFormUdata},
			{dwAtName, dwFormStrp},
		},
	},
	{
		code: abbrevUnspecifiedType, tag: dwTagUnspecifiedType, children: false,
		attrs: []abbrevAttr{},
	},
	{
		code: abbrevVariable, tag: dwTagVariable, children: false,
		attrs: []abbrevAttr{
			{dwAtName, dwFormStrp},
			{dwAtType, dwFormRef4},
			{dwAtDeclaration, dwFormFlagPresent},
		},
	},
}

// encodeAbbrevTable serializes abbrevTable into .debug_abbrev's byte form:
// for each declaration, ULEB128(code), ULEB128(tag), a children byte, then
// (attr, form) ULEB128 pairs terminated by (0, 0), with a final (0)
// terminating the whole table.
func encodeAbbrevTable() []byte {
	var buf []byte

	for _, d := range abbrevTable {
		buf = appendUleb128(buf, uint64(d.code))
		buf = appendUleb128(buf, uint64(d.tag))

		if d.children {
			buf = append(buf, 0x01)
		} else {
			buf = append(buf, 0x00)
		}

		for _, a := range d.attrs {
			buf = appendUleb128(buf, uint64(a.attr))
			buf = appendUleb128(buf, uint64(a.form))
		}

		buf = appendUleb128(buf, 0)
		buf = appendUleb128(buf, 0)
	}

	buf = appendUleb128(buf, 0)

	return buf
}
