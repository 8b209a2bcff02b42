package debug

import (
	orizonerrors "github.com/orizon-lang/orizon-debuginfo/internal/errors"
)

// cuHeaderBytes is the fixed size of the preallocated compilation-unit
// header region. Declaration atoms never start
// before pad_to_ideal(cuHeaderBytes).
const cuHeaderBytes = 120

// dwLangC99 is the placeholder DW_AT_language value the documented design names.
const dwLangC99 = 0x0c

// cuHeaderInput carries everything buildCUHeader needs to fill in the
// single abbrev-code-1 DIE that opens .debug_info.
type cuHeaderInput struct {
	Target         Target
	StmtListOffset uint32
	NameStrp       uint32
	CompDirStrp    uint32
	ProducerStrp   uint32
	// SectionSize is the current total size of .debug_info; the unit_length
	// field covers everything after itself, i.e. SectionSize minus the
	// initial-length field's own width.
	SectionSize uint64
}

// initialLengthWidth reports how many bytes the initial-length field itself
// occupies for this target: 4 for ELF-32 and Mach-O, 12 (0xffffffff prefix
// + 8-byte length) for ELF-64.
func initialLengthWidth(t Target) int {
	if t.Container == ContainerELF && t.PointerWidth == 8 {
		return 12
	}

	return 4
}

// appendInitialLength appends the DWARF "initial length" encoding of n.
func appendInitialLength(buf []byte, t Target, n uint64) []byte {
	order := t.byteOrder()

	if initialLengthWidth(t) == 12 {
		buf = append(buf, 0xff, 0xff, 0xff, 0xff)
		tail := make([]byte, 8)
		order.PutUint64(tail, n)

		return append(buf, tail...)
	}

	head := make([]byte, 4)
	order.PutUint32(head, uint32(n))

	return append(buf, head...)
}

// buildCUHeader renders the compilation-unit header into a buffer no larger
// than cuHeaderBytes, padded to exactly that size with pad1 (abbreviation
// code 0). It returns DebugInfoHeaderOverflow if the computed content does
// not fit.
func buildCUHeader(in cuHeaderInput) ([]byte, error) {
	order := in.Target.byteOrder()
	ilw := initialLengthWidth(in.Target)

	var body []byte

	body = append(body, 0x04, 0x00) // version 4, uhalf
	abbrevOff := make([]byte, 4)
	order.PutUint32(abbrevOff, 0) // single abbreviation table at offset 0
	body = append(body, abbrevOff...)
	body = append(body, byte(in.Target.PointerWidth))

	body = appendUleb128(body, abbrevCompileUnit)

	stmtList := make([]byte, 4)
	order.PutUint32(stmtList, in.StmtListOffset)
	body = append(body, stmtList...)

	lowPC := make([]byte, in.Target.PointerWidth)
	body = append(body, lowPC...) // filled in later by the code generator

	highPC := make([]byte, 8)
	body = append(body, highPC...)

	for _, strp := range []uint32{in.NameStrp, in.CompDirStrp, in.ProducerStrp} {
		b := make([]byte, 4)
		order.PutUint32(b, strp)
		body = append(body, b...)
	}

	body = append(body, dwLangC99)

	unitLength := uint64(len(body))
	if in.SectionSize > uint64(ilw) {
		unitLength = in.SectionSize - uint64(ilw)
	}

	var header []byte
	header = appendInitialLength(header, in.Target, unitLength)
	header = append(header, body...)

	if len(header) > cuHeaderBytes {
		return nil, orizonerrors.DebugInfoHeaderOverflow("compile_unit", len(header), cuHeaderBytes)
	}

	header = append(header, buildInfoNopFill(uint32(cuHeaderBytes-len(header)))...)

	return header, nil
}

// patchCUUnitLength rewrites just the initial-length field of an
// already-written CU header to reflect the section's current total size —
// every commit_decl/free_decl grows or shrinks .debug_info, and the single
// compilation unit this emitter produces always spans the whole section.
func patchCUUnitLength(obj ObjectFile, headerOffset uint64, t Target, sectionSize uint64) error {
	ilw := initialLengthWidth(t)
	unitLength := uint64(0)

	if sectionSize > uint64(ilw) {
		unitLength = sectionSize - uint64(ilw)
	}

	var buf []byte
	buf = appendInitialLength(buf, t, unitLength)

	return orizonerrors.Wrap("patch_cu_unit_length", obj.PWriteAll(buf, headerOffset))
}

// buildAranges renders the single-range .debug_aranges section: a header,
// padding to a 2*ptr_width-aligned tuple region,
// one (address, length) tuple covering the whole text section, and a (0,0)
// terminator tuple.
func buildAranges(t Target, debugInfoOffset uint32, textLowPC, textSize uint64) []byte {
	order := t.byteOrder()
	ptrWidth := t.PointerWidth

	var body []byte
	body = append(body, 0x02, 0x00) // version 2, uhalf

	infoOff := make([]byte, 4)
	order.PutUint32(infoOff, debugInfoOffset)
	body = append(body, infoOff...)

	body = append(body, byte(ptrWidth), 0x00) // address_size, segment_size=0

	headerLen := 4 + 2 + 4 + 1 + 1 // unit_length(4, 32-bit form) + version + debug_info_offset + address_size + segment_size
	tupleAlign := 2 * ptrWidth
	aligned := alignUpInt(headerLen, tupleAlign)

	if pad := aligned - headerLen; pad > 0 {
		body = append(body, make([]byte, pad)...)
	}

	appendAddr := func(v uint64) {
		b := make([]byte, ptrWidth)

		switch ptrWidth {
		case 8:
			order.PutUint64(b, v)
		default:
			order.PutUint32(b, uint32(v))
		}

		body = append(body, b...)
	}

	appendAddr(textLowPC)
	appendAddr(textSize)
	appendAddr(0)
	appendAddr(0)

	unitLength := uint64(len(body))

	var out []byte
	head := make([]byte, 4)
	order.PutUint32(head, uint32(unitLength))
	out = append(out, head...)
	out = append(out, body...)

	return out
}

func alignUpInt(v, align int) int {
	if align <= 0 {
		return v
	}

	return (v + align - 1) / align * align
}

// lineHeaderInput carries the fixed, program-lifetime-constant inputs to
// the .debug_line header.
type lineHeaderInput struct {
	Target   Target
	RootFile string
}

// standardOpcodeLengths is the DWARF standard_opcode_lengths table for
// opcode_base=13, i.e. opcodes 1 (copy) through 12 (set_isa).
var standardOpcodeLengths = []byte{0, 1, 1, 1, 1, 0, 0, 0, 1, 0, 0, 1}

const (
	dwLineVersion          = 4
	dwLineMinInstrLen      = 1
	dwLineMaxOpsPerInstr   = 1
	dwLineDefaultIsStmt    = 1
	dwLineLineBase  int8   = -5
	dwLineLineRange        = 14
	dwLineOpcodeBase       = 13
)

// buildLineHeader renders the complete .debug_line program header: the
// fixed prologue fields, zero include-directories, one file entry for
// RootFile, and the file-table terminator. Its own length is written into
// header_length, which is self-referential per the DWARF line-number
// program format.
func buildLineHeader(in lineHeaderInput) []byte {
	order := in.Target.byteOrder()

	lineBase := dwLineLineBase

	var afterHeaderLength []byte
	afterHeaderLength = append(afterHeaderLength,
		dwLineMinInstrLen, dwLineMaxOpsPerInstr, dwLineDefaultIsStmt,
		byte(lineBase), dwLineLineRange, dwLineOpcodeBase)
	afterHeaderLength = append(afterHeaderLength, standardOpcodeLengths...)

	afterHeaderLength = append(afterHeaderLength, 0x00) // empty include_directories

	afterHeaderLength = append(afterHeaderLength, in.RootFile...)
	afterHeaderLength = append(afterHeaderLength, 0x00)
	afterHeaderLength = appendUleb128(afterHeaderLength, 0) // dir index
	afterHeaderLength = appendUleb128(afterHeaderLength, 0) // mtime
	afterHeaderLength = appendUleb128(afterHeaderLength, 0) // size
	afterHeaderLength = append(afterHeaderLength, 0x00)     // file table terminator

	headerLength := make([]byte, 4)
	order.PutUint32(headerLength, uint32(len(afterHeaderLength)))

	var body []byte
	body = append(body, 0x04, 0x00) // version 4
	body = append(body, headerLength...)
	body = append(body, afterHeaderLength...)

	unitLength := make([]byte, 4)
	order.PutUint32(unitLength, uint32(len(body)))

	out := make([]byte, 0, 4+len(body))
	out = append(out, unitLength...)
	out = append(out, body...)

	return out
}
