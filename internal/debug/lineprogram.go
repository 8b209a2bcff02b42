package debug

// Line Number Program opcode bytes this emitter writes. These are the
// literal values the documented prologue layout is built from; they are
// deliberately a closed, private vocabulary rather than the stdlib
// debug/dwarf constants, matching the original dwarf_writer.go's style of
// defining exactly the opcodes a writer (never a reader) needs.
const (
	lnExtendedOp   = 0x00 // marks an extended (LNE) opcode
	lneSetAddress  = 0x02 // LNE sub-opcode: set the address register
	lneEndSequence = 0x01 // LNE sub-opcode: end of sequence

	lnsCopy        = 0x01
	lnsAdvanceLine = 0x02
	lnsSetFile     = 0x04
)

// lineRelocSlots are the fixed byte offsets, within one function's prologue,
// of the three values this is called "reloc slots": the function's base
// address, its line delta, and its file index. Fixed widths keep these
// offsets stable regardless of the actual values written there.
type lineRelocSlots struct {
	vaddr     uint32
	lineDelta uint32
	fileIndex uint32
}

// prologueRelocSlots computes the three reloc-slot offsets for a target
// whose addresses are ptrWidth bytes wide.
func prologueRelocSlots(ptrWidth int) lineRelocSlots {
	slot0 := uint32(3)
	slot1 := slot0 + uint32(ptrWidth) + 1
	slot2 := slot1 + 5

	return lineRelocSlots{vaddr: slot0, lineDelta: slot1, fileIndex: slot2}
}

// buildFunctionPrologue emits one function's Line Number Program prologue:
// LNE.set_address with a zeroed address placeholder (reloc slot 0, filled in
// later by the out-of-scope code generator), LNS.advance_line with lineDelta
// (reloc slot 1), LNS.set_file with fileIndex (reloc slot 2), and a closing
// LNS.copy that emits the row.
func buildFunctionPrologue(ptrWidth int, lineDelta uint32, fileIndex uint32) []byte {
	buf := make([]byte, 0, 3+ptrWidth+1+4+1+4+1)

	buf = append(buf, lnExtendedOp)
	buf = appendUleb128(buf, uint64(ptrWidth+1))
	buf = append(buf, lneSetAddress)
	buf = append(buf, make([]byte, ptrWidth)...) // reloc slot 0

	buf = append(buf, lnsAdvanceLine)
	delta := uleb128Fixed4(lineDelta)
	buf = append(buf, delta[:]...) // reloc slot 1

	buf = append(buf, lnsSetFile)
	file := uleb128Fixed4(fileIndex)
	buf = append(buf, file[:]...) // reloc slot 2

	buf = append(buf, lnsCopy)

	return buf
}

// buildEndSequence appends the Line Number Program terminator: LNE,
// end_sequence.
func buildEndSequence() []byte {
	return []byte{lnExtendedOp, 0x01, lneEndSequence}
}

// uleb128Fixed4 encodes v using exactly 4 bytes, forcing the continuation
// bit on the first three regardless of value. v must fit in 28 bits; the design
// notes document this as the file-count ceiling this scheme presumes.
func uleb128Fixed4(v uint32) [4]byte {
	var out [4]byte

	for i := 0; i < 4; i++ {
		out[i] = byte(v & 0x7f)
		v >>= 7

		if i < 3 {
			out[i] |= 0x80
		}
	}

	return out
}
