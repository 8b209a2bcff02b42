package debug

import "bytes"

// minNopSize is the minimum gap, in bytes, the allocator (allocator.go)
// keeps between one record's payload and the next so a later in-place grow
// never needs to touch a neighbor.
const minNopSize = 2

// iovecLimit bounds the combined size of the leading and trailing padding in
// a single vectored write, matching the kernel's IOV_MAX-driven ceiling the
// spec documents as an assertion rather than a recoverable error.
const iovecLimit = 1_044_480

// infoNopByte is a single byte of .debug_info filler: abbreviation code 0,
// the null entry that every DIE list already terminates with, reused here as
// an innocuous one-byte-per-unit filler.
const infoNopByte = 0x00

// dwLnsNegateStmt and dwLnsAdvancePC are the two DWARF line-number standard
// opcodes the .debug_line filler is built from.
const (
	dwLnsAdvancePC  = 0x02
	dwLnsNegateStmt = 0x06
)

// buildInfoNopFill returns n bytes of .debug_info padding.
func buildInfoNopFill(n uint32) []byte {
	if n == 0 {
		return nil
	}

	return bytes.Repeat([]byte{infoNopByte}, int(n))
}

// buildLineNopFill returns n bytes of .debug_line padding: a run of
// single-byte DW_LNS_negate_stmt opcodes, replacing the final three bytes
// with a padded (two-byte, non-canonical) ULEB128 encoding of
// DW_LNS_advance_pc(0) when n is odd, per the documented behavior ("a 4096-byte page of
// LNS.negate_stmt plus, if needed, a three-byte advance_pc 0 to absorb odd
// counts").
func buildLineNopFill(n uint32) []byte {
	if n == 0 {
		return nil
	}

	if n%2 == 0 || n < 3 {
		return bytes.Repeat([]byte{dwLnsNegateStmt}, int(n))
	}

	buf := make([]byte, 0, n)
	buf = append(buf, bytes.Repeat([]byte{dwLnsNegateStmt}, int(n-3))...)
	buf = append(buf, dwLnsAdvancePC)

	padded := ulebPadded2(0)
	buf = append(buf, padded[0], padded[1])

	return buf
}

// nopFiller produces n bytes of section-appropriate filler.
type nopFiller func(n uint32) []byte

// writeWithPadding performs the vectored positioned write: prevPad bytes of
// filler, the payload, nextPad bytes of filler,
// and — for .debug_info, whose last atom must leave a trailing terminator —
// one extra zero byte, all as a single call into the Object-File
// collaborator.
func writeWithPadding(obj ObjectFile, offset uint64, prevPad, nextPad uint32, payload []byte, trailingZero bool, fill nopFiller) error {
	if uint64(prevPad)+uint64(nextPad) > iovecLimit {
		panic("debug: NOP padding request exceeds iovec array limit")
	}

	var iovecs [][]byte

	if prevPad > 0 {
		iovecs = append(iovecs, fill(prevPad))
	}

	if len(payload) > 0 {
		iovecs = append(iovecs, payload)
	}

	if nextPad > 0 {
		iovecs = append(iovecs, fill(nextPad))
	}

	if trailingZero {
		iovecs = append(iovecs, []byte{0x00})
	}

	if len(iovecs) == 0 {
		return nil
	}

	return obj.PWritevAll(iovecs, offset)
}
