package debug

import "testing"

func TestPrologueRelocSlotsPtr8(t *testing.T) {
	got := prologueRelocSlots(8)
	want := lineRelocSlots{vaddr: 3, lineDelta: 12, fileIndex: 17}

	if got != want {
		t.Errorf("prologueRelocSlots(8) = %+v, want %+v", got, want)
	}
}

func TestPrologueRelocSlotsPtr4(t *testing.T) {
	got := prologueRelocSlots(4)
	want := lineRelocSlots{vaddr: 3, lineDelta: 8, fileIndex: 13}

	if got != want {
		t.Errorf("prologueRelocSlots(4) = %+v, want %+v", got, want)
	}
}

func TestBuildFunctionPrologueLayoutMatchesRelocSlots(t *testing.T) {
	const ptrWidth = 8

	buf := buildFunctionPrologue(ptrWidth, 7, 1)
	slots := prologueRelocSlots(ptrWidth)

	if buf[0] != lnExtendedOp {
		t.Errorf("buf[0] = %#x, want lnExtendedOp", buf[0])
	}

	if buf[2] != lneSetAddress {
		t.Errorf("buf[2] = %#x, want lneSetAddress", buf[2])
	}

	for i := uint32(0); i < ptrWidth; i++ {
		if buf[slots.vaddr+i] != 0 {
			t.Errorf("address placeholder byte %d = %#x, want 0", i, buf[slots.vaddr+i])
		}
	}

	if buf[slots.lineDelta-1] != lnsAdvanceLine {
		t.Errorf("opcode before lineDelta slot = %#x, want lnsAdvanceLine", buf[slots.lineDelta-1])
	}

	wantDelta := uleb128Fixed4(7)
	for i, b := range wantDelta {
		if buf[int(slots.lineDelta)+i] != b {
			t.Errorf("lineDelta byte %d = %#x, want %#x", i, buf[int(slots.lineDelta)+i], b)
		}
	}

	if buf[slots.fileIndex-1] != lnsSetFile {
		t.Errorf("opcode before fileIndex slot = %#x, want lnsSetFile", buf[slots.fileIndex-1])
	}

	wantFile := uleb128Fixed4(1)
	for i, b := range wantFile {
		if buf[int(slots.fileIndex)+i] != b {
			t.Errorf("fileIndex byte %d = %#x, want %#x", i, buf[int(slots.fileIndex)+i], b)
		}
	}

	if last := buf[len(buf)-1]; last != lnsCopy {
		t.Errorf("last byte = %#x, want lnsCopy", last)
	}
}

func TestBuildEndSequence(t *testing.T) {
	got := buildEndSequence()
	want := []byte{lnExtendedOp, 0x01, lneEndSequence}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestUleb128Fixed4ForcesContinuationOnFirstThreeBytes(t *testing.T) {
	got := uleb128Fixed4(5)
	want := [4]byte{0x85, 0x80, 0x80, 0x00}

	if got != want {
		t.Errorf("uleb128Fixed4(5) = %x, want %x", got, want)
	}
}

func TestUleb128Fixed4RoundTripsLargeValue(t *testing.T) {
	// 7 low bits per byte across 3 continuation bytes plus 1 terminal byte
	// covers up to 28 bits; exercise a value using more than one byte's
	// worth of payload.
	v := uint32(200)
	got := uleb128Fixed4(v)

	reconstructed := uint32(got[0]&0x7f) | uint32(got[1]&0x7f)<<7 | uint32(got[2]&0x7f)<<14 | uint32(got[3]&0x7f)<<21

	if reconstructed != v {
		t.Errorf("uleb128Fixed4(%d) round-trips to %d", v, reconstructed)
	}
}
