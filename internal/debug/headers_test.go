package debug

import (
	"encoding/binary"
	"testing"
)

func testTargetELF64() Target {
	return Target{PointerWidth: 8, Endianness: binary.LittleEndian, Container: ContainerELF}
}

func TestInitialLengthWidthELF64Is12(t *testing.T) {
	if got := initialLengthWidth(testTargetELF64()); got != 12 {
		t.Errorf("initialLengthWidth(elf64) = %d, want 12", got)
	}
}

func TestInitialLengthWidthELF32Is4(t *testing.T) {
	tgt := Target{PointerWidth: 4, Endianness: binary.LittleEndian, Container: ContainerELF}
	if got := initialLengthWidth(tgt); got != 4 {
		t.Errorf("initialLengthWidth(elf32) = %d, want 4", got)
	}
}

func TestInitialLengthWidthMachOIs4(t *testing.T) {
	tgt := Target{PointerWidth: 8, Container: ContainerMachO}
	if got := initialLengthWidth(tgt); got != 4 {
		t.Errorf("initialLengthWidth(macho) = %d, want 4", got)
	}
}

func TestAppendInitialLengthELF64UsesEscapeValue(t *testing.T) {
	buf := appendInitialLength(nil, testTargetELF64(), 0x1234)

	if len(buf) != 12 {
		t.Fatalf("len = %d, want 12", len(buf))
	}

	if buf[0] != 0xff || buf[1] != 0xff || buf[2] != 0xff || buf[3] != 0xff {
		t.Errorf("escape prefix = %x, want ffffffff", buf[:4])
	}

	if got := binary.LittleEndian.Uint64(buf[4:]); got != 0x1234 {
		t.Errorf("length field = %#x, want %#x", got, 0x1234)
	}
}

func TestAppendInitialLength32Bit(t *testing.T) {
	tgt := Target{PointerWidth: 4, Endianness: binary.LittleEndian, Container: ContainerELF}
	buf := appendInitialLength(nil, tgt, 0x99)

	if len(buf) != 4 {
		t.Fatalf("len = %d, want 4", len(buf))
	}

	if got := binary.LittleEndian.Uint32(buf); got != 0x99 {
		t.Errorf("length field = %#x, want %#x", got, 0x99)
	}
}

func TestBuildCUHeaderPadsToFixedSize(t *testing.T) {
	buf, err := buildCUHeader(cuHeaderInput{
		Target:         testTargetELF64(),
		StmtListOffset: 0,
		NameStrp:       1,
		CompDirStrp:    2,
		ProducerStrp:   3,
		SectionSize:    200,
	})
	if err != nil {
		t.Fatalf("buildCUHeader: %v", err)
	}

	if len(buf) != cuHeaderBytes {
		t.Errorf("len = %d, want cuHeaderBytes = %d", len(buf), cuHeaderBytes)
	}
}

func TestBuildCUHeaderVersionAndAddressSize(t *testing.T) {
	tgt := testTargetELF64()

	buf, err := buildCUHeader(cuHeaderInput{Target: tgt, SectionSize: 200})
	if err != nil {
		t.Fatalf("buildCUHeader: %v", err)
	}

	ilw := initialLengthWidth(tgt)

	version := binary.LittleEndian.Uint16(buf[ilw : ilw+2])
	if version != 4 {
		t.Errorf("version = %d, want 4", version)
	}

	addrSizeOff := ilw + 2 + 4
	if buf[addrSizeOff] != byte(tgt.PointerWidth) {
		t.Errorf("address_size = %d, want %d", buf[addrSizeOff], tgt.PointerWidth)
	}
}

func TestPatchCUUnitLengthRewritesOnlyTheLengthField(t *testing.T) {
	obj := newFakeObjectFile()
	obj.registerEmpty(".debug_info")

	if _, err := obj.FindFreeSpace(".debug_info", cuHeaderBytes, 8); err != nil {
		t.Fatalf("FindFreeSpace: %v", err)
	}

	tgt := testTargetELF64()

	if err := patchCUUnitLength(obj, 0, tgt, 500); err != nil {
		t.Fatalf("patchCUUnitLength: %v", err)
	}

	ilw := initialLengthWidth(tgt)
	got := binary.LittleEndian.Uint64(obj.buf[4:ilw])

	if want := uint64(500 - ilw); got != want {
		t.Errorf("patched unit_length = %d, want %d", got, want)
	}
}

func TestBuildArangesContainsSingleRangeAndTerminator(t *testing.T) {
	tgt := testTargetELF64()

	buf := buildAranges(tgt, 0, 0x1000, 0x200)

	if len(buf) < 4 {
		t.Fatalf("buildAranges returned too little data: %d bytes", len(buf))
	}

	unitLength := binary.LittleEndian.Uint32(buf[:4])
	if uint64(len(buf)) != uint64(unitLength)+4 {
		t.Errorf("unit_length = %d does not match actual body size %d", unitLength, len(buf)-4)
	}

	// Last 2*ptrWidth bytes must be the (0, 0) terminator tuple.
	tail := buf[len(buf)-2*tgt.PointerWidth:]
	for _, b := range tail {
		if b != 0 {
			t.Errorf("terminator tuple = %x, want all zero", tail)

			break
		}
	}
}

func TestAlignUpInt(t *testing.T) {
	cases := []struct{ v, align, want int }{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{5, 0, 5},
	}

	for _, c := range cases {
		if got := alignUpInt(c.v, c.align); got != c.want {
			t.Errorf("alignUpInt(%d, %d) = %d, want %d", c.v, c.align, got, c.want)
		}
	}
}

func TestBuildLineHeaderHeaderLengthIsSelfReferential(t *testing.T) {
	tgt := testTargetELF64()

	buf := buildLineHeader(lineHeaderInput{Target: tgt, RootFile: "main.oriz"})

	unitLength := binary.LittleEndian.Uint32(buf[:4])
	if uint64(len(buf)) != uint64(unitLength)+4 {
		t.Fatalf("unit_length = %d, total buf = %d", unitLength, len(buf))
	}

	headerLength := binary.LittleEndian.Uint32(buf[6:10])

	afterHeaderLength := buf[10:]
	if uint64(len(afterHeaderLength)) != uint64(headerLength) {
		t.Errorf("header_length = %d, want %d (bytes following the field)", headerLength, len(afterHeaderLength))
	}
}

func TestBuildLineHeaderEmbedsRootFileName(t *testing.T) {
	buf := buildLineHeader(lineHeaderInput{Target: testTargetELF64(), RootFile: "root.oriz"})

	found := false

	for i := 0; i+len("root.oriz") <= len(buf); i++ {
		if string(buf[i:i+len("root.oriz")]) == "root.oriz" {
			found = true

			break
		}
	}

	if !found {
		t.Errorf("buildLineHeader output does not contain root file name")
	}
}
