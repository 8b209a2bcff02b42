package debug

import "testing"

func TestEncodeAbbrevTableStartsWithCompileUnitDecl(t *testing.T) {
	buf := encodeAbbrevTable()

	if len(buf) == 0 {
		t.Fatal("encodeAbbrevTable returned empty slice")
	}

	if buf[0] != abbrevCompileUnit {
		t.Errorf("first byte = %d, want abbrevCompileUnit (%d)", buf[0], abbrevCompileUnit)
	}

	if buf[1] != dwTagCompileUnit {
		t.Errorf("second byte = %#x, want DW_TAG_compile_unit (%#x)", buf[1], dwTagCompileUnit)
	}

	if buf[2] != 0x01 {
		t.Errorf("children byte = %#x, want 0x01 (has children)", buf[2])
	}
}

func TestEncodeAbbrevTableEndsWithDoubleZero(t *testing.T) {
	buf := encodeAbbrevTable()

	n := len(buf)
	if n < 2 || buf[n-1] != 0 || buf[n-2] != 0 {
		t.Errorf("last two bytes = %x, want trailing (0, 0)", buf[n-2:])
	}
}

func TestEncodeAbbrevTableLengthMatchesManualSum(t *testing.T) {
	buf := encodeAbbrevTable()

	want := 0
	for _, d := range abbrevTable {
		want++ // code (every code/tag/attr/form value here is < 128, one ULEB128 byte).
		want++ // tag
		want++ // children flag
		want += len(d.attrs) * 2
		want += 2 // terminating (0, 0) pair
	}

	want++ // table's own trailing zero

	if len(buf) != want {
		t.Errorf("encodeAbbrevTable length = %d, want %d", len(buf), want)
	}
}

func TestAbbrevCountMatchesTableLength(t *testing.T) {
	if len(abbrevTable) != abbrevCount {
		t.Errorf("len(abbrevTable) = %d, want abbrevCount = %d", len(abbrevTable), abbrevCount)
	}
}

func TestAbbrevCodesAreSequentialStartingAtOne(t *testing.T) {
	for i, d := range abbrevTable {
		want := byte(i + 1)
		if d.code != want {
			t.Errorf("abbrevTable[%d].code = %d, want %d", i, d.code, want)
		}
	}
}
