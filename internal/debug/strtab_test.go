package debug

import "testing"

func TestStringTableEmptyStringAtOffsetZero(t *testing.T) {
	st := NewStringTable()

	if got := st.MakeString(""); got != 0 {
		t.Errorf("MakeString(\"\") = %d, want 0", got)
	}

	if st.Len() != 1 {
		t.Errorf("Len() = %d, want 1", st.Len())
	}
}

func TestStringTableInternsRepeats(t *testing.T) {
	st := NewStringTable()

	first := st.MakeString("main.foo")
	sizeAfterFirst := st.Len()

	second := st.MakeString("main.foo")
	if second != first {
		t.Errorf("second MakeString call returned %d, want %d (same offset)", second, first)
	}

	if st.Len() != sizeAfterFirst {
		t.Errorf("Len() grew from %d to %d on a repeated intern", sizeAfterFirst, st.Len())
	}
}

func TestStringTableDistinctStringsGetDistinctOffsets(t *testing.T) {
	st := NewStringTable()

	a := st.MakeString("alpha")
	b := st.MakeString("beta")

	if a == b {
		t.Fatalf("distinct strings collided at offset %d", a)
	}

	buf := st.Bytes()
	if string(buf[a:a+5]) != "alpha" {
		t.Errorf("bytes at offset %d = %q, want \"alpha\"", a, buf[a:a+5])
	}

	if string(buf[b:b+4]) != "beta" {
		t.Errorf("bytes at offset %d = %q, want \"beta\"", b, buf[b:b+4])
	}
}

func TestStringTableNullTerminatesEveryEntry(t *testing.T) {
	st := NewStringTable()

	off := st.MakeString("x")
	buf := st.Bytes()

	if buf[off] != 'x' || buf[off+1] != 0x00 {
		t.Errorf("entry at %d = %v, want ['x', 0x00]", off, buf[off:off+2])
	}
}
