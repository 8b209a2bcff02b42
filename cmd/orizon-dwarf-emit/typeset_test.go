package main

import (
	"testing"

	"github.com/orizon-lang/orizon-debuginfo/internal/debug"
)

func TestBuiltinTypeVoidReturnsNilWithoutError(t *testing.T) {
	td, err := builtinType("void")
	if err != nil {
		t.Fatalf("builtinType(void): %v", err)
	}

	if td != nil {
		t.Errorf("builtinType(void) = %+v, want nil", td)
	}
}

func TestBuiltinTypeKnownNames(t *testing.T) {
	cases := []struct {
		name   string
		kind   debug.TypeKind
		size   uint64
		signed bool
	}{
		{"bool", debug.TypeBool, 1, false},
		{"i8", debug.TypeInteger, 1, true},
		{"u8", debug.TypeInteger, 1, false},
		{"i32", debug.TypeInteger, 4, true},
		{"u32", debug.TypeInteger, 4, false},
		{"i64", debug.TypeInteger, 8, true},
		{"u64", debug.TypeInteger, 8, false},
		{"isize", debug.TypeInteger, 8, true},
		{"usize", debug.TypeInteger, 8, false},
	}

	for _, c := range cases {
		td, err := builtinType(c.name)
		if err != nil {
			t.Fatalf("builtinType(%q): %v", c.name, err)
		}

		if td.Kind != c.kind || td.ABISize != c.size || td.Signed != c.signed {
			t.Errorf("builtinType(%q) = %+v, want Kind=%v ABISize=%d Signed=%v", c.name, td, c.kind, c.size, c.signed)
		}
	}
}

func TestBuiltinTypeUnknownNameErrors(t *testing.T) {
	if _, err := builtinType("f64"); err == nil {
		t.Error("builtinType(f64) did not error (no float kind exists in TypeKind)")
	}

	if _, err := builtinType("struct Foo"); err == nil {
		t.Error("builtinType with a struct-shaped name did not error")
	}
}
