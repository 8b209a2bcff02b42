package main

import (
	"fmt"

	"github.com/orizon-lang/orizon-debuginfo/internal/debug"
)

// builtinType resolves one of the handful of primitive type names the
// declaration script may reference by name. There is no user-defined type
// syntax; struct/tuple/union/enum shapes are out of scope for a script meant
// only to drive CommitDecl/CommitErrorSet against a handful of declarations.
func builtinType(name string) (*debug.TypeDesc, error) {
	switch name {
	case "void":
		return nil, nil
	case "bool":
		return &debug.TypeDesc{Kind: debug.TypeBool, Name: "bool", ABISize: 1, ABIAlign: 1}, nil
	case "i8":
		return &debug.TypeDesc{Kind: debug.TypeInteger, Name: "i8", ABISize: 1, ABIAlign: 1, Signed: true}, nil
	case "u8":
		return &debug.TypeDesc{Kind: debug.TypeInteger, Name: "u8", ABISize: 1, ABIAlign: 1}, nil
	case "i16":
		return &debug.TypeDesc{Kind: debug.TypeInteger, Name: "i16", ABISize: 2, ABIAlign: 2, Signed: true}, nil
	case "u16":
		return &debug.TypeDesc{Kind: debug.TypeInteger, Name: "u16", ABISize: 2, ABIAlign: 2}, nil
	case "i32":
		return &debug.TypeDesc{Kind: debug.TypeInteger, Name: "i32", ABISize: 4, ABIAlign: 4, Signed: true}, nil
	case "u32":
		return &debug.TypeDesc{Kind: debug.TypeInteger, Name: "u32", ABISize: 4, ABIAlign: 4}, nil
	case "i64":
		return &debug.TypeDesc{Kind: debug.TypeInteger, Name: "i64", ABISize: 8, ABIAlign: 8, Signed: true}, nil
	case "u64":
		return &debug.TypeDesc{Kind: debug.TypeInteger, Name: "u64", ABISize: 8, ABIAlign: 8}, nil
	case "isize":
		return &debug.TypeDesc{Kind: debug.TypeInteger, Name: "isize", ABISize: 8, ABIAlign: 8, Signed: true}, nil
	case "usize":
		return &debug.TypeDesc{Kind: debug.TypeInteger, Name: "usize", ABISize: 8, ABIAlign: 8}, nil
	default:
		return nil, fmt.Errorf("unknown type %q", name)
	}
}
