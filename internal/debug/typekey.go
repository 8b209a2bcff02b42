package debug

import (
	"fmt"
	"strings"
)

// typeKey computes the Pending Type-Reloc Table's structural key for t: a
// canonical byte (here, string) encoding of the type's shape plus the
// target ABI — the key must include target ABI to prevent collisions when
// two functions with different targets coexist. Two TypeDesc values with
// the same key are treated as the same
// type and share one DIE within an atom.
func typeKey(t *TypeDesc, target Target) string {
	var b strings.Builder

	writeTypeKey(&b, t, target)
	fmt.Fprintf(&b, "|p%d|c%d", target.PointerWidth, target.Container)

	return b.String()
}

func writeTypeKey(b *strings.Builder, t *TypeDesc, target Target) {
	if t == nil {
		b.WriteString("<nil>")
		return
	}

	fmt.Fprintf(b, "%d:%s:%d:%d:%t", t.Kind, t.Name, t.ABISize, t.ABIAlign, t.Signed)

	switch t.Kind {
	case TypePointer, TypeOptionalPointer:
		b.WriteByte('(')
		writeTypeKey(b, t.Pointee, target)
		b.WriteByte(')')
	case TypeSlice:
		b.WriteByte('[')
		writeTypeKey(b, t.Pointee, target)
		b.WriteByte(']')
	case TypeStruct, TypeTuple, TypeUnion:
		for _, f := range t.Fields {
			fmt.Fprintf(b, "{%s@%d:", f.Name, f.Offset)
			writeTypeKey(b, f.Type, target)
			b.WriteByte('}')
		}
	case TypeEnum, TypeErrorSet:
		for _, v := range t.Variants {
			fmt.Fprintf(b, "<%s=%d,%t>", v.Name, v.Value, v.HasValue)
		}
	case TypeOptional:
		b.WriteByte('?')
		writeTypeKey(b, t.Payload, target)
	case TypeTaggedUnion:
		b.WriteString("tag(")
		writeTypeKey(b, t.Tag, target)
		b.WriteString(")pay(")
		writeTypeKey(b, t.Payload, target)
		b.WriteString(")")
		fmt.Fprintf(b, "[%d,%d,%d,%d]", t.Union.TagSize, t.Union.TagAlign, t.Union.PayloadSize, t.Union.PayloadAlign)
	case TypeErrorUnion:
		b.WriteString("err(")
		writeTypeKey(b, t.ErrorSet, target)
		b.WriteString(")pay(")
		writeTypeKey(b, t.Payload, target)
		b.WriteString(")")
	}
}
