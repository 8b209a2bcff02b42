package debug

import (
	"encoding/binary"
	"strconv"

	orizonerrors "github.com/orizon-lang/orizon-debuginfo/internal/errors"
	"github.com/orizon-lang/orizon-debuginfo/internal/layout"
)

// pendingTypeEntry is one row of the Pending Type-Reloc Table:
// the local, buffer-relative offset a type's DIE has been placed at within
// the current atom, and every ref4 placeholder site that must be patched to
// atom.off+off once the atom is allocated. Scoped to a single commit_decl
// call, per the documented lifecycle rule — each atom carries its own private
// copy of every type DIE it references, since ref4 cannot safely point into
// a sibling atom that might later relocate independently.
type pendingTypeEntry struct {
	off      uint32
	resolved bool
	relocs   []uint32
}

// dieBuilder accumulates one declaration's .debug_info payload: the
// function or variable DIE plus the type graph it transitively references.
// Grounded on dwarf_writer.go's original DIE-assembly code, replacing its
// whole-program single pass with one scoped to a single declaration plus a
// worklist so forward type references resolve within the same atom.
type dieBuilder struct {
	target Target
	strtab *StringTable
	logger Logger

	buf      []byte
	pending  map[string]*pendingTypeEntry
	worklist []*TypeDesc

	// selfRelSites are tagged-union nested-union reloc sites: the 4 bytes
	// already there hold a local-offset addend, not zero — a secondary list
	// alongside the per-site addend value already written into the
	// placeholder.
	selfRelSites []uint32

	// deferredSites are unresolved-error-set reloc sites, converted to
	// absolute section offsets by resolve() and handed to the Emitter's
	// persistent Deferred Reloc Queue.
	deferredSites []uint32
}

func newDIEBuilder(target Target, strtab *StringTable, logger Logger) *dieBuilder {
	return &dieBuilder{
		target:  target,
		strtab:  strtab,
		logger:  logger,
		pending: make(map[string]*pendingTypeEntry),
	}
}

func (b *dieBuilder) order() binary.ByteOrder { return b.target.byteOrder() }

func (b *dieBuilder) uleb(v uint64)  { b.buf = appendUleb128(b.buf, v) }
func (b *dieBuilder) data1(v byte)   { b.buf = append(b.buf, v) }

func (b *dieBuilder) data8(v uint64) {
	tmp := make([]byte, 8)
	b.order().PutUint64(tmp, v)
	b.buf = append(b.buf, tmp...)
}

func (b *dieBuilder) addr(v uint64) {
	tmp := make([]byte, b.target.PointerWidth)

	if b.target.PointerWidth == 8 {
		b.order().PutUint64(tmp, v)
	} else {
		b.order().PutUint32(tmp, uint32(v))
	}

	b.buf = append(b.buf, tmp...)
}

func (b *dieBuilder) strp(s string) {
	off := b.strtab.MakeString(s)
	tmp := make([]byte, 4)
	b.order().PutUint32(tmp, off)
	b.buf = append(b.buf, tmp...)
}

// ref4Placeholder reserves a 4-byte ref4 attribute slot and returns the
// local (buffer-relative) offset it starts at.
func (b *dieBuilder) ref4Placeholder() uint32 {
	site := uint32(len(b.buf))
	b.buf = append(b.buf, 0, 0, 0, 0)

	return site
}

func (b *dieBuilder) patchRef4(site, value uint32) {
	b.order().PutUint32(b.buf[site:site+4], value)
}

// refType emits a ref4 attribute pointing at t's DIE, deferring through the
// Pending Type-Reloc Table (or, for an unresolved error set, the Deferred
// Reloc Queue) if t's DIE has not been placed yet.
func (b *dieBuilder) refType(t *TypeDesc) {
	if t == nil {
		t = &TypeDesc{Kind: TypeUnsupported}
	}

	if t.Kind == TypeErrorSet && !t.Resolved {
		site := b.ref4Placeholder()
		b.deferredSites = append(b.deferredSites, site)

		return
	}

	key := typeKey(t, b.target)

	entry, ok := b.pending[key]
	if !ok {
		entry = &pendingTypeEntry{}
		b.pending[key] = entry
		b.worklist = append(b.worklist, t)
	}

	site := b.ref4Placeholder()
	entry.relocs = append(entry.relocs, site)
}

// drainWorklist emits every type DIE reached transitively from the
// declaration's primary DIE, in FIFO discovery order. Types discovered only
// while draining the worklist (forward references) are resolved within the
// same pass — the table is single-pass, per the documented behavior
func (b *dieBuilder) drainWorklist() error {
	for len(b.worklist) > 0 {
		t := b.worklist[0]
		b.worklist = b.worklist[1:]

		entry := b.pending[typeKey(t, b.target)]
		if entry.resolved {
			continue
		}

		entry.off = uint32(len(b.buf))
		entry.resolved = true

		if err := b.emitTypeDIE(t); err != nil {
			return err
		}
	}

	return nil
}

// emitTypeDIE writes one type's DIE body, per the type-specific encodings
// the documented design enumerates.
func (b *dieBuilder) emitTypeDIE(t *TypeDesc) error {
	lc := layout.NewLayoutCalculator()

	switch t.Kind {
	case TypeBool:
		b.uleb(abbrevBaseType)
		b.strp("bool")
		b.data1(dwAteBoolean)
		b.data1(1)

	case TypeInteger:
		b.uleb(abbrevBaseType)
		b.strp(t.Name)

		if t.Signed {
			b.data1(dwAteSigned)
		} else {
			b.data1(dwAteUnsigned)
		}

		b.data1(byte(t.ABISize))

	case TypeOptionalPointer:
		b.uleb(abbrevBaseType)
		b.strp(t.Name)
		b.data1(dwAteAddress)
		b.data1(byte(t.ABISize))

	case TypeSlice:
		b.uleb(abbrevStructureType)
		b.uleb(t.ABISize)
		b.strp(t.Name)

		ptrWidth := uint64(b.target.PointerWidth)
		ptrType := &TypeDesc{Kind: TypePointer, ABISize: ptrWidth, ABIAlign: ptrWidth, Pointee: t.Pointee}
		usizeType := &TypeDesc{Kind: TypeInteger, Name: "usize", ABISize: ptrWidth, ABIAlign: ptrWidth}

		b.uleb(abbrevMember)
		b.strp("ptr")
		b.refType(ptrType)
		b.uleb(0)

		b.uleb(abbrevMember)
		b.strp("len")
		b.refType(usizeType)
		b.uleb(ptrWidth)

		b.uleb(0)

	case TypePointer:
		b.uleb(abbrevPointerType)
		b.data1(byte(b.target.PointerWidth))
		b.refType(t.Pointee)

	case TypeStruct, TypeTuple:
		b.uleb(abbrevStructureType)
		b.uleb(t.ABISize)
		b.strp(t.Name)

		for i, f := range t.Fields {
			name := f.Name
			if t.Kind == TypeTuple {
				name = strconv.Itoa(i)
			}

			b.uleb(abbrevMember)
			b.strp(name)
			b.refType(f.Type)
			b.uleb(f.Offset)
		}

		b.uleb(0)

	case TypeEnum:
		b.uleb(abbrevEnumerationType)
		b.data1(byte(t.ABISize))
		b.strp(t.Name)

		for i, v := range t.Variants {
			val := v.Value
			if !v.HasValue {
				val = uint64(i)
			}

			b.uleb(abbrevEnumerator)
			b.strp(v.Name)
			b.data8(val)
		}

		b.uleb(0)

	case TypeUnion:
		b.uleb(abbrevUnionType)
		b.uleb(t.ABISize)
		b.strp(t.Name)

		for _, f := range t.Fields {
			b.uleb(abbrevMember)
			b.strp(f.Name)
			b.refType(f.Type)
			b.uleb(0)
		}

		b.uleb(0)

	case TypeErrorSet:
		b.uleb(abbrevEnumerationType)
		b.data1(byte(t.ABISize))
		b.strp(t.Name)

		b.uleb(abbrevEnumerator)
		b.strp("(no error)")
		b.data8(0)

		for _, v := range t.Variants {
			b.uleb(abbrevEnumerator)
			b.strp(v.Name)
			b.data8(v.Value)
		}

		b.uleb(0)

	case TypeErrorUnion:
		eu, err := lc.CalculateErrorUnionLayout(
			int64(t.Union.TagSize), int64(t.Union.TagAlign),
			int64(t.Union.PayloadSize), int64(t.Union.PayloadAlign))
		if err != nil {
			return orizonerrors.Wrap("error_union_layout", err)
		}

		b.uleb(abbrevStructureType)
		b.uleb(uint64(eu.TotalSize))
		b.strp(t.Name)

		b.uleb(abbrevMember)
		b.strp("value")
		b.refType(t.Payload)
		b.uleb(uint64(eu.ValueOffset))

		b.uleb(abbrevMember)
		b.strp("err")
		b.refType(t.ErrorSet)
		b.uleb(uint64(eu.ErrOffset))

		b.uleb(0)

	case TypeOptional:
		payloadSize := int64(0)
		if t.Payload != nil {
			payloadSize = int64(t.Payload.ABISize)
		}

		valOff, err := lc.CalculateOptionalLayout(int64(t.ABISize), payloadSize)
		if err != nil {
			return orizonerrors.Wrap("optional_layout", err)
		}

		b.uleb(abbrevStructureType)
		b.uleb(t.ABISize)
		b.strp(t.Name)

		b.uleb(abbrevMember)
		b.strp("maybe")
		b.refType(&TypeDesc{Kind: TypeBool, ABISize: 1, ABIAlign: 1})
		b.uleb(0)

		b.uleb(abbrevMember)
		b.strp("val")
		b.refType(t.Payload)
		b.uleb(uint64(valOff))

		b.uleb(0)

	case TypeTaggedUnion:
		if err := b.emitTaggedUnion(t, lc); err != nil {
			return err
		}

	default:
		b.logger.Warnf("%v", orizonerrors.DebugInfoUnresolvedType(t.Name))
		b.uleb(abbrevUnspecifiedType)
	}

	return nil
}

// emitTaggedUnion writes the outer structure_type {payload, tag} plus its
// inline-embedded, anonymous nested union_type, wiring the payload member's
// ref4 as a self-relative relocation rather than a Pending-table entry,
// since the nested union has no reusable structural identity of its own.
func (b *dieBuilder) emitTaggedUnion(t *TypeDesc, lc *layout.LayoutCalculator) error {
	tl, err := lc.CalculateTaggedUnionLayout(
		int64(t.Union.TagSize), int64(t.Union.TagAlign),
		int64(t.Union.PayloadSize), int64(t.Union.PayloadAlign))
	if err != nil {
		return orizonerrors.Wrap("tagged_union_layout", err)
	}

	b.uleb(abbrevStructureType)
	b.uleb(uint64(tl.TotalSize))
	b.strp(t.Name)

	b.uleb(abbrevMember)
	b.strp("payload")
	payloadSite := b.ref4Placeholder()
	b.uleb(uint64(tl.PayloadOffset))

	b.uleb(abbrevMember)
	b.strp("tag")
	b.refType(t.Tag)
	b.uleb(uint64(tl.TagOffset))

	b.uleb(0) // close outer structure_type's children

	nestedStart := uint32(len(b.buf))
	b.uleb(abbrevUnionType)
	b.uleb(t.Union.PayloadSize)
	b.strp("")

	b.uleb(abbrevMember)
	b.strp("")
	b.refType(t.Payload)
	b.uleb(0)

	b.uleb(0) // close nested union_type's children

	b.patchRef4(payloadSite, nestedStart)
	b.selfRelSites = append(b.selfRelSites, payloadSite)

	return nil
}

// buildFunction renders a function declaration's DIE.
func (b *dieBuilder) buildFunction(d DeclDesc) error {
	hasBits := d.HasRuntimeBits && d.ReturnType != nil

	if hasBits {
		b.uleb(abbrevSubprogram)
	} else {
		b.uleb(abbrevSubprogramRetVoid)
	}

	b.addr(0)  // low_pc: filled in later by the code generator.
	b.data8(0) // high_pc: filled in later by the code generator.

	if hasBits {
		b.refType(d.ReturnType)
	}

	b.strp(d.Name)
	b.uleb(0) // close the function's own (empty) children list.

	return b.drainWorklist()
}

// buildGlobalVariable currently emits nothing: a DW_TAG_variable DIE needs a
// DW_AT_location expression to be of any use to a debugger, and location
// expressions are unimplemented. abbrevVariable stays reserved in the
// abbreviation table so this gap can close later without renumbering it.
func (b *dieBuilder) buildGlobalVariable(d DeclDesc) error {
	return nil
}

// resolve patches every Pending-table reloc with atomOff+type.off and every
// self-relative site with atomOff+addend, and returns the absolute section
// offsets of every unresolved-error-set reference, ready for the Emitter's
// Deferred Reloc Queue.
func (b *dieBuilder) resolve(atomOff uint32) []uint32 {
	for _, entry := range b.pending {
		for _, site := range entry.relocs {
			b.patchRef4(site, atomOff+entry.off)
		}
	}

	for _, site := range b.selfRelSites {
		addend := b.order().Uint32(b.buf[site : site+4])
		b.patchRef4(site, atomOff+addend)
	}

	abs := make([]uint32, len(b.deferredSites))
	for i, site := range b.deferredSites {
		abs[i] = atomOff + site
	}

	return abs
}
