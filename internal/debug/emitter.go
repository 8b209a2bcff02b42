package debug

import (
	"fmt"

	orizonerrors "github.com/orizon-lang/orizon-debuginfo/internal/errors"
)

// Section names this emitter uses. An ObjectFile implementation must
// pre-register the first four (even at zero size) before NewEmitter runs, so
// SectionInfo never reports !ok for them (elf_object.go, macho_object.go
// register all five at Open/New time). The emitter never writes .debug_str.
const (
	sectionDebugInfo   = ".debug_info"
	sectionDebugLine   = ".debug_line"
	sectionDebugAbbrev = ".debug_abbrev"
	sectionDebugAranges = ".debug_aranges"
	sectionDebugStr    = ".debug_str"
)

// Option configures a new Emitter. Grounded on the codebase's other functional-option
// constructors for its other long-lived collaborators, rather than a config
// struct passed by value.
type Option func(*Emitter)

// WithLogger overrides the default stderr Logger.
func WithLogger(l Logger) Option {
	return func(e *Emitter) { e.logger = l }
}

// WithCompDir sets the DW_AT_comp_dir string emitted in the compile-unit
// header. Defaults to "" if never set.
func WithCompDir(dir string) Option {
	return func(e *Emitter) { e.compDir = dir }
}

// WithProducer overrides the default DW_AT_producer string.
func WithProducer(producer string) Option {
	return func(e *Emitter) { e.producer = producer }
}

// Emitter is the incremental DWARF writer this package exposes: one
// compile unit, one line-number program, built up across repeated
// CommitDecl/FreeDecl calls and closed out by a single CommitErrorSet call.
type Emitter struct {
	target Target
	obj    ObjectFile
	logger Logger

	compDir  string
	producer string
	rootFile string

	strtab *StringTable

	info *sectionAllocator
	line *sectionAllocator

	// declAtoms/declSrcFns map a declaration's fully_qualified_name to its
	// stable Atom/SrcFn id, so a later CommitDecl for the same name reuses
	// (grows or shrinks) the existing record instead of allocating a new
	// one.
	declAtoms  map[string]uint32
	declSrcFns map[string]uint32

	// prevClosingLine tracks the previous committed function's closing-brace
	// line, the baseline the next function's prologue line-delta reloc slot
	// is computed against.
	prevClosingLine int64

	// deferredQueue holds absolute .debug_info section offsets for ref4
	// sites referencing an unresolved error set, persisting across decls
	// until commit_error_set drains it.
	deferredQueue []uint32

	// errorSetCommitted rejects any further CommitDecl once set, per the
	// Open Question #2 decision recorded in DESIGN.md: commit_error_set is
	// terminal for a given Emitter.
	errorSetCommitted bool
}

// NewEmitter constructs an Emitter targeting t, writing into obj's four
// DWARF sections. rootFile is the single source file named in both the
// compile-unit header and the line program's file table.
//
// obj must already have .debug_info, .debug_line, .debug_abbrev, and
// .debug_aranges registered (SectionInfo returning ok=true, size 0 is
// fine) before this call.
func NewEmitter(obj ObjectFile, t Target, rootFile string, opts ...Option) (*Emitter, error) {
	if t.PointerWidth != 4 && t.PointerWidth != 8 {
		return nil, orizonerrors.DebugInfoUnsupportedTarget(t.PointerWidth)
	}

	e := &Emitter{
		target:     t,
		obj:        obj,
		logger:     NewStderrLogger(),
		rootFile:   rootFile,
		producer:   "orizon-debuginfo",
		strtab:     NewStringTable(),
		declAtoms:  make(map[string]uint32),
		declSrcFns: make(map[string]uint32),
	}

	for _, opt := range opts {
		opt(e)
	}

	if _, err := writeHeaderRegion(obj, sectionDebugAbbrev, encodeAbbrevTable()); err != nil {
		return nil, err
	}

	lineHeader := buildLineHeader(lineHeaderInput{Target: t, RootFile: rootFile})

	if _, err := writeHeaderRegion(obj, sectionDebugLine, lineHeader); err != nil {
		return nil, err
	}

	e.line = newSectionAllocator(obj, sectionDebugLine, uint32(len(lineHeader)), false, buildLineNopFill)

	cu := cuHeaderInput{
		Target:         t,
		StmtListOffset: 0,
		NameStrp:       e.strtab.MakeString(rootFile),
		CompDirStrp:    e.strtab.MakeString(e.compDir),
		ProducerStrp:   e.strtab.MakeString(e.producer),
		SectionSize:    cuHeaderBytes,
	}

	cuHeader, err := buildCUHeader(cu)
	if err != nil {
		return nil, err
	}

	if _, err := writeHeaderRegion(obj, sectionDebugInfo, cuHeader); err != nil {
		return nil, err
	}

	e.info = newSectionAllocator(obj, sectionDebugInfo, uint32(len(cuHeader)), true, buildInfoNopFill)

	return e, nil
}

// writeHeaderRegion writes a fixed-content region (the abbreviation table,
// the line-program header, or the compile-unit header) to a section that
// has not yet grown past it, relocating the section to fresh free space
// first if its currently allocated capacity is too small. It mirrors
// sectionAllocator.growToFit's relocate-then-resize sequence for the
// one-shot case of a section whose only content so far is its header.
func writeHeaderRegion(obj ObjectFile, name string, content []byte) (uint32, error) {
	off, _, ok := obj.SectionInfo(name)
	if !ok {
		return 0, orizonerrors.DebugInfoIO("write_header_region", fmt.Errorf("section %q not registered", name))
	}

	if uint64(len(content)) > obj.AllocatedSize(off) {
		newOff, err := obj.FindFreeSpace(name, uint64(len(content)), 8)
		if err != nil {
			return 0, orizonerrors.Wrap("write_header_region", err)
		}

		off = newOff
		obj.MarkSectionHeaderTableDirty()
	}

	if err := obj.Resize(name, uint64(len(content))); err != nil {
		return 0, orizonerrors.Wrap("write_header_region", err)
	}

	if err := obj.PWriteAll(content, off); err != nil {
		return 0, orizonerrors.Wrap("write_header_region", err)
	}

	obj.MarkSectionDirty(name)

	return uint32(off), nil
}

// allocID returns a free id from list if one is available for reuse,
// otherwise a brand-new one, per the documented "free sets are tracked by
// id, and the allocator prefers reuse over growing the arena."
func allocID(list *recordList) uint32 {
	if id, ok := list.allocFree(); ok {
		return id
	}

	return list.alloc()
}

// InitDecl registers name as a declaration this Emitter will track,
// reserving its Atom id (and, for functions, its SrcFn id) without writing
// anything yet. Calling it before CodeGen/CommitDecl is optional — CommitDecl
// allocates an id itself on first use — but mirrors the init_decl step
// the documented per-declaration sequence names explicitly.
func (e *Emitter) InitDecl(kind DeclKind, name string) {
	if _, ok := e.declAtoms[name]; !ok {
		e.declAtoms[name] = allocID(e.info.list)
	}

	if kind == DeclFunction {
		if _, ok := e.declSrcFns[name]; !ok {
			e.declSrcFns[name] = allocID(e.line.list)
		}
	}
}

// CommitDecl builds and writes d's DIE (and, for a function, its
// line-number-program prologue), allocating or growing its Atom/SrcFn in
// place, per the documented full commit_decl pipeline: DIE Builder, Allocator,
// NOP Padding Writer, then the CU header's unit_length patch.
func (e *Emitter) CommitDecl(d DeclDesc) error {
	if e.errorSetCommitted {
		return orizonerrors.DebugInfoStaleCommit(d.Name)
	}

	if d.Kind == DeclGlobalVariable {
		// Global variables currently emit no DIE at all (buildGlobalVariable
		// is a documented no-op), so there is no atom to allocate, no CU
		// header patch, and nothing for FreeDecl to reclaim.
		return nil
	}

	e.InitDecl(d.Kind, d.Name)

	b := newDIEBuilder(e.target, e.strtab, e.logger)

	if err := b.buildFunction(d); err != nil {
		return err
	}

	atomID := e.declAtoms[d.Name]

	atomOff, err := e.info.AllocateOrGrow(atomID, uint32(len(b.buf)))
	if err != nil {
		return err
	}

	deferred := b.resolve(atomOff)
	e.deferredQueue = append(e.deferredQueue, deferred...)

	if err := e.writeInfoAtom(atomID, b.buf); err != nil {
		return err
	}

	if err := e.patchCUHeader(); err != nil {
		return err
	}

	if d.Kind == DeclFunction {
		if err := e.commitSrcFn(d); err != nil {
			return err
		}
	}

	return nil
}

// writeInfoAtom performs the single vectored write that lands atomID's
// freshly built payload at its allocated offset, padding the gap to its
// successor (or the section's trailing terminator, for the last atom).
func (e *Emitter) writeInfoAtom(atomID uint32, payload []byte) error {
	secOff, _, ok := e.obj.SectionInfo(sectionDebugInfo)
	if !ok {
		return orizonerrors.DebugInfoIO("write_info_atom", fmt.Errorf("section %q not registered", sectionDebugInfo))
	}

	r := e.info.list.get(atomID)
	nextPad, trailingZero := e.info.gapAfter(atomID)

	return writeWithPadding(e.obj, secOff+uint64(r.off), 0, nextPad, payload, trailingZero, e.info.fill)
}

// patchCUHeader rewrites the compile-unit header's initial-length field to
// reflect .debug_info's current size — every CommitDecl/FreeDecl changes it.
func (e *Emitter) patchCUHeader() error {
	secOff, _, ok := e.obj.SectionInfo(sectionDebugInfo)
	if !ok {
		return orizonerrors.DebugInfoIO("patch_cu_header", fmt.Errorf("section %q not registered", sectionDebugInfo))
	}

	return patchCUUnitLength(e.obj, secOff, e.target, uint64(e.info.usedSize))
}

// commitSrcFn builds and writes d's line-number-program prologue, computing
// its line-delta reloc slot from the gap between d's opening brace and the
// previous commit's closing brace.
func (e *Emitter) commitSrcFn(d DeclDesc) error {
	delta := d.Body.OpeningBraceLine - e.prevClosingLine
	if delta < 0 {
		delta = 0
	}

	payload := buildFunctionPrologue(e.target.PointerWidth, uint32(delta), 1)

	srcFnID := e.declSrcFns[d.Name]

	off, err := e.line.AllocateOrGrow(srcFnID, uint32(len(payload)))
	if err != nil {
		return err
	}

	secOff, _, ok := e.obj.SectionInfo(sectionDebugLine)
	if !ok {
		return orizonerrors.DebugInfoIO("commit_src_fn", fmt.Errorf("section %q not registered", sectionDebugLine))
	}

	nextPad, _ := e.line.gapAfter(srcFnID)

	if err := writeWithPadding(e.obj, secOff+uint64(off), 0, nextPad, payload, false, e.line.fill); err != nil {
		return err
	}

	e.prevClosingLine = d.Body.ClosingBraceLine

	return nil
}

// FreeDecl releases name's Atom (and SrcFn, for a function) back to the
// free set, padding its vacated bytes with NOPs and re-running the CU
// header's size patch — the reverse of CommitDecl.
func (e *Emitter) FreeDecl(kind DeclKind, name string) error {
	if atomID, ok := e.declAtoms[name]; ok {
		if err := e.info.free(atomID); err != nil {
			return err
		}

		delete(e.declAtoms, name)

		if err := e.patchCUHeader(); err != nil {
			return err
		}
	}

	if kind == DeclFunction {
		if srcFnID, ok := e.declSrcFns[name]; ok {
			if err := e.line.free(srcFnID); err != nil {
				return err
			}

			delete(e.declSrcFns, name)
		}
	}

	return nil
}

// CommitErrorSet materializes the whole-program error-set DIE, allocates a
// new atom for it, writes its body, then drains the Deferred Reloc Queue in
// LIFO order, patching every pending ref4 site to point at the new atom.
// It is terminal: no further CommitDecl call succeeds on
// this Emitter afterward.
func (e *Emitter) CommitErrorSet(set ErrorSetDesc) error {
	if e.errorSetCommitted {
		return orizonerrors.DebugInfoStaleCommit("(error set)")
	}

	b := newDIEBuilder(e.target, e.strtab, e.logger)

	b.uleb(abbrevEnumerationType)
	b.data1(byte(set.ABISize))
	b.strp("anyerror")

	b.uleb(abbrevEnumerator)
	b.strp("(no error)")
	b.data8(0)

	for _, m := range set.Members {
		b.uleb(abbrevEnumerator)
		b.strp(m.Name)
		b.data8(m.Value)
	}

	b.uleb(0)

	atomID := allocID(e.info.list)

	atomOff, err := e.info.AllocateOrGrow(atomID, uint32(len(b.buf)))
	if err != nil {
		return err
	}

	if err := e.writeInfoAtom(atomID, b.buf); err != nil {
		return err
	}

	if err := e.patchCUHeader(); err != nil {
		return err
	}

	secOff, _, ok := e.obj.SectionInfo(sectionDebugInfo)
	if !ok {
		return orizonerrors.DebugInfoIO("commit_error_set", fmt.Errorf("section %q not registered", sectionDebugInfo))
	}

	target := make([]byte, 4)
	e.target.byteOrder().PutUint32(target, atomOff)

	for i := len(e.deferredQueue) - 1; i >= 0; i-- {
		if err := e.obj.PWriteAll(target, secOff+uint64(e.deferredQueue[i])); err != nil {
			return err
		}
	}

	e.deferredQueue = nil
	e.errorSetCommitted = true

	return nil
}

// Finalize writes .debug_aranges' single address range, covering the whole
// text section, once the code generator has assigned final addresses.
// It may be called only once, after every CommitDecl the
// translation unit will ever issue.
func (e *Emitter) Finalize(textLowPC, textSize uint64) error {
	content := buildAranges(e.target, 0, textLowPC, textSize)

	_, err := writeHeaderRegion(e.obj, sectionDebugAranges, content)

	return err
}

// StrTabBytes returns the current .debug_str contents, for the caller to
// flush into the object file's string-table section alongside the four
// sections this Emitter writes directly.
func (e *Emitter) StrTabBytes() []byte {
	return e.strtab.Bytes()
}
