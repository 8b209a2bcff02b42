package debug

import (
	"encoding/binary"
	"os"

	orizonerrors "github.com/orizon-lang/orizon-debuginfo/internal/errors"
)

// ELF64 constants this writer needs (mirroring elf_writer.go's original layout,
// generalized from a single fixed layout to a relocatable, growable one).
const (
	elfEIClass64  = 2
	elfEIData2LSB = 1
	elfEVCurrent  = 1
	elfETRel      = 1
	elfEMX86_64   = 62
	elfSHTProgbits = 1
	elfSHTStrtab   = 3
	elfHeaderSize  = 64
	elfShdrSize    = 64
)

// debugSectionNames is the fixed set of sections this emitter ever writes,
// in the order ELF64Object lays out its section-header table.
var debugSectionNames = []string{
	".debug_info", ".debug_line", ".debug_abbrev", ".debug_aranges", ".debug_str",
}

// ELF64Object is the ObjectFile collaborator for ELF64 ET_REL output. It
// owns a live *os.File and rewrites the section-header table and ELF header
// in place whenever a section relocates (MarkSectionHeaderTableDirty) or
// changes declared size (MarkSectionDirty).
type ELF64Object struct {
	*sectionedFile

	machine uint16
}

// NewELF64Object creates path and pre-registers the five DWARF sections at
// zero size, per emitter.go's contract that NewEmitter's collaborator
// already knows about them.
func NewELF64Object(path string, machine uint16) (*ELF64Object, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, orizonerrors.DebugInfoIO("new_elf64_object", err)
	}

	o := &ELF64Object{
		sectionedFile: newSectionedFile(f, elfHeaderSize),
		machine:       machine,
	}

	if err := f.Truncate(elfHeaderSize); err != nil {
		f.Close()

		return nil, orizonerrors.DebugInfoIO("new_elf64_object", err)
	}

	for _, name := range debugSectionNames {
		o.registerEmpty(name)
	}

	if err := o.Flush(); err != nil {
		f.Close()

		return nil, err
	}

	return o, nil
}

// Flush rewrites the ELF header and, if any section moved or resized, the
// section-header table and .shstrtab — both always appended past the
// current bump-allocation frontier, since this writer never reclaims space.
func (o *ELF64Object) Flush() error {
	shstr := []byte{0x00}
	nameOff := make(map[string]uint32, len(debugSectionNames)+1)

	for _, name := range debugSectionNames {
		nameOff[name] = uint32(len(shstr))
		shstr = append(shstr, name...)
		shstr = append(shstr, 0x00)
	}

	nameOff[".shstrtab"] = uint32(len(shstr))
	shstr = append(shstr, ".shstrtab"...)
	shstr = append(shstr, 0x00)

	shstrOff, err := o.FindFreeSpace(".shstrtab", uint64(len(shstr)), 1)
	if err != nil {
		return err
	}

	if err := o.PWriteAll(shstr, shstrOff); err != nil {
		return err
	}

	if err := o.Resize(".shstrtab", uint64(len(shstr))); err != nil {
		return err
	}

	// "$shtab" is not a real ELF section; it reuses sectionedFile's
	// bump-allocation bookkeeping to reserve and track the section-header
	// table's own region the same way a DWARF section is tracked.
	shoff, err := o.FindFreeSpace("$shtab", uint64(elfShdrSize*(1+len(debugSectionNames)+1)), 8)
	if err != nil {
		return err
	}

	var table []byte
	table = append(table, make([]byte, elfShdrSize)...) // null section

	for _, name := range debugSectionNames {
		off, size, _ := o.SectionInfo(name)
		table = append(table, buildShdr(nameOff[name], elfSHTProgbits, off, size)...)
	}

	shstrFileOff, shstrSize, _ := o.SectionInfo(".shstrtab")
	table = append(table, buildShdr(nameOff[".shstrtab"], elfSHTStrtab, shstrFileOff, shstrSize)...)

	if err := o.PWriteAll(table, shoff); err != nil {
		return err
	}

	if err := o.Resize("$shtab", uint64(len(table))); err != nil {
		return err
	}

	header := make([]byte, elfHeaderSize)
	header[0], header[1], header[2], header[3] = 0x7f, 'E', 'L', 'F'
	header[4] = elfEIClass64
	header[5] = elfEIData2LSB
	header[6] = elfEVCurrent

	order := binary.LittleEndian
	order.PutUint16(header[16:], elfETRel)
	order.PutUint16(header[18:], o.machine)
	order.PutUint32(header[20:], elfEVCurrent)
	order.PutUint64(header[40:], shoff)
	order.PutUint16(header[52:], elfHeaderSize)
	order.PutUint16(header[58:], elfShdrSize)
	order.PutUint16(header[60:], uint16(1+len(debugSectionNames)+1))
	order.PutUint16(header[62:], uint16(1+len(debugSectionNames)))

	return o.PWriteAll(header, 0)
}

func buildShdr(nameOff uint32, shtype uint32, off, size uint64) []byte {
	sh := make([]byte, elfShdrSize)
	order := binary.LittleEndian

	order.PutUint32(sh[0:], nameOff)
	order.PutUint32(sh[4:], shtype)
	order.PutUint64(sh[24:], off)
	order.PutUint64(sh[32:], size)
	order.PutUint64(sh[48:], 1) // addralign

	return sh
}

// Close flushes the final header/section-header table and closes the
// underlying file.
func (o *ELF64Object) Close() error {
	if err := o.Flush(); err != nil {
		o.f.Close()

		return err
	}

	return o.f.Close()
}
