package debug

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"

	orizonerrors "github.com/orizon-lang/orizon-debuginfo/internal/errors"
)

// Mach-O 64-bit constants and structures (mirroring macho_writer.go's
// original layout, generalized from a single fixed __DWARF segment write to
// a relocatable, growable one).
const (
	machMagic64       = 0xfeedfacf
	machCPUTypeX86_64 = 0x01000007
	machCPUSubtypeAll = 0x00000003
	machObject        = 0x1
	machLCSegment64   = 0x19
	machLCVersionMin  = 0x24 // LC_VERSION_MIN_MACOSX
)

type machHeader64 struct {
	Magic      uint32
	CPUType    uint32
	CPUSubtype uint32
	FileType   uint32
	NCmds      uint32
	SizeOfCmds uint32
	Flags      uint32
	Reserved   uint32
}

type segmentCommand64 struct {
	Cmd      uint32
	Cmdsize  uint32
	Segname  [16]byte
	Vmaddr   uint64
	Vmsize   uint64
	Fileoff  uint64
	Filesize uint64
	Maxprot  int32
	Initprot int32
	Nsects   uint32
	Flags    uint32
}

type section64 struct {
	Sectname  [16]byte
	Segname   [16]byte
	Addr      uint64
	Size      uint64
	Offset    uint32
	Align     uint32
	Reloff    uint32
	Nreloc    uint32
	Flags     uint32
	Reserved1 uint32
	Reserved2 uint32
	Reserved3 uint32
}

type versionMinCommand struct {
	Cmd     uint32
	Cmdsize uint32
	Version uint32
	SDK     uint32
}

func setPaddedName(dst *[16]byte, name string) {
	copy(dst[:], name)
}

// machoSectionName maps a DWARF section name (".debug_info") to its
// __DWARF-segment Mach-O counterpart ("__debug_info"), the real-world
// convention dsymutil/ld64 use.
func machoSectionName(dwarfName string) string {
	return "__" + strings.TrimPrefix(dwarfName, ".")
}

// packMachOVersion encodes a semantic version as Mach-O's X.Y.Z
// (major<<16 | minor<<8 | patch) version field.
func packMachOVersion(v *semver.Version) uint32 {
	return uint32(v.Major())<<16 | uint32(v.Minor())<<8 | uint32(v.Patch())
}

// machHeaderAndCmdsSize is the fixed size of the Mach-O header plus its two
// load commands (one LC_SEGMENT_64 for __DWARF with its five section64
// entries, one LC_VERSION_MIN_MACOSX) — constant for this object's whole
// lifetime, since the section count and command shapes never change. Unlike
// ELF's section-header table (addressed via a relocatable e_shoff pointer),
// Mach-O has no indirection to its load commands: they must stay at file
// offset 0, so this region is reserved once and rewritten in place rather
// than bump-allocated like the DWARF sections that follow it.
func machHeaderAndCmdsSize() uint64 {
	segSize := uint64(binary.Size(segmentCommand64{}))
	sectSize := uint64(binary.Size(section64{}))
	verSize := uint64(binary.Size(versionMinCommand{}))
	headerSize := uint64(binary.Size(machHeader64{}))

	return headerSize + segSize + sectSize*uint64(len(debugSectionNames)) + verSize
}

// MachO64Object is the ObjectFile collaborator for Mach-O 64-bit output,
// writing every DWARF section into one __DWARF,__debug_* layout.
type MachO64Object struct {
	*sectionedFile

	cpuType    uint32
	cpuSubtype uint32
	minOS      *semver.Version
}

// NewMachO64Object creates path targeting cpuType/cpuSubtype, recording
// minOS (parsed via Masterminds/semver) as the LC_VERSION_MIN_MACOSX load
// command's version field, and pre-registers the five DWARF sections
// immediately past the fixed header-and-commands region.
func NewMachO64Object(path string, cpuType, cpuSubtype uint32, minOS string) (*MachO64Object, error) {
	v, err := semver.NewVersion(minOS)
	if err != nil {
		return nil, orizonerrors.DebugInfoIO("new_macho64_object", fmt.Errorf("parsing min-os version %q: %w", minOS, err))
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, orizonerrors.DebugInfoIO("new_macho64_object", err)
	}

	o := &MachO64Object{
		sectionedFile: newSectionedFile(f, machHeaderAndCmdsSize()),
		cpuType:       cpuType,
		cpuSubtype:    cpuSubtype,
		minOS:         v,
	}

	if err := f.Truncate(int64(machHeaderAndCmdsSize())); err != nil {
		f.Close()

		return nil, orizonerrors.DebugInfoIO("new_macho64_object", err)
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

// Flush rewrites the Mach-O header, the __DWARF segment command and its
// five section64 entries, and the LC_VERSION_MIN_MACOSX command, always in
// place at file offset 0 — Mach-O load commands carry no relocatable
// pointer to themselves the way ELF's e_shoff does.
func (o *MachO64Object) Flush() error {
	nsects := len(debugSectionNames)
	segSize := uint32(binary.Size(segmentCommand64{}))
	sectSize := uint32(binary.Size(section64{}))
	verSize := uint32(binary.Size(versionMinCommand{}))
	cmdsize := segSize + sectSize*uint32(nsects)

	var buf bytes.Buffer

	hdr := machHeader64{
		Magic:      machMagic64,
		CPUType:    o.cpuType,
		CPUSubtype: o.cpuSubtype,
		FileType:   machObject,
		NCmds:      2,
		SizeOfCmds: cmdsize + verSize,
	}
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return orizonerrors.Wrap("flush_macho", err)
	}

	var segFilesize uint64
	for _, name := range debugSectionNames {
		_, size, _ := o.SectionInfo(name)
		segFilesize += size
	}

	seg := segmentCommand64{
		Cmd:      machLCSegment64,
		Cmdsize:  cmdsize,
		Fileoff:  machHeaderAndCmdsSize(),
		Filesize: segFilesize,
		Maxprot:  7,
		Initprot: 7,
		Nsects:   uint32(nsects),
	}
	setPaddedName(&seg.Segname, "__DWARF")

	if err := binary.Write(&buf, binary.LittleEndian, seg); err != nil {
		return orizonerrors.Wrap("flush_macho", err)
	}

	for _, name := range debugSectionNames {
		off, size, _ := o.SectionInfo(name)

		var sec section64
		setPaddedName(&sec.Sectname, machoSectionName(name))
		setPaddedName(&sec.Segname, "__DWARF")
		sec.Size = size
		sec.Offset = uint32(off)

		if err := binary.Write(&buf, binary.LittleEndian, sec); err != nil {
			return orizonerrors.Wrap("flush_macho", err)
		}
	}

	ver := versionMinCommand{
		Cmd:     machLCVersionMin,
		Cmdsize: verSize,
		Version: packMachOVersion(o.minOS),
		SDK:     packMachOVersion(o.minOS),
	}
	if err := binary.Write(&buf, binary.LittleEndian, ver); err != nil {
		return orizonerrors.Wrap("flush_macho", err)
	}

	return o.PWriteAll(buf.Bytes(), 0)
}

// Close flushes the final header/load commands and closes the underlying
// file.
func (o *MachO64Object) Close() error {
	if err := o.Flush(); err != nil {
		o.f.Close()

		return err
	}

	return o.f.Close()
}
