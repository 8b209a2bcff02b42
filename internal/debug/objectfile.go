package debug

import (
	"fmt"
	"os"

	orizonerrors "github.com/orizon-lang/orizon-debuginfo/internal/errors"
	"golang.org/x/sys/unix"
)

// ObjectFile is the narrow collaborator interface this module consumes for
// all on-disk mutation. Implementations exist for ELF64 (ET_REL) and
// Mach-O 64-bit (elf_object.go, macho_object.go); exactly the two container
// formats the documented design names.
//
// All offsets are absolute file offsets, not section-relative.
type ObjectFile interface {
	// SectionInfo returns the named section's current file offset and
	// declared size. ok is false if the section does not exist yet.
	SectionInfo(name string) (fileOffset, size uint64, ok bool)

	// AllocatedSize reports how many bytes are available for a section
	// starting at fileOffset before the next section (or end of file)
	// would be clobbered, i.e. the section's current capacity rather than
	// its declared size.
	AllocatedSize(fileOffset uint64) uint64

	// FindFreeSpace reserves a fresh, alignment-satisfying region of at
	// least needed bytes for the named section, growing the file if
	// necessary, rebinding that section's file offset and capacity to the
	// new region, and returning its file offset. The caller is responsible
	// for copying any bytes that must survive the move (CopyRangeAll) and
	// for calling Resize afterward to set the section's declared size
	// within the new region.
	FindFreeSpace(name string, needed, alignment uint64) (uint64, error)

	// Resize updates the named section's declared size, without moving
	// its file offset.
	Resize(name string, newSize uint64) error

	// PWriteAll writes buf at the given absolute file offset.
	PWriteAll(buf []byte, offset uint64) error

	// PWritevAll writes the concatenation of iovecs at the given absolute
	// file offset as a single positioned vectored write.
	PWritevAll(iovecs [][]byte, offset uint64) error

	// CopyRangeAll copies length bytes from srcOff to dstOff, used when a
	// section must relocate to a larger free region.
	CopyRangeAll(srcOff, dstOff, length uint64) error

	// MarkSectionHeaderTableDirty flags that a section's file offset moved,
	// requiring the section-header table (ELF) or load commands (Mach-O)
	// to be rewritten before the file is considered consistent.
	MarkSectionHeaderTableDirty()

	// MarkSectionDirty flags that a single section's header fields (e.g.
	// its declared size) changed.
	MarkSectionDirty(name string)

	// Close flushes any pending header/section-table rewrite and closes the
	// underlying file.
	Close() error
}

// sectionRecord is one section's bookkeeping entry: where it currently
// lives, how much of it is declared "in use," and how much room it has
// before the next bump-allocated region starts.
type sectionRecord struct {
	name       string
	fileOffset uint64
	size       uint64
	capacity   uint64
}

// sectionedFile implements the section-bookkeeping and positioned-I/O half
// of ObjectFile that ELF64Object and MachO64Object share; only the
// container-specific header/section-header (ELF) or load-command (Mach-O)
// serialization differs between the two, handled by each embedder's own
// Flush method. Grounded on the original elf_writer.go/macho_writer.go,
// generalized from "serialize four fixed byte slices once" to "bump-allocate
// resizable named regions against a live *os.File."
type sectionedFile struct {
	f *os.File

	byName map[string]*sectionRecord
	order  []*sectionRecord

	// frontier is the next never-yet-used file offset; FindFreeSpace always
	// carves new space from here rather than reusing vacated regions, since
	// this module only ever grows (never shrinks a whole file).
	frontier uint64

	headerTableDirty bool
	dirtySections    map[string]bool
}

func newSectionedFile(f *os.File, frontier uint64) *sectionedFile {
	return &sectionedFile{
		f:             f,
		byName:        make(map[string]*sectionRecord),
		frontier:      frontier,
		dirtySections: make(map[string]bool),
	}
}

// registerEmpty pre-declares name as an existing, zero-size, zero-capacity
// section without consuming any bump-allocated space — its first real
// AllocateOrGrow call finds capacity 0 < needed and relocates it properly.
func (s *sectionedFile) registerEmpty(name string) {
	if _, ok := s.byName[name]; ok {
		return
	}

	r := &sectionRecord{name: name}
	s.byName[name] = r
	s.order = append(s.order, r)
}

func alignUp64(v, align uint64) uint64 {
	if align <= 1 {
		return v
	}

	return (v + align - 1) / align * align
}

func (s *sectionedFile) SectionInfo(name string) (uint64, uint64, bool) {
	r, ok := s.byName[name]
	if !ok {
		return 0, 0, false
	}

	return r.fileOffset, r.size, true
}

func (s *sectionedFile) AllocatedSize(fileOffset uint64) uint64 {
	for _, r := range s.order {
		if r.fileOffset == fileOffset {
			return r.capacity
		}
	}

	return 0
}

// FindFreeSpace carves needed bytes out of the bump-allocation frontier and
// rebinds name's record to the new region.
func (s *sectionedFile) FindFreeSpace(name string, needed, alignment uint64) (uint64, error) {
	off := alignUp64(s.frontier, alignment)
	s.frontier = off + needed

	r, ok := s.byName[name]
	if !ok {
		r = &sectionRecord{name: name}
		s.byName[name] = r
		s.order = append(s.order, r)
	}

	r.fileOffset = off
	r.capacity = needed

	if err := s.f.Truncate(int64(s.frontier)); err != nil {
		return 0, orizonerrors.DebugInfoIO("find_free_space", err)
	}

	return off, nil
}

func (s *sectionedFile) Resize(name string, newSize uint64) error {
	r, ok := s.byName[name]
	if !ok {
		return orizonerrors.DebugInfoIO("resize", fmt.Errorf("section %q not registered", name))
	}

	r.size = newSize
	if newSize > r.capacity {
		r.capacity = newSize
	}

	return nil
}

func (s *sectionedFile) PWriteAll(buf []byte, offset uint64) error {
	for len(buf) > 0 {
		n, err := unix.Pwrite(int(s.f.Fd()), buf, int64(offset))
		if err != nil {
			return orizonerrors.DebugInfoIO("pwrite", err)
		}

		if n == 0 {
			return orizonerrors.DebugInfoIO("pwrite", fmt.Errorf("wrote 0 bytes with %d remaining", len(buf)))
		}

		buf = buf[n:]
		offset += uint64(n)
	}

	return nil
}

// PWritevAll performs one positioned vectored write covering every non-empty
// iovec, matching the NOP Padding Writer's single-syscall contract. A short write (observed on some filesystems for very large iovec
// counts) falls back to a flattened PWriteAll of the remainder.
func (s *sectionedFile) PWritevAll(iovecs [][]byte, offset uint64) error {
	nonEmpty := iovecs[:0:0]

	total := 0
	for _, v := range iovecs {
		if len(v) == 0 {
			continue
		}

		nonEmpty = append(nonEmpty, v)
		total += len(v)
	}

	if total == 0 {
		return nil
	}

	n, err := unix.Pwritev(int(s.f.Fd()), nonEmpty, int64(offset))
	if err != nil {
		return orizonerrors.DebugInfoIO("pwritev", err)
	}

	if n == total {
		return nil
	}

	flat := make([]byte, 0, total)
	for _, v := range nonEmpty {
		flat = append(flat, v...)
	}

	return s.PWriteAll(flat[n:], offset+uint64(n))
}

// CopyRangeAll copies length bytes via copy_file_range, falling back to a
// read/write pair for filesystems that do not support it.
func (s *sectionedFile) CopyRangeAll(srcOff, dstOff, length uint64) error {
	if length == 0 {
		return nil
	}

	fd := int(s.f.Fd())
	src := int64(srcOff)
	dst := int64(dstOff)
	remaining := int(length)

	for remaining > 0 {
		n, err := unix.CopyFileRange(fd, &src, fd, &dst, remaining, 0)
		if err != nil {
			return s.copyRangeFallback(uint64(src), uint64(dst), uint64(remaining))
		}

		if n == 0 {
			return orizonerrors.DebugInfoIO("copy_file_range", fmt.Errorf("zero-length copy with %d bytes remaining", remaining))
		}

		remaining -= n
	}

	return nil
}

func (s *sectionedFile) copyRangeFallback(src, dst, length uint64) error {
	buf := make([]byte, length)

	read := buf
	off := src

	for len(read) > 0 {
		n, err := unix.Pread(int(s.f.Fd()), read, int64(off))
		if err != nil {
			return orizonerrors.DebugInfoIO("pread", err)
		}

		if n == 0 {
			break
		}

		read = read[n:]
		off += uint64(n)
	}

	return s.PWriteAll(buf, dst)
}

func (s *sectionedFile) MarkSectionHeaderTableDirty() {
	s.headerTableDirty = true
}

func (s *sectionedFile) MarkSectionDirty(name string) {
	s.dirtySections[name] = true
}
