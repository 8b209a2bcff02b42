package debug

import (
	"fmt"
	"math"

	orizonerrors "github.com/orizon-lang/orizon-debuginfo/internal/errors"
)

// padToIdeal implements the documented growth policy: pad_to_ideal(n) = n +
// n/3, saturating rather than overflowing uint32.
func padToIdeal(n uint32) uint32 {
	extra := n / 3
	if extra > math.MaxUint32-n {
		return math.MaxUint32
	}

	return n + extra
}

// sectionAllocator implements the Allocator-over-Sections component
// for one section (.debug_info or .debug_line), tracking
// where each record lives via a recordList and growing the backing section
// through the Object-File collaborator when records no longer fit.
//
// Grounded on the original dwarf_writer.go's section-assembly order (header
// bytes first, then a flat run of entries) generalized from "write once" to
// "allocate, migrate, and grow in place."
type sectionAllocator struct {
	list *recordList
	obj  ObjectFile

	sectionName string
	headerBytes uint32

	// reserveTrailingZero reserves one extra byte of required capacity
	// past the last record — .debug_info's terminating null DIE.
	reserveTrailingZero bool

	fill nopFiller

	usedSize uint32
}

func newSectionAllocator(obj ObjectFile, sectionName string, headerBytes uint32, reserveTrailingZero bool, fill nopFiller) *sectionAllocator {
	return &sectionAllocator{
		list:                newRecordList(),
		obj:                 obj,
		sectionName:         sectionName,
		headerBytes:         headerBytes,
		reserveTrailingZero: reserveTrailingZero,
		fill:                fill,
		usedSize:            headerBytes,
	}
}

// AllocateOrGrow implements the documented five-step allocation policy for
// record id, whose payload is now newLen bytes. It returns the record's
// final (possibly unchanged) file offset.
func (a *sectionAllocator) AllocateOrGrow(id uint32, newLen uint32) (uint32, error) {
	r := a.list.get(id)
	oldLen := r.length
	oldOff := r.off

	r.length = newLen // step 1: commit the new length up front.

	switch {
	case !r.placed:
		if off, ok := a.reuseFreeSlot(id, newLen); ok {
			return off, nil
		}

		if a.list.isEmpty() {
			off := padToIdeal(a.headerBytes)
			a.list.placeFirst(id, off, newLen)
		} else {
			a.placeAfterLast(id, newLen)
		}

		if err := a.growToFit(); err != nil {
			return 0, err
		}

		return a.list.get(id).off, nil

	case id == a.list.last:
		if err := a.growToFit(); err != nil {
			return 0, err
		}

		if newLen < oldLen {
			if err := a.padTail(oldOff, newLen, oldLen); err != nil {
				return 0, err
			}
		}

		return oldOff, nil

	default:
		next := a.list.get(r.next)

		if uint64(oldOff)+uint64(newLen)+minNopSize <= uint64(next.off) {
			// Step 5: still fits between this record and its successor.
			if newLen < oldLen {
				if err := a.padTail(oldOff, newLen, oldLen); err != nil {
					return 0, err
				}
			}

			return oldOff, nil
		}

		// Step 4: migrate — vacate the old slot, append after the
		// current last.
		if err := a.padTail(oldOff, 0, oldLen); err != nil {
			return 0, err
		}

		a.list.unlink(id)

		a.placeAfterLast(id, newLen)

		if err := a.growToFit(); err != nil {
			return 0, err
		}

		return a.list.get(id).off, nil
	}
}

// placeAfterLast appends id after the current last record — or, if that
// last record is itself a vacated (zero-length) gap reuseFreeSlot already
// rejected as too small, takes over its slot instead of stacking a second
// record at the same offset. This is a plain append, not a free-set scan:
// migrations always take this path regardless of what else the free set
// holds, per the documented "not a migration" scope of the capacity scan.
func (a *sectionAllocator) placeAfterLast(id, newLen uint32) {
	last := a.list.get(a.list.last)

	if last.free {
		a.list.replaceFree(a.list.last, id, newLen)

		return
	}

	off := last.off + padToIdeal(last.length)
	a.list.appendAfterLast(id, off, newLen)
}

// reuseFreeSlot implements the free-set capacity scan: before a new
// (never-placed) record is appended after the current last, look for a
// vacated slot the free set already tracks whose capacity — the gap up to
// whatever now follows it, or up to the section's allocated capacity if it
// is the last record — is at least newLen+minNopSize, so the reused slot
// still has room for a trailing NOP gap of its own. Map iteration order
// otherwise picks arbitrarily among equally good candidates; this keeps the
// documented gap-reuse behavior explicit instead of silently always
// appending.
func (a *sectionAllocator) reuseFreeSlot(id, newLen uint32) (uint32, bool) {
	for freeID := range a.list.freeIDs {
		if a.capacityOf(freeID) < uint64(newLen)+minNopSize {
			continue
		}

		return a.list.replaceFree(freeID, id, newLen), true
	}

	return 0, false
}

// capacityOf returns how many bytes could occupy id's slot without
// colliding with whatever record follows it, or, if id is the current last
// record, without exceeding the section's currently allocated capacity.
func (a *sectionAllocator) capacityOf(id uint32) uint64 {
	r := a.list.get(id)

	if id == a.list.last {
		secOff, _, ok := a.obj.SectionInfo(a.sectionName)
		if !ok {
			return 0
		}

		allocated := a.obj.AllocatedSize(secOff)
		if allocated < uint64(r.off) {
			return 0
		}

		return allocated - uint64(r.off)
	}

	next := a.list.get(r.next)

	return uint64(next.off - r.off)
}

// padTail overwrites the shrunk tail [off+keep, off+oldLen) with NOP filler,
// per the documented behavior: "Committing a shrunk payload keeps off fixed and pads the
// tail with NOPs." Passing keep=0 vacates the whole old region, used during
// migration.
func (a *sectionAllocator) padTail(off, keep, oldLen uint32) error {
	if keep >= oldLen {
		return nil
	}

	n := oldLen - keep

	return orizonerrors.Wrap("pad_tail", a.obj.PWriteAll(a.fill(n), uint64(off)+uint64(keep)))
}

// growToFit extends the backing section, relocating it to fresh free space
// via the Object-File collaborator if the current allocation no longer has
// room.
func (a *sectionAllocator) growToFit() error {
	needed := uint32(0)

	if !a.list.isEmpty() {
		last := a.list.get(a.list.last)
		needed = last.off + last.length
	} else {
		needed = a.headerBytes
	}

	if a.reserveTrailingZero {
		needed++
	}

	curOff, _, ok := a.obj.SectionInfo(a.sectionName)
	if !ok {
		return orizonerrors.DebugInfoIO("grow_to_fit", fmt.Errorf("section %q not registered in object file", a.sectionName))
	}

	capacity := a.obj.AllocatedSize(curOff)

	if uint64(needed) > capacity {
		newOff, err := a.obj.FindFreeSpace(a.sectionName, uint64(padToIdeal(needed)), 8)
		if err != nil {
			return orizonerrors.Wrap("grow_to_fit", err)
		}

		if a.usedSize > 0 {
			if err := a.obj.CopyRangeAll(curOff, newOff, uint64(a.usedSize)); err != nil {
				return orizonerrors.Wrap("grow_to_fit", err)
			}
		}

		a.obj.MarkSectionHeaderTableDirty()
	}

	if err := a.obj.Resize(a.sectionName, uint64(needed)); err != nil {
		return orizonerrors.Wrap("grow_to_fit", err)
	}

	a.obj.MarkSectionDirty(a.sectionName)
	a.usedSize = needed

	return nil
}

// free returns id's record to the allocator's free set, per free_decl's
// contract in the documented design. Its length drops to zero — the whole
// slot becomes gap, bounded by whatever now follows it (or the section's
// allocated capacity, if it was last) — while its off and list position stay
// put, so a later AllocateOrGrow can find and reuse the gap via
// reuseFreeSlot instead of only ever appending after the last record. If id
// was last, this also lets growToFit reclaim the vacated tail immediately.
func (a *sectionAllocator) free(id uint32) error {
	r := a.list.get(id)
	off, length := r.off, r.length

	r.length = 0
	a.list.free(id)

	if err := a.padTail(off, 0, length); err != nil {
		return err
	}

	return a.growToFit()
}

// gapAfter reports how much filler must follow id's payload before the next
// record's off (or, for the current last record, whether a trailing
// terminator byte is owed instead — the documented vectored write covers
// both in one call).
func (a *sectionAllocator) gapAfter(id uint32) (nextPad uint32, trailingZero bool) {
	r := a.list.get(id)

	if id == a.list.last {
		return 0, a.reserveTrailingZero
	}

	next := a.list.get(r.next)

	return next.off - (r.off + r.length), false
}
