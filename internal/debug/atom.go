package debug

// noIndex is the sentinel "no index" value for the arena-allocated
// doubly-linked lists backing Atom/SrcFn records. Unlike
// the documentation's own prose (which uses -1), the arena indices here are unsigned
// so the maximum uint32 value serves as the sentinel instead.
const noIndex = ^uint32(0)

// record is the shared shape of an Atom slot (.debug_info) or SrcFn slot
// (.debug_line): an offset/length pair threaded into a doubly-linked list in
// section order.
type record struct {
	off    uint32
	length uint32
	prev   uint32
	next   uint32
	placed bool
	free   bool
}

// recordList is an arena-backed doubly linked list of records addressed by
// stable uint32 ids. Ids are never reused or renumbered; freeing a record
// (free) leaves it linked in place, marked free, so its old gap can be
// found and reused in place by replaceFree; popping an id purely for its
// number (allocFree) unlinks it instead, since that caller wants a bare id
// with no fixed position yet. Neither invalidates outstanding ids held
// elsewhere.
type recordList struct {
	arena   []record
	first   uint32
	last    uint32
	freeIDs map[uint32]struct{}
}

func newRecordList() *recordList {
	return &recordList{
		first:   noIndex,
		last:    noIndex,
		freeIDs: make(map[uint32]struct{}),
	}
}

// alloc reserves a brand-new id for a declaration that has never had a
// record before. It is not linked into the list until placeFirst or
// appendAfterLast is called on it.
func (l *recordList) alloc() uint32 {
	id := uint32(len(l.arena))
	l.arena = append(l.arena, record{prev: noIndex, next: noIndex})

	return id
}

// allocFree pops an id from the free set (tracked by id, not offset, per
// the documented design) for reuse as a brand-new, not-yet-placed record —
// unlike replaceFree, which keeps a free record's old slot alive for
// in-place reuse, this detaches it from the list entirely, since the caller
// wants a bare id and does not yet know where its next record will land.
func (l *recordList) allocFree() (uint32, bool) {
	for id := range l.freeIDs {
		delete(l.freeIDs, id)

		r := l.get(id)
		r.free = false
		r.placed = false

		l.unlink(id)

		return id, true
	}

	return 0, false
}

func (l *recordList) get(id uint32) *record {
	return &l.arena[id]
}

func (l *recordList) isEmpty() bool {
	return l.first == noIndex
}

func (l *recordList) unlink(id uint32) {
	r := l.get(id)

	if r.prev != noIndex {
		l.get(r.prev).next = r.next
	} else {
		l.first = r.next
	}

	if r.next != noIndex {
		l.get(r.next).prev = r.prev
	} else {
		l.last = r.prev
	}

	r.prev, r.next = noIndex, noIndex
}

func (l *recordList) placeFirst(id uint32, off, length uint32) {
	r := l.get(id)
	r.off, r.length = off, length
	r.prev, r.next = noIndex, noIndex
	r.placed = true
	l.first, l.last = id, id
}

func (l *recordList) appendAfterLast(id uint32, off, length uint32) {
	r := l.get(id)
	r.off, r.length = off, length
	r.prev, r.next = l.last, noIndex
	r.placed = true

	if l.last != noIndex {
		l.get(l.last).next = id
	} else {
		l.first = id
	}

	l.last = id
}

// free marks id vacant and returns its slot to the free set, tracked by id
// per the documented behavior ("free sets are tracked by id, not offset").
// Unlike unlink, it leaves id linked into the list at its old position —
// its off is still the low end of the gap bounded by whatever record now
// follows it (or, for the last record, the section's allocated capacity) —
// so a later allocate_or_grow can find and reuse that gap via replaceFree
// instead of only ever appending after the last record.
func (l *recordList) free(id uint32) {
	r := l.get(id)
	r.free = true
	l.freeIDs[id] = struct{}{}
}

// replaceFree splices newID into freeID's position in the list, carrying
// over its off and prev/next links, and retires freeID from the free set —
// its bytes now belong to newID. freeID must currently be a linked, free
// record (i.e. still tracked in l.freeIDs). Returns newID's new off.
func (l *recordList) replaceFree(freeID, newID, newLen uint32) uint32 {
	free := l.get(freeID)
	off := free.off

	n := l.get(newID)
	n.off = off
	n.length = newLen
	n.prev, n.next = free.prev, free.next
	n.placed = true

	if free.prev != noIndex {
		l.get(free.prev).next = newID
	} else {
		l.first = newID
	}

	if free.next != noIndex {
		l.get(free.next).prev = newID
	} else {
		l.last = newID
	}

	delete(l.freeIDs, freeID)
	free.free = false
	free.placed = false
	free.prev, free.next = noIndex, noIndex

	return off
}
