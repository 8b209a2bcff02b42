package debug

import "testing"

func TestRecordListAllocAssignsSequentialIDs(t *testing.T) {
	l := newRecordList()

	a := l.alloc()
	b := l.alloc()

	if a != 0 || b != 1 {
		t.Errorf("alloc() sequence = %d, %d, want 0, 1", a, b)
	}
}

func TestRecordListPlaceFirstThenAppend(t *testing.T) {
	l := newRecordList()

	a := l.alloc()
	l.placeFirst(a, 100, 10)

	b := l.alloc()
	l.appendAfterLast(b, 110, 20)

	if l.first != a || l.last != b {
		t.Fatalf("first/last = %d/%d, want %d/%d", l.first, l.last, a, b)
	}

	ra, rb := l.get(a), l.get(b)
	if ra.next != b || rb.prev != a {
		t.Errorf("linkage broken: a.next=%d b.prev=%d", ra.next, rb.prev)
	}
}

func TestRecordListFreeThenAllocFreeReuses(t *testing.T) {
	l := newRecordList()

	a := l.alloc()
	l.placeFirst(a, 0, 8)

	l.free(a)

	// free keeps a linked in the list (just marked free) rather than
	// removing it, so a later allocate_or_grow capacity scan can still find
	// its gap.
	if l.isEmpty() {
		t.Fatalf("list should not be empty after free — the record stays linked, only marked free")
	}

	if !l.get(a).free {
		t.Errorf("record a should be marked free")
	}

	reused, ok := l.allocFree()
	if !ok || reused != a {
		t.Fatalf("allocFree() = %d, %v, want %d, true", reused, ok, a)
	}

	r := l.get(reused)
	if r.free || r.placed {
		t.Errorf("reused record still marked free=%v placed=%v", r.free, r.placed)
	}

	// allocFree unlinks the record entirely — its caller wants a bare id
	// with no fixed position — unlike free, which leaves a reusable gap.
	if !l.isEmpty() {
		t.Errorf("list should be empty again once allocFree unlinks the sole record")
	}
}

func TestRecordListAllocFreeEmptyReturnsFalse(t *testing.T) {
	l := newRecordList()

	if _, ok := l.allocFree(); ok {
		t.Errorf("allocFree() on an empty free set returned ok=true")
	}
}

func TestRecordListReplaceFreeSplicesInNewID(t *testing.T) {
	l := newRecordList()

	a := l.alloc()
	l.placeFirst(a, 0, 8)

	b := l.alloc()
	l.appendAfterLast(b, 8, 8)

	c := l.alloc()
	l.appendAfterLast(c, 16, 8)

	l.free(b)

	d := l.alloc()

	off := l.replaceFree(b, d, 5)
	if off != 8 {
		t.Errorf("replaceFree returned off=%d, want 8 (b's old off)", off)
	}

	ra, rd, rc := l.get(a), l.get(d), l.get(c)
	if ra.next != d || rd.prev != a || rd.next != c || rc.prev != d {
		t.Errorf("d was not spliced into b's position: a.next=%d d.prev=%d d.next=%d c.prev=%d", ra.next, rd.prev, rd.next, rc.prev)
	}

	if _, ok := l.freeIDs[b]; ok {
		t.Errorf("b should be retired from the free set after replaceFree")
	}

	if l.get(b).placed || l.get(b).free {
		t.Errorf("b should no longer be marked placed or free after being replaced")
	}
}

func TestRecordListReplaceFreeAtTailUpdatesLast(t *testing.T) {
	l := newRecordList()

	a := l.alloc()
	l.placeFirst(a, 0, 8)

	b := l.alloc()
	l.appendAfterLast(b, 8, 8)

	l.free(b)

	c := l.alloc()
	l.replaceFree(b, c, 5)

	if l.last != c {
		t.Errorf("last = %d, want %d after replacing the freed tail record", l.last, c)
	}

	if l.get(a).next != c {
		t.Errorf("a.next = %d, want %d", l.get(a).next, c)
	}
}

func TestRecordListUnlinkMiddle(t *testing.T) {
	l := newRecordList()

	a := l.alloc()
	l.placeFirst(a, 0, 8)

	b := l.alloc()
	l.appendAfterLast(b, 8, 8)

	c := l.alloc()
	l.appendAfterLast(c, 16, 8)

	l.unlink(b)

	ra, rc := l.get(a), l.get(c)
	if ra.next != c || rc.prev != a {
		t.Errorf("unlink(b) left a.next=%d c.prev=%d, want both pointing at each other", ra.next, rc.prev)
	}
}
