package debug

import "testing"

func newTestAllocator() (*fakeObjectFile, *sectionAllocator) {
	obj := newFakeObjectFile()
	obj.registerEmpty(".debug_info")

	a := newSectionAllocator(obj, ".debug_info", 16, true, buildInfoNopFill)

	return obj, a
}

func TestPadToIdeal(t *testing.T) {
	cases := []struct {
		in, want uint32
	}{
		{0, 0},
		{3, 4},
		{30, 40},
		{300, 400},
	}

	for _, c := range cases {
		if got := padToIdeal(c.in); got != c.want {
			t.Errorf("padToIdeal(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPadToIdealSaturates(t *testing.T) {
	const max = ^uint32(0)

	if got := padToIdeal(max); got != max {
		t.Errorf("padToIdeal(MaxUint32) = %d, want %d (saturated)", got, max)
	}
}

func TestAllocateOrGrowFirstRecord(t *testing.T) {
	_, a := newTestAllocator()

	id := a.list.alloc()

	off, err := a.AllocateOrGrow(id, 10)
	if err != nil {
		t.Fatalf("AllocateOrGrow: %v", err)
	}

	if off < 16 {
		t.Errorf("first record placed at %d, want >= header size 16", off)
	}
}

func TestAllocateOrGrowAppendsAfterExisting(t *testing.T) {
	_, a := newTestAllocator()

	id1 := a.list.alloc()
	off1, err := a.AllocateOrGrow(id1, 10)
	if err != nil {
		t.Fatalf("AllocateOrGrow(id1): %v", err)
	}

	id2 := a.list.alloc()
	off2, err := a.AllocateOrGrow(id2, 20)
	if err != nil {
		t.Fatalf("AllocateOrGrow(id2): %v", err)
	}

	if off2 <= off1 {
		t.Errorf("second record at %d did not land after first at %d", off2, off1)
	}
}

func TestAllocateOrGrowShrinkInPlaceKeepsOffset(t *testing.T) {
	_, a := newTestAllocator()

	id1 := a.list.alloc()
	off1, err := a.AllocateOrGrow(id1, 100)
	if err != nil {
		t.Fatalf("AllocateOrGrow(id1, 100): %v", err)
	}

	// id1 is the only (and therefore last) record; shrinking it must keep
	// its offset fixed and merely pad the vacated tail.
	off1Again, err := a.AllocateOrGrow(id1, 10)
	if err != nil {
		t.Fatalf("AllocateOrGrow(id1, 10): %v", err)
	}

	if off1Again != off1 {
		t.Errorf("shrinking the last record moved it from %d to %d", off1, off1Again)
	}
}

func TestAllocateOrGrowMiddleRecordMigratesWhenItDoesNotFit(t *testing.T) {
	_, a := newTestAllocator()

	id1 := a.list.alloc()
	off1, _ := a.AllocateOrGrow(id1, 8)

	id2 := a.list.alloc()
	_, _ = a.AllocateOrGrow(id2, 8)

	// Growing id1 far past the small gap left before id2 must migrate it to
	// a fresh region after the current last record, not corrupt id2.
	newOff, err := a.AllocateOrGrow(id1, 1000)
	if err != nil {
		t.Fatalf("AllocateOrGrow(id1, 1000): %v", err)
	}

	if newOff == off1 {
		t.Errorf("expected id1 to migrate off its original offset %d, stayed put", off1)
	}

	if a.list.last != id1 {
		t.Errorf("migrated record should become the new last, got last=%d want %d", a.list.last, id1)
	}
}

func TestFreeLeavesGapLinkedForReuse(t *testing.T) {
	_, a := newTestAllocator()

	id1 := a.list.alloc()
	_, _ = a.AllocateOrGrow(id1, 8)

	id2 := a.list.alloc()
	_, _ = a.AllocateOrGrow(id2, 8)

	if err := a.free(id1); err != nil {
		t.Fatalf("free(id1): %v", err)
	}

	// Freeing must not unlink id1 — it stays part of the list, marked free,
	// so a later AllocateOrGrow can find and reuse its gap instead of the
	// allocator forgetting it ever existed.
	if a.list.first != id1 {
		t.Errorf("after freeing id1, first should still be id1 (linked, marked free), got %d", a.list.first)
	}

	if !a.list.get(id1).free {
		t.Errorf("id1's record was not marked free")
	}

	if a.list.get(id1).next != id2 {
		t.Errorf("id1 should still link to id2 after being freed, got next=%d", a.list.get(id1).next)
	}

	if _, ok := a.list.freeIDs[id1]; !ok {
		t.Errorf("id1 should be tracked in the free set after being freed")
	}
}

func TestAllocateOrGrowReusesFreedMiddleSlot(t *testing.T) {
	_, a := newTestAllocator()

	id1 := a.list.alloc()
	_, _ = a.AllocateOrGrow(id1, 8)

	id2 := a.list.alloc()
	off2, _ := a.AllocateOrGrow(id2, 8)

	id3 := a.list.alloc()
	_, _ = a.AllocateOrGrow(id3, 8)

	if err := a.free(id2); err != nil {
		t.Fatalf("free(id2): %v", err)
	}

	id4 := a.list.alloc()

	off4, err := a.AllocateOrGrow(id4, 4)
	if err != nil {
		t.Fatalf("AllocateOrGrow(id4): %v", err)
	}

	if off4 != off2 {
		t.Errorf("new record landed at %d, want id2's freed slot at %d reused instead of appending", off4, off2)
	}

	if a.list.get(id1).next != id4 || a.list.get(id4).next != id3 {
		t.Errorf("id4 was not spliced between id1 and id3 in place of freed id2")
	}

	if _, ok := a.list.freeIDs[id2]; ok {
		t.Errorf("id2 should be retired from the free set once its slot is reused")
	}
}

func TestAllocateOrGrowSkipsFreedSlotTooSmall(t *testing.T) {
	_, a := newTestAllocator()

	id1 := a.list.alloc()
	_, _ = a.AllocateOrGrow(id1, 8)

	id2 := a.list.alloc()
	off2, _ := a.AllocateOrGrow(id2, 8)

	id3 := a.list.alloc()
	_, _ = a.AllocateOrGrow(id3, 8)

	if err := a.free(id2); err != nil {
		t.Fatalf("free(id2): %v", err)
	}

	id4 := a.list.alloc()

	off4, err := a.AllocateOrGrow(id4, 100) // far bigger than id2's freed gap
	if err != nil {
		t.Fatalf("AllocateOrGrow(id4): %v", err)
	}

	if off4 == off2 {
		t.Errorf("a record too big for the freed gap was placed at %d instead of appended after the last record", off4)
	}

	if a.list.last != id4 {
		t.Errorf("id4 should become the new last record, got last=%d", a.list.last)
	}

	// id2's vacated gap must stay linked (and in the free set) between id1
	// and id3 rather than being silently dropped once rejected as too small.
	if a.list.get(id1).next != id2 || a.list.get(id2).next != id3 {
		t.Errorf("id2's freed slot was not preserved in list order")
	}

	if _, ok := a.list.freeIDs[id2]; !ok {
		t.Errorf("id2 should remain in the free set after being rejected as too small")
	}
}

func TestAllocateOrGrowReplacesFreedLastRecordInPlace(t *testing.T) {
	_, a := newTestAllocator()

	id1 := a.list.alloc()
	_, _ = a.AllocateOrGrow(id1, 8)

	id2 := a.list.alloc()
	off2, _ := a.AllocateOrGrow(id2, 200)

	if err := a.free(id2); err != nil {
		t.Fatalf("free(id2): %v", err)
	}

	if a.list.last != id2 {
		t.Fatalf("freeing the last record should leave it linked as last, got last=%d", a.list.last)
	}

	id3 := a.list.alloc()

	off3, err := a.AllocateOrGrow(id3, 20)
	if err != nil {
		t.Fatalf("AllocateOrGrow(id3): %v", err)
	}

	if off3 != off2 {
		t.Errorf("new last record landed at %d, want the freed tail slot reused at %d", off3, off2)
	}

	if a.list.last != id3 {
		t.Errorf("id3 should become the new last record, got last=%d", a.list.last)
	}
}

func TestGapAfterLastRecordReportsTrailingZero(t *testing.T) {
	_, a := newTestAllocator()

	id := a.list.alloc()
	_, _ = a.AllocateOrGrow(id, 8)

	nextPad, trailingZero := a.gapAfter(id)
	if nextPad != 0 || !trailingZero {
		t.Errorf("gapAfter(last) = (%d, %v), want (0, true)", nextPad, trailingZero)
	}
}
