package malloc

import "testing"

func TestRegionIsEmptyInitially(t *testing.T) {
	r := newTestRegion(t, 256)
	if !r.isEmpty() {
		t.Fatalf("a freshly initialized region must be empty")
	}
}

func TestRegionAllocateShrinksFreeSpace(t *testing.T) {
	r := newTestRegion(t, 512)

	p := r.allocate(32)
	if p == nil {
		t.Fatalf("allocate failed")
	}

	if r.isEmpty() {
		t.Fatalf("region should no longer be empty after an allocation")
	}
}

func TestRegionAllocateThenReleaseRestoresEmpty(t *testing.T) {
	r := newTestRegion(t, 512)

	p := r.allocate(32)
	if p == nil {
		t.Fatalf("allocate failed")
	}

	r.release(p)

	if !r.isEmpty() {
		t.Fatalf("region must be empty again once its only allocation is freed")
	}
}

func TestRegionFindFirstFitSkipsTooSmall(t *testing.T) {
	r := newTestRegion(t, 1024)
	rh := r.header()
	first := fbAt(rh.head)
	splitFreeBlock(first, r, 16)

	// first is now a 16-byte block followed by a larger leftover.
	fit := r.findFirstFit(64)
	if fit == nil {
		t.Fatalf("expected a fit for a 64-byte request")
	}

	if fit.addr() == first.addr() {
		t.Fatalf("first-fit should have skipped the too-small first block")
	}
}

func TestRegionReleaseCoalescesBothNeighbors(t *testing.T) {
	// Size the region so three 16-byte allocations consume it exactly,
	// with no trailing free block left over: otherwise releasing the
	// middle chunk would splice it alongside that leftover instead of
	// leaving the list with the single entry this test checks for.
	mappingBytes := regionHeaderSize + 3*(sizeFieldWidth+16)
	r := newTestRegion(t, mappingBytes)

	a := r.allocate(16)
	b := r.allocate(16)
	c := r.allocate(16)

	if a == nil || b == nil || c == nil {
		t.Fatalf("setup allocations failed")
	}

	r.release(b)

	if r.header().length != 1 {
		t.Fatalf("freeing the middle chunk should leave exactly one free block")
	}

	r.release(a)

	if r.header().length != 1 {
		t.Fatalf("freeing a should coalesce into the single remaining free block")
	}

	r.release(c)

	if !r.isEmpty() {
		t.Fatalf("freeing all three chunks must return the region to empty")
	}
}

func TestRegionContainsBounds(t *testing.T) {
	r := newTestRegion(t, 512)

	if r.contains(r.dataStart() - 1) {
		t.Fatalf("contains must reject addresses before dataStart")
	}

	if !r.contains(r.dataStart()) {
		t.Fatalf("contains must accept dataStart itself")
	}

	if r.contains(r.dataEnd() + 1) {
		t.Fatalf("contains must reject addresses past dataEnd")
	}
}

func TestFindInsertionPointEmptyList(t *testing.T) {
	r := newTestRegion(t, 256)

	// Drain the sole block out of the list by unlinking it directly.
	fb := fbAt(r.header().head)
	unlinkFreeBlock(fb, r)

	before, after := r.findInsertionPoint(fb.addr())
	if before != 0 || after != 0 {
		t.Fatalf("insertion point into an empty list must be (0, 0), got (%d, %d)", before, after)
	}
}

// TestScenarioSplitResidualTooSmall covers scenario S3: when the
// leftover after carving off the requested size cannot hold a fresh
// free block header, Split must decline and the caller receives a
// chunk somewhat larger than it asked for, leaving the free list
// empty.
func TestScenarioSplitResidualTooSmall(t *testing.T) {
	mappingBytes := regionHeaderSize + fbHeaderSize + 20
	r := newTestRegion(t, mappingBytes)

	soleDataSize := fbAt(r.header().head).dataSize
	wanted := soleDataSize - (fbHeaderSize - 1)

	p := r.allocate(wanted)
	if p == nil {
		t.Fatalf("allocate failed")
	}

	got := fbAt(chunkStartFromPayload(p)).dataSize
	if got != soleDataSize {
		t.Fatalf("dataSize = %d, want the full %d (no split should have occurred)", got, soleDataSize)
	}

	if r.header().length != 0 {
		t.Fatalf("free list length = %d, want 0 once the only block is handed out whole", r.header().length)
	}
}

func TestFindInsertionPointMiddle(t *testing.T) {
	r := newTestRegion(t, 1024)

	a := r.allocate(16)
	b := r.allocate(16)
	c := r.allocate(16)

	// Free a and c so the list holds two widely separated free blocks,
	// then ask where b's chunk (between them) would be inserted.
	r.release(a)
	r.release(c)

	bAddr := chunkStartFromPayload(b)
	before, after := r.findInsertionPoint(bAddr)

	if before == 0 || after == 0 {
		t.Fatalf("b sits strictly between two free blocks; expected both before and after set")
	}

	if fbAt(before).addr() >= bAddr || fbAt(after).addr() <= bAddr {
		t.Fatalf("before/after are not on the correct sides of b")
	}
}
