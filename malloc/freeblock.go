package malloc

import "unsafe"

// freeBlock is the header overlaid at offset 0 of every free chunk. Its
// three fields occupy exactly fbHeaderSize bytes; dataSize survives
// being handed out as the allocated-chunk header, while prev and next
// are only meaningful while the chunk is linked into a region's free
// list -- once allocated they are aliased with payload bytes and must
// never be read.
type freeBlock struct {
	// dataSize is the number of payload bytes this block controls,
	// i.e. the chunk's total size minus sizeFieldWidth.
	dataSize uintptr
	// prev and next are addresses of neighboring free blocks in the
	// owning region's list, or 0 if this end of the list.
	prev uintptr
	next uintptr
}

// fbHeaderSize is sizeof(freeBlock) in the source design: the space a
// block's header occupies regardless of how much data it controls.
const fbHeaderSize = unsafe.Sizeof(freeBlock{})

// fbAt produces a typed view of the free block at addr. Callers must
// only do this for addresses known to currently hold a live free block
// header; an allocated chunk's prev/next bytes are payload and reading
// them through this view would be undefined.
func fbAt(addr uintptr) *freeBlock {
	return (*freeBlock)(unsafe.Pointer(addr))
}

// addr returns fb's own address, recovered from the pointer identity
// rather than stored redundantly in the struct.
func (fb *freeBlock) addr() uintptr {
	return uintptr(unsafe.Pointer(fb))
}

// chunkEnd returns the address one past the last byte this block
// controls: addr + sizeFieldWidth + dataSize.
func (fb *freeBlock) chunkEnd() uintptr {
	return fb.addr() + sizeFieldWidth + fb.dataSize
}

// payload returns the pointer handed to callers of alloc: the first
// byte after the preserved dataSize header.
func (fb *freeBlock) payload() unsafe.Pointer {
	return unsafe.Pointer(fb.addr() + sizeFieldWidth)
}

// chunkStartFromPayload recovers a chunk's header address from a
// payload pointer returned earlier by payload().
func chunkStartFromPayload(p unsafe.Pointer) uintptr {
	return uintptr(p) - sizeFieldWidth
}

// initFreeBlock overlays a free block at fbAddr, sets its dataSize from
// totalBytes, and splices it between prev and next in rfl. totalBytes
// must be at least fbHeaderSize; violating that is a caller bug, not a
// runtime condition, so it is fatal.
func initFreeBlock(fbAddr uintptr, rfl *region, prev, next uintptr, totalBytes uintptr) *freeBlock {
	assert(totalBytes >= fbHeaderSize, "initFreeBlock: totalBytes %d too small for a free block header", totalBytes)

	fb := fbAt(fbAddr)
	fb.dataSize = totalBytes - sizeFieldWidth
	spliceBetween(fb, rfl, prev, next)

	return fb
}

// spliceBetween links fb into rfl's list between left and right,
// updating head/tail when an endpoint is missing and incrementing
// length. The preconditions mirror the source's Splice_Between: they
// are invariants of a correctly maintained list, so a violation is
// fatal rather than a returned error.
func spliceBetween(fb *freeBlock, rfl *region, left, right uintptr) {
	fb.prev = left
	fb.next = right

	rh := rfl.header()

	if left != 0 && right != 0 {
		assert(fbAt(left).next == right && fbAt(right).prev == left, "spliceBetween: left/right are not adjacent")
	}

	if left == 0 {
		assert(right == rh.head, "spliceBetween: left is nil but right is not the current head")
	}

	if right == 0 {
		assert(left == rh.tail, "spliceBetween: right is nil but left is not the current tail")
	}

	if left != 0 {
		fbAt(left).next = fb.addr()
	} else {
		rh.head = fb.addr()
	}

	if right != 0 {
		fbAt(right).prev = fb.addr()
	} else {
		rh.tail = fb.addr()
	}

	rh.length++

	assert(rh.length <= 1 || fb.prev != 0 || fb.next != 0, "spliceBetween: linked block has no neighbors in a list of length > 1")
}

// unlinkFreeBlock removes fb from rfl's list, fixing up head/tail and
// decrementing length. fb.prev and fb.next are cleared afterward.
func unlinkFreeBlock(fb *freeBlock, rfl *region) {
	rh := rfl.header()
	prev, next := fb.prev, fb.next

	if rh.head == fb.addr() {
		rh.head = next
	}

	if rh.tail == fb.addr() {
		rh.tail = prev
	}

	if next != 0 {
		assert(fbAt(next).prev == fb.addr(), "unlinkFreeBlock: link error on next")
		fbAt(next).prev = prev
		fb.next = 0
	}

	if prev != 0 {
		assert(fbAt(prev).next == fb.addr(), "unlinkFreeBlock: link error on prev")
		fbAt(prev).next = next
		fb.prev = 0
	}

	rh.length--

	if prev != 0 {
		assert(rh.length <= 1 || fbAt(prev).prev != 0 || fbAt(prev).next != 0, "unlinkFreeBlock: link error after unlink (prev side)")
	}

	if next != 0 {
		assert(rh.length <= 1 || fbAt(next).prev != 0 || fbAt(next).next != 0, "unlinkFreeBlock: link error after unlink (next side)")
	}
}

// splitFreeBlock attempts to shrink fb to exactly wantedDataSize,
// carving the leftover tail into a fresh free block spliced in right
// after fb. It reports whether a split actually happened; when it
// returns false the caller receives a chunk that may be slightly
// larger than requested, never smaller.
func splitFreeBlock(fb *freeBlock, rfl *region, wantedDataSize uintptr) bool {
	if wantedDataSize < minDataSize {
		wantedDataSize = minDataSize
	}

	assert(fb.dataSize >= wantedDataSize, "splitFreeBlock: block too small to satisfy request")

	if fb.dataSize == wantedDataSize {
		return false
	}

	if fb.dataSize-wantedDataSize < fbHeaderSize {
		return false
	}

	leftoverAddr := fb.addr() + sizeFieldWidth + wantedDataSize
	leftoverBytes := fb.dataSize - wantedDataSize
	next := fb.next
	fb.dataSize = wantedDataSize
	initFreeBlock(leftoverAddr, rfl, fb.addr(), next, leftoverBytes)

	return true
}

// coalesceFreeBlock merges fb with its address-adjacent neighbors,
// right first then left, and returns the (possibly different) pointer
// to the surviving merged block. Every merge re-validates the
// neighbor's back-pointer and relative ordering; any mismatch is
// reported as corruption.
func coalesceFreeBlock(fb *freeBlock, rfl *region) *freeBlock {
	result := fb

	if fb.next != 0 {
		next := fbAt(fb.next)
		assert(next.prev == fb.addr(), "coalesceFreeBlock: link error on next")
		assert(fb.addr() < next.addr(), "coalesceFreeBlock: next is not ahead of this block")

		if next.addr() == fb.chunkEnd() {
			fb.dataSize += sizeFieldWidth + next.dataSize
			unlinkFreeBlock(next, rfl)
		}
	}

	if fb.prev != 0 {
		prev := fbAt(fb.prev)
		assert(prev.next == fb.addr(), "coalesceFreeBlock: link error on prev")
		assert(fb.addr() > prev.addr(), "coalesceFreeBlock: prev is not behind this block")

		if fb.addr() == prev.chunkEnd() {
			prev.dataSize += sizeFieldWidth + fb.dataSize
			unlinkFreeBlock(fb, rfl)
			result = prev
		}
	}

	rh := rfl.header()
	assert(rh.length <= 1 || result.prev != 0 || result.next != 0, "coalesceFreeBlock: merged block lost its list linkage")

	return result
}
