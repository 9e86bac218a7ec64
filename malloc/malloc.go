package malloc

import (
	"sync"
	"unsafe"
)

// Allocator is the registry of active regions: a growable slice whose
// length is capped at MaxRegions, plus the statistics a caller typically
// wants alongside alloc/free. The zero value is not usable; construct
// one with New.
//
// An Allocator is not reentrant and carries no internal locking beyond
// what Stats needs for a consistent snapshot -- per the design's
// single-threaded cooperative scheduling model, concurrent calls from
// multiple goroutines require external mutual exclusion.
type Allocator struct {
	config  *Config
	regions []*region

	allocCount uint64
	freeCount  uint64
	bytesLive  uintptr
	statsMu    sync.Mutex
}

// New constructs an Allocator. A nil opts slice is fine; options are
// layered over DefaultConfig.
func New(opts ...Option) *Allocator {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Allocator{
		config:  cfg.withDefaults(),
		regions: make([]*region, 0, 16),
	}
}

// Stats summarizes an Allocator's current state.
type Stats struct {
	RegionCount       int
	ActiveAllocations uint64
	AllocationCount   uint64
	FreeCount         uint64
	BytesLive         uintptr
}

// Stats returns a point-in-time snapshot of allocation counters.
func (a *Allocator) Stats() Stats {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()

	return Stats{
		RegionCount:       len(a.regions),
		ActiveAllocations: a.allocCount - a.freeCount,
		AllocationCount:   a.allocCount,
		FreeCount:         a.freeCount,
		BytesLive:         a.bytesLive,
	}
}

// roundUpAlignment rounds size up to the alignment granule, step 1 of
// Allocate_Global.
func roundUpAlignment(size uintptr) uintptr {
	return (size + alignment - 1) &^ (alignment - 1)
}

// Alloc implements alloc(size): size==0 returns nil without touching
// the OS; otherwise every existing region is tried in registry order,
// oldest first, before a new mapping is requested.
func (a *Allocator) Alloc(size uintptr) unsafe.Pointer {
	size = roundUpAlignment(size)
	if size == 0 {
		return nil
	}

	for _, r := range a.regions {
		if p := r.allocate(size); p != nil {
			a.recordAlloc(fbAt(chunkStartFromPayload(p)).dataSize)
			return p
		}
	}

	r, ok := a.growAndAllocate(size)
	if !ok {
		return nil
	}

	p := r.allocate(size)
	assert(p != nil, "Alloc: freshly mapped region failed to satisfy the allocation that sized it")
	a.recordAlloc(fbAt(chunkStartFromPayload(p)).dataSize)

	return p
}

// growAndAllocate maps a fresh region sized to hold at least size bytes
// (or DefaultRegionBytes, whichever is larger) and installs it in the
// registry. It fails if the registry is at MaxRegions capacity or the
// OS refuses the mapping.
func (a *Allocator) growAndAllocate(size uintptr) (*region, bool) {
	if len(a.regions) >= a.config.MaxRegions {
		return nil, false
	}

	mapBytes := size + regionHeaderSize + fbHeaderSize
	if mapBytes < a.config.DefaultRegionBytes {
		mapBytes = a.config.DefaultRegionBytes
	}

	backing, err := osMap(mapBytes)
	if err != nil {
		return nil, false
	}

	r := newRegion(backing, mapBytes)
	a.regions = append(a.regions, r)

	return r, true
}

// AllocZeroed implements alloc_zeroed(n, size): the n*size product is
// checked for overflow before any mapping is attempted, matching the
// source's __try_size_t_multiply guard against the classic calloc
// overflow.
func (a *Allocator) AllocZeroed(n, size uintptr) unsafe.Pointer {
	total, ok := tryMultiply(n, size)
	if !ok {
		return nil
	}

	p := a.Alloc(total)
	if p == nil {
		return nil
	}

	zero(p, total)

	return p
}

// tryMultiply multiplies a and b, reporting overflow the way the
// source's __try_size_t_multiply does: divide the (possibly wrapped)
// product back by a and check both the remainder and the quotient.
func tryMultiply(a, b uintptr) (uintptr, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}

	t := a * b
	q := t / a
	r := t % a

	if r != 0 || q != b {
		return 0, false
	}

	return t, true
}

func zero(p unsafe.Pointer, size uintptr) {
	s := unsafe.Slice((*byte)(p), int(size))
	for i := range s {
		s[i] = 0
	}
}

// Realloc implements resize(ptr, size) with the canonical semantics: a
// nil ptr behaves as Alloc, a zero size behaves as Free, and otherwise
// a fresh chunk is allocated, the overlapping prefix copied, and the
// old chunk freed. Shrinking in place is never attempted.
func (a *Allocator) Realloc(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	if ptr == nil {
		if size == 0 {
			return nil
		}

		return a.Alloc(size)
	}

	if size == 0 {
		a.Free(ptr)
		return nil
	}

	oldDataSize := fbAt(chunkStartFromPayload(ptr)).dataSize

	newPtr := a.Alloc(size)
	if newPtr == nil {
		return nil
	}

	copySize := oldDataSize
	if size < copySize {
		copySize = size
	}

	copy(unsafe.Slice((*byte)(newPtr), int(copySize)), unsafe.Slice((*byte)(ptr), int(copySize)))
	a.Free(ptr)

	return newPtr
}

// Free implements free(ptr): nil is a no-op, a pointer that does not
// belong to any tracked region is a silent no-op (with an optional
// diagnostic), and otherwise the chunk is released into its owning
// region, which is unmapped if that leaves it entirely empty.
func (a *Allocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	fbAddr := chunkStartFromPayload(ptr)

	idx, r := a.findOwningRegion(fbAddr)
	if r == nil {
		if a.config.EnableDiagnostics {
			diagnosticLog.Printf("free: pointer %#x does not belong to any tracked region, ignoring", fbAddr)
		}

		return
	}

	freedSize := fbAt(fbAddr).dataSize
	r.release(ptr)
	a.recordFree(freedSize)

	if r.isEmpty() {
		if err := osUnmap(r.backing); err != nil {
			corrupt("free: munmap of empty region failed: %v", err)
		}

		a.regions = append(a.regions[:idx], a.regions[idx+1:]...)
	}
}

// findOwningRegion scans the registry in slot order for the region
// whose managed bytes contain fbAddr, mirroring
// Find_Index_Of_LList_Containing_FBR.
func (a *Allocator) findOwningRegion(fbAddr uintptr) (int, *region) {
	for i, r := range a.regions {
		if r.contains(fbAddr) {
			return i, r
		}
	}

	return -1, nil
}

func (a *Allocator) recordAlloc(size uintptr) {
	a.statsMu.Lock()
	a.allocCount++
	a.bytesLive += size
	a.statsMu.Unlock()
}

func (a *Allocator) recordFree(size uintptr) {
	a.statsMu.Lock()
	a.freeCount++
	a.bytesLive -= size
	a.statsMu.Unlock()
}
