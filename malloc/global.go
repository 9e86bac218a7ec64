package malloc

import (
	"sync"
	"unsafe"
)

// defaultAllocator backs the package-level convenience functions. It is
// created lazily so that importing this package never touches the OS
// until the first allocation.
var (
	defaultAllocator     *Allocator
	defaultAllocatorOnce sync.Once
)

func global() *Allocator {
	defaultAllocatorOnce.Do(func() {
		defaultAllocator = New()
	})

	return defaultAllocator
}

// Alloc allocates size bytes from the default Allocator. See
// (*Allocator).Alloc.
func Alloc(size uintptr) unsafe.Pointer {
	return global().Alloc(size)
}

// AllocZeroed allocates n*size zeroed bytes from the default Allocator.
// See (*Allocator).AllocZeroed.
func AllocZeroed(n, size uintptr) unsafe.Pointer {
	return global().AllocZeroed(n, size)
}

// Realloc resizes a pointer previously returned by this package's
// allocation functions. See (*Allocator).Realloc.
func Realloc(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	return global().Realloc(ptr, size)
}

// Free releases a pointer previously returned by this package's
// allocation functions. See (*Allocator).Free.
func Free(ptr unsafe.Pointer) {
	global().Free(ptr)
}

// GetStats returns a snapshot of the default Allocator's counters.
func GetStats() Stats {
	return global().Stats()
}
