//go:build unix

package malloc

import "golang.org/x/sys/unix"

// osMap asks the OS for a page-aligned, zero-initialized, private
// anonymous mapping of exactly size bytes. An anonymous mapping is
// always zero-filled by the kernel, which satisfies the core's
// requirement that a freshly mapped region starts clean without the
// allocator having to zero it itself.
func osMap(size uintptr) ([]byte, error) {
	return unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

// osUnmap releases a mapping previously returned by osMap. The core
// treats failure here, on a region it believes is entirely free, as an
// unrecoverable invariant violation: continuing would risk mapping a
// fresh region over memory the OS still considers reserved.
func osUnmap(b []byte) error {
	return unix.Munmap(b)
}
