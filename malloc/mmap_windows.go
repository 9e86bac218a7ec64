//go:build windows

package malloc

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// osMap mirrors the Unix osMap using VirtualAlloc: a fresh MEM_COMMIT region
// is always zero-initialized by the OS.
func osMap(size uintptr) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size)), nil
}

// osUnmap releases a mapping previously returned by osMap.
func osUnmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}

	return windows.VirtualFree(uintptr(unsafe.Pointer(&b[0])), 0, windows.MEM_RELEASE)
}
