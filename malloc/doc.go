// Package malloc implements a user-space general-purpose memory
// allocator for single-threaded use. It obtains raw memory from the
// operating system in large mmap'd mappings and subdivides each mapping
// with an address-ordered, in-band free list: chunks are split off a
// free block to satisfy an allocation, released chunks are spliced back
// into the list and coalesced with their address-adjacent neighbors, and
// a mapping that becomes entirely free is handed back to the OS.
//
// The three layers, named leaves-first, mirror the data model:
//
//   - freeBlock: the header overlaid at the start of a free chunk,
//     doubly linked into its owning region's free list.
//   - region: one OS mapping, with a region header at offset 0 and the
//     free list covering the remaining bytes.
//   - Allocator: the registry of active regions; dispatches allocation
//     requests, grows by mapping a new region on exhaustion, and shrinks
//     by unmapping regions that become entirely free.
package malloc
