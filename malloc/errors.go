package malloc

import (
	"fmt"
	"log"
	"os"
)

// sizeFieldWidth is the width, in bytes, of the data_size header field
// that prefixes every chunk (free or allocated). It equals wordSize.
const sizeFieldWidth = wordSize

// alignment is the allocation granule; every payload pointer returned
// to a caller is a multiple of this.
const alignment = 8

// minDataSize is the smallest data_size a free block may carry: enough
// to hold the prev and next link fields while the block sits in a free
// list.
const minDataSize = 2 * wordSize

// diagnosticLog is where Free's optional unknown-pointer diagnostic is
// written. It writes to stderr and never touches the allocator under
// management, avoiding any risk of recursion.
var diagnosticLog = log.New(os.Stderr, "allocator: ", 0)

// corrupt reports a violated invariant -- a linkage mismatch, ordering
// violation, or unmap failure on a region believed empty -- and
// terminates the process immediately. These conditions are treated as
// unrecoverable memory corruption, not recoverable errors: there is no
// panic/recover here because unwinding through data structures that
// may already be inconsistent is itself unsafe.
func corrupt(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "allocator: fatal: "+format+"\n", args...)
	os.Exit(2)
}

func assert(cond bool, format string, args ...interface{}) {
	if !cond {
		corrupt(format, args...)
	}
}
