// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "unsafe"

const (
	// sentinelMagic marks the header of a live allocated block.
	sentinelMagic = 0xDEADBEEF

	// defaultAlignment is used by Malloc/Calloc, mirroring memory.go's
	// mallocAllign constant (there fixed; here the default for the
	// parameterized Alloc).
	defaultAlignment = 8
)

// header is written at the start of every allocated span. It occupies
// exactly the same leading bytes a freeNode would occupy at that address;
// reservedPrefix (below) is sized to fit whichever of the two is larger, so
// the in-place reinterpretation at Free time is always sound.
type header struct {
	magic uint32
	size  uintptr
}

func maxUintptr(a, b uintptr) uintptr {
	if a > b {
		return a
	}
	return b
}

// reservedPrefix is the byte footprint every block — free or allocated —
// reserves at its start for bookkeeping, resolving the header/free-node
// size-asymmetry open question by using a single constant throughout.
var reservedPrefix = maxUintptr(uintptr(unsafe.Sizeof(freeNode{})), uintptr(unsafe.Sizeof(header{})))

func headerAt(addr uintptr) *header { return (*header)(unsafe.Pointer(addr)) }

func byteAt(addr uintptr) *byte { return (*byte)(unsafe.Pointer(addr)) }

// isPowerOfTwo reports whether n is a nonzero power of two.
func isPowerOfTwo(n uintptr) bool { return n != 0 && n&(n-1) == 0 }

// Alloc reserves size bytes aligned to alignment (which must be a power of
// two) and returns a pointer to the aligned payload, or (nil, nil) if the
// free list has no span large enough. Exhaustion is not an error.
func (a *Allocator) Alloc(size, alignment uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, invalidArgument("size must be positive")
	}
	if !isPowerOfTwo(alignment) {
		return nil, invalidArgument("alignment must be a power of two")
	}
	if alignment > 256 {
		return nil, invalidArgument("alignment must be at most 256")
	}

	reqSpace := size + reservedPrefix + alignment + 1

	var prev *freeNode
	curr := a.head
	for curr != nil && curr.size < reqSpace {
		prev = curr
		curr = curr.next
	}
	if curr == nil {
		trace("Alloc(%d, %d): no fit", size, alignment)
		return nil, nil
	}

	leftover := curr.size - reqSpace
	blockAddr := freeNodeAddr(curr)
	blockSize := curr.size
	if leftover >= reservedPrefix {
		residual := (*freeNode)(unsafe.Pointer(blockAddr + reqSpace))
		residual.size = leftover
		residual.next = curr.next
		blockSize = reqSpace
		if prev == nil {
			a.head = residual
		} else {
			prev.next = residual
		}
	} else {
		if prev == nil {
			a.head = curr.next
		} else {
			prev.next = curr.next
		}
	}

	h := headerAt(blockAddr)
	h.magic = sentinelMagic
	h.size = blockSize - reservedPrefix

	payload := blockAddr + reservedPrefix + 1
	aligned := roundup(payload, alignment)
	skipped := aligned - payload

	*byteAt(aligned - 1) = byte(skipped)

	a.allocs++
	a.bytes += h.size
	trace("Alloc(%d, %d) -> %#x", size, alignment, aligned)
	return unsafe.Pointer(aligned), nil
}

// Malloc allocates size bytes at the default alignment.
func (a *Allocator) Malloc(size uintptr) (unsafe.Pointer, error) {
	return a.Alloc(size, defaultAlignment)
}

// Calloc is like Malloc except the allocated memory is zeroed.
func (a *Allocator) Calloc(size uintptr) (unsafe.Pointer, error) {
	p, err := a.Malloc(size)
	if p == nil || err != nil {
		return p, err
	}
	b := unsafe.Slice((*byte)(p), size)
	for i := range b {
		b[i] = 0
	}
	return p, nil
}

// Free releases a pointer previously returned by Alloc, Malloc, or Calloc.
func (a *Allocator) Free(ptr unsafe.Pointer) error {
	if ptr == nil {
		return invalidOperation("cannot free null")
	}

	p := uintptr(ptr)
	skipped := uintptr(*byteAt(p - 1))
	headerAddr := p - 1 - skipped - reservedPrefix
	h := headerAt(headerAddr)
	if h.magic != sentinelMagic {
		return invalidOperation("bad magic")
	}

	size := h.size
	n := (*freeNode)(unsafe.Pointer(headerAddr))
	n.size = size + reservedPrefix
	n.next = nil

	a.insertFreeBlock(n)
	a.mergeAdjacent()

	a.frees++
	a.allocs--
	a.bytes -= size
	trace("Free(%#x)", p)
	return nil
}

// UsableSize reports the size of the payload span allocated at ptr, or 0
// for nil. Introspection only; not consulted by any allocator invariant.
func (a *Allocator) UsableSize(ptr unsafe.Pointer) uintptr {
	if ptr == nil {
		return 0
	}
	p := uintptr(ptr)
	skipped := uintptr(*byteAt(p - 1))
	headerAddr := p - 1 - skipped - reservedPrefix
	return headerAt(headerAddr).size - 1 - skipped
}
