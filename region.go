// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package malloc implements a fixed-size, single-owner memory allocator.
//
// An Allocator maps one contiguous region from the OS at construction time
// and thereafter services Alloc and Free entirely out of that region: no
// further OS interaction happens until Close. The region is never grown or
// shrunk.
package malloc

import (
	"fmt"
	"os"
	"unsafe"
)

// noCopy, embedded by value, makes `go vet`'s copylocks-style analysis flag
// accidental copies of an Allocator. It mirrors the zero-size marker pattern
// used throughout the corpus for non-shareable types.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

var pageSize = uintptr(os.Getpagesize())

// roundup rounds n up to the next multiple of m. m must be a power of two.
func roundup(n, m uintptr) uintptr { return (n + m - 1) &^ (m - 1) }

// Allocator allocates and frees memory out of a single fixed-size region
// obtained once from the host OS. It is not safe for concurrent use; wrap an
// Allocator in Safe for multi-goroutine access.
type Allocator struct {
	noCopy noCopy

	mem        []byte
	regionSize uintptr
	head       *freeNode

	allocs int
	frees  int
	bytes  uintptr
}

// New maps a region of at least n bytes, rounded up to a whole number of OS
// pages, and returns an Allocator ready to serve Alloc/Free against it. A
// request of 0 is treated as a request for a single page.
func New(n uintptr) (*Allocator, error) {
	if n == 0 {
		n = pageSize
	}
	regionSize := roundup(n, pageSize)

	mem, err := mmap0(regionSize)
	if err != nil {
		return nil, fmt.Errorf("mapping %d-byte region: %w", regionSize, joinResourceErr(err))
	}

	a := &Allocator{mem: mem, regionSize: regionSize}
	head := (*freeNode)(unsafe.Pointer(&mem[0]))
	head.size = regionSize - reservedPrefix
	head.next = nil
	a.head = head
	trace("New(%d) region=%d base=%p", n, regionSize, unsafe.Pointer(&mem[0]))
	return a, nil
}

// RegionSize returns the page-rounded size of the mapped region, or 0 if the
// Allocator holds no region (after Close or after being the source of
// Adopt).
func (a *Allocator) RegionSize() uintptr {
	if a == nil {
		return 0
	}
	return a.regionSize
}

// Close releases the mapped region back to the OS. It is a no-op on an
// Allocator that holds no region. Unmap failures are traced, never
// returned: the process is tearing down and nothing actionable remains.
func (a *Allocator) Close() error {
	if a.mem == nil {
		return nil
	}
	base := unsafe.Pointer(&a.mem[0])
	size := a.regionSize
	if err := munmap0(base, size); err != nil {
		trace("Close: unmap %p (%d bytes) failed: %v", base, size, err)
	}
	*a = Allocator{}
	return nil
}

// Adopt transfers ownership of a's region to a freshly returned Allocator
// and zeroes a in place, the Go rendition of the move-construction contract
// described in the design notes: after Adopt, a.RegionSize() is 0 and
// a.Close() is a no-op.
func (a *Allocator) Adopt() *Allocator {
	b := &Allocator{
		mem:        a.mem,
		regionSize: a.regionSize,
		head:       a.head,
		allocs:     a.allocs,
		frees:      a.frees,
		bytes:      a.bytes,
	}
	*a = Allocator{}
	return b
}

// Stats is a read-only snapshot of allocation accounting, for introspection
// only; it participates in no allocator invariant.
type Stats struct {
	Allocs int
	Frees  int
	Bytes  uintptr
}

// Stats returns the current accounting snapshot.
func (a *Allocator) Stats() Stats {
	return Stats{Allocs: a.allocs, Frees: a.frees, Bytes: a.bytes}
}
