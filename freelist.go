// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "unsafe"

// freeNode is embedded at the start of every free span. It is threaded,
// in place, into a singly-linked, address-ordered list the same way
// memory.go's node/page records are threaded through mapped pages.
type freeNode struct {
	size uintptr
	next *freeNode
}

func freeNodeAddr(n *freeNode) uintptr { return uintptr(unsafe.Pointer(n)) }

// freeNodeEnd returns the address one past the last byte of n's span.
func freeNodeEnd(n *freeNode) uintptr { return freeNodeAddr(n) + n.size }

// insertFreeBlock splices n into a's free list, preserving strict ascending
// address order. The allocator never inserts an overlapping block: the
// bytes in n were just freed and were not part of any other free span.
func (a *Allocator) insertFreeBlock(n *freeNode) {
	nAddr := freeNodeAddr(n)

	if a.head == nil || freeNodeAddr(a.head) >= nAddr+n.size {
		n.next = a.head
		a.head = n
		return
	}

	prev := a.head
	for prev.next != nil && freeNodeAddr(prev.next) < nAddr+n.size {
		prev = prev.next
	}
	n.next = prev.next
	prev.next = n
}

// mergeAdjacent performs a single left-to-right pass over the free list,
// fusing every pair of physically adjacent nodes. An empty list is a no-op.
func (a *Allocator) mergeAdjacent() {
	c := a.head
	for c != nil {
		for c.next != nil && freeNodeEnd(c) == freeNodeAddr(c.next) {
			c.size += c.next.size
			c.next = c.next.next
		}
		c = c.next
	}
}
