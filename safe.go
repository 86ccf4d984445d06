// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"sync"
	"unsafe"
)

// Safe wraps an Allocator with a mutex, the strategy the design notes
// prescribe for multi-threaded use: the underlying Allocator remains
// single-owner and unsynchronized; Safe is the additive, separately-tested
// wrapper callers reach for when they need concurrent access. Grounded on
// the corpus's own mutex-guarded single-owner allocators (e.g.
// pointerstore.Store's freeLock guarding its free list).
type Safe struct {
	mu sync.Mutex
	a  *Allocator
}

// NewSafe is the concurrent-safe counterpart of New.
func NewSafe(n uintptr) (*Safe, error) {
	a, err := New(n)
	if err != nil {
		return nil, err
	}
	return &Safe{a: a}, nil
}

// RegionSize returns the wrapped Allocator's region size.
func (s *Safe) RegionSize() uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.RegionSize()
}

// Alloc is the mutex-guarded counterpart of Allocator.Alloc.
func (s *Safe) Alloc(size, alignment uintptr) (unsafe.Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Alloc(size, alignment)
}

// Malloc is the mutex-guarded counterpart of Allocator.Malloc.
func (s *Safe) Malloc(size uintptr) (unsafe.Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Malloc(size)
}

// Calloc is the mutex-guarded counterpart of Allocator.Calloc.
func (s *Safe) Calloc(size uintptr) (unsafe.Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Calloc(size)
}

// Free is the mutex-guarded counterpart of Allocator.Free.
func (s *Safe) Free(ptr unsafe.Pointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Free(ptr)
}

// Stats is the mutex-guarded counterpart of Allocator.Stats.
func (s *Safe) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Stats()
}

// Close is the mutex-guarded counterpart of Allocator.Close.
func (s *Safe) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Close()
}
