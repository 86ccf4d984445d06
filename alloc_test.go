// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"math"
	"testing"
	"unsafe"

	"github.com/cznic/mathutil"
	"github.com/stretchr/testify/require"
)

// test1 is adapted from github.com/cznic/memory's own random-workload
// round trip: allocate against a fixed region until it is exhausted, verify
// every payload, shuffle, free everything, and check the free list has
// collapsed back to a single node. Unlike the teacher, which grows by
// mapping a fresh page per size class, a region here never grows: the
// allocation loop runs until Malloc reports exhaustion by returning nil.
func test1(t *testing.T, regionSize uintptr, max int) {
	a, err := New(regionSize)
	require.NoError(t, err)
	defer a.Close()

	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	require.NoError(t, err)
	rng.Seed(42)

	var ptrs []unsafe.Pointer
	var sizes []int
	for {
		size := rng.Next()%max + 1
		p, err := a.Malloc(uintptr(size))
		require.NoError(t, err)
		if p == nil {
			break
		}

		ptrs = append(ptrs, p)
		sizes = append(sizes, size)
		b := unsafe.Slice((*byte)(p), size)
		for i := range b {
			b[i] = byte(rng.Next())
		}
	}
	require.NotEmpty(t, ptrs, "region too small to allocate even once")

	rng.Seed(42)
	for i, p := range ptrs {
		size := rng.Next()%max + 1
		require.Equal(t, size, sizes[i])
		b := unsafe.Slice((*byte)(p), size)
		for j := range b {
			require.Equal(t, byte(rng.Next()), b[j])
		}
	}

	// Shuffle the free order.
	for i := range ptrs {
		j := rng.Next() % len(ptrs)
		ptrs[i], ptrs[j] = ptrs[j], ptrs[i]
	}

	for _, p := range ptrs {
		require.NoError(t, a.Free(p))
	}

	require.Equal(t, 0, a.allocs)
	require.NotNil(t, a.head)
	require.Nil(t, a.head.next)
	require.Equal(t, a.regionSize-reservedPrefix, a.head.size)
}

func Test1Small(t *testing.T) { test1(t, 1<<20, 256) }
func Test1Big(t *testing.T)   { test1(t, 1<<22, 1<<16) }

// test2 is adapted from the teacher's test2: verify-then-free in allocation
// order rather than shuffled order.
func test2(t *testing.T, regionSize uintptr, max int) {
	a, err := New(regionSize)
	require.NoError(t, err)
	defer a.Close()

	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	require.NoError(t, err)
	rng.Seed(7)

	var ptrs []unsafe.Pointer
	for {
		size := rng.Next()%max + 1
		p, err := a.Malloc(uintptr(size))
		require.NoError(t, err)
		if p == nil {
			break
		}
		ptrs = append(ptrs, p)
		b := unsafe.Slice((*byte)(p), size)
		for i := range b {
			b[i] = byte(rng.Next())
		}
	}

	rng.Seed(7)
	for _, p := range ptrs {
		size := rng.Next()%max + 1
		b := unsafe.Slice((*byte)(p), size)
		for _, v := range b {
			require.Equal(t, byte(rng.Next()), v)
		}
	}

	for _, p := range ptrs {
		require.NoError(t, a.Free(p))
	}

	require.Equal(t, 0, a.allocs)
	require.Equal(t, a.regionSize-reservedPrefix, a.head.size)
}

func Test2Small(t *testing.T) { test2(t, 1<<20, 256) }
func Test2Big(t *testing.T)   { test2(t, 1<<22, 1<<16) }

// TestInterleavedAllocFree drives Malloc/Free against a fixed region
// (scenario S6 from the specification): five Malloc(101) calls followed by
// freeing all five must leave the free list at exactly one node whose size
// equals the initial node's (the region size minus reservedPrefix).
func TestInterleavedAllocFree(t *testing.T) {
	a, err := New(4096)
	require.NoError(t, err)
	defer a.Close()

	var ptrs []unsafe.Pointer
	for i := 0; i < 5; i++ {
		p, err := a.Malloc(101)
		require.NoError(t, err)
		require.NotNil(t, p)
		ptrs = append(ptrs, p)
	}

	for _, p := range ptrs {
		require.NoError(t, a.Free(p))
	}

	count := 0
	for n := a.head; n != nil; n = n.next {
		count++
	}
	require.Equal(t, 1, count)
	require.Equal(t, a.regionSize-reservedPrefix, a.head.size)
}

// TestAlignedAllocationSweep is scenario S3: each alignment from 8 to 128
// yields a correctly aligned pointer, and freeing it collapses the free
// list back to a single node.
func TestAlignedAllocationSweep(t *testing.T) {
	for _, align := range []uintptr{8, 16, 32, 64, 128} {
		a, err := New(4096)
		require.NoError(t, err)

		p, err := a.Alloc(100, align)
		require.NoError(t, err)
		require.NotNil(t, p)
		require.Zero(t, uintptr(p)%align)

		require.NoError(t, a.Free(p))

		count := 0
		for n := a.head; n != nil; n = n.next {
			count++
		}
		require.Equal(t, 1, count)

		require.NoError(t, a.Close())
	}
}

// TestInvalidArguments is scenario S4.
func TestInvalidArguments(t *testing.T) {
	a, err := New(4096)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Alloc(0, 8)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = a.Alloc(1024, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = a.Alloc(1024, 7)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = a.Alloc(1024, 512)
	require.ErrorIs(t, err, ErrInvalidArgument)

	err = a.Free(nil)
	require.ErrorIs(t, err, ErrInvalidOperation)
}

// TestStrayPointer is scenario S5: freeing a pointer into memory the
// allocator never handed out must fail the magic check rather than
// corrupting the free list.
func TestStrayPointer(t *testing.T) {
	a, err := New(4096)
	require.NoError(t, err)
	defer a.Close()

	stray := make([]byte, 256)
	err = a.Free(unsafe.Pointer(&stray[len(stray)-1]))
	require.ErrorIs(t, err, ErrInvalidOperation)
}

// TestExactPageExhaustion is scenario S1: bookkeeping overhead means a
// single page cannot satisfy an allocation request for the whole page.
func TestExactPageExhaustion(t *testing.T) {
	a, err := New(4096)
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, uintptr(4096), a.RegionSize())

	p, err := a.Malloc(4096)
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestUsableSize(t *testing.T) {
	a, err := New(4096)
	require.NoError(t, err)
	defer a.Close()

	p, err := a.Malloc(100)
	require.NoError(t, err)
	require.GreaterOrEqual(t, a.UsableSize(p), uintptr(100))
	require.Zero(t, a.UsableSize(nil))

	require.NoError(t, a.Free(p))
}

func TestCallocZeroes(t *testing.T) {
	a, err := New(4096)
	require.NoError(t, err)
	defer a.Close()

	p, err := a.Calloc(64)
	require.NoError(t, err)
	b := unsafe.Slice((*byte)(p), 64)
	for i := range b {
		b[i] = 0xAA
	}
	require.NoError(t, a.Free(p))

	p2, err := a.Calloc(64)
	require.NoError(t, err)
	b2 := unsafe.Slice((*byte)(p2), 64)
	for _, v := range b2 {
		require.Zero(t, v)
	}
	require.NoError(t, a.Free(p2))
}

func benchmarkMalloc(b *testing.B, size uintptr) {
	a, err := New(1 << 24)
	if err != nil {
		b.Fatal(err)
	}
	defer a.Close()

	var ptrs []unsafe.Pointer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, err := a.Malloc(size)
		if err != nil {
			b.Fatal(err)
		}
		if p == nil {
			break
		}
		ptrs = append(ptrs, p)
	}
	b.StopTimer()
	for _, p := range ptrs {
		a.Free(p)
	}
}

func BenchmarkMalloc16(b *testing.B) { benchmarkMalloc(b, 1<<4) }
func BenchmarkMalloc32(b *testing.B) { benchmarkMalloc(b, 1<<5) }
func BenchmarkMalloc64(b *testing.B) { benchmarkMalloc(b, 1<<6) }
