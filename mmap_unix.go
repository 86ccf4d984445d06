// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

package malloc

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func mmap0(size uintptr) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}

	if uintptr(unsafe.Pointer(&b[0]))&(pageSize-1) != 0 {
		panic("malloc: region not page-aligned")
	}

	return b, nil
}

func munmap0(addr unsafe.Pointer, size uintptr) error {
	b := unsafe.Slice((*byte)(addr), int(size))
	return unix.Munmap(b)
}
