// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

//go:build windows

package malloc

import (
	"errors"
	"os"
	"sync"
	"syscall"
	"unsafe"
)

// mmap on Windows is a two-step process: CreateFileMapping gets a handle,
// then MapViewOfFile gets an actual pointer into memory. No third-party
// wrapper for this sequence exists anywhere in the retrieved corpus, so this
// file keeps the teacher's direct syscall approach.

var (
	handleMapMu sync.Mutex
	handleMap   = map[uintptr]syscall.Handle{}
)

func mmap0(size uintptr) ([]byte, error) {
	flProtect := uint32(syscall.PAGE_READWRITE)
	dwDesiredAccess := uint32(syscall.FILE_MAP_WRITE)

	maxSizeHigh := uint32(uint64(size) >> 32)
	maxSizeLow := uint32(uint64(size) & 0xFFFFFFFF)
	h, errno := syscall.CreateFileMapping(syscall.Handle(^uintptr(0)), nil, flProtect, maxSizeHigh, maxSizeLow, nil)
	if h == 0 {
		return nil, os.NewSyscallError("CreateFileMapping", errno)
	}

	addr, errno := syscall.MapViewOfFile(h, dwDesiredAccess, 0, 0, size)
	if addr == 0 {
		return nil, os.NewSyscallError("MapViewOfFile", errno)
	}

	if addr&(pageSize-1) != 0 {
		panic("malloc: region not page-aligned")
	}

	handleMapMu.Lock()
	handleMap[addr] = h
	handleMapMu.Unlock()

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size)), nil
}

func munmap0(addr unsafe.Pointer, size uintptr) error {
	a := uintptr(addr)
	if err := syscall.UnmapViewOfFile(a); err != nil {
		return err
	}

	handleMapMu.Lock()
	handle, ok := handleMap[a]
	delete(handleMap, a)
	handleMapMu.Unlock()
	if !ok {
		return errors.New("malloc: unknown base address")
	}

	return os.NewSyscallError("CloseHandle", syscall.CloseHandle(handle))
}
