// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

import (
	"fmt"
	"os"
	"syscall"
)

// DevMem reads target memory through /dev/mem, for targets whose RAM is
// mapped into the host physical address space (e.g. an MCU sitting behind
// an LPC or AHB window). Every access maps the covering pages, copies,
// and unmaps again; slow, but so is the bus, and it keeps no stale
// mapping of memory another CPU owns.
type DevMem struct {
	mf *os.File
}

// OpenDevMem opens /dev/mem for probe access.
func OpenDevMem() (*DevMem, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening /dev/mem: %v", err)
	}
	return &DevMem{f}, nil
}

func (m *DevMem) window(addr uint32, n int, prot int) ([]byte, uint32, error) {
	ps := uint32(syscall.Getpagesize())
	page := addr & ^(ps - 1)
	length := (int(addr-page) + n + int(ps) - 1) & ^(int(ps) - 1)
	mem, err := syscall.Mmap(int(m.mf.Fd()), int64(page), length, prot, syscall.MAP_SHARED)
	if err != nil {
		return nil, 0, fmt.Errorf("mmap of %#x: %v", page, err)
	}
	return mem, addr - page, nil
}

func (m *DevMem) ReadMemory(addr uint32, buf []byte) error {
	mem, off, err := m.window(addr, len(buf), syscall.PROT_READ)
	if err != nil {
		return err
	}
	copy(buf, mem[off:])
	return syscall.Munmap(mem)
}

func (m *DevMem) WriteMemory(addr uint32, value uint8) error {
	mem, off, err := m.window(addr, 1, syscall.PROT_WRITE)
	if err != nil {
		return err
	}
	mem[off] = value
	return syscall.Munmap(mem)
}

func (m *DevMem) Close() error {
	return m.mf.Close()
}
