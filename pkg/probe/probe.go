// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package probe abstracts the out-of-band path into target memory: a debug
// transport (UPDI or JTAG bridge, /dev/mem, a captured dump, or an
// in-process image) that can fetch and patch bytes while the target runs.
package probe

import (
	"encoding/binary"
	"fmt"
)

// Memory is the raw access a debug transport provides. Calls are slow and
// fallible, and atomic only within a single call: two calls can be
// separated by arbitrary target activity, so callers must never treat
// their results as one consistent view.
type Memory interface {
	// ReadMemory fills buf from target memory starting at addr.
	ReadMemory(addr uint32, buf []byte) error
	// WriteMemory patches a single byte of target memory.
	WriteMemory(addr uint32, value uint8) error
	Close() error
}

// ReadUint8 fetches one byte.
func ReadUint8(m Memory, addr uint32) (uint8, error) {
	var buf [1]byte
	if err := m.ReadMemory(addr, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint32 fetches a little-endian 32-bit word in a single transfer.
func ReadUint32(m Memory, addr uint32) (uint32, error) {
	var buf [4]byte
	if err := m.ReadMemory(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func rangeErr(addr uint32, n, size int) error {
	return fmt.Errorf("access [%#x, %#x) outside memory of size %#x", addr, int(addr)+n, size)
}
