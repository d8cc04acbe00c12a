// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

// Locker serializes probe access against an in-process producer mutating
// the same image. ring.MutexPolicy satisfies it.
type Locker interface {
	Exclusive(f func())
}

type nopLock struct{}

func (nopLock) Exclusive(f func()) { f() }

// RAM exposes a byte slice as target memory: the substrate for simulated
// targets that run in the same process as the consumer. Address 0 is the
// start of the slice.
type RAM struct {
	img []byte
	lk  Locker
}

// NewRAM wraps img. A nil locker means unsynchronized access, which is
// only safe when nothing mutates img concurrently.
func NewRAM(img []byte, lk Locker) *RAM {
	if lk == nil {
		lk = nopLock{}
	}
	return &RAM{img: img, lk: lk}
}

func (m *RAM) ReadMemory(addr uint32, buf []byte) error {
	if int(addr)+len(buf) > len(m.img) {
		return rangeErr(addr, len(buf), len(m.img))
	}
	m.lk.Exclusive(func() {
		copy(buf, m.img[addr:])
	})
	return nil
}

func (m *RAM) WriteMemory(addr uint32, value uint8) error {
	if int(addr) >= len(m.img) {
		return rangeErr(addr, 1, len(m.img))
	}
	m.lk.Exclusive(func() {
		m.img[addr] = value
	})
	return nil
}

func (m *RAM) Close() error {
	return nil
}
