// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ring

// The buffer occupies a fixed RAM region on the target:
//
//	[magic: 3 bytes][capacity: 1 byte][write counter: uint32 LE][data: capacity bytes]
//
// Both sides compile these offsets in; nothing is negotiated at runtime.
// The write counter is monotonic and wraps at CounterWrap(capacity), the
// largest multiple of the capacity that fits in 32 bits. A slot is
// counter % capacity; because the modulus is a multiple of the capacity,
// the slot sequence stays continuous across the counter wrap, and
// CounterDelta gives the number of bytes produced between two
// observations regardless of wrap. The counter fits in one 32-bit probe
// transfer, which is what makes it safe for a consumer to poll.

const (
	// MagicOffset is where the magic marker starts. The marker lets a
	// consumer tell a wrong base address from an empty buffer.
	MagicOffset = 0
	// MagicLen is the length of the magic marker.
	MagicLen = 3
	// CapacityOffset holds the size of the data region, one byte, nonzero.
	CapacityOffset = 3
	// CounterOffset holds the monotonic write counter, little endian.
	// Always the last field the producer stores.
	CounterOffset = 4
	// DataOffset is the start of the data region.
	DataOffset = 8

	// MaxCapacity is what fits in the one-byte capacity field.
	MaxCapacity = 255

	// FillByte is the value unwritten slots are initialized to, so a
	// memory dump shows which slots were never produced.
	FillByte = 0x13
)

// Magic is the marker placed at the start of the buffer image.
var Magic = [MagicLen]byte{0x88, 0x88, 0x88}

// ImageSize returns the RAM footprint of a buffer with the given capacity.
func ImageSize(capacity int) int {
	return DataOffset + capacity
}

// CounterWrap returns the write counter modulus for a capacity: the
// largest multiple of the capacity representable in 32 bits, with 0
// standing for 2^32 (any power-of-two capacity). A counter wrapping at a
// plain 2^32 would tear the slot sequence at the wrap for any capacity
// that does not divide it: counters 0xffffffff and 0 would map to the
// same slot, and every fetch spanning the wrap would read wrong slots.
func CounterWrap(capacity int) uint32 {
	m := uint64(1) << 32
	return uint32(m - m%uint64(capacity))
}

// CounterAdd advances a counter value by n under the given wrap.
func CounterAdd(wrap, c, n uint32) uint32 {
	if wrap == 0 {
		return c + n
	}
	return uint32((uint64(c) + uint64(n)) % uint64(wrap))
}

// CounterDelta returns how many counter values lie in [from, to) under
// the given wrap.
func CounterDelta(wrap, from, to uint32) uint32 {
	if wrap == 0 || to >= from {
		return to - from
	}
	return wrap - from + to
}

// CounterSub steps a counter value back by n under the given wrap.
func CounterSub(wrap, c, n uint32) uint32 {
	if wrap == 0 || c >= n {
		return c - n
	}
	return wrap - (n - c)
}
