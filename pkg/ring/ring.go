// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ring is the producer half of the link: a ring buffer formatted
// into a contiguous RAM image that a consumer reads out-of-band through a
// debug probe. The producer never learns whether anything is reading it.
//
// A typical target sets one of these up at a known address and writes
// diagnostics to it:
//
//	buf := ring.New(64, nil)
//	fmt.Fprintf(buf, "boot %d complete\n", stage)
//
// The consumer half lives in pkg/reader.
package ring

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
)

// ExclusionPolicy brackets producer-side mutation. On a microcontroller
// this is interrupt masking; on a host target it is a mutex. It only has
// to exclude the producer's own execution contexts from each other. The
// consumer reads through a debug probe and cannot be excluded by anyone.
type ExclusionPolicy interface {
	Exclusive(f func())
}

// NopPolicy is for producers with a single execution context.
type NopPolicy struct{}

// Exclusive runs f with no locking at all.
func (NopPolicy) Exclusive(f func()) { f() }

// MutexPolicy serializes producer goroutines on a host target. Sharing the
// same policy with an in-process probe.RAM also serializes probe access,
// standing in for the bus arbitration real silicon provides.
type MutexPolicy struct {
	mu sync.Mutex
}

// Exclusive runs f under the mutex.
func (p *MutexPolicy) Exclusive(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f()
}

// Buffer is a fixed-capacity ring buffer living inside a wire-format RAM
// image (see layout.go). New writes silently evict the oldest byte once
// the buffer has wrapped; there is no error path, because the producer
// has no one to report to.
type Buffer struct {
	img      []byte
	capacity uint32
	wrap     uint32 // counter modulus, CounterWrap(capacity)
	w        uint32 // write counter, mirrored into the image on every push
	drained  uint32 // local accounting only, never shared with the consumer
	excl     ExclusionPolicy
	yield    func()
}

// New allocates and formats the RAM image for a buffer of the given
// capacity. It panics on a capacity outside [1, MaxCapacity]; that is a
// build-time mistake on what is normally a static allocation, not a
// runtime condition. A nil policy means NopPolicy.
func New(capacity int, excl ExclusionPolicy) *Buffer {
	if capacity <= 0 || capacity > MaxCapacity {
		panic(fmt.Sprintf("ring: capacity %d outside [1, %d]", capacity, MaxCapacity))
	}
	if excl == nil {
		excl = NopPolicy{}
	}
	img := make([]byte, ImageSize(capacity))
	copy(img[MagicOffset:], Magic[:])
	img[CapacityOffset] = byte(capacity)
	for i := DataOffset; i < len(img); i++ {
		img[i] = FillByte
	}
	return &Buffer{
		img:      img,
		capacity: uint32(capacity),
		wrap:     CounterWrap(capacity),
		excl:     excl,
		yield:    runtime.Gosched,
	}
}

// Push appends one byte, evicting the oldest unread byte if the buffer
// is full.
func (b *Buffer) Push(v byte) {
	b.excl.Exclusive(func() {
		b.push(v)
	})
}

// PushSlice appends data in order, inside a single exclusive section.
func (b *Buffer) PushSlice(data []byte) {
	b.excl.Exclusive(func() {
		for _, v := range data {
			b.push(v)
		}
	})
}

func (b *Buffer) push(v byte) {
	b.img[DataOffset+int(b.w%b.capacity)] = v
	if CounterDelta(b.wrap, b.drained, b.w) == b.capacity {
		// The oldest unread byte was just overwritten.
		b.drained = CounterAdd(b.wrap, b.drained, 1)
	}
	b.w = CounterAdd(b.wrap, b.w, 1)
	// The counter store comes last: a consumer that observes the new
	// value is guaranteed the data byte landed before it.
	binary.LittleEndian.PutUint32(b.img[CounterOffset:], b.w)
}

// SendBytesBlocking appends data, waiting for room instead of evicting
// when the local accounting reports the buffer full. Room appears when the
// embedding program calls Discard from another context; nothing here ever
// waits on the consumer, whose progress is invisible to the producer.
func (b *Buffer) SendBytesBlocking(data []byte) {
	for _, v := range data {
		for {
			full := false
			b.excl.Exclusive(func() {
				if CounterDelta(b.wrap, b.drained, b.w) == b.capacity {
					full = true
					return
				}
				b.push(v)
			})
			if !full {
				break
			}
			b.yield()
		}
	}
}

// Discard advances the local drain mark by n bytes, freeing room for
// SendBytesBlocking. It is the embedding program's own policy, typically a
// timer, since no acknowledgment channel from the consumer exists.
func (b *Buffer) Discard(n int) {
	b.excl.Exclusive(func() {
		unread := CounterDelta(b.wrap, b.drained, b.w)
		if uint32(n) > unread {
			b.drained = b.w
			return
		}
		b.drained = CounterAdd(b.wrap, b.drained, uint32(n))
	})
}

// Unread reports the bytes written but not yet drained per the local
// accounting. It says nothing about consumer progress.
func (b *Buffer) Unread() int {
	var n uint32
	b.excl.Exclusive(func() {
		n = CounterDelta(b.wrap, b.drained, b.w)
	})
	return int(n)
}

// Capacity returns the size of the data region.
func (b *Buffer) Capacity() int {
	return int(b.capacity)
}

// Write implements io.Writer so fmt.Fprintf works against the buffer.
// It never fails; overflow evicts silently like Push.
func (b *Buffer) Write(p []byte) (int, error) {
	b.PushSlice(p)
	return len(p), nil
}

// Bytes returns the live RAM image. Hand it to probe.NewRAM, sharing the
// exclusion policy, to read an in-process target.
func (b *Buffer) Bytes() []byte {
	return b.img
}
