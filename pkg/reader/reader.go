// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reader is the consumer half of the link. It polls a ring buffer
// in target memory through a probe.Memory and reconstructs the byte stream
// the target produced, in order, each byte at most once.
//
// The probe gives no atomicity beyond a single transfer, and the target
// cannot be paused, so every poll runs a seqlock-style cycle: sample the
// write counter, fetch the new slots, sample the counter again, and accept
// the data only if the counter did not move. A moved counter means the
// fetch may be torn and the cycle retries from scratch. The target is
// never blocked or even aware of any of this.
package reader

import (
	"errors"
	"fmt"

	"github.com/u-root/ramlink/pkg/logger"
	"github.com/u-root/ramlink/pkg/probe"
	"github.com/u-root/ramlink/pkg/ring"
)

var log = logger.LogContainer.GetSimpleLogger()

var (
	// ErrBadMagic means the magic marker was not found at the base
	// address. Wrong address, or the target has not initialized the
	// buffer yet.
	ErrBadMagic = errors.New("no ring buffer magic at base address")
	// ErrZeroCapacity means the capacity field read as 0.
	ErrZeroCapacity = errors.New("ring buffer reports capacity 0")
)

// snapshotRetries bounds the validate-retry loop within one ReadBytes
// call. A target writing continuously can invalidate snapshots forever;
// after this many misses the call reports no data and the next poll
// starts over.
const snapshotRetries = 4

// Reader holds one debugging session against one target buffer. The only
// persistent state is the cursor, which is local: nothing about the
// consumer is ever written into target memory.
type Reader struct {
	mem      probe.Memory
	base     uint32
	capacity uint32
	wrap     uint32 // counter modulus, ring.CounterWrap(capacity)
	cursor   uint32
}

// New attaches to the buffer at base. It verifies the magic marker, reads
// the capacity, and seats the cursor at the current write counter: bytes
// produced before the session started are gone, and RAM contents from
// before attach time must not be mistaken for stream data.
func New(mem probe.Memory, base uint32) (*Reader, error) {
	var magic [ring.MagicLen]byte
	if err := mem.ReadMemory(base+ring.MagicOffset, magic[:]); err != nil {
		return nil, fmt.Errorf("reading magic: %v", err)
	}
	if magic != ring.Magic {
		return nil, ErrBadMagic
	}
	capacity, err := probe.ReadUint8(mem, base+ring.CapacityOffset)
	if err != nil {
		return nil, fmt.Errorf("reading capacity: %v", err)
	}
	if capacity == 0 {
		return nil, ErrZeroCapacity
	}
	w, err := probe.ReadUint32(mem, base+ring.CounterOffset)
	if err != nil {
		return nil, fmt.Errorf("reading write counter: %v", err)
	}
	log.Infof("Attached to ring buffer at %#x: capacity %d, write counter %d", base, capacity, w)
	return &Reader{
		mem:      mem,
		base:     base,
		capacity: uint32(capacity),
		wrap:     ring.CounterWrap(int(capacity)),
		cursor:   w,
	}, nil
}

// Capacity returns the target buffer's data region size.
func (r *Reader) Capacity() int {
	return int(r.capacity)
}

// ReadBytes returns the bytes produced since the previous call, in
// production order, plus the number of bytes that were overwritten before
// they could be fetched. It never blocks on the target: with nothing new
// it returns immediately without touching the data region, and when
// snapshot validation keeps failing it returns no data rather than spin.
// A transport error leaves the cursor where it was, so the next call
// retries the same range.
func (r *Reader) ReadBytes() ([]byte, uint32, error) {
	for attempt := 0; attempt < snapshotRetries; attempt++ {
		w1, err := probe.ReadUint32(r.mem, r.base+ring.CounterOffset)
		if err != nil {
			transportErrors.Inc()
			return nil, 0, fmt.Errorf("reading write counter: %v", err)
		}
		if w1 == r.cursor {
			return nil, 0, nil
		}

		from := r.cursor
		n := ring.CounterDelta(r.wrap, from, w1)
		var lost uint32
		if n > r.capacity {
			// More was produced than the buffer holds; everything
			// below w1-capacity is overwritten and unrecoverable.
			lost = n - r.capacity
			from = ring.CounterSub(r.wrap, w1, r.capacity)
			n = r.capacity
		}

		data, err := r.fetch(from, n)
		if err != nil {
			transportErrors.Inc()
			return nil, 0, err
		}

		w2, err := probe.ReadUint32(r.mem, r.base+ring.CounterOffset)
		if err != nil {
			transportErrors.Inc()
			return nil, 0, fmt.Errorf("re-reading write counter: %v", err)
		}
		if w2 != w1 {
			// The target wrote during the fetch; the slots we read
			// may mix old and new bytes.
			tornSnapshots.Inc()
			continue
		}

		r.cursor = w1
		bytesDelivered.Add(float64(len(data)))
		if lost > 0 {
			bytesLost.Add(float64(lost))
			log.Warnf("Lost %d bytes to overwrite, polling is too slow for this target", lost)
		}
		return data, lost, nil
	}
	retriesExhausted.Inc()
	return nil, 0, nil
}

// fetch reads the slots holding the n counters starting at from: one
// span, or two when the range wraps the end of the data region. The slot
// sequence is continuous even when the counters themselves wrap, because
// the counter modulus is a multiple of the capacity.
func (r *Reader) fetch(from, n uint32) ([]byte, error) {
	data := make([]byte, n)
	slot := from % r.capacity
	first := r.capacity - slot
	if first > n {
		first = n
	}
	if err := r.mem.ReadMemory(r.base+ring.DataOffset+slot, data[:first]); err != nil {
		return nil, fmt.Errorf("reading data region: %v", err)
	}
	if first < n {
		if err := r.mem.ReadMemory(r.base+ring.DataOffset, data[first:]); err != nil {
			return nil, fmt.Errorf("reading data region: %v", err)
		}
	}
	return data, nil
}

// Resync seats the cursor at the current write counter, dropping whatever
// is pending. Call it after a target reset or reflash, when counter
// continuity with the previous session is gone.
func (r *Reader) Resync() error {
	w, err := probe.ReadUint32(r.mem, r.base+ring.CounterOffset)
	if err != nil {
		transportErrors.Inc()
		return fmt.Errorf("reading write counter: %v", err)
	}
	log.Infof("Resynced to write counter %d", w)
	r.cursor = w
	return nil
}
