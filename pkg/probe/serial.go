// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tarm/serial"

	"github.com/u-root/ramlink/pkg/logger"
)

var log = logger.LogContainer.GetSimpleLogger()

// Bridge wire protocol, one request/response pair at a time:
//
//	'r' addr:u32le len:u16le  ->  0x06 (ACK) then len data bytes
//	'w' addr:u32le value:u8   ->  0x06 (ACK)
//
// A non-ACK status byte means the bridge could not perform the access;
// without it a failed read would be indistinguishable from a stalled
// one. The bridge firmware performs the actual UPDI/JTAG transaction
// against the target.
const (
	opRead  = 'r'
	opWrite = 'w'
	ack     = 0x06
)

// Serial talks to a probe bridge over a serial port.
type Serial struct {
	rw io.ReadWriteCloser
}

// OpenSerial connects to a probe bridge on the given device.
func OpenSerial(dev string, baud int) (*Serial, error) {
	p, err := serial.OpenPort(&serial.Config{Name: dev, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("serial.OpenPort: %v", err)
	}
	log.Infof("Connected to probe bridge on %s at %d baud", dev, baud)
	return newSerialConn(p), nil
}

func newSerialConn(rw io.ReadWriteCloser) *Serial {
	return &Serial{rw: rw}
}

func (s *Serial) ReadMemory(addr uint32, buf []byte) error {
	if len(buf) > 0xffff {
		return fmt.Errorf("read of %d bytes exceeds bridge frame limit", len(buf))
	}
	req := make([]byte, 7)
	req[0] = opRead
	binary.LittleEndian.PutUint32(req[1:], addr)
	binary.LittleEndian.PutUint16(req[5:], uint16(len(buf)))
	if _, err := s.rw.Write(req); err != nil {
		return fmt.Errorf("bridge write: %v", err)
	}
	var status [1]byte
	if _, err := io.ReadFull(s.rw, status[:]); err != nil {
		return fmt.Errorf("bridge status: %v", err)
	}
	if status[0] != ack {
		return fmt.Errorf("bridge rejected read at %#x: %#x", addr, status[0])
	}
	if _, err := io.ReadFull(s.rw, buf); err != nil {
		return fmt.Errorf("bridge read of %d bytes at %#x: %v", len(buf), addr, err)
	}
	return nil
}

func (s *Serial) WriteMemory(addr uint32, value uint8) error {
	req := make([]byte, 6)
	req[0] = opWrite
	binary.LittleEndian.PutUint32(req[1:], addr)
	req[5] = value
	if _, err := s.rw.Write(req); err != nil {
		return fmt.Errorf("bridge write: %v", err)
	}
	var resp [1]byte
	if _, err := io.ReadFull(s.rw, resp[:]); err != nil {
		return fmt.Errorf("bridge ack: %v", err)
	}
	if resp[0] != ack {
		return fmt.Errorf("bridge rejected write at %#x: %#x", addr, resp[0])
	}
	return nil
}

func (s *Serial) Close() error {
	return s.rw.Close()
}
