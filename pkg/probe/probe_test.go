// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
)

func TestRAMReadWrite(t *testing.T) {
	img := []byte{0x11, 0x22, 0x33, 0x44}
	m := NewRAM(img, nil)
	buf := make([]byte, 2)
	if err := m.ReadMemory(1, buf); err != nil {
		t.Fatalf("ReadMemory: %v", err)
	}
	if !bytes.Equal(buf, []byte{0x22, 0x33}) {
		t.Errorf("Read % x, want 22 33", buf)
	}
	if err := m.WriteMemory(3, 0x55); err != nil {
		t.Fatalf("WriteMemory: %v", err)
	}
	if img[3] != 0x55 {
		t.Errorf("Image byte 3 is %#x, want 0x55", img[3])
	}
}

func TestRAMBounds(t *testing.T) {
	m := NewRAM(make([]byte, 4), nil)
	if err := m.ReadMemory(2, make([]byte, 3)); err == nil {
		t.Errorf("Out-of-range read did not fail")
	}
	if err := m.WriteMemory(4, 0); err == nil {
		t.Errorf("Out-of-range write did not fail")
	}
}

func TestReadUint32LittleEndian(t *testing.T) {
	m := NewRAM([]byte{0x78, 0x56, 0x34, 0x12}, nil)
	v, err := ReadUint32(m, 0)
	if err != nil {
		t.Fatalf("ReadUint32: %v", err)
	}
	if v != 0x12345678 {
		t.Errorf("ReadUint32 = %#x, want 0x12345678", v)
	}
}

func TestDump(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/ram.bin", []byte{0xde, 0xad, 0xbe, 0xef}, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	d, err := OpenDump(fs, "/ram.bin")
	if err != nil {
		t.Fatalf("OpenDump: %v", err)
	}
	defer d.Close()

	buf := make([]byte, 2)
	if err := d.ReadMemory(2, buf); err != nil {
		t.Fatalf("ReadMemory: %v", err)
	}
	if !bytes.Equal(buf, []byte{0xbe, 0xef}) {
		t.Errorf("Read % x, want be ef", buf)
	}

	if err := d.WriteMemory(0, 0x00); err != nil {
		t.Fatalf("WriteMemory: %v", err)
	}
	got, err := afero.ReadFile(fs, "/ram.bin")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, []byte{0x00, 0xad, 0xbe, 0xef}) {
		t.Errorf("Patched dump is % x, want 00 ad be ef", got)
	}
}

func TestDumpMissingFile(t *testing.T) {
	if _, err := OpenDump(afero.NewMemMapFs(), "/nope.bin"); err == nil {
		t.Errorf("OpenDump of a missing file did not fail")
	}
}
