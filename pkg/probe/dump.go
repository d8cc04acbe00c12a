// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// Dump exposes a captured RAM image file as target memory: file offset 0
// is address 0. Useful for inspecting a buffer after the target is gone,
// and for replaying captures in tests. Writes patch the file in place.
type Dump struct {
	fs   afero.Fs
	path string
	f    afero.File
}

// OpenDump opens a RAM image. Pass afero.NewOsFs() outside of tests.
func OpenDump(fs afero.Fs, path string) (*Dump, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump: %v", err)
	}
	return &Dump{fs: fs, path: path, f: f}, nil
}

func (d *Dump) ReadMemory(addr uint32, buf []byte) error {
	if _, err := d.f.ReadAt(buf, int64(addr)); err != nil {
		return fmt.Errorf("dump read of %d bytes at %#x: %v", len(buf), addr, err)
	}
	return nil
}

func (d *Dump) WriteMemory(addr uint32, value uint8) error {
	f, err := d.fs.OpenFile(d.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("opening dump for patching: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteAt([]byte{value}, int64(addr)); err != nil {
		return fmt.Errorf("dump write at %#x: %v", addr, err)
	}
	return nil
}

func (d *Dump) Close() error {
	return d.f.Close()
}
