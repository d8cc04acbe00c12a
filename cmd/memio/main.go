// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// memio peeks and pokes raw target memory through a probe:
//
//	memio -serial /dev/ttyUSB0 read 0x3f0e 16
//	memio -serial /dev/ttyUSB0 write 0x3f00 0xa5
//
// Useful for verifying a ring buffer base address before pointing monitor
// at it. Note that poking into a live ring buffer's data region violates
// the link's ownership rules; metadata patching is for bench debugging.
package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/spf13/afero"

	"github.com/u-root/ramlink/pkg/logger"
	"github.com/u-root/ramlink/pkg/probe"
)

var (
	log = logger.LogContainer.GetSimpleLogger()

	serialDev = flag.String("serial", "", "Serial device of a probe bridge")
	baud      = flag.Int("baud", 115200, "Baud rate for -serial")
	useDevMem = flag.Bool("devmem", false, "Access target memory through /dev/mem")
	dumpFile  = flag.String("dump", "", "Operate on a captured RAM image")
)

func openProbe() (probe.Memory, error) {
	switch {
	case *dumpFile != "":
		return probe.OpenDump(afero.NewOsFs(), *dumpFile)
	case *serialDev != "":
		return probe.OpenSerial(*serialDev, *baud)
	case *useDevMem:
		return probe.OpenDevMem()
	}
	return nil, fmt.Errorf("no probe selected, pass one of -serial, -devmem or -dump")
}

func parseNum(s string, bits int) uint64 {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		log.Fatalf("Parsing %q: %v", s, err)
	}
	return v
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) < 2 {
		log.Fatalf("Usage: memio [flags] read addr [len] | write addr value")
	}

	mem, err := openProbe()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer mem.Close()

	addr := uint32(parseNum(args[1], 32))
	switch args[0] {
	case "read":
		n := 1
		if len(args) > 2 {
			n = int(parseNum(args[2], 16))
		}
		buf := make([]byte, n)
		if err := mem.ReadMemory(addr, buf); err != nil {
			log.Fatalf("Read failed: %v", err)
		}
		for i := 0; i < len(buf); i += 16 {
			end := i + 16
			if end > len(buf) {
				end = len(buf)
			}
			fmt.Printf("%08x  % x\n", int(addr)+i, buf[i:end])
		}
	case "write":
		if len(args) < 3 {
			log.Fatalf("Usage: memio [flags] write addr value")
		}
		v := uint8(parseNum(args[2], 8))
		if err := mem.WriteMemory(addr, v); err != nil {
			log.Fatalf("Write failed: %v", err)
		}
	default:
		log.Fatalf("Unknown command %q", args[0])
	}
}
