// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// monitor attaches to a target's ring buffer and relays its byte stream
// to stdout. The target keeps running; all reads happen out-of-band
// through the selected probe.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/u-root/ramlink/pkg/logger"
	"github.com/u-root/ramlink/pkg/probe"
	"github.com/u-root/ramlink/pkg/reader"
	"github.com/u-root/ramlink/pkg/ring"
)

var (
	log = logger.LogContainer.GetSimpleLogger()

	addr        = flag.String("addr", "0x3f0e", "RAM address of the ring buffer on the target")
	serialDev   = flag.String("serial", "", "Serial device of a probe bridge (e.g. /dev/ttyUSB0)")
	baud        = flag.Int("baud", 115200, "Baud rate for -serial")
	useDevMem   = flag.Bool("devmem", false, "Access target memory through /dev/mem")
	dumpFile    = flag.String("dump", "", "Read a captured RAM image instead of a live target")
	doSim       = flag.Bool("sim", false, "Run an in-process demo producer instead of attaching to hardware")
	metricsAddr = flag.String("metrics", "", "Listen address for Prometheus metrics (empty disables)")
)

// openProbe returns the selected memory transport and the buffer base
// address within it.
func openProbe() (probe.Memory, uint32, error) {
	base, err := strconv.ParseUint(*addr, 0, 32)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing -addr %q: %v", *addr, err)
	}
	switch {
	case *doSim:
		return startSim(), 0, nil
	case *dumpFile != "":
		d, err := probe.OpenDump(afero.NewOsFs(), *dumpFile)
		return d, uint32(base), err
	case *serialDev != "":
		s, err := probe.OpenSerial(*serialDev, *baud)
		return s, uint32(base), err
	case *useDevMem:
		d, err := probe.OpenDevMem()
		return d, uint32(base), err
	}
	return nil, 0, fmt.Errorf("no probe selected, pass one of -serial, -devmem, -dump or -sim")
}

// startSim builds an in-process target: a producer goroutine writing
// tick lines into a ring buffer whose RAM image is then read back
// through the normal probe interface, eviction races and all.
func startSim() probe.Memory {
	pol := &ring.MutexPolicy{}
	buf := ring.New(64, pol)
	go func() {
		for i := 0; ; i++ {
			fmt.Fprintf(buf, "sim tick %d\n", i)
			time.Sleep(250 * time.Millisecond)
		}
	}()
	return probe.NewRAM(buf.Bytes(), pol)
}

func main() {
	flag.Parse()

	mem, base, err := openProbe()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer mem.Close()

	r, err := reader.New(mem, base)
	if err != nil {
		log.Fatalf("Attaching to ring buffer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.Stream(ctx, os.Stdout)
	})
	if *metricsAddr != "" {
		l, err := net.Listen("tcp", *metricsAddr)
		if err != nil {
			log.Fatalf("Metrics listener: %v", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		g.Go(func() error {
			if err := http.Serve(l, mux); err != nil && !errors.Is(err, net.ErrClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return l.Close()
		})
	}
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatalf("%v", err)
	}
}
