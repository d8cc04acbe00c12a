// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reader

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Poll pacing for Stream: tight while data flows, easing off on an idle
// target to keep probe traffic down. Transport errors share the same
// schedule, since a glitching probe wants exactly the same treatment as
// an idle one: try again later, a bit less eagerly.
var pollPacing = backoff.ExponentialBackOff{
	InitialInterval:     5 * time.Millisecond,
	RandomizationFactor: 0.1,
	Multiplier:          2,
	MaxInterval:         500 * time.Millisecond,
	MaxElapsedTime:      0,
	Clock:               backoff.SystemClock,
}

// Stream polls until ctx is done, writing every delivered byte to w.
// Transport errors are logged and retried; only a cancelled context or a
// failing w ends the stream. Gaps are counted and logged by ReadBytes but
// are invisible in w, which sees a plain byte stream.
func (r *Reader) Stream(ctx context.Context, w io.Writer) error {
	pacing := pollPacing
	pacing.Reset()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, _, err := r.ReadBytes()
		if err != nil {
			log.Warnf("Poll failed, will retry: %v", err)
		}
		if len(data) > 0 {
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("writing stream output: %v", err)
			}
			pacing.Reset()
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pacing.NextBackOff()):
		}
	}
}
