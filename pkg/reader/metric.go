// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bytesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ramlink",
		Subsystem: "reader",
		Name:      "bytes_delivered_total",
		Help:      "Bytes handed to the caller after snapshot validation.",
	})
	bytesLost = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ramlink",
		Subsystem: "reader",
		Name:      "bytes_lost_total",
		Help:      "Bytes overwritten on the target before they could be fetched.",
	})
	tornSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ramlink",
		Subsystem: "reader",
		Name:      "torn_snapshots_total",
		Help:      "Snapshots discarded because the write counter moved mid-fetch.",
	})
	retriesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ramlink",
		Subsystem: "reader",
		Name:      "snapshot_retries_exhausted_total",
		Help:      "Polls that gave up after repeated torn snapshots.",
	})
	transportErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ramlink",
		Subsystem: "reader",
		Name:      "transport_errors_total",
		Help:      "Failed probe accesses.",
	})
)
