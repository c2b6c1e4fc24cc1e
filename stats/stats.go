// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package stats holds the server-wide counters exposed over the control
// socket's "stats"/"stats-json" commands (spec.md §5, §6).
package stats

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// Counters is a plain struct of atomically-updated counters. One instance
// lives in the master and is updated directly by the master (queue
// overflow) and by workers through a shared pointer (everything else); no
// external metrics library is involved (see DESIGN.md).
type Counters struct {
	PacketsReceived  uint64
	PacketsSent      uint64
	PacketsDropped   uint64
	QueueOverflow    uint64
	ParseErrors      uint64
	IgnoredMessages  uint64
	WorkerCrashes    uint64
	WorkerRespawns   uint64
	RateLimited      uint64
	LeaseQueries     uint64
}

// New returns a zeroed Counters.
func New() *Counters { return &Counters{} }

func (c *Counters) IncPacketsReceived() { atomic.AddUint64(&c.PacketsReceived, 1) }
func (c *Counters) IncPacketsSent()     { atomic.AddUint64(&c.PacketsSent, 1) }
func (c *Counters) IncPacketsDropped()  { atomic.AddUint64(&c.PacketsDropped, 1) }
func (c *Counters) IncQueueOverflow()   { atomic.AddUint64(&c.QueueOverflow, 1) }
func (c *Counters) IncParseErrors()     { atomic.AddUint64(&c.ParseErrors, 1) }
func (c *Counters) IncIgnoredMessages() { atomic.AddUint64(&c.IgnoredMessages, 1) }
func (c *Counters) IncWorkerCrashes()   { atomic.AddUint64(&c.WorkerCrashes, 1) }
func (c *Counters) IncWorkerRespawns()  { atomic.AddUint64(&c.WorkerRespawns, 1) }
func (c *Counters) IncRateLimited()     { atomic.AddUint64(&c.RateLimited, 1) }
func (c *Counters) IncLeaseQueries()    { atomic.AddUint64(&c.LeaseQueries, 1) }

// snapshot is the JSON-serializable, consistently-read view of Counters.
type snapshot struct {
	PacketsReceived uint64 `json:"packets_received"`
	PacketsSent     uint64 `json:"packets_sent"`
	PacketsDropped  uint64 `json:"packets_dropped"`
	QueueOverflow   uint64 `json:"queue_overflow"`
	ParseErrors     uint64 `json:"parse_errors"`
	IgnoredMessages uint64 `json:"ignored_messages"`
	WorkerCrashes   uint64 `json:"worker_crashes"`
	WorkerRespawns  uint64 `json:"worker_respawns"`
	RateLimited     uint64 `json:"rate_limited"`
	LeaseQueries    uint64 `json:"lease_queries"`
}

func (c *Counters) Snapshot() snapshot {
	return snapshot{
		PacketsReceived: atomic.LoadUint64(&c.PacketsReceived),
		PacketsSent:     atomic.LoadUint64(&c.PacketsSent),
		PacketsDropped:  atomic.LoadUint64(&c.PacketsDropped),
		QueueOverflow:   atomic.LoadUint64(&c.QueueOverflow),
		ParseErrors:     atomic.LoadUint64(&c.ParseErrors),
		IgnoredMessages: atomic.LoadUint64(&c.IgnoredMessages),
		WorkerCrashes:   atomic.LoadUint64(&c.WorkerCrashes),
		WorkerRespawns:  atomic.LoadUint64(&c.WorkerRespawns),
		RateLimited:     atomic.LoadUint64(&c.RateLimited),
		LeaseQueries:    atomic.LoadUint64(&c.LeaseQueries),
	}
}

// JSON renders the current counter values as a JSON object, for the
// "stats-json" control command.
func (c *Counters) JSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}

// Text renders the current counter values as the multi-line block the
// "stats" control command sends, one "key: value" line per counter.
func (c *Counters) Text() string {
	s := c.Snapshot()
	return fmt.Sprintf(
		"packets_received: %d\npackets_sent: %d\npackets_dropped: %d\n"+
			"queue_overflow: %d\nparse_errors: %d\nignored_messages: %d\n"+
			"worker_crashes: %d\nworker_respawns: %d\nrate_limited: %d\n"+
			"lease_queries: %d",
		s.PacketsReceived, s.PacketsSent, s.PacketsDropped,
		s.QueueOverflow, s.ParseErrors, s.IgnoredMessages,
		s.WorkerCrashes, s.WorkerRespawns, s.RateLimited,
		s.LeaseQueries,
	)
}
