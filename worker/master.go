// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package worker implements the master/worker scheduling model from
// spec.md §4.4: a master that owns listener sockets and a pool of workers
// that run the pipeline and send replies.
//
// spec.md describes OS-process workers to route around a single
// interpreter's GIL; Go has no such constraint, so this is implemented as
// a bounded channel feeding a goroutine pool instead, with bounded-queue
// drop-on-full, privilege drop before the pool starts, an exception
// watchdog with a sliding crash-rate window, SIGHUP/control-socket reload
// and a drain-then-terminate shutdown (see DESIGN.md). A reload swaps the
// Plan in place: workers are not restarted, and WorkerInit is not called
// on the new Plan's handlers.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/listener"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/stats"
)

var log = logger.GetLogger("worker")

// Plan is the immutable output of configuration: a built pipeline plus the
// server DUID and the per-bundle soft deadline. Its handlers are built
// before privilege drop and shared by every worker; each worker calls
// WorkerInit on them when it starts.
type Plan struct {
	Pipeline   pipeline.Pipeline
	ServerDUID dhcpv6.DUID
	Deadline   time.Duration
}

// Master owns the listeners, the bounded work queue, and the worker pool.
type Master struct {
	listeners []listener.Listener
	queue     chan listener.IncomingPacket
	queueSize int
	numWorkers int
	counters  *stats.Counters

	mu      sync.Mutex
	plan    *Plan
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	watchdog *watchdog
}

// New constructs a Master. Listeners must already be open (the caller
// opens them, and drops privileges, before calling New — spec.md §4.4).
func New(listeners []listener.Listener, plan *Plan, queueSize, numWorkers int, counters *stats.Counters) *Master {
	if queueSize <= 0 {
		queueSize = 256
	}
	if numWorkers <= 0 {
		numWorkers = 4
	}
	return &Master{
		listeners:  listeners,
		queue:      make(chan listener.IncomingPacket, queueSize),
		queueSize:  queueSize,
		numWorkers: numWorkers,
		counters:   counters,
		plan:       plan,
		watchdog:   newWatchdog(10*time.Second, 5),
	}
}

// Start runs the listener read loops and the worker pool until Stop is
// called.
func (m *Master) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	for _, l := range m.listeners {
		l := l
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.runListener(l)
		}()
	}

	for i := 0; i < m.numWorkers; i++ {
		m.wg.Add(1)
		go m.runWorker(ctx, i)
	}
}

// runListener feeds the bounded queue, dropping on overflow rather than
// blocking (spec.md §4.4: "On put when full, the master does not block:
// it drops the packet and increments a queue_overflow counter.").
func (m *Master) runListener(l listener.Listener) {
	out := make(chan listener.IncomingPacket)
	go l.Run(out)
	for pkt := range out {
		if m.counters != nil {
			m.counters.IncPacketsReceived()
		}
		select {
		case m.queue <- pkt:
		default:
			if m.counters != nil {
				m.counters.IncQueueOverflow()
				m.counters.IncPacketsDropped()
			}
		}
	}
}

// runWorker pulls packets off the queue and processes them one at a time,
// recovering from panics and reporting them to the watchdog (spec.md
// §4.4's exception watchdog, re-expressed as recover() since a goroutine
// panic would otherwise bring down the whole process rather than just one
// OS-process worker).
func (m *Master) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()
	if err := pipeline.WorkerInit(m.currentPlan().Pipeline); err != nil {
		log.Errorf("worker %d: init failed: %v", id, err)
	}
	defer pipeline.WorkerShutdown(m.currentPlan().Pipeline, func(err error) {
		log.Errorf("worker %d: shutdown hook: %v", id, err)
	})

	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-m.queue:
			if !ok {
				return
			}
			m.processSafely(id, pkt)
		}
	}
}

func (m *Master) processSafely(id int, pkt listener.IncomingPacket) {
	defer func() {
		if r := recover(); r != nil {
			if m.counters != nil {
				m.counters.IncWorkerCrashes()
			}
			log.Errorf("worker %d: recovered panic: %v", id, r)
			if m.watchdog.trip() {
				log.Errorf("worker %d: crash rate exceeded threshold, terminating master", id)
				m.Stop()
			}
		}
	}()
	m.process(pkt)
}

func (m *Master) process(pkt listener.IncomingPacket) {
	plan := m.currentPlan()
	deadline := plan.Deadline
	if deadline <= 0 {
		deadline = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	incoming, err := dhcpv6.FromBytes(pkt.Payload)
	if err != nil {
		if m.counters != nil {
			m.counters.IncParseErrors()
		}
		return
	}

	b, err := bundle.New(incoming, plan.ServerDUID)
	if err != nil {
		if m.counters != nil {
			m.counters.IncIgnoredMessages()
		}
		return
	}
	for _, mk := range pkt.Marks {
		b.Mark(mk)
	}
	b.ListenerName = pkt.ListenerName
	b.InterfaceName = pkt.Interface

	if b.Response == nil {
		// No applicable response shape (e.g. Reconfigure); pipeline is
		// skipped entirely (spec.md §4.2).
		return
	}

	if err := pipeline.Run(ctx, plan.Pipeline, b, func(err error) {
		log.Errorf("post phase error: %v", err)
	}); errors.Is(err, pipeline.ErrUseMulticast) {
		// Send a UseMulticast status in place of the response built so
		// far, keeping only the client and server identifiers.
		opts := dhcpv6.Options{}
		for _, code := range []dhcpv6.OptionCode{dhcpv6.OptionClientID, dhcpv6.OptionServerID} {
			if opt, ok := b.Response.Options.Get(code); ok {
				opts.Add(opt)
			}
		}
		opts.Add(dhcpv6.NewStatusOption(dhcpv6.StatusUseMulticast, "use multicast"))
		b.Response.Options = opts
		b.Responses = nil
	} else if err != nil {
		if m.counters != nil {
			if b.HasMark("rate-limited") {
				m.counters.IncRateLimited()
			} else {
				m.counters.IncIgnoredMessages()
			}
		}
		return
	}

	out := b.BuildOutgoing()
	if out == nil {
		return
	}
	if pkt.Reply != nil {
		if err := pkt.Reply(out.ToBytes()); err == nil && m.counters != nil {
			m.counters.IncPacketsSent()
		}
	}
	for _, extra := range b.Responses {
		if pkt.Reply != nil {
			if err := pkt.Reply(extra.ToBytes()); err == nil && m.counters != nil {
				m.counters.IncPacketsSent()
			}
		}
	}
}

func (m *Master) currentPlan() *Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plan
}

// Reload swaps in a new plan. In-flight bundles complete under the plan
// that was current when they started; new packets use the new plan
// (spec.md §4.4). A reload failure (the caller's responsibility to detect
// before calling Reload) leaves the running configuration untouched.
func (m *Master) Reload(plan *Plan) {
	m.mu.Lock()
	m.plan = plan
	m.mu.Unlock()
}

// Stop closes listeners (new work stops), signals workers to drain, waits
// up to deadline, then returns; it does not forcibly kill goroutines since
// Go provides no such primitive, but ctx cancellation stops the pool from
// pulling further queue entries once drained (spec.md §4.4).
func (m *Master) Stop(drainDeadlines ...time.Duration) {
	deadline := 5 * time.Second
	if len(drainDeadlines) > 0 {
		deadline = drainDeadlines[0]
	}

	for _, l := range m.listeners {
		_ = l.Close()
	}

	done := make(chan struct{})
	go func() {
		close(m.queue)
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(deadline):
		log.Warnf("drain deadline exceeded, forcing shutdown")
	}
	if m.cancel != nil {
		m.cancel()
	}
}
