// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package leasequery defines the pluggable lease-record store contract used
// by the leasequery plugin, plus a built-in SQLite-backed implementation
// (spec.md §4.6).
package leasequery

import (
	"net"
	"time"

	"github.com/dhcpv6d/dhcpv6d/bundle"
)

// Record is one assigned lease: an address or a delegated prefix, bound to
// a client DUID and observed through a relay chain (spec.md §4.6).
type Record struct {
	ClientDUID       []byte
	LinkAddress      net.IP
	IAID             uint32
	AssignedAddress  net.IP
	PrefixLength     uint8
	PreferredLife    uint32
	ValidLife        uint32
	LastClientTxTime time.Time
	RemoteID         []byte
	RelayID          []byte
}

// Filter selects which records Query returns. A zero-value field means
// "don't filter on this".
type Filter struct {
	ClientDUID  []byte
	LinkAddress net.IP
	Address     net.IP
}

// Store is the contract a leasequery backend implements: persist a lease
// observed while processing a bundle, and answer queries against the
// persisted set (spec.md §4.6). Implementations must be safe for
// concurrent use by multiple workers.
type Store interface {
	// Record persists (or updates) the lease state implied by b's
	// response, called from a handler's Post phase once the response
	// shape is known to be a Reply.
	Record(b *bundle.Bundle) error

	// Query returns every record matching f.
	Query(f Filter) ([]Record, error)

	Close() error
}
