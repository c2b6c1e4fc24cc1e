// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import "errors"

// Errors returned by parse() that abort parsing of a single packet. The
// worker drops such a packet silently and counts it under parse_errors;
// ErrIncompleteMessage is counted together with the rest.
var (
	// ErrInsufficientData is returned when a buffer ends before a
	// length-declared field has been fully read.
	ErrInsufficientData = errors.New("dhcpv6: insufficient data")

	// ErrInvalidLength is returned when a declared length does not agree
	// with the bytes actually available or with a fixed-size field.
	ErrInvalidLength = errors.New("dhcpv6: invalid length")

	// ErrMalformedField is returned when a field's bytes cannot be
	// interpreted under its type's encoding rules (e.g. a non-canonical
	// domain name label).
	ErrMalformedField = errors.New("dhcpv6: malformed field")

	// ErrRelayTooDeep is returned when the relay nesting chain exceeds
	// MaxRelayDepth.
	ErrRelayTooDeep = errors.New("dhcpv6: relay nesting too deep")

	// ErrIncompleteMessage is a subclass of "ignore": the buffer contained
	// fewer bytes than even the fixed message header requires. It can be
	// told apart from ErrInsufficientData with errors.Is; the server's
	// counters do not separate the two.
	ErrIncompleteMessage = errors.New("dhcpv6: incomplete message")
)

// UnknownVariant is not an error returned from parse(): an unrecognized
// message type, option code, or DUID type always produces an opaque
// "Unknown*" value instead of failing. It is documented here only to
// record the contract from spec.md §4.1.
