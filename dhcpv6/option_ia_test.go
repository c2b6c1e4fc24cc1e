// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptIANARoundTrip(t *testing.T) {
	orig := &OptIANA{IAID: 7, T1: 100, T2: 200, Options: Options{
		&OptIAAddress{IPv6Addr: net.ParseIP("2001:db8::1"), PreferredLifetime: 100, ValidLifetime: 200},
	}}
	parsed, err := parseOptIANA(orig.ToBytes())
	require.NoError(t, err)
	back := parsed.(*OptIANA)
	require.Equal(t, orig.IAID, back.IAID)
	require.Equal(t, orig.T1, back.T1)
	require.Equal(t, orig.T2, back.T2)
	addr, ok := back.Options.Get(OptionIAAddr)
	require.True(t, ok)
	require.True(t, net.ParseIP("2001:db8::1").Equal(addr.(*OptIAAddress).IPv6Addr))
}

func TestOptIANARejectsShortPayload(t *testing.T) {
	_, err := parseOptIANA([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestOptIATARoundTrip(t *testing.T) {
	orig := &OptIATA{IAID: 3}
	parsed, err := parseOptIATA(orig.ToBytes())
	require.NoError(t, err)
	require.Equal(t, uint32(3), parsed.(*OptIATA).IAID)
}

func TestOptIAPDRoundTrip(t *testing.T) {
	orig := &OptIAPD{IAID: 5, T1: 10, T2: 20, Options: Options{
		&OptIAPrefix{PreferredLifetime: 10, ValidLifetime: 20, PrefixLength: 64, Prefix: net.ParseIP("2001:db8:1::")},
	}}
	parsed, err := parseOptIAPD(orig.ToBytes())
	require.NoError(t, err)
	back := parsed.(*OptIAPD)
	require.Equal(t, orig.IAID, back.IAID)
	pfx, ok := back.Options.Get(OptionIAPrefix)
	require.True(t, ok)
	require.Equal(t, uint8(64), pfx.(*OptIAPrefix).PrefixLength)
}

func TestOptIAAddressRejectsShortPayload(t *testing.T) {
	_, err := parseOptIAAddress(make([]byte, 10))
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestOptIAPrefixRejectsShortPayload(t *testing.T) {
	_, err := parseOptIAPrefix(make([]byte, 10))
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestClampIATimersEnforcesOrderingAndShortestPreferred(t *testing.T) {
	t1, t2 := ClampIATimers(100, 50, 80)
	require.LessOrEqual(t, t1, t2)
	require.LessOrEqual(t, t2, uint32(80))
}

func TestClampIATimersLeavesInfiniteUnclamped(t *testing.T) {
	t1, t2 := ClampIATimers(1000, 2000, InfiniteLifetime)
	require.Equal(t, uint32(1000), t1)
	require.Equal(t, uint32(2000), t2)
}
