// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDUIDLLRoundTrip(t *testing.T) {
	orig := NewDUIDLL(1, net.HardwareAddr{0, 1, 2, 3, 4, 5})
	parsed, err := ParseDUID(orig.ToBytes())
	require.NoError(t, err)
	require.True(t, orig.Equal(parsed))
	require.Equal(t, DUIDTypeLL, parsed.Type())
}

func TestDUIDLLTRoundTrip(t *testing.T) {
	orig := &DUIDLLT{HWType: 1, Time: time.Unix(1700000000, 0).UTC(), LinkLayerAddr: net.HardwareAddr{9, 8, 7, 6, 5, 4}}
	parsed, err := ParseDUID(orig.ToBytes())
	require.NoError(t, err)
	back := parsed.(*DUIDLLT)
	require.Equal(t, orig.HWType, back.HWType)
	require.True(t, orig.Time.Equal(back.Time))
	require.Equal(t, orig.LinkLayerAddr, back.LinkLayerAddr)
}

func TestDUIDENRoundTrip(t *testing.T) {
	orig := &DUIDEN{EnterpriseNumber: 9, Identifier: []byte{1, 2, 3}}
	parsed, err := ParseDUID(orig.ToBytes())
	require.NoError(t, err)
	require.True(t, orig.Equal(parsed))
}

func TestDUIDUUIDRoundTrip(t *testing.T) {
	orig := &DUIDUUID{UUID: [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}}
	parsed, err := ParseDUID(orig.ToBytes())
	require.NoError(t, err)
	require.True(t, orig.Equal(parsed))
}

func TestDUIDUnknownPreservesRawBytes(t *testing.T) {
	raw := []byte{0, 99, 1, 2, 3, 4}
	parsed, err := ParseDUID(raw)
	require.NoError(t, err)
	require.Equal(t, DUIDType(99), parsed.Type())
	require.Equal(t, raw, parsed.ToBytes())
}

func TestParseDUIDRejectsShortInput(t *testing.T) {
	_, err := ParseDUID([]byte{0})
	require.ErrorIs(t, err, ErrInsufficientData)
}
