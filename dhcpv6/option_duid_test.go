// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptClientIDRoundTrip(t *testing.T) {
	duid := NewDUIDLL(1, net.HardwareAddr{1, 2, 3, 4, 5, 6})
	orig := &OptClientID{DUID: duid}
	parsed, err := parseOptClientID(orig.ToBytes())
	require.NoError(t, err)
	require.True(t, duid.Equal(parsed.(*OptClientID).DUID))
}

func TestOptServerIDRoundTrip(t *testing.T) {
	duid := NewDUIDLL(1, net.HardwareAddr{6, 5, 4, 3, 2, 1})
	orig := &OptServerID{DUID: duid}
	parsed, err := parseOptServerID(orig.ToBytes())
	require.NoError(t, err)
	require.True(t, duid.Equal(parsed.(*OptServerID).DUID))
}

func TestOptClientIDRejectsMalformedDUID(t *testing.T) {
	_, err := parseOptClientID([]byte{0})
	require.Error(t, err)
}
