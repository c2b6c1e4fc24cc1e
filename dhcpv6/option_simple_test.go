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

func TestOptElapsedTimeRoundTrip(t *testing.T) {
	orig := &OptElapsedTime{Elapsed: 1230 * time.Millisecond}
	parsed, err := parseOptElapsedTime(orig.ToBytes())
	require.NoError(t, err)
	require.Equal(t, orig.Elapsed, parsed.(*OptElapsedTime).Elapsed)
}

func TestOptElapsedTimeRejectsWrongLength(t *testing.T) {
	_, err := parseOptElapsedTime([]byte{0})
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestOptPreferenceRoundTrip(t *testing.T) {
	orig := &OptPreference{Value: 200}
	parsed, err := parseOptPreference(orig.ToBytes())
	require.NoError(t, err)
	require.Equal(t, uint8(200), parsed.(*OptPreference).Value)
}

func TestOptRapidCommitRejectsNonEmptyPayload(t *testing.T) {
	_, err := parseOptRapidCommit([]byte{1})
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestOptRequestRoundTrip(t *testing.T) {
	orig := &OptRequest{Codes: []OptionCode{OptionDNSRecursiveNameServers, OptionNTPServer}}
	parsed, err := parseOptRequest(orig.ToBytes())
	require.NoError(t, err)
	back := parsed.(*OptRequest)
	require.True(t, back.Requests(OptionDNSRecursiveNameServers))
	require.True(t, back.Requests(OptionNTPServer))
	require.False(t, back.Requests(OptionBootfileURL))
}

func TestOptRequestRejectsOddLength(t *testing.T) {
	_, err := parseOptRequest([]byte{0})
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestOptUserClassRoundTrip(t *testing.T) {
	orig := &OptUserClass{Data: [][]byte{[]byte("alpha"), []byte("beta")}}
	parsed, err := parseOptUserClass(orig.ToBytes())
	require.NoError(t, err)
	require.Equal(t, orig.Data, parsed.(*OptUserClass).Data)
}

func TestOptVendorClassRoundTrip(t *testing.T) {
	orig := &OptVendorClass{EnterpriseNumber: 9, Data: [][]byte{[]byte("x")}}
	parsed, err := parseOptVendorClass(orig.ToBytes())
	require.NoError(t, err)
	back := parsed.(*OptVendorClass)
	require.Equal(t, uint32(9), back.EnterpriseNumber)
	require.Equal(t, orig.Data, back.Data)
}

func TestOptInterfaceIDRoundTrip(t *testing.T) {
	orig := &OptInterfaceID{ID: []byte("eth0")}
	parsed, err := parseOptInterfaceID(orig.ToBytes())
	require.NoError(t, err)
	require.Equal(t, orig.ID, parsed.(*OptInterfaceID).ID)
}

func TestOptRemoteIDRoundTrip(t *testing.T) {
	orig := &OptRemoteID{EnterpriseNumber: 42, RemoteID: []byte{1, 2, 3}}
	parsed, err := parseOptRemoteID(orig.ToBytes())
	require.NoError(t, err)
	back := parsed.(*OptRemoteID)
	require.Equal(t, uint32(42), back.EnterpriseNumber)
	require.Equal(t, orig.RemoteID, back.RemoteID)
}

func TestOptClientLinkLayerAddressRoundTrip(t *testing.T) {
	orig := &OptClientLinkLayerAddress{LinkLayerType: 1, LinkLayerAddr: net.HardwareAddr{1, 2, 3, 4, 5, 6}}
	parsed, err := parseOptClientLinkLayerAddress(orig.ToBytes())
	require.NoError(t, err)
	back := parsed.(*OptClientLinkLayerAddress)
	require.Equal(t, orig.LinkLayerType, back.LinkLayerType)
	require.Equal(t, orig.LinkLayerAddr, back.LinkLayerAddr)
}
