// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package bundle

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
)

func TestNewSynthesizesVirtualRelay(t *testing.T) {
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeSolicit, [3]byte{1, 2, 3})
	b, err := New(req, nil)
	require.NoError(t, err)
	require.True(t, b.IsVirtualRelay())
	require.Len(t, b.Relays, 1)
	require.Equal(t, dhcpv6.MessageTypeAdvertise, b.Response.MessageType)
}

func TestNewPreservesRealRelayChain(t *testing.T) {
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeRequest, [3]byte{1, 2, 3})
	inner := dhcpv6.NewRelayForward(net.ParseIP("2001:db8::1"), net.ParseIP("fe80::1"), 1, req)
	outer := dhcpv6.NewRelayForward(net.ParseIP("2001:db8::2"), net.ParseIP("fe80::2"), 2, inner)

	b, err := New(outer, nil)
	require.NoError(t, err)
	require.False(t, b.IsVirtualRelay())
	require.Len(t, b.Relays, 2)
	require.Equal(t, dhcpv6.MessageTypeReply, b.Response.MessageType)
}

func TestNewHasNoResponseShapeForReconfigure(t *testing.T) {
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeReconfigure, [3]byte{1, 2, 3})
	b, err := New(req, nil)
	require.NoError(t, err)
	require.Nil(t, b.Response)
}

func TestServerIDPopulatedFromArgument(t *testing.T) {
	duid := dhcpv6.NewDUIDLL(1, net.HardwareAddr{0, 1, 2, 3, 4, 5})
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeSolicit, [3]byte{1, 2, 3})
	b, err := New(req, duid)
	require.NoError(t, err)
	opt, ok := b.Response.Options.Get(dhcpv6.OptionServerID)
	require.True(t, ok)
	require.Equal(t, duid, opt.(*dhcpv6.OptServerID).DUID)
}

func TestGetUnhandledOptionsExcludesHandled(t *testing.T) {
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeRequest, [3]byte{1, 2, 3})
	ia1 := &dhcpv6.OptIANA{IAID: 1}
	ia2 := &dhcpv6.OptIANA{IAID: 2}
	req.Options = dhcpv6.Options{ia1, ia2}

	b, err := New(req, nil)
	require.NoError(t, err)

	require.Len(t, b.GetUnhandledOptions(IANA), 2)
	b.MarkHandled(ia1)
	unhandled := b.GetUnhandledOptions(IANA)
	require.Len(t, unhandled, 1)
	require.Equal(t, ia2, unhandled[0])
}

func TestAddResponseOptionDedupesByIdentity(t *testing.T) {
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeSolicit, [3]byte{1, 2, 3})
	b, err := New(req, nil)
	require.NoError(t, err)

	opt := &dhcpv6.OptPreference{Value: 5}
	b.AddResponseOption(opt)
	b.AddResponseOption(opt)
	require.Len(t, b.Response.Options.GetAll(dhcpv6.OptionPreference), 1)
}

func TestBuildOutgoingWrapsRelayChainInReverse(t *testing.T) {
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeRequest, [3]byte{1, 2, 3})
	inner := dhcpv6.NewRelayForward(net.ParseIP("2001:db8::1"), net.ParseIP("fe80::1"), 1, req)
	outer := dhcpv6.NewRelayForward(net.ParseIP("2001:db8::2"), net.ParseIP("fe80::2"), 2, inner)

	b, err := New(outer, nil)
	require.NoError(t, err)

	out := b.BuildOutgoing()
	require.True(t, out.IsRelay())
	msg, err := out.GetInnerMessage()
	require.NoError(t, err)
	require.Equal(t, dhcpv6.MessageTypeReply, msg.MessageType)
}

func TestBuildOutgoingNilWithoutResponse(t *testing.T) {
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeReconfigure, [3]byte{1, 2, 3})
	b, err := New(req, nil)
	require.NoError(t, err)
	require.Nil(t, b.BuildOutgoing())
}
