// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package ignore

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
)

func TestSetupRejectsEmptyArgs(t *testing.T) {
	_, err := setup(nil)
	require.Error(t, err)
}

func TestSetupParsesMarksAndCIDRs(t *testing.T) {
	h, err := setup([]string{"mark:rate-limited", "2001:db8:dead::/48"})
	require.NoError(t, err)
	handler := h.(*Handler)
	require.Equal(t, []string{"rate-limited"}, handler.Marks)
	require.Len(t, handler.Nets, 1)
}

func TestSetupRejectsBadArgument(t *testing.T) {
	_, err := setup([]string{"not-a-mark-or-cidr"})
	require.Error(t, err)
}

func mustBundle(t *testing.T, linkAddr net.IP) *bundle.Bundle {
	t.Helper()
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeSolicit, [3]byte{1, 2, 3})
	forward := dhcpv6.NewRelayForward(linkAddr, net.ParseIP("fe80::1"), 1, req)
	b, err := bundle.New(forward, nil)
	require.NoError(t, err)
	return b
}

func TestPreDropsOnMark(t *testing.T) {
	h := &Handler{Marks: []string{"rate-limited"}}
	b := mustBundle(t, net.ParseIP("2001:db8::1"))
	b.Mark("rate-limited")
	err := h.Pre(context.Background(), b)
	require.ErrorIs(t, err, pipeline.ErrIgnoreMessage)
}

func TestPreDropsOnMatchingCIDR(t *testing.T) {
	_, n, err := net.ParseCIDR("2001:db8:dead::/48")
	require.NoError(t, err)
	h := &Handler{Nets: []*net.IPNet{n}}
	b := mustBundle(t, net.ParseIP("2001:db8:dead::1"))
	err = h.Pre(context.Background(), b)
	require.ErrorIs(t, err, pipeline.ErrIgnoreMessage)
}

func TestPrePassesOutsideCIDR(t *testing.T) {
	_, n, err := net.ParseCIDR("2001:db8:dead::/48")
	require.NoError(t, err)
	h := &Handler{Nets: []*net.IPNet{n}}
	b := mustBundle(t, net.ParseIP("2001:db8:beef::1"))
	require.NoError(t, h.Pre(context.Background(), b))
}
