// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package static

import (
	"context"
	"encoding/hex"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
)

type fakeStore map[string]record

func (f fakeStore) lookup(key string) (record, bool) { r, ok := f[key]; return r, ok }
func (f fakeStore) count() int                       { return len(f) }

func TestSetupRejectsUnknownSource(t *testing.T) {
	_, err := setup([]string{"bogus:/tmp/x"})
	require.Error(t, err)
}

func TestSetupRejectsMissingArgs(t *testing.T) {
	_, err := setup(nil)
	require.Error(t, err)
}

func mustBundleWithDUID(t *testing.T, duid dhcpv6.DUID) *bundle.Bundle {
	t.Helper()
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeRequest, [3]byte{1, 2, 3})
	req.Options = dhcpv6.Options{
		&dhcpv6.OptClientID{DUID: duid},
		&dhcpv6.OptIANA{IAID: 1},
	}
	b, err := bundle.New(req, nil)
	require.NoError(t, err)
	return b
}

func TestHandleAssignsStaticAddress(t *testing.T) {
	duid := dhcpv6.NewDUIDLL(1, net.HardwareAddr{0, 1, 2, 3, 4, 5})
	key := "duid:" + hex.EncodeToString(duid.ToBytes())
	h := &Handler{backing: fakeStore{key: record{Address: "2001:db8::42", PreferredLifetime: 100, ValidLifetime: 200}}}

	b := mustBundleWithDUID(t, duid)
	require.NoError(t, h.Handle(context.Background(), b))

	opt, ok := b.GetResponseOption(dhcpv6.OptionIANA)
	require.True(t, ok)
	ia := opt.(*dhcpv6.OptIANA)
	require.Equal(t, uint32(1), ia.IAID)
	addr, ok := ia.Options.Get(dhcpv6.OptionIAAddr)
	require.True(t, ok)
	require.Equal(t, net.ParseIP("2001:db8::42"), addr.(*dhcpv6.OptIAAddress).IPv6Addr)
}

func TestHandleFallsBackToDefaultLifetimesWhenRecordHasNone(t *testing.T) {
	duid := dhcpv6.NewDUIDLL(1, net.HardwareAddr{0, 1, 2, 3, 4, 5})
	key := "duid:" + hex.EncodeToString(duid.ToBytes())
	h := &Handler{backing: fakeStore{key: record{Address: "2001:db8::42"}}}

	b := mustBundleWithDUID(t, duid)
	require.NoError(t, h.Handle(context.Background(), b))

	opt, ok := b.GetResponseOption(dhcpv6.OptionIANA)
	require.True(t, ok)
	ia := opt.(*dhcpv6.OptIANA)
	addr, ok := ia.Options.Get(dhcpv6.OptionIAAddr)
	require.True(t, ok)
	ipaddr := addr.(*dhcpv6.OptIAAddress)
	require.Equal(t, uint32(DefaultLifetime), ipaddr.PreferredLifetime)
	require.Equal(t, uint32(DefaultValidLifetime), ipaddr.ValidLifetime)
}

// TestCSVAssignmentScenario mirrors spec.md §8 scenario 1: a Solicit with
// one IA-NA whose DUID maps to a CSV row with no explicit lifetimes.
func TestCSVAssignmentScenario(t *testing.T) {
	duid := dhcpv6.NewDUIDLL(1, net.HardwareAddr{0, 3, 0, 1, 0, 0x24, 0x36, 0xef, 0x1d, 0x89})
	key := "duid:" + hex.EncodeToString(duid.ToBytes())
	h := &Handler{backing: fakeStore{key: record{Address: "2001:db8::42"}}}

	b := mustBundleWithDUID(t, duid)
	require.NoError(t, h.Handle(context.Background(), b))

	opt, ok := b.GetResponseOption(dhcpv6.OptionIANA)
	require.True(t, ok)
	ia := opt.(*dhcpv6.OptIANA)
	require.Equal(t, uint32(1), ia.IAID)
	require.Equal(t, uint32(1800), ia.T1)
	require.Equal(t, uint32(2880), ia.T2)

	addr, ok := ia.Options.Get(dhcpv6.OptionIAAddr)
	require.True(t, ok)
	ipaddr := addr.(*dhcpv6.OptIAAddress)
	require.True(t, net.ParseIP("2001:db8::42").Equal(ipaddr.IPv6Addr))
	require.Equal(t, uint32(3600), ipaddr.PreferredLifetime)
	require.Equal(t, uint32(7200), ipaddr.ValidLifetime)
}

func TestHandleLeavesUnmatchedIAUnclaimed(t *testing.T) {
	duid := dhcpv6.NewDUIDLL(1, net.HardwareAddr{9, 9, 9, 9, 9, 9})
	h := &Handler{backing: fakeStore{}}

	b := mustBundleWithDUID(t, duid)
	require.NoError(t, h.Handle(context.Background(), b))

	_, ok := b.GetResponseOption(dhcpv6.OptionIANA)
	require.False(t, ok)
}
