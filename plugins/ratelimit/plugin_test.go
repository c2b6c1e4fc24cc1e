// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package ratelimit

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
)

func TestSetupRejectsMissingArgs(t *testing.T) {
	_, err := setup(nil)
	require.Error(t, err)
}

func TestSetupRejectsUnknownKeySource(t *testing.T) {
	_, err := setup([]string{"bogus", "1", "1"})
	require.Error(t, err)
}

func mustBundleWithDUID(t *testing.T) *bundle.Bundle {
	t.Helper()
	duid := dhcpv6.NewDUIDLL(1, net.HardwareAddr{1, 2, 3, 4, 5, 6})
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeSolicit, [3]byte{1, 2, 3})
	req.Options = dhcpv6.Options{&dhcpv6.OptClientID{DUID: duid}}
	b, err := bundle.New(req, nil)
	require.NoError(t, err)
	return b
}

func TestPreAllowsWithinBurst(t *testing.T) {
	h, err := setup([]string{"duid", "1", "2"})
	require.NoError(t, err)
	hh := h.(*Handler)
	b := mustBundleWithDUID(t)
	require.NoError(t, hh.Pre(context.Background(), b))
	require.NoError(t, hh.Pre(context.Background(), b))
}

func TestPreRejectsOverBurst(t *testing.T) {
	h, err := setup([]string{"duid", "0.001", "1"})
	require.NoError(t, err)
	hh := h.(*Handler)
	b := mustBundleWithDUID(t)
	require.NoError(t, hh.Pre(context.Background(), b))
	err = hh.Pre(context.Background(), b)
	require.ErrorIs(t, err, pipeline.ErrIgnoreMessage)
	require.True(t, b.HasMark("rate-limited"))
}

func TestKeyForFallsBackToDUIDWhenInterfaceIDAbsent(t *testing.T) {
	h, err := setup([]string{"interface-id", "1", "1"})
	require.NoError(t, err)
	hh := h.(*Handler)
	b := mustBundleWithDUID(t)
	key, ok := hh.keyFor(b)
	require.True(t, ok)
	duidOpt, _ := b.Request.Options.Get(dhcpv6.OptionClientID)
	require.Equal(t, string(duidOpt.(*dhcpv6.OptClientID).DUID.ToBytes()), key)
}
