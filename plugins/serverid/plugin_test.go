// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package serverid

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
)

func mustBundle(t *testing.T, mt dhcpv6.MessageType, opts dhcpv6.Options) *bundle.Bundle {
	t.Helper()
	req := dhcpv6.NewMessage(mt, [3]byte{1, 2, 3})
	req.Options = opts
	b, err := bundle.New(req, nil)
	require.NoError(t, err)
	return b
}

func TestSetupRejectsMissingArgs(t *testing.T) {
	_, err := setup(nil)
	require.Error(t, err)
}

func TestSetupParsesLL(t *testing.T) {
	h, err := setup([]string{"ll", "00:11:22:33:44:55"})
	require.NoError(t, err)
	require.IsType(t, &dhcpv6.DUIDLL{}, h.(*Handler).DUID)
}

func TestSolicitWithServerIDIsDropped(t *testing.T) {
	h := &Handler{DUID: dhcpv6.NewDUIDLL(1, net.HardwareAddr{0, 1, 2, 3, 4, 5})}
	b := mustBundle(t, dhcpv6.MessageTypeSolicit, dhcpv6.Options{&dhcpv6.OptServerID{DUID: h.DUID}})
	err := h.Pre(context.Background(), b)
	require.ErrorIs(t, err, pipeline.ErrIgnoreMessage)
}

func TestRequestWithoutServerIDIsDropped(t *testing.T) {
	h := &Handler{DUID: dhcpv6.NewDUIDLL(1, net.HardwareAddr{0, 1, 2, 3, 4, 5})}
	b := mustBundle(t, dhcpv6.MessageTypeRequest, dhcpv6.Options{})
	err := h.Pre(context.Background(), b)
	require.Error(t, err)
}

func TestRequestWithMatchingServerIDPasses(t *testing.T) {
	h := &Handler{DUID: dhcpv6.NewDUIDLL(1, net.HardwareAddr{0, 1, 2, 3, 4, 5})}
	b := mustBundle(t, dhcpv6.MessageTypeRequest, dhcpv6.Options{&dhcpv6.OptServerID{DUID: h.DUID}})
	require.NoError(t, h.Pre(context.Background(), b))
}

func TestRequestWithMismatchedServerIDIsDropped(t *testing.T) {
	h := &Handler{DUID: dhcpv6.NewDUIDLL(1, net.HardwareAddr{0, 1, 2, 3, 4, 5})}
	other := dhcpv6.NewDUIDLL(1, net.HardwareAddr{9, 9, 9, 9, 9, 9})
	b := mustBundle(t, dhcpv6.MessageTypeRequest, dhcpv6.Options{&dhcpv6.OptServerID{DUID: other}})
	require.Error(t, h.Pre(context.Background(), b))
}
