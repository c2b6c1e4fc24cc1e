// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package rapidcommit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
)

func mustSolicitBundle(t *testing.T, rapidCommit bool) *bundle.Bundle {
	t.Helper()
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeSolicit, [3]byte{1, 2, 3})
	if rapidCommit {
		req.Options = dhcpv6.Options{&dhcpv6.OptRapidCommit{}}
	}
	b, err := bundle.New(req, nil)
	require.NoError(t, err)
	return b
}

func TestPromotesAdvertiseToReplyWhenRequested(t *testing.T) {
	h := &Handler{}
	b := mustSolicitBundle(t, true)
	b.AllowRapidCommit = true

	require.NoError(t, h.Post(context.Background(), b))
	require.Equal(t, dhcpv6.MessageTypeReply, b.Response.MessageType)
	require.True(t, b.Response.Options.Has(dhcpv6.OptionRapidCommit))
}

func TestLeavesAdvertiseWhenClientDidNotRequestRapidCommit(t *testing.T) {
	h := &Handler{}
	b := mustSolicitBundle(t, false)
	b.AllowRapidCommit = true

	require.NoError(t, h.Post(context.Background(), b))
	require.Equal(t, dhcpv6.MessageTypeAdvertise, b.Response.MessageType)
}

func TestLeavesAdvertiseWhenNotAllowed(t *testing.T) {
	h := &Handler{}
	b := mustSolicitBundle(t, true)
	b.AllowRapidCommit = false

	require.NoError(t, h.Post(context.Background(), b))
	require.Equal(t, dhcpv6.MessageTypeAdvertise, b.Response.MessageType)
}
