// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package elapsedtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
)

func mustBundle(t *testing.T, opts dhcpv6.Options) *bundle.Bundle {
	t.Helper()
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeSolicit, [3]byte{1, 2, 3})
	req.Options = opts
	b, err := bundle.New(req, nil)
	require.NoError(t, err)
	return b
}

func TestNoElapsedTimeLeavesNoMark(t *testing.T) {
	h := &Handler{}
	b := mustBundle(t, dhcpv6.Options{})
	require.NoError(t, h.Pre(context.Background(), b))
	require.Empty(t, b.Marks)
}

func TestElapsedTimeIsMarked(t *testing.T) {
	h := &Handler{}
	b := mustBundle(t, dhcpv6.Options{&dhcpv6.OptElapsedTime{Elapsed: 500 * time.Millisecond}})
	require.NoError(t, h.Pre(context.Background(), b))
	require.True(t, b.HasMark(MarkPrefix+"500ms"))
}
