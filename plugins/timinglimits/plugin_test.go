// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package timinglimits

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
)

func mustBundle(t *testing.T, opts dhcpv6.Options) *bundle.Bundle {
	t.Helper()
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeSolicit, [3]byte{1, 2, 3})
	req.Options = opts
	b, err := bundle.New(req, nil)
	require.NoError(t, err)
	return b
}

func TestSetupRejectsBadArgs(t *testing.T) {
	_, err := setup(nil)
	require.Error(t, err)
	_, err = setup([]string{"not-a-duration"})
	require.Error(t, err)
}

func TestSetupParsesDuration(t *testing.T) {
	h, err := setup([]string{"2s"})
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, h.(*Handler).Minimum)
}

func TestNoElapsedTimePasses(t *testing.T) {
	h := &Handler{Minimum: time.Second}
	b := mustBundle(t, dhcpv6.Options{})
	require.NoError(t, h.Pre(context.Background(), b))
}

func TestBelowMinimumIsIgnored(t *testing.T) {
	h := &Handler{Minimum: 2 * time.Second}
	b := mustBundle(t, dhcpv6.Options{&dhcpv6.OptElapsedTime{Elapsed: time.Second}})
	err := h.Pre(context.Background(), b)
	require.ErrorIs(t, err, pipeline.ErrIgnoreMessage)
}

func TestAtOrAboveMinimumPasses(t *testing.T) {
	h := &Handler{Minimum: time.Second}
	b := mustBundle(t, dhcpv6.Options{&dhcpv6.OptElapsedTime{Elapsed: 3 * time.Second}})
	require.NoError(t, h.Pre(context.Background(), b))
}
