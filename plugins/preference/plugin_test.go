// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package preference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
)

func TestSetupRejectsMissingArgs(t *testing.T) {
	_, err := setup(nil)
	require.Error(t, err)
}

func TestSetupRejectsInvalidValue(t *testing.T) {
	_, err := setup([]string{"256"})
	require.Error(t, err)
}

func TestSetupParsesValue(t *testing.T) {
	h, err := setup([]string{"200"})
	require.NoError(t, err)
	require.Equal(t, uint8(200), h.(*Handler).Value)
}

func TestHandleSetsPreferenceOnAdvertise(t *testing.T) {
	h := &Handler{Value: 100}
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeSolicit, [3]byte{1, 2, 3})
	b, err := bundle.New(req, nil)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), b))
	opt, ok := b.GetResponseOption(dhcpv6.OptionPreference)
	require.True(t, ok)
	require.Equal(t, uint8(100), opt.(*dhcpv6.OptPreference).Value)
}

func TestHandleDoesNotOverrideExistingPreference(t *testing.T) {
	h := &Handler{Value: 100}
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeSolicit, [3]byte{1, 2, 3})
	b, err := bundle.New(req, nil)
	require.NoError(t, err)
	b.AddResponseOption(&dhcpv6.OptPreference{Value: 50})

	require.NoError(t, h.Handle(context.Background(), b))
	opt, ok := b.GetResponseOption(dhcpv6.OptionPreference)
	require.True(t, ok)
	require.Equal(t, uint8(50), opt.(*dhcpv6.OptPreference).Value)
}
