// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOptionsPreservesUnknownCode(t *testing.T) {
	opts := Options{&OptionUnknown{code: OptionCode(9999), Data: []byte{1, 2, 3}}}
	parsed, err := parseOptions(saveOptions(opts))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	require.Equal(t, OptionCode(9999), parsed[0].Code())
	require.Equal(t, []byte{1, 2, 3}, parsed[0].(*OptionUnknown).Data)
}

func TestParseOptionsRoundTripsKnownAndUnknownTogether(t *testing.T) {
	opts := Options{
		&OptPreference{Value: 5},
		&OptionUnknown{code: OptionCode(8000), Data: []byte{9, 9}},
	}
	parsed, err := parseOptions(saveOptions(opts))
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	require.Equal(t, uint8(5), parsed[0].(*OptPreference).Value)
	require.Equal(t, OptionCode(8000), parsed[1].Code())
}

func TestParseOptionsRejectsTruncatedLength(t *testing.T) {
	_, err := parseOptions([]byte{0, 1, 0, 10, 1, 2})
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestOptionsGetAllReturnsEveryMatch(t *testing.T) {
	ia1 := &OptIANA{IAID: 1}
	ia2 := &OptIANA{IAID: 2}
	opts := Options{ia1, ia2, &OptPreference{Value: 1}}
	all := opts.GetAll(OptionIANA)
	require.Len(t, all, 2)
	require.Equal(t, ia1, all[0])
	require.Equal(t, ia2, all[1])
}

func TestOptionsHas(t *testing.T) {
	opts := Options{&OptPreference{Value: 1}}
	require.True(t, opts.Has(OptionPreference))
	require.False(t, opts.Has(OptionRapidCommit))
}

func TestValidateEnforcesOccursRange(t *testing.T) {
	opts := Options{&OptClientID{DUID: NewDUIDLL(1, nil)}, &OptClientID{DUID: NewDUIDLL(1, nil)}}
	err := Validate(ContainerMessage, opts)
	require.Error(t, err)
}

func TestValidatePassesWithinRange(t *testing.T) {
	opts := Options{&OptClientID{DUID: NewDUIDLL(1, nil)}}
	require.NoError(t, Validate(ContainerMessage, opts))
}

func TestValidateIgnoresUnknownContainerKind(t *testing.T) {
	require.NoError(t, Validate(ContainerKind(999), Options{&OptPreference{Value: 1}}))
}
