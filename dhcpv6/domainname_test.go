// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainNameAbsoluteRoundTrip(t *testing.T) {
	orig := DomainName{Labels: []string{"example", "com"}, Absolute: true}
	raw, err := orig.save()
	require.NoError(t, err)

	parsed, err := parseDomainName(newBuffer(raw))
	require.NoError(t, err)
	require.Equal(t, orig.Labels, parsed.Labels)
	require.True(t, parsed.Absolute)
	require.Equal(t, "example.com.", parsed.String())
}

func TestDomainNameRelativeRoundTrip(t *testing.T) {
	orig := DomainName{Labels: []string{"sub", "example", "com"}, Absolute: false}
	raw, err := orig.save()
	require.NoError(t, err)

	parsed, err := parseDomainName(newBuffer(raw))
	require.NoError(t, err)
	require.Equal(t, orig.Labels, parsed.Labels)
	require.False(t, parsed.Absolute)
	require.Equal(t, "sub.example.com", parsed.String())
}

func TestDomainNameRejectsCompressionPointer(t *testing.T) {
	_, err := parseDomainName(newBuffer([]byte{0xc0, 0x00}))
	require.ErrorIs(t, err, ErrMalformedField)
}

func TestParseDomainNameListReadsMultiple(t *testing.T) {
	a := DomainName{Labels: []string{"a", "com"}, Absolute: true}
	b := DomainName{Labels: []string{"b", "net"}, Absolute: true}
	araw, err := a.save()
	require.NoError(t, err)
	braw, err := b.save()
	require.NoError(t, err)

	names, err := parseDomainNameList(append(araw, braw...))
	require.NoError(t, err)
	require.Len(t, names, 2)
	require.Equal(t, "a.com.", names[0].String())
	require.Equal(t, "b.net.", names[1].String())
}

func TestDomainNameIDNAConvertsUnicodeLabel(t *testing.T) {
	orig := DomainName{Labels: []string{"münchen", "de"}, Absolute: true}
	raw, err := orig.save()
	require.NoError(t, err)

	parsed, err := parseDomainName(newBuffer(raw))
	require.NoError(t, err)
	require.Equal(t, "münchen", parsed.Labels[0])
}
