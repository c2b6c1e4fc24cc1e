// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptDNSServersRoundTrip(t *testing.T) {
	orig := &OptDNSServers{Servers: []net.IP{net.ParseIP("2001:db8::1"), net.ParseIP("2001:db8::2")}}
	parsed, err := parseOptDNSServers(orig.ToBytes())
	require.NoError(t, err)
	back := parsed.(*OptDNSServers)
	require.Len(t, back.Servers, 2)
	require.True(t, orig.Servers[0].Equal(back.Servers[0]))
}

func TestOptDNSServersRejectsMisalignedLength(t *testing.T) {
	_, err := parseOptDNSServers(make([]byte, 17))
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestOptDomainSearchListRoundTrip(t *testing.T) {
	orig := &OptDomainSearchList{Domains: []DomainName{
		{Labels: []string{"example", "com"}, Absolute: true},
		{Labels: []string{"example", "net"}, Absolute: true},
	}}
	parsed, err := parseOptDomainSearchList(orig.ToBytes())
	require.NoError(t, err)
	back := parsed.(*OptDomainSearchList)
	require.Len(t, back.Domains, 2)
	require.Equal(t, "example.com.", back.Domains[0].String())
	require.Equal(t, "example.net.", back.Domains[1].String())
}

func TestOptBootfileURLRoundTrip(t *testing.T) {
	orig := &OptBootfileURL{URL: "tftp://10.0.0.1/boot.efi"}
	parsed, err := parseOptBootfileURL(orig.ToBytes())
	require.NoError(t, err)
	require.Equal(t, orig.URL, parsed.(*OptBootfileURL).URL)
}

func TestOptBootfileParamRoundTrip(t *testing.T) {
	orig := &OptBootfileParam{Params: []string{"a", "bb", "ccc"}}
	parsed, err := parseOptBootfileParam(orig.ToBytes())
	require.NoError(t, err)
	require.Equal(t, orig.Params, parsed.(*OptBootfileParam).Params)
}

func TestOptNTPServersRoundTrip(t *testing.T) {
	orig := &OptNTPServers{Servers: []net.IP{net.ParseIP("2001:db8::53")}}
	parsed, err := parseOptNTPServers(orig.ToBytes())
	require.NoError(t, err)
	require.True(t, orig.Servers[0].Equal(parsed.(*OptNTPServers).Servers[0]))
}
