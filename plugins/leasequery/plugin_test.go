// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package leasequery

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/leasequery"
)

type fakeStore struct {
	records []leasequery.Record
	lastQuery leasequery.Filter
	recorded []*bundle.Bundle
}

func (f *fakeStore) Record(b *bundle.Bundle) error { f.recorded = append(f.recorded, b); return nil }
func (f *fakeStore) Query(filter leasequery.Filter) ([]leasequery.Record, error) {
	f.lastQuery = filter
	return f.records, nil
}
func (f *fakeStore) Close() error { return nil }

func mustLeaseQueryBundle(t *testing.T, duid dhcpv6.DUID) *bundle.Bundle {
	t.Helper()
	query := &dhcpv6.OptLQQuery{
		QueryType: dhcpv6.QueryByClientID,
		LinkAddr:  net.IPv6unspecified,
		Options:   dhcpv6.Options{&dhcpv6.OptClientID{DUID: duid}},
	}
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeLeaseQuery, [3]byte{1, 2, 3})
	req.Options = dhcpv6.Options{query}
	b, err := bundle.New(req, nil)
	require.NoError(t, err)
	return b
}

func TestHandleMissingQueryOptionSetsMalformedStatus(t *testing.T) {
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeLeaseQuery, [3]byte{1, 2, 3})
	b, err := bundle.New(req, nil)
	require.NoError(t, err)

	h := &Handler{Store: &fakeStore{}}
	require.NoError(t, h.Handle(context.Background(), b))

	opt, ok := b.GetResponseOption(dhcpv6.OptionStatusCode)
	require.True(t, ok)
	require.Equal(t, dhcpv6.StatusMalformedQuery, opt.(*dhcpv6.OptStatusCode).Status)
}

func TestHandleByClientIDReturnsClientData(t *testing.T) {
	duid := dhcpv6.NewDUIDLL(1, net.HardwareAddr{0, 1, 2, 3, 4, 5})
	store := &fakeStore{records: []leasequery.Record{{
		ClientDUID:      duid.ToBytes(),
		AssignedAddress: net.ParseIP("2001:db8::42"),
		PreferredLife:   100,
		ValidLife:       200,
	}}}
	h := &Handler{Store: store}
	b := mustLeaseQueryBundle(t, duid)

	require.NoError(t, h.Handle(context.Background(), b))
	require.Equal(t, dhcpv6.MessageTypeLeaseQueryReply, b.Response.MessageType)
	require.Equal(t, duid.ToBytes(), store.lastQuery.ClientDUID)

	opt, ok := b.GetResponseOption(dhcpv6.OptionClientData)
	require.True(t, ok)
	cd := opt.(*dhcpv6.OptClientData)
	addr, ok := cd.Options.Get(dhcpv6.OptionIAAddr)
	require.True(t, ok)
	require.Equal(t, net.ParseIP("2001:db8::42"), addr.(*dhcpv6.OptIAAddress).IPv6Addr)
}

func TestPostRecordsReply(t *testing.T) {
	store := &fakeStore{}
	h := &Handler{Store: store}
	req := dhcpv6.NewMessage(dhcpv6.MessageTypeLeaseQuery, [3]byte{1, 2, 3})
	b, err := bundle.New(req, nil)
	require.NoError(t, err)

	require.NoError(t, h.Post(context.Background(), b))
	require.Len(t, store.recorded, 1)
}
