// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"fmt"
	"net"
)

// Bulk leasequery options (RFC 5007, RFC 5460 §5).

func init() {
	RegisterOption(OptionLQQuery, parseOptLQQuery)
	RegisterOption(OptionClientData, parseOptClientData)
	RegisterOption(OptionCLTTime, parseOptCLTTime)
	RegisterOption(OptionLQRelayData, parseOptLQRelayData)
	RegisterOption(OptionLQClientLink, parseOptLQClientLink)
}

// QueryType identifies what a LQ-QUERY option is querying by (RFC 5007
// §4.1.1).
type QueryType uint8

const (
	QueryByAddress QueryType = 1
	QueryByClientID QueryType = 2
)

// OptLQQuery is the query carried by a LeaseQuery request: either "by
// address" (LinkAddr set, an OptIAAddress suboption gives the address) or "by
// client ID" (an OptClientID suboption gives the DUID).
type OptLQQuery struct {
	QueryType QueryType
	LinkAddr  net.IP
	Options   Options
}

func parseOptLQQuery(data []byte) (Option, error) {
	if len(data) < 17 {
		return nil, fmt.Errorf("LQ-QUERY: %w", ErrInvalidLength)
	}
	link := make(net.IP, 16)
	copy(link, data[1:17])
	sub, err := parseOptions(data[17:])
	if err != nil {
		return nil, fmt.Errorf("LQ-QUERY suboptions: %w", err)
	}
	return &OptLQQuery{QueryType: QueryType(data[0]), LinkAddr: link, Options: sub}, nil
}

func (o *OptLQQuery) Code() OptionCode { return OptionLQQuery }

func (o *OptLQQuery) ToBytes() []byte {
	w := &writer{}
	w.Write8(uint8(o.QueryType))
	link := o.LinkAddr.To16()
	if link == nil {
		link = make(net.IP, 16)
	}
	w.WriteBytes(link)
	w.WriteBytes(saveOptions(o.Options))
	return w.Bytes()
}

func (o *OptLQQuery) String() string {
	return fmt.Sprintf("LQQuery(type=%d, link=%s)", o.QueryType, o.LinkAddr)
}

// OptClientData wraps one matched client's lease state in a
// LeaseQueryReply/LeaseQueryData message: its ClientID, its leased
// addresses/prefixes, and a CLTTime (RFC 5007 §4.2.1).
type OptClientData struct {
	Options Options
}

func parseOptClientData(data []byte) (Option, error) {
	sub, err := parseOptions(data)
	if err != nil {
		return nil, fmt.Errorf("CLIENT-DATA suboptions: %w", err)
	}
	return &OptClientData{Options: sub}, nil
}

func (o *OptClientData) Code() OptionCode { return OptionClientData }
func (o *OptClientData) ToBytes() []byte  { return saveOptions(o.Options) }
func (o *OptClientData) String() string {
	return fmt.Sprintf("ClientData(%d suboptions)", len(o.Options))
}

// OptCLTTime is the number of seconds since the server last communicated
// with the client about this lease (RFC 5007 §4.2.2).
type OptCLTTime struct {
	Seconds uint32
}

func parseOptCLTTime(data []byte) (Option, error) {
	if len(data) != 4 {
		return nil, fmt.Errorf("CLT-TIME: %w", ErrInvalidLength)
	}
	return &OptCLTTime{Seconds: order.Uint32(data)}, nil
}

func (o *OptCLTTime) Code() OptionCode { return OptionCLTTime }
func (o *OptCLTTime) ToBytes() []byte {
	w := &writer{}
	w.Write32(o.Seconds)
	return w.Bytes()
}
func (o *OptCLTTime) String() string { return fmt.Sprintf("CLTTime(%ds)", o.Seconds) }

// OptLQRelayData carries the relay message that most recently forwarded
// traffic to/from the queried client, for queries relayed through an
// intermediate agent (RFC 5007 §4.2.3).
type OptLQRelayData struct {
	PeerAddr  net.IP
	RelayMsg  []byte
}

func parseOptLQRelayData(data []byte) (Option, error) {
	if len(data) < 16 {
		return nil, fmt.Errorf("LQ-RELAY-DATA: %w", ErrInvalidLength)
	}
	peer := make(net.IP, 16)
	copy(peer, data[0:16])
	msg := make([]byte, len(data)-16)
	copy(msg, data[16:])
	return &OptLQRelayData{PeerAddr: peer, RelayMsg: msg}, nil
}

func (o *OptLQRelayData) Code() OptionCode { return OptionLQRelayData }
func (o *OptLQRelayData) ToBytes() []byte {
	w := &writer{}
	peer := o.PeerAddr.To16()
	if peer == nil {
		peer = make(net.IP, 16)
	}
	w.WriteBytes(peer)
	w.WriteBytes(o.RelayMsg)
	return w.Bytes()
}
func (o *OptLQRelayData) String() string { return fmt.Sprintf("LQRelayData(peer=%s)", o.PeerAddr) }

// OptLQClientLink lists the link addresses a client is known to be
// reachable through (RFC 5007 §4.2.4).
type OptLQClientLink struct {
	LinkAddrs []net.IP
}

func parseOptLQClientLink(data []byte) (Option, error) {
	if len(data)%16 != 0 {
		return nil, fmt.Errorf("LQ-CLIENT-LINK: %w", ErrInvalidLength)
	}
	var addrs []net.IP
	for i := 0; i < len(data); i += 16 {
		ip := make(net.IP, 16)
		copy(ip, data[i:i+16])
		addrs = append(addrs, ip)
	}
	return &OptLQClientLink{LinkAddrs: addrs}, nil
}

func (o *OptLQClientLink) Code() OptionCode { return OptionLQClientLink }
func (o *OptLQClientLink) ToBytes() []byte {
	w := &writer{}
	for _, ip := range o.LinkAddrs {
		addr := ip.To16()
		if addr == nil {
			addr = make(net.IP, 16)
		}
		w.WriteBytes(addr)
	}
	return w.Bytes()
}
func (o *OptLQClientLink) String() string {
	return fmt.Sprintf("LQClientLink(%d addrs)", len(o.LinkAddrs))
}
