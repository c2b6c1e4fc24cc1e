// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"fmt"
	"net"
)

// MaxRelayDepth bounds how many nested RelayForward shells FromBytes will
// unwrap before giving up (spec.md §4.1: relay chains must not be unwound
// indefinitely). A relay-message option nested one level past this depth
// yields ErrRelayTooDeep rather than a parsed RelayMessage.
const MaxRelayDepth = 32

// RelayMessage is a RelayForward or RelayReply envelope (RFC 3315 §7): a
// hop count, the link and peer addresses the relay observed, and an option
// set that must contain exactly one RelayMessage option carrying the
// encapsulated PDU as opaque bytes (spec.md §3, §4.1).
type RelayMessage struct {
	MsgType  MessageType
	HopCount uint8
	LinkAddr net.IP
	PeerAddr net.IP
	Options  Options

	// Relayed is the decoded payload of the RelayMessage option: either
	// another *RelayMessage (a nested relay) or a *Message (the innermost
	// client/server PDU).
	Relayed DHCPv6
}

func parseRelayMessage(data []byte, mt MessageType, depth int) (*RelayMessage, error) {
	if depth+1 > MaxRelayDepth {
		return nil, ErrRelayTooDeep
	}
	if len(data) < 34 {
		return nil, fmt.Errorf("%w: relay message shorter than 34-byte header", ErrIncompleteMessage)
	}
	hopCount := data[0]
	linkAddr := make(net.IP, 16)
	copy(linkAddr, data[1:17])
	peerAddr := make(net.IP, 16)
	copy(peerAddr, data[17:33])

	opts, err := parseOptions(data[33:])
	if err != nil {
		return nil, err
	}

	relayOpt, ok := opts.Get(OptionRelayMessage)
	if !ok {
		return nil, fmt.Errorf("%w: relay message has no RelayMessage suboption", ErrMalformedField)
	}
	inner, err := decode(relayOpt.ToBytes(), depth+1)
	if err != nil {
		return nil, err
	}

	return &RelayMessage{
		MsgType:  mt,
		HopCount: hopCount,
		LinkAddr: linkAddr,
		PeerAddr: peerAddr,
		Options:  opts,
		Relayed:  inner,
	}, nil
}

// Type implements DHCPv6.
func (r *RelayMessage) Type() MessageType { return r.MsgType }

// IsRelay implements DHCPv6.
func (r *RelayMessage) IsRelay() bool { return true }

// GetInnerMessage implements DHCPv6, recursing through nested relay shells.
func (r *RelayMessage) GetInnerMessage() (*Message, error) {
	if r.Relayed == nil {
		return nil, fmt.Errorf("%w: relay message carries no payload", ErrMalformedField)
	}
	return r.Relayed.GetInnerMessage()
}

// ToBytes implements DHCPv6.
func (r *RelayMessage) ToBytes() []byte {
	w := &writer{}
	w.Write8(uint8(r.MsgType))
	linkAddr := r.LinkAddr.To16()
	if linkAddr == nil {
		linkAddr = make(net.IP, 16)
	}
	w.WriteBytes(linkAddr)
	peerAddr := r.PeerAddr.To16()
	if peerAddr == nil {
		peerAddr = make(net.IP, 16)
	}
	w.WriteBytes(peerAddr)
	w.WriteBytes(saveOptions(r.Options))
	return w.Bytes()
}

func (r *RelayMessage) String() string {
	return fmt.Sprintf("%s(hops=%d, link=%s, peer=%s)", r.MsgType, r.HopCount, r.LinkAddr, r.PeerAddr)
}

// SetRelayed replaces the RelayMessage suboption with the encoding of
// payload, keeping r.Relayed and r.Options consistent.
func (r *RelayMessage) SetRelayed(payload DHCPv6) {
	r.Relayed = payload
	raw := payload.ToBytes()
	for i, opt := range r.Options {
		if opt.Code() == OptionRelayMessage {
			r.Options[i] = &OptionUnknown{code: OptionRelayMessage, Data: raw}
			return
		}
	}
	r.Options = append(r.Options, &OptionUnknown{code: OptionRelayMessage, Data: raw})
}

// Relays flattens a relay chain outward-in: the outermost RelayMessage
// first, down to (but excluding) the innermost non-relay Message.
func Relays(d DHCPv6) []*RelayMessage {
	var chain []*RelayMessage
	for {
		rm, ok := d.(*RelayMessage)
		if !ok {
			return chain
		}
		chain = append(chain, rm)
		d = rm.Relayed
		if d == nil {
			return chain
		}
	}
}

// decode dispatches on the message-type byte: MessageTypeRelayForward and
// MessageTypeRelayReply unwrap into a RelayMessage (recursing with an
// incremented depth), everything else parses as a flat Message.
func decode(data []byte, depth int) (DHCPv6, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty message", ErrIncompleteMessage)
	}
	mt := MessageType(data[0])
	switch mt {
	case MessageTypeRelayForward, MessageTypeRelayReply:
		return parseRelayMessage(data, mt, depth)
	default:
		return parseMessage(data)
	}
}

// FromBytes parses a complete wire-format DHCPv6 PDU, unwrapping any
// RelayForward/RelayReply nesting up to MaxRelayDepth (spec.md §4.1, §8).
func FromBytes(data []byte) (DHCPv6, error) {
	return decode(data, 0)
}

// ToBytes serializes any DHCPv6 PDU (message or relay chain) to wire
// format.
func ToBytes(d DHCPv6) []byte {
	return d.ToBytes()
}

// NewRelayForward builds a RelayForward envelope wrapping payload, with
// InterfaceID/RemoteID/SubscriberID populated by the caller via Options.
func NewRelayForward(linkAddr, peerAddr net.IP, hopCount uint8, payload DHCPv6) *RelayMessage {
	r := &RelayMessage{
		MsgType:  MessageTypeRelayForward,
		HopCount: hopCount,
		LinkAddr: linkAddr,
		PeerAddr: peerAddr,
	}
	r.SetRelayed(payload)
	return r
}

// NewRelayReply builds a RelayReply envelope mirroring the hop count, link
// and peer addresses of the RelayForward it answers.
func NewRelayReply(forward *RelayMessage, payload DHCPv6) *RelayMessage {
	r := &RelayMessage{
		MsgType:  MessageTypeRelayReply,
		HopCount: forward.HopCount,
		LinkAddr: forward.LinkAddr,
		PeerAddr: forward.PeerAddr,
	}
	r.SetRelayed(payload)
	return r
}
