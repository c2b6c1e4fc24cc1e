// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"fmt"
)

// MessageType is the one-byte message type field common to every DHCPv6
// PDU (spec.md §3, §6).
type MessageType uint8

const (
	MessageTypeSolicit            MessageType = 1
	MessageTypeAdvertise          MessageType = 2
	MessageTypeRequest            MessageType = 3
	MessageTypeConfirm            MessageType = 4
	MessageTypeRenew              MessageType = 5
	MessageTypeRebind             MessageType = 6
	MessageTypeReply              MessageType = 7
	MessageTypeRelease            MessageType = 8
	MessageTypeDecline            MessageType = 9
	MessageTypeReconfigure        MessageType = 10
	MessageTypeInformationRequest MessageType = 11
	MessageTypeRelayForward       MessageType = 12
	MessageTypeRelayReply         MessageType = 13
	MessageTypeLeaseQuery         MessageType = 14
	MessageTypeLeaseQueryReply    MessageType = 15
	MessageTypeLeaseQueryDone     MessageType = 16
	MessageTypeLeaseQueryData     MessageType = 17
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeSolicit:
		return "SOLICIT"
	case MessageTypeAdvertise:
		return "ADVERTISE"
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeConfirm:
		return "CONFIRM"
	case MessageTypeRenew:
		return "RENEW"
	case MessageTypeRebind:
		return "REBIND"
	case MessageTypeReply:
		return "REPLY"
	case MessageTypeRelease:
		return "RELEASE"
	case MessageTypeDecline:
		return "DECLINE"
	case MessageTypeReconfigure:
		return "RECONFIGURE"
	case MessageTypeInformationRequest:
		return "INFORMATION-REQUEST"
	case MessageTypeRelayForward:
		return "RELAY-FORW"
	case MessageTypeRelayReply:
		return "RELAY-REPL"
	case MessageTypeLeaseQuery:
		return "LEASEQUERY"
	case MessageTypeLeaseQueryReply:
		return "LEASEQUERY-REPLY"
	case MessageTypeLeaseQueryDone:
		return "LEASEQUERY-DONE"
	case MessageTypeLeaseQueryData:
		return "LEASEQUERY-DATA"
	default:
		return fmt.Sprintf("MessageType(%d)", uint8(t))
	}
}

// DHCPv6 is any wire-level PDU: a client/server message, or a RelayMessage
// wrapping one (spec.md §3).
type DHCPv6 interface {
	Type() MessageType
	ToBytes() []byte
	IsRelay() bool
	// GetInnerMessage returns the innermost non-relay message, unwrapping
	// any relay shells.
	GetInnerMessage() (*Message, error)
	fmt.Stringer
}

// Message is a non-relay DHCPv6 PDU: message type, 24-bit transaction id,
// and an ordered option sequence (spec.md §3, §6).
type Message struct {
	MessageType   MessageType
	TransactionID [3]byte
	Options       Options
}

// messageRegistry maps a message type tag to a validator of sorts; unlike
// options and DUIDs, every message type shares one Go struct (Message), so
// the registry here only records which types are "known" for
// MessageTypeIsKnown. Kept for symmetry with spec.md §4.1's "three global
// registries" and so new message types can be declared known without
// touching the parser.
var messageRegistry = map[MessageType]bool{
	MessageTypeSolicit: true, MessageTypeAdvertise: true, MessageTypeRequest: true,
	MessageTypeConfirm: true, MessageTypeRenew: true, MessageTypeRebind: true,
	MessageTypeReply: true, MessageTypeRelease: true, MessageTypeDecline: true,
	MessageTypeReconfigure: true, MessageTypeInformationRequest: true,
	MessageTypeLeaseQuery: true, MessageTypeLeaseQueryReply: true,
	MessageTypeLeaseQueryDone: true, MessageTypeLeaseQueryData: true,
}

// MessageTypeIsKnown reports whether t is a registered message type.
// Unregistered types still parse (as an UnknownMessage-shaped Message with
// no option validation expected), per spec.md §4.1.
func MessageTypeIsKnown(t MessageType) bool { return messageRegistry[t] }

func parseMessage(data []byte) (*Message, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: message shorter than 4-byte header", ErrIncompleteMessage)
	}
	var txID [3]byte
	copy(txID[:], data[1:4])
	opts, err := parseOptions(data[4:])
	if err != nil {
		return nil, err
	}
	return &Message{
		MessageType:   MessageType(data[0]),
		TransactionID: txID,
		Options:       opts,
	}, nil
}

// Type implements DHCPv6.
func (m *Message) Type() MessageType { return m.MessageType }

// IsRelay implements DHCPv6; a Message is never a relay shell.
func (m *Message) IsRelay() bool { return false }

// GetInnerMessage implements DHCPv6: a Message is already innermost.
func (m *Message) GetInnerMessage() (*Message, error) { return m, nil }

// ToBytes implements DHCPv6.
func (m *Message) ToBytes() []byte {
	w := &writer{}
	w.Write8(uint8(m.MessageType))
	w.WriteBytes(m.TransactionID[:])
	w.WriteBytes(saveOptions(m.Options))
	return w.Bytes()
}

func (m *Message) String() string {
	return fmt.Sprintf("%s(txid=%x, %d options)", m.MessageType, m.TransactionID, len(m.Options))
}

// NewMessage builds an empty Message of type mt carrying transaction id
// txID.
func NewMessage(mt MessageType, txID [3]byte) *Message {
	return &Message{MessageType: mt, TransactionID: txID}
}
