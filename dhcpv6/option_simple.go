// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"fmt"
	"net"
	"time"
)

func init() {
	RegisterOption(OptionElapsedTime, parseOptElapsedTime)
	RegisterOption(OptionPreference, parseOptPreference)
	RegisterOption(OptionRapidCommit, parseOptRapidCommit)
	RegisterOption(OptionReconfMsg, parseOptReconfMsg)
	RegisterOption(OptionReconfAccept, parseOptReconfAccept)
	RegisterOption(OptionOptionRequest, parseOptRequest)
	RegisterOption(OptionUserClass, parseOptUserClass)
	RegisterOption(OptionVendorClass, parseOptVendorClass)
	RegisterOption(OptionInterfaceID, parseOptInterfaceID)
	RegisterOption(OptionRemoteID, parseOptRemoteID)
	RegisterOption(OptionSubscriberID, parseOptSubscriberID)
	RegisterOption(OptionClientLinkLayerAddress, parseOptClientLinkLayerAddress)
	RegisterOption(OptionUnicast, parseOptServerUnicast)
}

// elapsedTimeUnit is the 1/100s resolution mandated by RFC 3315 §22.9.
const elapsedTimeUnit = 10 * time.Millisecond

// OptElapsedTime is the time since the client began its current DHCP
// transaction, in hundredths of a second (RFC 3315 §22.9).
type OptElapsedTime struct {
	Elapsed time.Duration
}

func parseOptElapsedTime(data []byte) (Option, error) {
	if len(data) != 2 {
		return nil, fmt.Errorf("elapsed-time: %w", ErrInvalidLength)
	}
	return &OptElapsedTime{Elapsed: time.Duration(order.Uint16(data)) * elapsedTimeUnit}, nil
}

func (o *OptElapsedTime) Code() OptionCode { return OptionElapsedTime }

func (o *OptElapsedTime) ToBytes() []byte {
	w := &writer{}
	hundredths := o.Elapsed / elapsedTimeUnit
	if hundredths > 0xffff {
		hundredths = 0xffff
	}
	w.Write16(uint16(hundredths))
	return w.Bytes()
}

func (o *OptElapsedTime) String() string { return fmt.Sprintf("ElapsedTime(%s)", o.Elapsed) }

// OptPreference advertises a server's desirability relative to others
// (RFC 3315 §22.8); higher values are preferred, 255 is maximal.
type OptPreference struct {
	Value uint8
}

func parseOptPreference(data []byte) (Option, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("preference: %w", ErrInvalidLength)
	}
	return &OptPreference{Value: data[0]}, nil
}

func (o *OptPreference) Code() OptionCode { return OptionPreference }
func (o *OptPreference) ToBytes() []byte  { return []byte{o.Value} }
func (o *OptPreference) String() string   { return fmt.Sprintf("Preference(%d)", o.Value) }

// OptRapidCommit requests/confirms the two-message exchange (RFC 3315
// §22.14). It carries no data.
type OptRapidCommit struct{}

func parseOptRapidCommit(data []byte) (Option, error) {
	if len(data) != 0 {
		return nil, fmt.Errorf("rapid-commit: %w", ErrInvalidLength)
	}
	return &OptRapidCommit{}, nil
}

func (o *OptRapidCommit) Code() OptionCode { return OptionRapidCommit }
func (o *OptRapidCommit) ToBytes() []byte  { return nil }
func (o *OptRapidCommit) String() string   { return "RapidCommit" }

// ReconfigureMessageType identifies which message a Reconfigure asks the
// client to send (RFC 3315 §22.19).
type ReconfigureMessageType uint8

// OptReconfMsg appears in a Reconfigure to tell the client which message
// type to send in response.
type OptReconfMsg struct {
	MessageType ReconfigureMessageType
}

func parseOptReconfMsg(data []byte) (Option, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("reconf-msg: %w", ErrInvalidLength)
	}
	return &OptReconfMsg{MessageType: ReconfigureMessageType(data[0])}, nil
}

func (o *OptReconfMsg) Code() OptionCode { return OptionReconfMsg }
func (o *OptReconfMsg) ToBytes() []byte  { return []byte{byte(o.MessageType)} }
func (o *OptReconfMsg) String() string   { return fmt.Sprintf("ReconfMsg(%d)", o.MessageType) }

// OptReconfAccept tells the server the client is willing to accept
// Reconfigure messages (RFC 3315 §22.20). It carries no data.
type OptReconfAccept struct{}

func parseOptReconfAccept(data []byte) (Option, error) {
	if len(data) != 0 {
		return nil, fmt.Errorf("reconf-accept: %w", ErrInvalidLength)
	}
	return &OptReconfAccept{}, nil
}

func (o *OptReconfAccept) Code() OptionCode { return OptionReconfAccept }
func (o *OptReconfAccept) ToBytes() []byte  { return nil }
func (o *OptReconfAccept) String() string   { return "ReconfAccept" }

// OptRequest is the Option Request Option, a list of option codes the
// client wishes the server to return (RFC 3315 §22.7).
type OptRequest struct {
	Codes []OptionCode
}

func parseOptRequest(data []byte) (Option, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("option-request: %w", ErrInvalidLength)
	}
	codes := make([]OptionCode, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		codes = append(codes, OptionCode(order.Uint16(data[i:i+2])))
	}
	return &OptRequest{Codes: codes}, nil
}

func (o *OptRequest) Code() OptionCode { return OptionOptionRequest }

func (o *OptRequest) ToBytes() []byte {
	w := &writer{}
	for _, c := range o.Codes {
		w.Write16(uint16(c))
	}
	return w.Bytes()
}

func (o *OptRequest) String() string { return fmt.Sprintf("OptionRequest(%v)", o.Codes) }

// Requests reports whether code is present in the Option Request Option.
func (o *OptRequest) Requests(code OptionCode) bool {
	for _, c := range o.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// OptUserClass carries opaque, vendor-defined client classification data
// (RFC 3315 §22.15): a sequence of length-prefixed strings.
type OptUserClass struct {
	Data [][]byte
}

func parseLenPrefixedList(data []byte) ([][]byte, error) {
	b := newBuffer(data)
	var out [][]byte
	for b.Len() > 0 {
		l, ok := b.Read16()
		if !ok {
			return nil, fmt.Errorf("%w: truncated length-prefixed entry", ErrInvalidLength)
		}
		v, ok := b.ReadN(int(l))
		if !ok {
			return nil, fmt.Errorf("%w: entry declares length %d beyond buffer", ErrInvalidLength, l)
		}
		out = append(out, v)
	}
	return out, nil
}

func saveLenPrefixedList(items [][]byte) []byte {
	w := &writer{}
	for _, item := range items {
		w.Write16(uint16(len(item)))
		w.WriteBytes(item)
	}
	return w.Bytes()
}

func parseOptUserClass(data []byte) (Option, error) {
	items, err := parseLenPrefixedList(data)
	if err != nil {
		return nil, fmt.Errorf("user-class: %w", err)
	}
	return &OptUserClass{Data: items}, nil
}

func (o *OptUserClass) Code() OptionCode { return OptionUserClass }
func (o *OptUserClass) ToBytes() []byte  { return saveLenPrefixedList(o.Data) }
func (o *OptUserClass) String() string   { return fmt.Sprintf("UserClass(%d entries)", len(o.Data)) }

// OptVendorClass carries a vendor's enterprise number plus
// classification data (RFC 3315 §22.16).
type OptVendorClass struct {
	EnterpriseNumber uint32
	Data             [][]byte
}

func parseOptVendorClass(data []byte) (Option, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("vendor-class: %w", ErrInvalidLength)
	}
	items, err := parseLenPrefixedList(data[4:])
	if err != nil {
		return nil, fmt.Errorf("vendor-class: %w", err)
	}
	return &OptVendorClass{EnterpriseNumber: order.Uint32(data[0:4]), Data: items}, nil
}

func (o *OptVendorClass) Code() OptionCode { return OptionVendorClass }

func (o *OptVendorClass) ToBytes() []byte {
	w := &writer{}
	w.Write32(o.EnterpriseNumber)
	w.WriteBytes(saveLenPrefixedList(o.Data))
	return w.Bytes()
}

func (o *OptVendorClass) String() string {
	return fmt.Sprintf("VendorClass(enterprise=%d, %d entries)", o.EnterpriseNumber, len(o.Data))
}

// OptInterfaceID is attached by a relay agent so the server (or a later
// relay) can identify the interface on which the client's message arrived
// (RFC 3315 §22.18); the unanswered-echo scenario in spec.md §8 scenario 6
// mirrors this option back onto the RelayReply verbatim.
type OptInterfaceID struct {
	ID []byte
}

func parseOptInterfaceID(data []byte) (Option, error) {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &OptInterfaceID{ID: cp}, nil
}

func (o *OptInterfaceID) Code() OptionCode { return OptionInterfaceID }
func (o *OptInterfaceID) ToBytes() []byte  { return append([]byte{}, o.ID...) }
func (o *OptInterfaceID) String() string   { return fmt.Sprintf("InterfaceID(%q)", o.ID) }

// OptRemoteID is attached by a relay agent to carry operator-specific
// remote-host information (RFC 4649).
type OptRemoteID struct {
	EnterpriseNumber uint32
	RemoteID         []byte
}

func parseOptRemoteID(data []byte) (Option, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("remote-id: %w", ErrInvalidLength)
	}
	cp := make([]byte, len(data)-4)
	copy(cp, data[4:])
	return &OptRemoteID{EnterpriseNumber: order.Uint32(data[0:4]), RemoteID: cp}, nil
}

func (o *OptRemoteID) Code() OptionCode { return OptionRemoteID }

func (o *OptRemoteID) ToBytes() []byte {
	w := &writer{}
	w.Write32(o.EnterpriseNumber)
	w.WriteBytes(o.RemoteID)
	return w.Bytes()
}

func (o *OptRemoteID) String() string {
	return fmt.Sprintf("RemoteID(enterprise=%d, id=%x)", o.EnterpriseNumber, o.RemoteID)
}

// OptSubscriberID is attached by a relay agent to identify a subscriber
// (RFC 4580).
type OptSubscriberID struct {
	SubscriberID []byte
}

func parseOptSubscriberID(data []byte) (Option, error) {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &OptSubscriberID{SubscriberID: cp}, nil
}

func (o *OptSubscriberID) Code() OptionCode { return OptionSubscriberID }
func (o *OptSubscriberID) ToBytes() []byte  { return append([]byte{}, o.SubscriberID...) }
func (o *OptSubscriberID) String() string   { return fmt.Sprintf("SubscriberID(%q)", o.SubscriberID) }

// OptClientLinkLayerAddress carries the client's link-layer address as
// observed by the relay closest to it (RFC 6939).
type OptClientLinkLayerAddress struct {
	LinkLayerType uint16
	LinkLayerAddr net.HardwareAddr
}

func parseOptClientLinkLayerAddress(data []byte) (Option, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("client-linklayer-addr: %w", ErrInvalidLength)
	}
	hw := make(net.HardwareAddr, len(data)-2)
	copy(hw, data[2:])
	return &OptClientLinkLayerAddress{LinkLayerType: order.Uint16(data[0:2]), LinkLayerAddr: hw}, nil
}

func (o *OptClientLinkLayerAddress) Code() OptionCode { return OptionClientLinkLayerAddress }

func (o *OptClientLinkLayerAddress) ToBytes() []byte {
	w := &writer{}
	w.Write16(o.LinkLayerType)
	w.WriteBytes(o.LinkLayerAddr)
	return w.Bytes()
}

func (o *OptClientLinkLayerAddress) String() string {
	return fmt.Sprintf("ClientLinkLayerAddress(%s)", o.LinkLayerAddr)
}

// OptServerUnicast tells the client it may contact the server directly at
// Addr, bypassing multicast (RFC 3315 §22.12).
type OptServerUnicast struct {
	Addr net.IP
}

func parseOptServerUnicast(data []byte) (Option, error) {
	if len(data) != 16 {
		return nil, fmt.Errorf("unicast: %w", ErrInvalidLength)
	}
	ip := make(net.IP, 16)
	copy(ip, data)
	return &OptServerUnicast{Addr: ip}, nil
}

func (o *OptServerUnicast) Code() OptionCode { return OptionUnicast }

func (o *OptServerUnicast) ToBytes() []byte {
	addr := o.Addr.To16()
	if addr == nil {
		addr = make(net.IP, 16)
	}
	return append([]byte{}, addr...)
}

func (o *OptServerUnicast) String() string { return fmt.Sprintf("ServerUnicast(%s)", o.Addr) }
