// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"fmt"
	"net"
)

// InfiniteLifetime is the sentinel value meaning "does not expire"
// (spec.md §3: "infinite is represented as the maximum unsigned 32-bit
// value").
const InfiniteLifetime uint32 = 0xffffffff

func init() {
	RegisterOption(OptionIANA, parseOptIANA)
	RegisterOption(OptionIATA, parseOptIATA)
	RegisterOption(OptionIAPD, parseOptIAPD)
	RegisterOption(OptionIAAddr, parseOptIAAddress)
	RegisterOption(OptionIAPrefix, parseOptIAPrefix)
}

// OptIANA is an Identity Association for Non-temporary Addresses
// (RFC 3315 §22.4). T1 must be <= T2 in any outgoing IA, and both must be
// <= the shortest preferred lifetime among the IA's leases (spec.md §3).
type OptIANA struct {
	IAID    uint32
	T1, T2  uint32
	Options Options
}

func parseOptIANA(data []byte) (Option, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("IA_NA: %w", ErrInvalidLength)
	}
	sub, err := parseOptions(data[12:])
	if err != nil {
		return nil, fmt.Errorf("IA_NA suboptions: %w", err)
	}
	return &OptIANA{
		IAID:    order.Uint32(data[0:4]),
		T1:      order.Uint32(data[4:8]),
		T2:      order.Uint32(data[8:12]),
		Options: sub,
	}, nil
}

func (o *OptIANA) Code() OptionCode { return OptionIANA }

func (o *OptIANA) ToBytes() []byte {
	w := &writer{}
	w.Write32(o.IAID)
	w.Write32(o.T1)
	w.Write32(o.T2)
	w.WriteBytes(saveOptions(o.Options))
	return w.Bytes()
}

func (o *OptIANA) String() string {
	return fmt.Sprintf("IA_NA(IAID=%d, T1=%d, T2=%d, %d suboptions)", o.IAID, o.T1, o.T2, len(o.Options))
}

// OptIATA is an Identity Association for Temporary Addresses
// (RFC 3315 §22.5). Unlike IA_NA/IA_PD it carries no T1/T2 timers.
type OptIATA struct {
	IAID    uint32
	Options Options
}

func parseOptIATA(data []byte) (Option, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("IA_TA: %w", ErrInvalidLength)
	}
	sub, err := parseOptions(data[4:])
	if err != nil {
		return nil, fmt.Errorf("IA_TA suboptions: %w", err)
	}
	return &OptIATA{IAID: order.Uint32(data[0:4]), Options: sub}, nil
}

func (o *OptIATA) Code() OptionCode { return OptionIATA }

func (o *OptIATA) ToBytes() []byte {
	w := &writer{}
	w.Write32(o.IAID)
	w.WriteBytes(saveOptions(o.Options))
	return w.Bytes()
}

func (o *OptIATA) String() string {
	return fmt.Sprintf("IA_TA(IAID=%d, %d suboptions)", o.IAID, len(o.Options))
}

// OptIAPD is an Identity Association for Prefix Delegation (RFC 3633 §9).
type OptIAPD struct {
	IAID    uint32
	T1, T2  uint32
	Options Options
}

func parseOptIAPD(data []byte) (Option, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("IA_PD: %w", ErrInvalidLength)
	}
	sub, err := parseOptions(data[12:])
	if err != nil {
		return nil, fmt.Errorf("IA_PD suboptions: %w", err)
	}
	return &OptIAPD{
		IAID:    order.Uint32(data[0:4]),
		T1:      order.Uint32(data[4:8]),
		T2:      order.Uint32(data[8:12]),
		Options: sub,
	}, nil
}

func (o *OptIAPD) Code() OptionCode { return OptionIAPD }

func (o *OptIAPD) ToBytes() []byte {
	w := &writer{}
	w.Write32(o.IAID)
	w.Write32(o.T1)
	w.Write32(o.T2)
	w.WriteBytes(saveOptions(o.Options))
	return w.Bytes()
}

func (o *OptIAPD) String() string {
	return fmt.Sprintf("IA_PD(IAID=%d, T1=%d, T2=%d, %d suboptions)", o.IAID, o.T1, o.T2, len(o.Options))
}

// OptIAAddress describes one leased address within an IA_NA/IA_TA
// (RFC 3315 §22.6).
type OptIAAddress struct {
	IPv6Addr          net.IP
	PreferredLifetime uint32
	ValidLifetime     uint32
	Options           Options
}

func parseOptIAAddress(data []byte) (Option, error) {
	if len(data) < 24 {
		return nil, fmt.Errorf("IAADDR: %w", ErrInvalidLength)
	}
	sub, err := parseOptions(data[24:])
	if err != nil {
		return nil, fmt.Errorf("IAADDR suboptions: %w", err)
	}
	ip := make(net.IP, 16)
	copy(ip, data[0:16])
	return &OptIAAddress{
		IPv6Addr:          ip,
		PreferredLifetime: order.Uint32(data[16:20]),
		ValidLifetime:     order.Uint32(data[20:24]),
		Options:           sub,
	}, nil
}

func (o *OptIAAddress) Code() OptionCode { return OptionIAAddr }

func (o *OptIAAddress) ToBytes() []byte {
	w := &writer{}
	addr := o.IPv6Addr.To16()
	if addr == nil {
		addr = make(net.IP, 16)
	}
	w.WriteBytes(addr)
	w.Write32(o.PreferredLifetime)
	w.Write32(o.ValidLifetime)
	w.WriteBytes(saveOptions(o.Options))
	return w.Bytes()
}

func (o *OptIAAddress) String() string {
	return fmt.Sprintf("IAAddr(%s, preferred=%d, valid=%d)", o.IPv6Addr, o.PreferredLifetime, o.ValidLifetime)
}

// OptIAPrefix describes one delegated prefix within an IA_PD (RFC 3633
// §10).
type OptIAPrefix struct {
	PreferredLifetime uint32
	ValidLifetime     uint32
	PrefixLength      uint8
	Prefix            net.IP
	Options           Options
}

func parseOptIAPrefix(data []byte) (Option, error) {
	if len(data) < 25 {
		return nil, fmt.Errorf("IAPREFIX: %w", ErrInvalidLength)
	}
	sub, err := parseOptions(data[25:])
	if err != nil {
		return nil, fmt.Errorf("IAPREFIX suboptions: %w", err)
	}
	prefix := make(net.IP, 16)
	copy(prefix, data[9:25])
	return &OptIAPrefix{
		PreferredLifetime: order.Uint32(data[0:4]),
		ValidLifetime:     order.Uint32(data[4:8]),
		PrefixLength:      data[8],
		Prefix:            prefix,
		Options:           sub,
	}, nil
}

func (o *OptIAPrefix) Code() OptionCode { return OptionIAPrefix }

func (o *OptIAPrefix) ToBytes() []byte {
	w := &writer{}
	w.Write32(o.PreferredLifetime)
	w.Write32(o.ValidLifetime)
	w.Write8(o.PrefixLength)
	prefix := o.Prefix.To16()
	if prefix == nil {
		prefix = make(net.IP, 16)
	}
	w.WriteBytes(prefix)
	w.WriteBytes(saveOptions(o.Options))
	return w.Bytes()
}

func (o *OptIAPrefix) String() string {
	return fmt.Sprintf("IAPrefix(%s/%d, preferred=%d, valid=%d)", o.Prefix, o.PrefixLength, o.PreferredLifetime, o.ValidLifetime)
}

// ClampIATimers enforces the T1<=T2<=shortest-preferred-lifetime invariant
// from spec.md §3 on an outgoing IA_NA/IA_PD, given the shortest preferred
// lifetime among its leases. Infinite lifetimes never shrink the timers.
func ClampIATimers(t1, t2, shortestPreferred uint32) (newT1, newT2 uint32) {
	newT1, newT2 = t1, t2
	if newT2 > newT1 && shortestPreferred != InfiniteLifetime {
		if newT2 > shortestPreferred {
			newT2 = shortestPreferred
		}
		if newT1 > newT2 {
			newT1 = newT2
		}
	} else if shortestPreferred != InfiniteLifetime {
		if newT1 > shortestPreferred {
			newT1 = shortestPreferred
		}
		newT2 = newT1
	}
	return
}
