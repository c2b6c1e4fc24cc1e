// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"bytes"
	"fmt"
	"net"
	"time"
)

// DUIDType identifies the on-the-wire variant of a DUID, as assigned by
// IANA in the DHCPv6 parameters registry.
type DUIDType uint16

const (
	DUIDTypeLLT     DUIDType = 1
	DUIDTypeEN      DUIDType = 2
	DUIDTypeLL      DUIDType = 3
	DUIDTypeUUID    DUIDType = 4
	epoch2000Offset          = 946684800 // seconds from Unix epoch to 2000-01-01T00:00:00Z
)

// DUID is a DHCP Unique Identifier, as defined in RFC 3315 §9. Two DUIDs
// are equal iff their octet representations are equal (spec.md §3).
type DUID interface {
	// Type returns the DUID's on-the-wire type tag.
	Type() DUIDType
	// ToBytes serializes the DUID to its on-the-wire form, type tag
	// included.
	ToBytes() []byte
	// Equal reports whether two DUIDs have identical wire representations.
	Equal(other DUID) bool
	fmt.Stringer
}

// duidRegistry maps a DUID type tag to a constructor that parses the
// type-specific payload (the type tag itself has already been consumed).
// Populated at package initialization, before any worker starts; immutable
// thereafter (spec.md §4.1, §9).
var duidRegistry = map[DUIDType]func(payload []byte) (DUID, error){
	DUIDTypeLLT:  parseDUIDLLT,
	DUIDTypeEN:   parseDUIDEN,
	DUIDTypeLL:   parseDUIDLL,
	DUIDTypeUUID: parseDUIDUUID,
}

// ParseDUID parses a complete DUID (type tag plus payload) from b. Unknown
// type tags are preserved in a DUIDUnknown rather than failing.
func ParseDUID(b []byte) (DUID, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("%w: DUID shorter than type tag", ErrInsufficientData)
	}
	t := DUIDType(order.Uint16(b[:2]))
	if ctor, ok := duidRegistry[t]; ok {
		return ctor(b[2:])
	}
	raw := make([]byte, len(b))
	copy(raw, b)
	return DUIDUnknown{TypeTag: t, Raw: raw[2:]}, nil
}

func duidEqual(a, b DUID) bool {
	return bytes.Equal(a.ToBytes(), b.ToBytes())
}

// DUIDLLT is a DUID based on link-layer address plus time (RFC 3315 §9.2).
type DUIDLLT struct {
	HWType        uint16
	Time          time.Time
	LinkLayerAddr net.HardwareAddr
}

func parseDUIDLLT(p []byte) (DUID, error) {
	if len(p) < 6 {
		return nil, fmt.Errorf("%w: DUID-LLT too short", ErrInvalidLength)
	}
	hwtype := order.Uint16(p[0:2])
	secs := order.Uint32(p[2:6])
	hw := make(net.HardwareAddr, len(p)-6)
	copy(hw, p[6:])
	return &DUIDLLT{
		HWType:        hwtype,
		Time:          time.Unix(int64(secs)+epoch2000Offset, 0).UTC(),
		LinkLayerAddr: hw,
	}, nil
}

func (d *DUIDLLT) Type() DUIDType { return DUIDTypeLLT }

func (d *DUIDLLT) ToBytes() []byte {
	w := &writer{}
	w.Write16(uint16(DUIDTypeLLT))
	w.Write16(d.HWType)
	secs := d.Time.Unix() - epoch2000Offset
	w.Write32(uint32(secs))
	w.WriteBytes(d.LinkLayerAddr)
	return w.Bytes()
}

func (d *DUIDLLT) Equal(other DUID) bool { return duidEqual(d, other) }

func (d *DUIDLLT) String() string {
	return fmt.Sprintf("DUID-LLT{hwtype: %d, time: %s, hwaddr: %s}", d.HWType, d.Time, d.LinkLayerAddr)
}

// DUIDEN is a DUID assigned by a vendor based on an enterprise number
// (RFC 3315 §9.3).
type DUIDEN struct {
	EnterpriseNumber uint32
	Identifier       []byte
}

func parseDUIDEN(p []byte) (DUID, error) {
	if len(p) < 4 {
		return nil, fmt.Errorf("%w: DUID-EN too short", ErrInvalidLength)
	}
	id := make([]byte, len(p)-4)
	copy(id, p[4:])
	return &DUIDEN{EnterpriseNumber: order.Uint32(p[0:4]), Identifier: id}, nil
}

func (d *DUIDEN) Type() DUIDType { return DUIDTypeEN }

func (d *DUIDEN) ToBytes() []byte {
	w := &writer{}
	w.Write16(uint16(DUIDTypeEN))
	w.Write32(d.EnterpriseNumber)
	w.WriteBytes(d.Identifier)
	return w.Bytes()
}

func (d *DUIDEN) Equal(other DUID) bool { return duidEqual(d, other) }

func (d *DUIDEN) String() string {
	return fmt.Sprintf("DUID-EN{enterprise: %d, id: %x}", d.EnterpriseNumber, d.Identifier)
}

// DUIDLL is a DUID based on link-layer address alone (RFC 3315 §9.4).
type DUIDLL struct {
	HWType        uint16
	LinkLayerAddr net.HardwareAddr
}

func parseDUIDLL(p []byte) (DUID, error) {
	if len(p) < 2 {
		return nil, fmt.Errorf("%w: DUID-LL too short", ErrInvalidLength)
	}
	hw := make(net.HardwareAddr, len(p)-2)
	copy(hw, p[2:])
	return &DUIDLL{HWType: order.Uint16(p[0:2]), LinkLayerAddr: hw}, nil
}

func (d *DUIDLL) Type() DUIDType { return DUIDTypeLL }

func (d *DUIDLL) ToBytes() []byte {
	w := &writer{}
	w.Write16(uint16(DUIDTypeLL))
	w.Write16(d.HWType)
	w.WriteBytes(d.LinkLayerAddr)
	return w.Bytes()
}

func (d *DUIDLL) Equal(other DUID) bool { return duidEqual(d, other) }

func (d *DUIDLL) String() string {
	return fmt.Sprintf("DUID-LL{hwtype: %d, hwaddr: %s}", d.HWType, d.LinkLayerAddr)
}

// DUIDUUID is a universally-unique DUID (RFC 6355).
type DUIDUUID struct {
	UUID [16]byte
}

func parseDUIDUUID(p []byte) (DUID, error) {
	if len(p) != 16 {
		return nil, fmt.Errorf("%w: DUID-UUID must be 16 bytes", ErrInvalidLength)
	}
	var d DUIDUUID
	copy(d.UUID[:], p)
	return &d, nil
}

func (d *DUIDUUID) Type() DUIDType { return DUIDTypeUUID }

func (d *DUIDUUID) ToBytes() []byte {
	w := &writer{}
	w.Write16(uint16(DUIDTypeUUID))
	w.WriteBytes(d.UUID[:])
	return w.Bytes()
}

func (d *DUIDUUID) Equal(other DUID) bool { return duidEqual(d, other) }

func (d *DUIDUUID) String() string { return fmt.Sprintf("DUID-UUID{%x}", d.UUID) }

// DUIDUnknown preserves the raw payload of a DUID whose type tag is not
// registered, so that it round-trips exactly (spec.md §4.1).
type DUIDUnknown struct {
	TypeTag DUIDType
	Raw     []byte
}

func (d DUIDUnknown) Type() DUIDType { return d.TypeTag }

func (d DUIDUnknown) ToBytes() []byte {
	w := &writer{}
	w.Write16(uint16(d.TypeTag))
	w.WriteBytes(d.Raw)
	return w.Bytes()
}

func (d DUIDUnknown) Equal(other DUID) bool { return duidEqual(d, other) }

func (d DUIDUnknown) String() string {
	return fmt.Sprintf("DUID-Unknown{type: %d, raw: %x}", d.TypeTag, d.Raw)
}

// NewDUIDLL builds a DUID-LL for the given hardware type and address, the
// default a server synthesizes when no persistent DUID is configured
// (mirrors mdlayher/dhcp6's NewDUIDLL / interfaceDUID idiom).
func NewDUIDLL(hwType uint16, hwAddr net.HardwareAddr) *DUIDLL {
	return &DUIDLL{HWType: hwType, LinkLayerAddr: hwAddr}
}
