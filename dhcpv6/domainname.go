// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// DomainName is an RFC 1035 label sequence, as used by OptionDomainSearchList
// and similar options. Absolute names carry a trailing empty label on the
// wire ("example.com."); relative names do not ("example.com"). The codec
// preserves this distinction (spec.md §4.1).
type DomainName struct {
	Labels   []string
	Absolute bool
}

// parseDomainName reads one domain name starting at the buffer's current
// position and returns it. The DNS wire format allows compression pointers
// in some RFCs, but RFC 3315 options never use them, so none are accepted
// here: a pointer byte is treated as MalformedField.
func parseDomainName(b *buffer) (DomainName, error) {
	var labels []string
	for {
		lenByte, ok := b.Read8()
		if !ok {
			return DomainName{}, ErrInsufficientData
		}
		if lenByte == 0 {
			return DomainName{Labels: labels, Absolute: true}, nil
		}
		if lenByte&0xc0 != 0 {
			return DomainName{}, fmt.Errorf("%w: compression pointers are not valid in DHCPv6 options", ErrMalformedField)
		}
		raw, ok := b.ReadN(int(lenByte))
		if !ok {
			return DomainName{}, ErrInsufficientData
		}
		u, err := idna.ToUnicode(string(raw))
		if err != nil {
			// Not every label that fails ToUnicode is malformed (plain
			// ASCII labels round-trip through ToUnicode as a no-op in all
			// but pathological cases); keep the raw label in that case.
			u = string(raw)
		}
		labels = append(labels, u)
		if !b.Has(1) {
			return DomainName{Labels: labels, Absolute: false}, nil
		}
	}
}

// save encodes the domain name to wire format, converting Unicode labels to
// A-labels per IDNA (spec.md §4.1).
func (d DomainName) save() ([]byte, error) {
	w := &writer{}
	for _, label := range d.Labels {
		a, err := idna.ToASCII(label)
		if err != nil {
			a = label
		}
		if len(a) > 63 {
			return nil, fmt.Errorf("%w: label %q exceeds 63 octets after A-label conversion", ErrInvalidLength, label)
		}
		w.Write8(uint8(len(a)))
		w.WriteBytes([]byte(a))
	}
	if d.Absolute {
		w.Write8(0)
	}
	return w.Bytes(), nil
}

// String renders the presentation form of the name, dot-joined, trailing
// dot included for absolute names.
func (d DomainName) String() string {
	s := strings.Join(d.Labels, ".")
	if d.Absolute {
		s += "."
	}
	return s
}

// parseDomainNameList reads consecutive domain names until the buffer is
// exhausted, as used by OptionDomainSearchList (RFC 3646).
func parseDomainNameList(data []byte) ([]DomainName, error) {
	b := newBuffer(data)
	var names []DomainName
	for b.Len() > 0 {
		n, err := parseDomainName(b)
		if err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, nil
}
