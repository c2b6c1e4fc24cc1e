// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// These option types are concrete instances of the generic "options inside
// options" contract (spec.md §4.1); their individual semantics are outside
// this core's scope (spec.md §1 non-goals), but the codec still needs a
// shape for each so that plugins/static and friends can populate them
// (grounded on coredhcp's plugins/dns, plugins/searchdomains, plugins/ntp,
// plugins/nbp).
package dhcpv6

import (
	"fmt"
	"net"
)

func init() {
	RegisterOption(OptionDNSRecursiveNameServers, parseOptDNSServers)
	RegisterOption(OptionDomainSearchList, parseOptDomainSearchList)
	RegisterOption(OptionNTPServer, parseOptNTPServers)
	RegisterOption(OptionBootfileURL, parseOptBootfileURL)
	RegisterOption(OptionBootfileParam, parseOptBootfileParam)
}

func parseIPv6List(data []byte) ([]net.IP, error) {
	if len(data)%16 != 0 {
		return nil, fmt.Errorf("%w: address list length not a multiple of 16", ErrInvalidLength)
	}
	ips := make([]net.IP, 0, len(data)/16)
	for i := 0; i < len(data); i += 16 {
		ip := make(net.IP, 16)
		copy(ip, data[i:i+16])
		ips = append(ips, ip)
	}
	return ips, nil
}

func saveIPv6List(ips []net.IP) []byte {
	w := &writer{}
	for _, ip := range ips {
		addr := ip.To16()
		if addr == nil {
			addr = make(net.IP, 16)
		}
		w.WriteBytes(addr)
	}
	return w.Bytes()
}

// OptDNSServers is the DNS Recursive Name Server option (RFC 3646 §3).
type OptDNSServers struct {
	Servers []net.IP
}

func parseOptDNSServers(data []byte) (Option, error) {
	ips, err := parseIPv6List(data)
	if err != nil {
		return nil, fmt.Errorf("dns-servers: %w", err)
	}
	return &OptDNSServers{Servers: ips}, nil
}

func (o *OptDNSServers) Code() OptionCode { return OptionDNSRecursiveNameServers }
func (o *OptDNSServers) ToBytes() []byte  { return saveIPv6List(o.Servers) }
func (o *OptDNSServers) String() string   { return fmt.Sprintf("DNSServers(%v)", o.Servers) }

// OptDomainSearchList is the Domain Search List option (RFC 3646 §4).
type OptDomainSearchList struct {
	Domains []DomainName
}

func parseOptDomainSearchList(data []byte) (Option, error) {
	names, err := parseDomainNameList(data)
	if err != nil {
		return nil, fmt.Errorf("domain-search-list: %w", err)
	}
	return &OptDomainSearchList{Domains: names}, nil
}

func (o *OptDomainSearchList) Code() OptionCode { return OptionDomainSearchList }

func (o *OptDomainSearchList) ToBytes() []byte {
	w := &writer{}
	for _, d := range o.Domains {
		b, err := d.save()
		if err != nil {
			continue
		}
		w.WriteBytes(b)
	}
	return w.Bytes()
}

func (o *OptDomainSearchList) String() string {
	return fmt.Sprintf("DomainSearchList(%v)", o.Domains)
}

// OptNTPServers is the NTP Server option
// (RFC 5908 carries suboptions; this models the simpler address-list form
// used by most deployments, grounded on coredhcp's plugins/ntp).
type OptNTPServers struct {
	Servers []net.IP
}

func parseOptNTPServers(data []byte) (Option, error) {
	ips, err := parseIPv6List(data)
	if err != nil {
		return nil, fmt.Errorf("ntp-servers: %w", err)
	}
	return &OptNTPServers{Servers: ips}, nil
}

func (o *OptNTPServers) Code() OptionCode { return OptionNTPServer }
func (o *OptNTPServers) ToBytes() []byte  { return saveIPv6List(o.Servers) }
func (o *OptNTPServers) String() string   { return fmt.Sprintf("NTPServers(%v)", o.Servers) }

// OptBootfileURL is the network boot file URL option (RFC 5970 §3.1).
type OptBootfileURL struct {
	URL string
}

func parseOptBootfileURL(data []byte) (Option, error) {
	return &OptBootfileURL{URL: string(data)}, nil
}

func (o *OptBootfileURL) Code() OptionCode { return OptionBootfileURL }
func (o *OptBootfileURL) ToBytes() []byte  { return []byte(o.URL) }
func (o *OptBootfileURL) String() string   { return fmt.Sprintf("BootfileURL(%q)", o.URL) }

// OptBootfileParam is the network boot file parameters option (RFC 5970
// §3.2): a sequence of length-prefixed strings.
type OptBootfileParam struct {
	Params []string
}

func parseOptBootfileParam(data []byte) (Option, error) {
	items, err := parseLenPrefixedList(data)
	if err != nil {
		return nil, fmt.Errorf("bootfile-param: %w", err)
	}
	params := make([]string, len(items))
	for i, it := range items {
		params[i] = string(it)
	}
	return &OptBootfileParam{Params: params}, nil
}

func (o *OptBootfileParam) Code() OptionCode { return OptionBootfileParam }

func (o *OptBootfileParam) ToBytes() []byte {
	items := make([][]byte, len(o.Params))
	for i, p := range o.Params {
		items[i] = []byte(p)
	}
	return saveLenPrefixedList(items)
}

func (o *OptBootfileParam) String() string { return fmt.Sprintf("BootfileParam(%v)", o.Params) }
