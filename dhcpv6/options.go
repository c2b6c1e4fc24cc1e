// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import "fmt"

// OptionCode is the 16-bit numeric type code of a DHCPv6 option, as assigned
// by IANA in the DHCPv6 parameters registry.
type OptionCode uint16

const (
	OptionClientID                  OptionCode = 1
	OptionServerID                  OptionCode = 2
	OptionIANA                      OptionCode = 3
	OptionIATA                      OptionCode = 4
	OptionIAAddr                    OptionCode = 5
	OptionOptionRequest              OptionCode = 6
	OptionPreference                OptionCode = 7
	OptionElapsedTime               OptionCode = 8
	OptionRelayMessage               OptionCode = 9
	OptionUnicast                    OptionCode = 12
	OptionStatusCode                OptionCode = 13
	OptionRapidCommit               OptionCode = 14
	OptionUserClass                 OptionCode = 15
	OptionVendorClass               OptionCode = 16
	OptionVendorOpts                OptionCode = 17
	OptionInterfaceID               OptionCode = 18
	OptionReconfMsg                 OptionCode = 19
	OptionReconfAccept              OptionCode = 20
	OptionDNSRecursiveNameServers   OptionCode = 23
	OptionDomainSearchList          OptionCode = 24
	OptionIAPD                      OptionCode = 25
	OptionIAPrefix                  OptionCode = 26
	OptionNTPServer                 OptionCode = 56
	OptionBootfileURL               OptionCode = 59
	OptionBootfileParam             OptionCode = 60
	OptionClientLinkLayerAddress    OptionCode = 79
	OptionRemoteID                  OptionCode = 37
	OptionSubscriberID              OptionCode = 38
	OptionLQQuery                   OptionCode = 44
	OptionClientData                OptionCode = 45
	OptionCLTTime                   OptionCode = 46
	OptionLQRelayData               OptionCode = 47
	OptionLQClientLink              OptionCode = 48
)

// Option is the capability set every concrete option implements
// (spec.md §3): a type code, and the ability to serialize itself. Parsing
// is performed by a registered constructor, not a method, so that unknown
// codes can still produce a value (OptionUnknown).
type Option interface {
	Code() OptionCode
	ToBytes() []byte
	fmt.Stringer
}

// optionRegistry maps an option code to a constructor taking the option's
// raw payload (code and length already consumed). Populated by init()
// before any worker starts; frozen thereafter (spec.md §4.1, §9).
var optionRegistry = map[OptionCode]func(data []byte) (Option, error){}

// RegisterOption adds (or overrides, in tests) a constructor for code.
// Intended to be called from package init() functions only.
func RegisterOption(code OptionCode, ctor func(data []byte) (Option, error)) {
	optionRegistry[code] = ctor
}

// OptionUnknown preserves the code and raw payload of an option type that
// has no registered constructor, so that it round-trips (spec.md §4.1).
type OptionUnknown struct {
	code OptionCode
	Data []byte
}

func (o *OptionUnknown) Code() OptionCode { return o.code }
func (o *OptionUnknown) ToBytes() []byte  { return append([]byte{}, o.Data...) }
func (o *OptionUnknown) String() string {
	return fmt.Sprintf("Unknown(code=%d, len=%d)", o.code, len(o.Data))
}

// Options is an ordered sequence of options, as carried by a message, relay
// message, or IA container. Order is preserved because the wire format and
// several options (e.g. repeated IA_NA) are order-sensitive for round-trip
// fidelity, and because handlers may want first-match semantics.
type Options []Option

// Get returns the first option with the given code, if any.
func (o Options) Get(code OptionCode) (Option, bool) {
	for _, opt := range o {
		if opt.Code() == code {
			return opt, true
		}
	}
	return nil, false
}

// GetAll returns every option with the given code, in order.
func (o Options) GetAll(code OptionCode) []Option {
	var out []Option
	for _, opt := range o {
		if opt.Code() == code {
			out = append(out, opt)
		}
	}
	return out
}

// Has reports whether any option with the given code is present.
func (o Options) Has(code OptionCode) bool {
	_, ok := o.Get(code)
	return ok
}

// Add appends an option.
func (o *Options) Add(opt Option) {
	*o = append(*o, opt)
}

// parseOptions decodes a TLV option sequence: 2-byte code, 2-byte length,
// payload; no padding (spec.md §6). It never fails on an unknown option
// code (those become OptionUnknown); it does fail if the TLV framing
// itself is inconsistent with the buffer length.
func parseOptions(data []byte) (Options, error) {
	b := newBuffer(data)
	var opts Options
	for b.Len() > 0 {
		code, ok := b.Read16()
		if !ok {
			return nil, fmt.Errorf("%w: truncated option header", ErrInsufficientData)
		}
		length, ok := b.Read16()
		if !ok {
			return nil, fmt.Errorf("%w: truncated option header", ErrInsufficientData)
		}
		payload, ok := b.ReadN(int(length))
		if !ok {
			return nil, fmt.Errorf("%w: option %d declares length %d beyond buffer", ErrInvalidLength, code, length)
		}
		oc := OptionCode(code)
		var (
			opt Option
			err error
		)
		if ctor, known := optionRegistry[oc]; known {
			opt, err = ctor(payload)
			if err != nil {
				return nil, err
			}
		} else {
			opt = &OptionUnknown{code: oc, Data: payload}
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

// saveOptions serializes an option sequence to wire format.
func saveOptions(opts Options) []byte {
	w := &writer{}
	for _, opt := range opts {
		payload := opt.ToBytes()
		w.Write16(uint16(opt.Code()))
		w.Write16(uint16(len(payload)))
		w.WriteBytes(payload)
	}
	return w.Bytes()
}

// ContainerKind identifies the kind of structure an option can be nested
// inside of, for the containment table (spec.md §4.1, §9: "model as a
// table of (parent_type -> child_type -> range), not as object references,
// to avoid cycles in the object graph").
type ContainerKind int

const (
	ContainerMessage ContainerKind = iota
	ContainerIANA
	ContainerIATA
	ContainerIAPD
	ContainerRelay
	ContainerClientData
)

// OccursRange is an inclusive [Min, Max] occurrence bound. Max == -1 means
// unbounded.
type OccursRange struct {
	Min, Max int
}

// containmentTable records, for each (parent kind, child code) pair, how
// many occurrences are permitted. It is consulted only by Validate, never
// by parseOptions (spec.md §4.1: "the codec itself never rejects a message
// purely for unknown child options").
var containmentTable = map[ContainerKind]map[OptionCode]OccursRange{
	ContainerMessage: {
		OptionClientID:                {0, 1},
		OptionServerID:                {0, 1},
		OptionIANA:                    {0, -1},
		OptionIATA:                    {0, -1},
		OptionIAPD:                    {0, -1},
		OptionOptionRequest:           {0, 1},
		OptionPreference:              {0, 1},
		OptionElapsedTime:             {0, 1},
		OptionRelayMessage:            {0, 1},
		OptionUnicast:                 {0, 1},
		OptionStatusCode:              {0, 1},
		OptionRapidCommit:             {0, 1},
		OptionUserClass:               {0, 1},
		OptionVendorClass:             {0, -1},
		OptionVendorOpts:              {0, -1},
		OptionReconfMsg:               {0, 1},
		OptionReconfAccept:            {0, 1},
		OptionDNSRecursiveNameServers: {0, 1},
		OptionDomainSearchList:        {0, 1},
		OptionNTPServer:               {0, 1},
		OptionBootfileURL:             {0, 1},
		OptionBootfileParam:           {0, 1},
		OptionClientLinkLayerAddress:  {0, 1},
		OptionLQQuery:                 {0, 1},
		OptionClientData:              {0, -1},
		OptionLQRelayData:             {0, 1},
		OptionLQClientLink:            {0, 1},
	},
	ContainerIANA: {
		OptionIAAddr:     {0, -1},
		OptionStatusCode: {0, 1},
	},
	ContainerIATA: {
		OptionIAAddr:     {0, -1},
		OptionStatusCode: {0, 1},
	},
	ContainerIAPD: {
		OptionIAPrefix:   {0, -1},
		OptionStatusCode: {0, 1},
	},
	ContainerRelay: {
		OptionRelayMessage: {1, 1},
		OptionInterfaceID:  {0, 1},
		OptionRemoteID:     {0, 1},
		OptionSubscriberID: {0, 1},
	},
	ContainerClientData: {
		OptionClientID: {0, 1},
		OptionIAAddr:   {0, -1},
		OptionIAPrefix: {0, -1},
		OptionCLTTime:  {0, 1},
	},
}

// Validate enforces containment cardinality for opts nested under kind. It
// is never called implicitly by parse; callers that want strict input
// validation invoke it explicitly (spec.md §4.1).
func Validate(kind ContainerKind, opts Options) error {
	rules, ok := containmentTable[kind]
	if !ok {
		return nil
	}
	counts := map[OptionCode]int{}
	for _, opt := range opts {
		counts[opt.Code()]++
	}
	for code, rule := range rules {
		n := counts[code]
		if n < rule.Min || (rule.Max >= 0 && n > rule.Max) {
			return fmt.Errorf("%w: option %d occurs %d times, want [%d,%d]", ErrInvalidLength, code, n, rule.Min, rule.Max)
		}
	}
	return nil
}
