// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package bundle implements the per-packet TransactionBundle: the mutable
// state a pipeline handler reads and writes while producing a reply to one
// incoming DHCPv6 packet (spec.md §3, §4.2).
package bundle

import (
	"fmt"
	"reflect"

	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
)

// IAKind identifies which IA container an unhandled-option lookup concerns.
type IAKind int

const (
	IANA IAKind = iota
	IATA
	IAPD
)

func (k IAKind) optionCode() dhcpv6.OptionCode {
	switch k {
	case IANA:
		return dhcpv6.OptionIANA
	case IATA:
		return dhcpv6.OptionIATA
	case IAPD:
		return dhcpv6.OptionIAPD
	default:
		return 0
	}
}

// Bundle is created per inbound packet and destroyed when the worker
// finishes sending. It exclusively owns its incoming/outgoing graphs while
// alive; nothing about it is shared across workers (spec.md §3).
type Bundle struct {
	// Incoming is the outermost message as parsed: a RelayMessage chain
	// around the client's request, or (after virtual-relay synthesis) a
	// single synthetic RelayForward.
	Incoming dhcpv6.DHCPv6

	// Request is the innermost client message.
	Request *dhcpv6.Message

	// Relays is the ordered chain from outermost to innermost relay.
	Relays []*dhcpv6.RelayMessage

	// Marks is the set of string tags attached by the listener and by
	// filters (e.g. "listener:wan0", "rate-limited").
	Marks map[string]struct{}

	// Response is the innermost outgoing message; nil until the pipeline
	// fills it in.
	Response *dhcpv6.Message

	// Handled is the set of IA options, by identity, already claimed by
	// some handler.
	Handled map[dhcpv6.Option]struct{}

	// AllowRapidCommit defaults to true if the client requested rapid
	// commit; any handler may clear it.
	AllowRapidCommit bool

	// Responses holds additional outgoing messages queued by
	// AddResponse, used by bulk leasequery over a TCP listener.
	Responses []dhcpv6.DHCPv6

	// ListenerName/InterfaceName carry through from the IncomingPacket
	// that produced this bundle, for logging and mark-based filters.
	ListenerName  string
	InterfaceName string

	// relayResponseOptions holds, per entry in Relays (same index,
	// outermost to innermost), options queued by AddResponseRelayOption
	// for that depth's reply shell.
	relayResponseOptions []dhcpv6.Options

	virtualRelay bool
}

// responseShape reports the message type a response should take for a
// given request type, and whether a response applies at all (spec.md
// §4.2: "If no response shape applies, the pipeline is skipped.").
func responseShape(reqType dhcpv6.MessageType) (dhcpv6.MessageType, bool) {
	switch reqType {
	case dhcpv6.MessageTypeSolicit:
		return dhcpv6.MessageTypeAdvertise, true
	case dhcpv6.MessageTypeRequest, dhcpv6.MessageTypeRenew, dhcpv6.MessageTypeRebind,
		dhcpv6.MessageTypeConfirm, dhcpv6.MessageTypeInformationRequest,
		dhcpv6.MessageTypeRelease, dhcpv6.MessageTypeDecline:
		return dhcpv6.MessageTypeReply, true
	case dhcpv6.MessageTypeLeaseQuery:
		return dhcpv6.MessageTypeLeaseQueryReply, true
	default:
		return 0, false
	}
}

// New builds a Bundle from an incoming wire-level PDU. If incoming is not
// itself a relay chain (the client talked directly via multicast or
// unicast), a single virtual RelayForward is synthesized around it so the
// pipeline always sees a uniform shape (spec.md §4.2). serverDUID
// prepopulates the response's server-id option.
func New(incoming dhcpv6.DHCPv6, serverDUID dhcpv6.DUID) (*Bundle, error) {
	virtual := false
	if !incoming.IsRelay() {
		msg, ok := incoming.(*dhcpv6.Message)
		if !ok {
			return nil, fmt.Errorf("bundle: incoming message is neither relay nor flat message")
		}
		incoming = dhcpv6.NewRelayForward(nil, nil, 0, msg)
		virtual = true
	}

	req, err := incoming.GetInnerMessage()
	if err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	relays := dhcpv6.Relays(incoming)

	b := &Bundle{
		Incoming:             incoming,
		Request:              req,
		Relays:                relays,
		Marks:                make(map[string]struct{}),
		Handled:               make(map[dhcpv6.Option]struct{}),
		AllowRapidCommit:      false,
		relayResponseOptions: make([]dhcpv6.Options, len(relays)),
		virtualRelay:          virtual,
	}

	if opt, ok := req.Options.Get(dhcpv6.OptionRapidCommit); ok {
		b.AllowRapidCommit = opt != nil
	}

	respType, hasResponse := responseShape(req.MessageType)
	if !hasResponse {
		return b, nil
	}
	b.Response = dhcpv6.NewMessage(respType, req.TransactionID)

	if serverDUID != nil {
		b.Response.Options.Add(&dhcpv6.OptServerID{DUID: serverDUID})
	}
	if clientOpt, ok := req.Options.Get(dhcpv6.OptionClientID); ok {
		b.Response.Options.Add(clientOpt)
	}

	return b, nil
}

// IsVirtualRelay reports whether Incoming's outermost relay was synthesized
// by New rather than received on the wire.
func (b *Bundle) IsVirtualRelay() bool { return b.virtualRelay }

// Mark adds a string tag to the bundle.
func (b *Bundle) Mark(tag string) { b.Marks[tag] = struct{}{} }

// HasMark reports whether tag has been set.
func (b *Bundle) HasMark(tag string) bool {
	_, ok := b.Marks[tag]
	return ok
}

// GetUnhandledOptions returns IA options of the given kind from the
// innermost request that are not in Handled (spec.md §4.2).
func (b *Bundle) GetUnhandledOptions(kind IAKind) []dhcpv6.Option {
	code := kind.optionCode()
	var out []dhcpv6.Option
	for _, opt := range b.Request.Options.GetAll(code) {
		if _, handled := b.Handled[opt]; !handled {
			out = append(out, opt)
		}
	}
	return out
}

// MarkHandled adds opt to Handled. Idempotent.
func (b *Bundle) MarkHandled(opt dhcpv6.Option) {
	b.Handled[opt] = struct{}{}
}

// IsHandled reports whether opt has already been claimed.
func (b *Bundle) IsHandled(opt dhcpv6.Option) bool {
	_, ok := b.Handled[opt]
	return ok
}

// AddResponseOption appends opt to the response body if it is not already
// present by identity.
func (b *Bundle) AddResponseOption(opt dhcpv6.Option) {
	if b.Response == nil {
		return
	}
	for _, existing := range b.Response.Options {
		if existing == opt {
			return
		}
	}
	b.Response.Options.Add(opt)
}

// ForceResponseOption replaces any response option of the same concrete
// type as opt, or appends it if none was present.
func (b *Bundle) ForceResponseOption(opt dhcpv6.Option) {
	if b.Response == nil {
		return
	}
	want := reflect.TypeOf(opt)
	for i, existing := range b.Response.Options {
		if reflect.TypeOf(existing) == want {
			b.Response.Options[i] = opt
			return
		}
	}
	b.Response.Options.Add(opt)
}

// GetResponseOption returns the first response option with the given code.
func (b *Bundle) GetResponseOption(code dhcpv6.OptionCode) (dhcpv6.Option, bool) {
	if b.Response == nil {
		return nil, false
	}
	return b.Response.Options.Get(code)
}

// HasResponseOption reports whether the response carries an option with the
// given code.
func (b *Bundle) HasResponseOption(code dhcpv6.OptionCode) bool {
	_, ok := b.GetResponseOption(code)
	return ok
}

// GetRelayOption walks the relay chain to find the first option with the
// given code, starting from the innermost relay by default (spec.md §4.2).
func (b *Bundle) GetRelayOption(code dhcpv6.OptionCode, fromInnermost bool) (dhcpv6.Option, bool) {
	if fromInnermost {
		for i := len(b.Relays) - 1; i >= 0; i-- {
			if opt, ok := b.Relays[i].Options.Get(code); ok {
				return opt, true
			}
		}
		return nil, false
	}
	for _, r := range b.Relays {
		if opt, ok := r.Options.Get(code); ok {
			return opt, true
		}
	}
	return nil, false
}

// AddResponseRelayOption queues opt to be placed in the reply shell that
// mirrors relay depth idx (0 = outermost), materialized when BuildOutgoing
// runs.
func (b *Bundle) AddResponseRelayOption(idx int, opt dhcpv6.Option) {
	if idx < 0 || idx >= len(b.relayResponseOptions) {
		return
	}
	b.relayResponseOptions[idx] = append(b.relayResponseOptions[idx], opt)
}

// AddResponse appends an extra outgoing message, used for bulk leasequery
// replies that span more than one PDU.
func (b *Bundle) AddResponse(msg dhcpv6.DHCPv6) {
	b.Responses = append(b.Responses, msg)
}

// BuildOutgoing wraps Response in relay-reply shells mirroring the incoming
// relay chain, attaching any options queued via AddResponseRelayOption, and
// returns the complete outgoing PDU. It returns nil if no Response was ever
// set (e.g. a Reconfigure request, which has no response).
func (b *Bundle) BuildOutgoing() dhcpv6.DHCPv6 {
	if b.Response == nil {
		return nil
	}
	var out dhcpv6.DHCPv6 = b.Response
	for i := len(b.Relays) - 1; i >= 0; i-- {
		reply := dhcpv6.NewRelayReply(b.Relays[i], out)
		reply.Options = append(reply.Options, b.relayResponseOptions[i]...)
		out = reply
	}
	return out
}
