// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package unansweredia implements the built-in terminal fallback handler
// from spec.md §4.3: every IA left unhandled after the configured pipeline
// runs gets a status rather than silence. The pipeline builder always
// appends an instance of this handler last.
package unansweredia

import (
	"context"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
)

var log = logger.GetLogger("plugins/unansweredia")

// Handler answers every still-unhandled IA with NoBinding (when the server
// is not authoritative for the link) or NoAddrsAvail/NoPrefixAvail (when
// it is), guaranteeing every IA in a request gets a reply (spec.md §4.3).
type Handler struct {
	pipeline.Base
	Authoritative bool
}

// New builds the fallback handler. authoritative controls whether
// unclaimed IAs are answered NoBinding (false) or
// NoAddrsAvail/NoPrefixAvail (true) — see DESIGN.md's resolution of the
// "authoritative unanswered-IA on Rebind" open question.
func New(authoritative bool) *Handler {
	return &Handler{Authoritative: authoritative}
}

func (h *Handler) Post(ctx context.Context, b *bundle.Bundle) error {
	for _, kind := range []bundle.IAKind{bundle.IANA, bundle.IATA, bundle.IAPD} {
		for _, opt := range b.GetUnhandledOptions(kind) {
			h.answer(b, kind, opt)
		}
	}
	return nil
}

func (h *Handler) answer(b *bundle.Bundle, kind bundle.IAKind, opt dhcpv6.Option) {
	status := dhcpv6.StatusNoBinding
	if h.Authoritative {
		switch kind {
		case bundle.IAPD:
			status = dhcpv6.StatusNoPrefixAvail
		default:
			status = dhcpv6.StatusNoAddrsAvail
		}
	}

	statusOpt := dhcpv6.NewStatusOption(status, "no binding for this IA")

	var replacement dhcpv6.Option
	switch kind {
	case bundle.IANA:
		ia := opt.(*dhcpv6.OptIANA)
		replacement = &dhcpv6.OptIANA{IAID: ia.IAID, T1: ia.T1, T2: ia.T2, Options: dhcpv6.Options{statusOpt}}
	case bundle.IATA:
		ia := opt.(*dhcpv6.OptIATA)
		replacement = &dhcpv6.OptIATA{IAID: ia.IAID, Options: dhcpv6.Options{statusOpt}}
	case bundle.IAPD:
		ia := opt.(*dhcpv6.OptIAPD)
		replacement = &dhcpv6.OptIAPD{IAID: ia.IAID, T1: ia.T1, T2: ia.T2, Options: dhcpv6.Options{statusOpt}}
	}

	b.MarkHandled(opt)
	b.AddResponseOption(replacement)
	log.Debugf("unanswered IA answered with %s", status)
}
