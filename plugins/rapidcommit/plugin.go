// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package rapidcommit implements the built-in rapid-commit conversion from
// spec.md §4.3: if the client asked for rapid commit, it is allowed by
// configuration, and no earlier handler cleared the bundle's
// AllowRapidCommit flag, the response is promoted from Advertise to Reply
// during the post phase.
package rapidcommit

import (
	"context"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"
)

func init() {
	plugins.Register("rapidcommit", setup)
}

// Handler performs the Advertise -> Reply conversion.
type Handler struct {
	pipeline.Base
}

func setup(args []string) (pipeline.Handler, error) {
	return &Handler{}, nil
}

func (h *Handler) Post(ctx context.Context, b *bundle.Bundle) error {
	if !b.AllowRapidCommit {
		return nil
	}
	if !b.Request.Options.Has(dhcpv6.OptionRapidCommit) {
		return nil
	}
	if b.Response == nil || b.Response.MessageType != dhcpv6.MessageTypeAdvertise {
		return nil
	}
	b.Response.MessageType = dhcpv6.MessageTypeReply
	b.Response.Options.Add(&dhcpv6.OptRapidCommit{})
	return nil
}
