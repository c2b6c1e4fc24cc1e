// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package optioncopy mirrors a named relay option from the request onto the
// matching relay-reply shell, grounded on plugins/serverid's "observe on the
// way in, place on the way out" idiom and spec.md §8 scenario 6 (relay-echo
// of Interface-ID).
package optioncopy

import (
	"errors"

	"context"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"
)

var log = logger.GetLogger("plugins/optioncopy")

func init() {
	plugins.Register("optioncopy", setup)
}

var byName = map[string]dhcpv6.OptionCode{
	"interface-id":  dhcpv6.OptionInterfaceID,
	"remote-id":     dhcpv6.OptionRemoteID,
	"subscriber-id": dhcpv6.OptionSubscriberID,
}

// Handler copies Code from each relay hop's forward options onto that same
// hop's reply shell.
type Handler struct {
	pipeline.Base
	Code dhcpv6.OptionCode
}

func setup(args []string) (pipeline.Handler, error) {
	if len(args) != 1 {
		return nil, errors.New("optioncopy: want exactly one option name")
	}
	code, ok := byName[args[0]]
	if !ok {
		return nil, errors.New("optioncopy: unknown option, want interface-id|remote-id|subscriber-id")
	}
	log.Printf("loading `optioncopy` plugin for %s", args[0])
	return &Handler{Code: code}, nil
}

// Handle mirrors the option present at each relay depth back onto the reply
// shell at that same depth; a relay hop that didn't send the option gets
// none echoed back.
func (h *Handler) Handle(ctx context.Context, b *bundle.Bundle) error {
	for i, r := range b.Relays {
		opt, ok := r.Options.Get(h.Code)
		if !ok {
			continue
		}
		b.AddResponseRelayOption(i, opt)
	}
	return nil
}
