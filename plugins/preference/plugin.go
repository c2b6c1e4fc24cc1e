// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package preference sets the server's Preference option on Advertise
// replies, unless an earlier handler already set one (grounded on the
// teacher's plugins/leasetime "set unless already set" idiom).
package preference

import (
	"context"
	"errors"
	"strconv"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"
)

var log = logger.GetLogger("plugins/preference")

func init() {
	plugins.Register("preference", setup)
}

// Handler sets OptionPreference on outgoing Advertise messages.
type Handler struct {
	pipeline.Base
	Value uint8
}

func setup(args []string) (pipeline.Handler, error) {
	if len(args) < 1 {
		return nil, errors.New("preference: need a value 0-255")
	}
	v, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return nil, errors.New("preference: invalid value, want 0-255")
	}
	log.Printf("loading `preference` plugin with value %d", v)
	return &Handler{Value: uint8(v)}, nil
}

func (h *Handler) Handle(ctx context.Context, b *bundle.Bundle) error {
	if b.Response == nil || b.Response.MessageType != dhcpv6.MessageTypeAdvertise {
		return nil
	}
	if b.HasResponseOption(dhcpv6.OptionPreference) {
		return nil
	}
	b.AddResponseOption(&dhcpv6.OptPreference{Value: h.Value})
	return nil
}
