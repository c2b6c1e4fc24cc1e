// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package subnetfilter implements a pipeline.Filter that gates a subtree of
// the plugin list by the innermost relay's link address, grounded on
// plugins/routercidr's CIDR matching and spec.md §4.3's filter/children
// model: a plugin that implements Matches becomes a Branch, and every
// plugin configured after it in the same list becomes its Children.
package subnetfilter

import (
	"errors"
	"net"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"
)

var log = logger.GetLogger("plugins/subnetfilter")

func init() {
	plugins.Register("subnetfilter", setup)
}

// Handler is a pipeline.Filter: Matches gates whether its Children run at
// all for a given bundle.
type Handler struct {
	pipeline.Base
	Net *net.IPNet
}

func setup(args []string) (pipeline.Handler, error) {
	if len(args) != 1 {
		return nil, errors.New("subnetfilter: want exactly one CIDR argument")
	}
	_, n, err := net.ParseCIDR(args[0])
	if err != nil {
		return nil, err
	}
	log.Printf("loading `subnetfilter` plugin for %s", n)
	return &Handler{Net: n}, nil
}

// Matches reports whether the innermost relay's link address falls inside
// the configured subnet.
func (h *Handler) Matches(b *bundle.Bundle) bool {
	if len(b.Relays) == 0 {
		return false
	}
	link := b.Relays[len(b.Relays)-1].LinkAddr
	if link == nil {
		return false
	}
	return h.Net.Contains(link)
}

var _ pipeline.Filter = (*Handler)(nil)
