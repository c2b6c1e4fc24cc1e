// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package ignore drops requests that carry a configured mark or whose
// relay link address falls in a configured CIDR, grounded on plugins/vss's
// identity-keyed lookup-then-drop idiom and plugins/routercidr's CIDR
// parsing.
package ignore

import (
	"context"
	"errors"
	"net"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"
)

var log = logger.GetLogger("plugins/ignore")

func init() {
	plugins.Register("ignore", setup)
}

// Handler drops any request matching one of its configured marks or CIDRs.
type Handler struct {
	pipeline.Base
	Marks []string
	Nets  []*net.IPNet
}

// Example configuration:
//
//	plugins:
//	  - ignore mark:rate-limited 2001:db8:dead::/48
func setup(args []string) (pipeline.Handler, error) {
	if len(args) == 0 {
		return nil, errors.New("ignore: want at least one mark:<tag> or CIDR argument")
	}
	h := &Handler{}
	for _, arg := range args {
		if len(arg) > 5 && arg[:5] == "mark:" {
			h.Marks = append(h.Marks, arg[5:])
			continue
		}
		_, n, err := net.ParseCIDR(arg)
		if err != nil {
			return nil, errors.New("ignore: argument must be mark:<tag> or a CIDR: " + arg)
		}
		h.Nets = append(h.Nets, n)
	}
	log.Printf("loading `ignore` plugin with %d mark(s) and %d net(s)", len(h.Marks), len(h.Nets))
	return h, nil
}

func (h *Handler) Pre(ctx context.Context, b *bundle.Bundle) error {
	for _, tag := range h.Marks {
		if b.HasMark(tag) {
			return pipeline.ErrIgnoreMessage
		}
	}
	if len(h.Nets) == 0 || len(b.Relays) == 0 {
		return nil
	}
	link := b.Relays[len(b.Relays)-1].LinkAddr
	if link == nil {
		return nil
	}
	for _, n := range h.Nets {
		if n.Contains(link) {
			return pipeline.ErrIgnoreMessage
		}
	}
	return nil
}
