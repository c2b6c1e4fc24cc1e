// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package static implements a static DUID-to-address assignment plugin,
// grounded on plugins/file's MAC-keyed static mapping idiom (generalized
// to DHCPv6's DUID identity) and its fsnotify-driven autorefresh, plus
// plugins/consul_range's external-store pattern (here backed by SQLite
// instead of Consul).
package static

import (
	"context"
	"encoding/hex"
	"errors"
	"net"
	"strings"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"
)

var log = logger.GetLogger("plugins/static")

func init() {
	plugins.Register("static", setup)
}

// DefaultLifetime is the preferred lifetime used on a static assignment
// when the backing store doesn't carry its own; DefaultValidLifetime is
// the matching valid lifetime (spec.md §8 scenario 1: 3600/7200).
const (
	DefaultLifetime      = 3600
	DefaultValidLifetime = 2 * DefaultLifetime
)

// store is the backing lookup a Handler consults; csvStore and sqliteStore
// both implement it.
type store interface {
	lookup(key string) (record, bool)
	count() int
}

type record struct {
	Address           string
	PreferredLifetime uint32
	ValidLifetime     uint32
}

// Handler answers IA_NA requests for clients with a static assignment,
// keyed by the client's DUID (hex-encoded) primarily, falling back to a
// client link-layer address (RFC 6939) if the store has no DUID match.
type Handler struct {
	pipeline.Base
	backing store
}

// Example configuration:
//
//	plugins:
//	  - static csv:/etc/dhcpv6d/static.csv autorefresh
//	  - static sqlite:/var/lib/dhcpv6d/static.db
func setup(args []string) (pipeline.Handler, error) {
	if len(args) < 1 {
		return nil, errors.New("static: want a csv:<path> or sqlite:<path> source")
	}
	source := args[0]
	switch {
	case strings.HasPrefix(source, "csv:"):
		path := strings.TrimPrefix(source, "csv:")
		auto := len(args) > 1 && args[1] == "autorefresh"
		st, err := newCSVStore(path, auto)
		if err != nil {
			return nil, err
		}
		log.Printf("loading `static` plugin from CSV %s (%d records)", path, st.count())
		return &Handler{backing: st}, nil
	case strings.HasPrefix(source, "sqlite:"):
		path := strings.TrimPrefix(source, "sqlite:")
		st, err := newSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		log.Printf("loading `static` plugin from sqlite %s (%d records)", path, st.count())
		return &Handler{backing: st}, nil
	default:
		return nil, errors.New("static: source must start with csv: or sqlite:")
	}
}

func (h *Handler) lookupKeys(b *bundle.Bundle) []string {
	var keys []string
	if opt, ok := b.Request.Options.Get(dhcpv6.OptionClientID); ok {
		keys = append(keys, "duid:"+hex.EncodeToString(opt.(*dhcpv6.OptClientID).DUID.ToBytes()))
	}
	if opt, ok := b.Request.Options.Get(dhcpv6.OptionClientLinkLayerAddress); ok {
		keys = append(keys, "mac:"+opt.(*dhcpv6.OptClientLinkLayerAddress).LinkLayerAddr.String())
	}
	return keys
}

// Handle claims any IA_NA the client requested that a static record exists
// for, answering with the configured address (spec.md §4.2: unclaimed IAs
// fall through to plugins/unansweredia).
func (h *Handler) Handle(ctx context.Context, b *bundle.Bundle) error {
	unhandled := b.GetUnhandledOptions(bundle.IANA)
	if len(unhandled) == 0 {
		return nil
	}
	keys := h.lookupKeys(b)
	if len(keys) == 0 {
		return nil
	}
	var rec record
	found := false
	for _, k := range keys {
		if r, ok := h.backing.lookup(k); ok {
			rec = r
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	ip := net.ParseIP(rec.Address)
	if ip == nil || ip.To16() == nil {
		log.Warningf("static: record has invalid address %q", rec.Address)
		return nil
	}
	preferred, valid := rec.PreferredLifetime, rec.ValidLifetime
	if valid == 0 {
		preferred, valid = DefaultLifetime, DefaultValidLifetime
	}
	t1, t2 := dhcpv6.ClampIATimers(preferred/2, preferred*4/5, preferred)
	for _, opt := range unhandled {
		ia := opt.(*dhcpv6.OptIANA)
		b.MarkHandled(opt)
		b.AddResponseOption(&dhcpv6.OptIANA{
			IAID: ia.IAID,
			T1:   t1,
			T2:   t2,
			Options: dhcpv6.Options{
				&dhcpv6.OptIAAddress{
					IPv6Addr:          ip,
					PreferredLifetime: preferred,
					ValidLifetime:     valid,
				},
			},
		})
	}
	return nil
}
