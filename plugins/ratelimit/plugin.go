// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package ratelimit implements the rate-limit handler from spec.md §4.7: a
// token bucket per key (DUID, interface-id, remote-id, subscriber-id, or
// client link-layer address), bounded by an LRU so the bucket set cannot
// grow without limit.
package ratelimit

import (
	"context"
	"errors"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"
)

var log = logger.GetLogger("plugins/ratelimit")

func init() {
	plugins.Register("ratelimit", setup)
}

// KeySource identifies which bundle field a key is drawn from.
type KeySource int

const (
	KeyDUID KeySource = iota
	KeyInterfaceID
	KeyRemoteID
	KeySubscriberID
	KeyLinkLayerAddr
)

func parseKeySource(s string) (KeySource, error) {
	switch s {
	case "duid":
		return KeyDUID, nil
	case "interface-id":
		return KeyInterfaceID, nil
	case "remote-id":
		return KeyRemoteID, nil
	case "subscriber-id":
		return KeySubscriberID, nil
	case "linklayer-id":
		return KeyLinkLayerAddr, nil
	default:
		return 0, errors.New("ratelimit: unknown key source, want duid|interface-id|remote-id|subscriber-id|linklayer-id")
	}
}

// Handler rejects (via Pre returning ErrIgnoreMessage) any request whose
// key exceeds its configured rate.
type Handler struct {
	pipeline.Base
	key     KeySource
	rate    rate.Limit
	burst   int
	buckets *lru.Cache[string, *rate.Limiter]
}

func setup(args []string) (pipeline.Handler, error) {
	if len(args) < 3 {
		return nil, errors.New("ratelimit: need key-source, rate-per-second, burst[, cache-size]")
	}
	key, err := parseKeySource(args[0])
	if err != nil {
		return nil, err
	}
	rps, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, errors.New("ratelimit: invalid rate")
	}
	burst, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, errors.New("ratelimit: invalid burst")
	}
	cacheSize := 4096
	if len(args) >= 4 {
		if n, err := strconv.Atoi(args[3]); err == nil {
			cacheSize = n
		}
	}
	cache, err := lru.New[string, *rate.Limiter](cacheSize)
	if err != nil {
		return nil, err
	}

	log.Printf("loading `ratelimit` plugin keyed on %v at %.2f/s burst %d", args[0], rps, burst)
	return &Handler{key: key, rate: rate.Limit(rps), burst: burst, buckets: cache}, nil
}

// keyFor draws the bucket key from the configured source, falling back to
// the client DUID if that source is absent from the request (spec.md §4.7).
func (h *Handler) keyFor(b *bundle.Bundle) (string, bool) {
	switch h.key {
	case KeyDUID:
	case KeyInterfaceID:
		if opt, ok := b.GetRelayOption(dhcpv6.OptionInterfaceID, true); ok {
			return string(opt.(*dhcpv6.OptInterfaceID).ID), true
		}
	case KeyRemoteID:
		if opt, ok := b.GetRelayOption(dhcpv6.OptionRemoteID, true); ok {
			return string(opt.(*dhcpv6.OptRemoteID).RemoteID), true
		}
	case KeySubscriberID:
		if opt, ok := b.GetRelayOption(dhcpv6.OptionSubscriberID, true); ok {
			return string(opt.(*dhcpv6.OptSubscriberID).SubscriberID), true
		}
	case KeyLinkLayerAddr:
		if opt, ok := b.Request.Options.Get(dhcpv6.OptionClientLinkLayerAddress); ok {
			return opt.(*dhcpv6.OptClientLinkLayerAddress).LinkLayerAddr.String(), true
		}
	}
	if opt, ok := b.Request.Options.Get(dhcpv6.OptionClientID); ok {
		return string(opt.(*dhcpv6.OptClientID).DUID.ToBytes()), true
	}
	return "", false
}

func (h *Handler) limiterFor(key string) *rate.Limiter {
	if l, ok := h.buckets.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(h.rate, h.burst)
	h.buckets.Add(key, l)
	return l
}

// Pre gates the pipeline: a key over its rate aborts with ErrIgnoreMessage
// (spec.md §4.3: "Handle is where the response is built... Pre is where
// filters declare applicability and where handlers can short-circuit
// (e.g., rate-limit).").
func (h *Handler) Pre(ctx context.Context, b *bundle.Bundle) error {
	key, ok := h.keyFor(b)
	if !ok {
		return nil
	}
	if !h.limiterFor(key).Allow() {
		b.Mark("rate-limited")
		return pipeline.ErrIgnoreMessage
	}
	return nil
}
