// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package timinglimits gates messages on the client's reported elapsed time
// (RFC 8415 §21.9's Elapsed Time option), grounded on the teacher's
// plugins/sleep duration-parsing setup but turned from a delay injector
// into a filter: a client that hasn't been retrying long enough is made to
// wait for a real retry instead of getting an instant answer.
package timinglimits

import (
	"context"
	"errors"
	"time"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"
)

var log = logger.GetLogger("plugins/timinglimits")

func init() {
	plugins.Register("timinglimits", setup)
}

// Handler drops requests whose Elapsed Time option reports less than the
// configured minimum. A client with no Elapsed Time option at all, or
// whose elapsed time already exceeds the minimum, passes through.
type Handler struct {
	pipeline.Base
	Minimum time.Duration
}

func setup(args []string) (pipeline.Handler, error) {
	if len(args) != 1 {
		return nil, errors.New("timinglimits: want exactly one duration argument")
	}
	min, err := time.ParseDuration(args[0])
	if err != nil {
		return nil, err
	}
	log.Printf("loading `timinglimits` plugin with minimum elapsed time %s", min)
	return &Handler{Minimum: min}, nil
}

func (h *Handler) Pre(ctx context.Context, b *bundle.Bundle) error {
	opt, ok := b.Request.Options.Get(dhcpv6.OptionElapsedTime)
	if !ok {
		return nil
	}
	elapsed := opt.(*dhcpv6.OptElapsedTime).Elapsed
	if elapsed < h.Minimum {
		log.Debugf("elapsed time %s below minimum %s, ignoring", elapsed, h.Minimum)
		return pipeline.ErrIgnoreMessage
	}
	return nil
}
