// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package elapsedtime surfaces the client's Elapsed Time option into the
// bundle's mark set so that later handlers and logging can observe it
// without re-parsing options.
package elapsedtime

import (
	"context"
	"fmt"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"
)

func init() {
	plugins.Register("elapsedtime", setup)
}

// MarkPrefix precedes the formatted elapsed duration in Bundle.Marks, e.g.
// "elapsed:1.5s".
const MarkPrefix = "elapsed:"

// Handler has no configuration; it only observes.
type Handler struct {
	pipeline.Base
}

func setup(args []string) (pipeline.Handler, error) {
	return &Handler{}, nil
}

func (h *Handler) Pre(ctx context.Context, b *bundle.Bundle) error {
	opt, ok := b.Request.Options.Get(dhcpv6.OptionElapsedTime)
	if !ok {
		return nil
	}
	elapsed := opt.(*dhcpv6.OptElapsedTime).Elapsed
	b.Mark(fmt.Sprintf("%s%s", MarkPrefix, elapsed))
	return nil
}
