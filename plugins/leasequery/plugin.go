// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package leasequery answers LeaseQuery requests (RFC 5007) against a
// pluggable leasequery.Store, and records every Reply this server sends so
// later queries can see it. Grounded on plugins/serverid's
// validate-then-populate shape, generalized from request validation to a
// lookup-then-populate query responder.
package leasequery

import (
	"context"
	"errors"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/leasequery"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"
)

var log = logger.GetLogger("plugins/leasequery")

func init() {
	plugins.Register("leasequery", setup)
}

// Handler answers LeaseQuery requests from Store, and records every Reply
// this server sends (to any message type) so future queries see it.
type Handler struct {
	pipeline.Base
	Store leasequery.Store
}

// Example configuration:
//
//	plugins:
//	  - leasequery sqlite:/var/lib/dhcpv6d/leasequery.db
func setup(args []string) (pipeline.Handler, error) {
	if len(args) != 1 {
		return nil, errors.New("leasequery: want exactly one sqlite:<path> source")
	}
	const prefix = "sqlite:"
	if len(args[0]) <= len(prefix) || args[0][:len(prefix)] != prefix {
		return nil, errors.New("leasequery: source must start with sqlite:")
	}
	path := args[0][len(prefix):]
	store, err := leasequery.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	log.Printf("loading `leasequery` plugin backed by %s", path)
	return &Handler{Store: store}, nil
}

func (h *Handler) WorkerShutdown() error {
	return h.Store.Close()
}

// Handle answers LeaseQuery requests; every other message type just passes
// through so Post can still record it.
func (h *Handler) Handle(ctx context.Context, b *bundle.Bundle) error {
	if b.Request.MessageType != dhcpv6.MessageTypeLeaseQuery {
		return nil
	}
	b.Response.MessageType = dhcpv6.MessageTypeLeaseQueryReply

	q, ok := b.Request.Options.Get(dhcpv6.OptionLQQuery)
	if !ok {
		b.ForceResponseOption(dhcpv6.NewStatusOption(dhcpv6.StatusMalformedQuery, "missing LQ-QUERY option"))
		return nil
	}
	query := q.(*dhcpv6.OptLQQuery)

	var filter leasequery.Filter
	switch query.QueryType {
	case dhcpv6.QueryByAddress:
		if opt, ok := query.Options.Get(dhcpv6.OptionIAAddr); ok {
			filter.Address = opt.(*dhcpv6.OptIAAddress).IPv6Addr
		}
	case dhcpv6.QueryByClientID:
		if opt, ok := query.Options.Get(dhcpv6.OptionClientID); ok {
			filter.ClientDUID = opt.(*dhcpv6.OptClientID).DUID.ToBytes()
		}
	default:
		b.ForceResponseOption(dhcpv6.NewStatusOption(dhcpv6.StatusMalformedQuery, "unsupported query type"))
		return nil
	}

	records, err := h.Store.Query(filter)
	if err != nil {
		log.Errorf("leasequery: query failed: %v", err)
		b.ForceResponseOption(dhcpv6.NewStatusOption(dhcpv6.StatusUnspecFail, "internal error"))
		return nil
	}

	for _, r := range records {
		duid, err := dhcpv6.ParseDUID(r.ClientDUID)
		if err != nil {
			continue
		}
		clientData := &dhcpv6.OptClientData{Options: dhcpv6.Options{
			&dhcpv6.OptClientID{DUID: duid},
		}}
		if r.PrefixLength > 0 {
			clientData.Options.Add(&dhcpv6.OptIAPrefix{
				PrefixLength:      r.PrefixLength,
				Prefix:            r.AssignedAddress,
				PreferredLifetime: r.PreferredLife,
				ValidLifetime:     r.ValidLife,
			})
		} else {
			clientData.Options.Add(&dhcpv6.OptIAAddress{
				IPv6Addr:          r.AssignedAddress,
				PreferredLifetime: r.PreferredLife,
				ValidLifetime:     r.ValidLife,
			})
		}
		clientData.Options.Add(&dhcpv6.OptCLTTime{Seconds: 0})
		b.AddResponseOption(clientData)
	}
	return nil
}

// Post records every Reply this server sends, independent of message type,
// so the lease state it implies is visible to future queries.
func (h *Handler) Post(ctx context.Context, b *bundle.Bundle) error {
	return h.Store.Record(b)
}
