// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package serverid validates and populates the server-id option per RFC
// 8415 §16, generalized from the teacher's DUID-LL/DUID-LLT-only plugin to
// also accept DUID-EN and DUID-UUID.
package serverid

import (
	"encoding/hex"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"

	"context"
)

var log = logger.GetLogger("plugins/serverid")

func init() {
	plugins.Register("serverid", setup)
}

// Handler validates an incoming request's ServerID option against the
// configured server DUID, and discards messages that don't address this
// server.
type Handler struct {
	pipeline.Base
	DUID dhcpv6.DUID
}

// ServerDUID exposes the configured server identity to other packages (bundle
// construction needs it to prepopulate the response's server-id).
func (h *Handler) ServerDUID() dhcpv6.DUID { return h.DUID }

func setup(args []string) (pipeline.Handler, error) {
	if len(args) < 2 {
		return nil, errors.New("serverid: need a DUID type and value")
	}
	duidType := strings.ToLower(args[0])
	value := args[1]
	if value == "" {
		return nil, errors.New("serverid: got empty DUID value")
	}

	var d dhcpv6.DUID
	switch duidType {
	case "ll", "duid-ll", "duid_ll":
		hwaddr, err := net.ParseMAC(value)
		if err != nil {
			return nil, err
		}
		d = dhcpv6.NewDUIDLL(1, hwaddr)
	case "llt", "duid-llt", "duid_llt":
		hwaddr, err := net.ParseMAC(value)
		if err != nil {
			return nil, err
		}
		d = &dhcpv6.DUIDLLT{HWType: 1, Time: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), LinkLayerAddr: hwaddr}
	case "en", "duid-en", "duid_en":
		parts := strings.SplitN(value, ":", 2)
		if len(parts) != 2 {
			return nil, errors.New("serverid: DUID-EN value must be enterprise:identifier-hex")
		}
		ent, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			return nil, errors.New("serverid: invalid enterprise number")
		}
		ident, err := hex.DecodeString(parts[1])
		if err != nil {
			return nil, errors.New("serverid: invalid identifier hex")
		}
		d = &dhcpv6.DUIDEN{EnterpriseNumber: uint32(ent), Identifier: ident}
	case "uuid":
		raw, err := hex.DecodeString(strings.ReplaceAll(value, "-", ""))
		if err != nil || len(raw) != 16 {
			return nil, errors.New("serverid: invalid UUID value")
		}
		var u [16]byte
		copy(u[:], raw)
		d = &dhcpv6.DUIDUUID{UUID: u}
	default:
		return nil, errors.New("serverid: unknown DUID type, want ll|llt|en|uuid")
	}

	log.Printf("using server DUID %s", d)
	return &Handler{DUID: d}, nil
}

// Pre discards messages addressed to a different server, or that violate
// RFC 8415's rules about which message types may/must carry a ServerID
// (spec.md §7: handlers express "drop" as ErrIgnoreMessage).
func (h *Handler) Pre(ctx context.Context, b *bundle.Bundle) error {
	sidOpt, hasSid := b.Request.Options.Get(dhcpv6.OptionServerID)

	switch b.Request.MessageType {
	case dhcpv6.MessageTypeSolicit, dhcpv6.MessageTypeConfirm, dhcpv6.MessageTypeRebind:
		// RFC 8415 §16.{2,5,7}: MUST be discarded if they contain a
		// ServerID at all.
		if hasSid {
			return pipeline.ErrIgnoreMessage
		}
		return nil
	case dhcpv6.MessageTypeRequest, dhcpv6.MessageTypeRenew,
		dhcpv6.MessageTypeDecline, dhcpv6.MessageTypeRelease:
		// RFC 8415 §16.{6,8,10,11}: MUST be discarded if they don't.
		if !hasSid {
			return pipeline.ErrIgnoreMessage
		}
	}

	if hasSid {
		sid := sidOpt.(*dhcpv6.OptServerID).DUID
		if !sid.Equal(h.DUID) {
			log.Debugf("requested server ID does not match this server's ID: got %s, want %s", sid, h.DUID)
			return pipeline.ErrIgnoreMessage
		}
	}
	return nil
}
