// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package leasequery

import (
	"database/sql"
	"fmt"
	"net"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dhcpv6d/dhcpv6d/bundle"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
)

// SQLiteStore is the built-in Store implementation, backed by
// github.com/mattn/go-sqlite3 (spec.md §4.6's "built-in SQLite-backed
// implementation", grounded on the teacher's external-store pattern in
// plugins/consul_range, swapping the KV backend for a SQL one).
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS leases (
	client_duid  BLOB NOT NULL,
	iaid         INTEGER NOT NULL,
	link_address TEXT NOT NULL,
	address      TEXT NOT NULL,
	prefix_len   INTEGER NOT NULL,
	preferred    INTEGER NOT NULL,
	valid        INTEGER NOT NULL,
	last_txn     INTEGER NOT NULL,
	remote_id    BLOB,
	relay_id     BLOB,
	PRIMARY KEY (client_duid, iaid, address)
);
`

// OpenSQLite opens (creating if necessary) a SQLite-backed leasequery
// store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("leasequery: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("leasequery: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Record persists one row per IA_NA/IA_TA address or IA_PD prefix present
// in b.Response, called from a handler's Post phase once the response is
// known to be a Reply (spec.md §4.6).
func (s *SQLiteStore) Record(b *bundle.Bundle) error {
	if b.Response == nil || b.Response.MessageType != dhcpv6.MessageTypeReply {
		return nil
	}
	clientID, ok := b.Request.Options.Get(dhcpv6.OptionClientID)
	if !ok {
		return nil
	}
	duidBytes := clientID.(*dhcpv6.OptClientID).DUID.ToBytes()

	var linkAddr net.IP
	if len(b.Relays) > 0 {
		linkAddr = b.Relays[len(b.Relays)-1].LinkAddr
	}

	var remoteID, relayID []byte
	if opt, ok := b.GetRelayOption(dhcpv6.OptionRemoteID, true); ok {
		remoteID = opt.(*dhcpv6.OptRemoteID).RemoteID
	}
	if opt, ok := b.GetRelayOption(dhcpv6.OptionInterfaceID, true); ok {
		relayID = opt.(*dhcpv6.OptInterfaceID).ID
	}

	now := time.Now().Unix()

	for _, opt := range b.Response.Options.GetAll(dhcpv6.OptionIANA) {
		ia := opt.(*dhcpv6.OptIANA)
		for _, sub := range ia.Options.GetAll(dhcpv6.OptionIAAddr) {
			addr := sub.(*dhcpv6.OptIAAddress)
			if err := s.upsert(duidBytes, ia.IAID, linkAddr, addr.IPv6Addr, 0,
				addr.PreferredLifetime, addr.ValidLifetime, now, remoteID, relayID); err != nil {
				return err
			}
		}
	}
	for _, opt := range b.Response.Options.GetAll(dhcpv6.OptionIATA) {
		ia := opt.(*dhcpv6.OptIATA)
		for _, sub := range ia.Options.GetAll(dhcpv6.OptionIAAddr) {
			addr := sub.(*dhcpv6.OptIAAddress)
			if err := s.upsert(duidBytes, ia.IAID, linkAddr, addr.IPv6Addr, 0,
				addr.PreferredLifetime, addr.ValidLifetime, now, remoteID, relayID); err != nil {
				return err
			}
		}
	}
	for _, opt := range b.Response.Options.GetAll(dhcpv6.OptionIAPD) {
		ia := opt.(*dhcpv6.OptIAPD)
		for _, sub := range ia.Options.GetAll(dhcpv6.OptionIAPrefix) {
			pfx := sub.(*dhcpv6.OptIAPrefix)
			if err := s.upsert(duidBytes, ia.IAID, linkAddr, pfx.Prefix, pfx.PrefixLength,
				pfx.PreferredLifetime, pfx.ValidLifetime, now, remoteID, relayID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SQLiteStore) upsert(duid []byte, iaid uint32, linkAddr, addr net.IP, prefixLen uint8,
	preferred, valid uint32, lastTxn int64, remoteID, relayID []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO leases (client_duid, iaid, link_address, address, prefix_len, preferred, valid, last_txn, remote_id, relay_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_duid, iaid, address) DO UPDATE SET
			preferred=excluded.preferred, valid=excluded.valid, last_txn=excluded.last_txn,
			remote_id=excluded.remote_id, relay_id=excluded.relay_id
	`, duid, iaid, linkAddr.String(), addr.String(), prefixLen, preferred, valid, lastTxn, remoteID, relayID)
	if err != nil {
		return fmt.Errorf("leasequery: upsert: %w", err)
	}
	return nil
}

// Query answers a LeaseQuery filter against the stored records.
func (s *SQLiteStore) Query(f Filter) ([]Record, error) {
	query := "SELECT client_duid, iaid, link_address, address, prefix_len, preferred, valid, last_txn, remote_id, relay_id FROM leases WHERE 1=1"
	var args []interface{}
	if f.ClientDUID != nil {
		query += " AND client_duid = ?"
		args = append(args, f.ClientDUID)
	}
	if f.LinkAddress != nil {
		query += " AND link_address = ?"
		args = append(args, f.LinkAddress.String())
	}
	if f.Address != nil {
		query += " AND address = ?"
		args = append(args, f.Address.String())
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("leasequery: query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                     Record
			linkAddr, addr        string
			lastTxn               int64
		)
		if err := rows.Scan(&r.ClientDUID, &r.IAID, &linkAddr, &addr, &r.PrefixLength,
			&r.PreferredLife, &r.ValidLife, &lastTxn, &r.RemoteID, &r.RelayID); err != nil {
			return nil, fmt.Errorf("leasequery: scan: %w", err)
		}
		r.LinkAddress = net.ParseIP(linkAddr)
		r.AssignedAddress = net.ParseIP(addr)
		r.LastClientTxTime = time.Unix(lastTxn, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}
