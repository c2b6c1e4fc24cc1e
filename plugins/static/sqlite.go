// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package static

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const staticSchema = `
CREATE TABLE IF NOT EXISTS static_assignments (
	lookup_key   TEXT PRIMARY KEY,
	address      TEXT NOT NULL,
	preferred    INTEGER NOT NULL DEFAULT 0,
	valid        INTEGER NOT NULL DEFAULT 0
);
`

// sqliteStore is a read path onto a table an operator populates out of
// band (e.g. from provisioning tooling), mirroring the read/write split of
// plugins/consul_range's external key-value store.
type sqliteStore struct {
	db *sql.DB
}

func newSQLiteStore(path string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("static: open %s: %w", path, err)
	}
	if _, err := db.Exec(staticSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("static: create schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) lookup(key string) (record, bool) {
	var rec record
	row := s.db.QueryRow("SELECT address, preferred, valid FROM static_assignments WHERE lookup_key = ?", key)
	if err := row.Scan(&rec.Address, &rec.PreferredLifetime, &rec.ValidLifetime); err != nil {
		return record{}, false
	}
	return rec, true
}

func (s *sqliteStore) count() int {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM static_assignments").Scan(&n); err != nil {
		return 0
	}
	return n
}
