// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package static

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// csvStore holds records parsed from a CSV file of the form:
//
//	key,address[,preferred,valid]
//
// where key is "duid:<hex>" or "mac:<mac-string>". Reloaded in full on
// every fsnotify event when autorefresh is enabled (plugins/file's idiom).
type csvStore struct {
	mu      sync.RWMutex
	records map[string]record
	watcher *fsnotify.Watcher
}

func newCSVStore(path string, autorefresh bool) (*csvStore, error) {
	s := &csvStore{}
	if err := s.reload(path); err != nil {
		return nil, err
	}
	if autorefresh {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("static: failed to create watcher: %w", err)
		}
		if err := w.Add(path); err != nil {
			return nil, fmt.Errorf("static: failed to watch %s: %w", path, err)
		}
		s.watcher = w
		go func() {
			for range w.Events {
				if err := s.reload(path); err != nil {
					log.Warningf("static: failed to refresh from %s: %s", path, err)
					continue
				}
				log.Infof("static: reloaded %d records from %s", s.count(), path)
			}
		}()
	}
	return s, nil
}

func (s *csvStore) reload(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("static: %w", err)
	}

	records := make(map[string]record, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			return fmt.Errorf("static: malformed row, want at least key,address: %v", row)
		}
		rec := record{Address: row[1]}
		if len(row) >= 4 {
			p, err := strconv.ParseUint(row[2], 10, 32)
			if err != nil {
				return fmt.Errorf("static: invalid preferred lifetime: %v", row)
			}
			v, err := strconv.ParseUint(row[3], 10, 32)
			if err != nil {
				return fmt.Errorf("static: invalid valid lifetime: %v", row)
			}
			rec.PreferredLifetime = uint32(p)
			rec.ValidLifetime = uint32(v)
		}
		records[row[0]] = rec
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

func (s *csvStore) lookup(key string) (record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

func (s *csvStore) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
