// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package worker

import (
	"sync"
	"time"
)

// watchdog implements the sliding-window crash-rate check from spec.md
// §4.4: a worker crash that exceeds the configured rate trips the
// watchdog; below the rate, it is merely logged and the worker continues.
type watchdog struct {
	mu       sync.Mutex
	window   time.Duration
	maxCount int
	crashes  []time.Time
}

func newWatchdog(window time.Duration, maxCount int) *watchdog {
	return &watchdog{window: window, maxCount: maxCount}
}

// trip records a crash and reports whether the rate threshold has been
// exceeded within the window.
func (w *watchdog) trip() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-w.window)
	kept := w.crashes[:0]
	for _, t := range w.crashes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	w.crashes = kept

	return len(w.crashes) > w.maxCount
}
