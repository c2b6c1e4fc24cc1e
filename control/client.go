// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package control

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"
)

// Send dials the control socket at path, writes one command line, and
// returns the response: either a single "OK ..."/"ERR ..." line, or the
// lines of a multi-line block up to (but excluding) the terminating ".".
func Send(path string, cmd string, args []string, timeout time.Duration) (lines []string, isErr bool, err error) {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, false, fmt.Errorf("control: dial %s: %w", path, err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))
	line := cmd
	if len(args) > 0 {
		line = cmd + " " + strings.Join(args, " ")
	}
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		return nil, false, fmt.Errorf("control: write: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	var out []string
	for scanner.Scan() {
		text := scanner.Text()
		if text == "." {
			return out, false, nil
		}
		if strings.HasPrefix(text, "OK ") {
			return []string{strings.TrimPrefix(text, "OK ")}, false, nil
		}
		if strings.HasPrefix(text, "ERR ") {
			return []string{strings.TrimPrefix(text, "ERR ")}, true, nil
		}
		out = append(out, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("control: read: %w", err)
	}
	return out, false, nil
}
