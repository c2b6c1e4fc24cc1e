// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// This is the dhcpv6ctl control client: it sends one command line to a
// running dhcpv6d's control socket and prints the response (spec.md §6).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dhcpv6d/dhcpv6d/control"
)

func main() {
	socket := flag.String("c", "/var/run/dhcpv6d.sock", "control socket path")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: dhcpv6ctl [-c socket] command [args...]")
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	lines, isErr, err := control.Send(*socket, cmd, args, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dhcpv6ctl: %v\n", err)
		os.Exit(1)
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	if isErr {
		os.Exit(1)
	}
}
