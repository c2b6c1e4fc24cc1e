// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package control implements the local control socket: a newline-terminated
// request/response protocol used by dhcpv6ctl and SIGHUP-equivalent tooling
// (spec.md §6).
package control

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/stats"
)

var log = logger.GetLogger("control")

// Handlers groups the callbacks the control server dispatches named
// commands to. Reload and Shutdown return an error to report back to the
// client as an ERR line.
type Handlers struct {
	Reload   func() error
	Shutdown func() error
	Counters *stats.Counters
}

// Server listens on a Unix domain socket and serves each connection in its
// own goroutine, reading its commands line by line.
type Server struct {
	path     string
	listener *net.UnixListener
	handlers Handlers
}

// Listen creates (or replaces) the control socket at path.
func Listen(path string, h Handlers) (*Server, error) {
	_ = os.Remove(path)
	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("control: resolve %s: %w", path, err)
	}
	l, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("control: listen %s: %w", path, err)
	}
	return &Server{path: path, listener: l, handlers: h}, nil
}

// Serve accepts connections until the listener is closed.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting connections and unlinks the socket file.
func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]
		if !s.dispatch(conn, cmd, args) {
			return
		}
	}
}

// dispatch runs one command, writing its response, and reports whether the
// connection should stay open.
func (s *Server) dispatch(conn net.Conn, cmd string, args []string) bool {
	switch strings.ToLower(cmd) {
	case "help":
		writeBlock(conn, []string{
			"help", "shutdown", "reload", "stats", "stats-json",
		})
	case "shutdown":
		if s.handlers.Shutdown == nil {
			writeErr(conn, "shutdown not supported")
			return true
		}
		if err := s.handlers.Shutdown(); err != nil {
			writeErr(conn, err.Error())
			return true
		}
		writeOK(conn, "shutting down")
		return false
	case "reload":
		if s.handlers.Reload == nil {
			writeErr(conn, "reload not supported")
			return true
		}
		if err := s.handlers.Reload(); err != nil {
			writeErr(conn, err.Error())
			return true
		}
		writeOK(conn, "reloaded")
	case "stats":
		if s.handlers.Counters == nil {
			writeErr(conn, "stats not available")
			return true
		}
		writeBlock(conn, strings.Split(s.handlers.Counters.Text(), "\n"))
	case "stats-json":
		if s.handlers.Counters == nil {
			writeErr(conn, "stats not available")
			return true
		}
		b, err := s.handlers.Counters.JSON()
		if err != nil {
			writeErr(conn, err.Error())
			return true
		}
		writeOK(conn, string(b))
	default:
		writeErr(conn, fmt.Sprintf("unknown command %q", cmd))
	}
	return true
}

func writeOK(conn net.Conn, text string) {
	fmt.Fprintf(conn, "OK %s\n", text)
}

func writeErr(conn net.Conn, text string) {
	fmt.Fprintf(conn, "ERR %s\n", text)
}

// writeBlock writes a multi-line response terminated by a lone "." line
// (spec.md §6).
func writeBlock(conn net.Conn, lines []string) {
	for _, l := range lines {
		fmt.Fprintf(conn, "%s\n", l)
	}
	fmt.Fprintf(conn, ".\n")
}
