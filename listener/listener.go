// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package listener implements the three Listener variants from spec.md §3,
// §4.5: per-interface UDP multicast, UDP unicast, and a TCP bulk
// leasequery acceptor. Each owns its sockets for the lifetime of the
// server process.
package listener

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv6"

	"github.com/dhcpv6d/dhcpv6d/config"
	"github.com/dhcpv6d/dhcpv6d/logger"
)

var log = logger.GetLogger("listener")

// IncomingPacket is handed from a listener's read loop to the master's
// work queue: listener name, interface, source/destination addresses,
// payload bytes, and marks (spec.md §3). Its lifetime runs from listener
// read until a worker consumes it; it never crosses processes except as
// (bytes, metadata).
type IncomingPacket struct {
	ListenerName string
	Interface    string
	Src          net.Addr
	Dst          net.IP
	Payload      []byte
	Marks        []string

	// Reply sends b back to whoever sent this packet, through the
	// listener that received it.
	Reply func(b []byte) error
}

// Listener is anything that can be run to feed a channel of
// IncomingPackets and eventually be closed.
type Listener interface {
	Name() string
	Run(out chan<- IncomingPacket)
	Close() error
}

// New constructs the concrete Listener for one ListenerConfig entry.
func New(cfg config.ListenerConfig) (Listener, error) {
	switch cfg.Kind {
	case config.ListenerMulticast:
		return newUDPListener(cfg, true)
	case config.ListenerUnicast:
		return newUDPListener(cfg, false)
	case config.ListenerTCP:
		return newTCPListener(cfg)
	default:
		return nil, fmt.Errorf("listener: unknown kind %d", cfg.Kind)
	}
}

// udpListener is the multicast or unicast UDP variant. For multicast, it
// joins the DHCPv6 server/relay-agent group on a specific interface
// (grounded on mdlayher/dhcp6's ListenAndServe/JoinGroup idiom, using
// golang.org/x/net/ipv6 the way the teacher's own dependency tree already
// requires golang.org/x/net).
type udpListener struct {
	cfg       config.ListenerConfig
	multicast bool
	conn      *net.UDPConn
	pconn     *ipv6.PacketConn
	ifIndex   int
	name      string
}

func newUDPListener(cfg config.ListenerConfig, multicast bool) (*udpListener, error) {
	conn, err := net.ListenUDP("udp6", &cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("listener: listen %s: %w", cfg.Address.String(), err)
	}

	l := &udpListener{
		cfg:       cfg,
		multicast: multicast,
		conn:      conn,
		name:      fmt.Sprintf("udp6/%s%%%s", cfg.Address.IP, cfg.Interface),
	}

	if multicast && cfg.Interface != "" {
		iface, err := net.InterfaceByName(cfg.Interface)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("listener: interface %s: %w", cfg.Interface, err)
		}
		p := ipv6.NewPacketConn(conn)
		if err := p.SetControlMessage(ipv6.FlagInterface, true); err != nil {
			conn.Close()
			return nil, err
		}
		if err := p.JoinGroup(iface, &net.IPAddr{IP: cfg.Address.IP}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("listener: join group %s on %s: %w", cfg.Address.IP, cfg.Interface, err)
		}
		l.pconn = p
		l.ifIndex = iface.Index
	}

	return l, nil
}

func (l *udpListener) Name() string { return l.name }

func (l *udpListener) Close() error {
	if l.pconn != nil {
		_ = l.pconn.LeaveGroup(nil, &net.IPAddr{IP: l.cfg.Address.IP})
	}
	return l.conn.Close()
}

// Run reads datagrams until the socket is closed, emitting one
// IncomingPacket per read (spec.md §4.4: "select -> read one datagram").
func (l *udpListener) Run(out chan<- IncomingPacket) {
	buf := make([]byte, 4096)
	for {
		var (
			n    int
			addr net.Addr
			err  error
		)
		if l.pconn != nil {
			var cm *ipv6.ControlMessage
			n, cm, addr, err = l.pconn.ReadFrom(buf)
			if err == nil && cm != nil && cm.IfIndex != l.ifIndex {
				continue
			}
		} else {
			n, addr, err = l.conn.ReadFrom(buf)
		}
		if err != nil {
			return
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		remote := addr

		out <- IncomingPacket{
			ListenerName: l.name,
			Interface:    l.cfg.Interface,
			Src:          addr,
			Dst:          l.cfg.Address.IP,
			Payload:      payload,
			Marks:        append([]string{}, l.cfg.Marks...),
			Reply: func(b []byte) error {
				_, err := l.conn.WriteTo(b, remote)
				return err
			},
		}
	}
}

// tcpListener accepts connections for bulk leasequery, framing each
// message with a 2-byte big-endian length prefix (spec.md §4.5).
type tcpListener struct {
	cfg      config.ListenerConfig
	listener *net.TCPListener
	name     string
}

func newTCPListener(cfg config.ListenerConfig) (*tcpListener, error) {
	l, err := net.ListenTCP("tcp6", &cfg.TCPAddress)
	if err != nil {
		return nil, fmt.Errorf("listener: listen tcp %s: %w", cfg.TCPAddress.String(), err)
	}
	return &tcpListener{cfg: cfg, listener: l, name: fmt.Sprintf("tcp6/%s", cfg.TCPAddress.String())}, nil
}

func (l *tcpListener) Name() string  { return l.name }
func (l *tcpListener) Close() error  { return l.listener.Close() }

func (l *tcpListener) allowed(addr net.Addr) bool {
	if len(l.cfg.AllowFrom) == 0 {
		return true
	}
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return false
	}
	for _, n := range l.cfg.AllowFrom {
		if n.Contains(tcpAddr.IP) {
			return true
		}
	}
	return false
}

// Run accepts connections up to cfg.MaxConnections concurrently, each
// served by readFramed in its own goroutine (grounded on the teacher's
// server/handle.go Serve() read-loop idiom).
func (l *tcpListener) Run(out chan<- IncomingPacket) {
	sem := make(chan struct{}, l.cfg.MaxConnections)
	for {
		conn, err := l.listener.AcceptTCP()
		if err != nil {
			return
		}
		if !l.allowed(conn.RemoteAddr()) {
			log.Printf("%s: rejecting connection from %s: not in allow-from", l.name, conn.RemoteAddr())
			conn.Close()
			continue
		}
		select {
		case sem <- struct{}{}:
		default:
			log.Printf("%s: max-connections reached, rejecting %s", l.name, conn.RemoteAddr())
			conn.Close()
			continue
		}
		go func() {
			defer func() { <-sem }()
			l.readFramed(conn, out)
		}()
	}
}

func (l *tcpListener) readFramed(conn *net.TCPConn, out chan<- IncomingPacket) {
	defer conn.Close()
	for {
		var lenBuf [2]byte
		if _, err := readFull(conn, lenBuf[:]); err != nil {
			return
		}
		msgLen := int(lenBuf[0])<<8 | int(lenBuf[1])
		payload := make([]byte, msgLen)
		if _, err := readFull(conn, payload); err != nil {
			return
		}

		out <- IncomingPacket{
			ListenerName: l.name,
			Src:          conn.RemoteAddr(),
			Marks:        append([]string{}, l.cfg.Marks...),
			Payload:      payload,
			Reply: func(b []byte) error {
				var prefix [2]byte
				prefix[0] = byte(len(b) >> 8)
				prefix[1] = byte(len(b))
				if _, err := conn.Write(prefix[:]); err != nil {
					return err
				}
				_, err := conn.Write(b)
				return err
			},
		}
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
