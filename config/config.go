// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package config loads and validates the YAML configuration file describing
// listeners, the plugin/filter plan, and server-level settings (spec.md §6).
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/dhcpv6d/dhcpv6d/logger"
)

var log = logger.GetLogger("config")

// DefaultServerPort is the well-known DHCPv6 server/relay port (RFC 8415
// §7.2).
const DefaultServerPort = 547

// ListenerKind tags which Listener variant a ListenerConfig describes
// (spec.md §3).
type ListenerKind int

const (
	ListenerMulticast ListenerKind = iota
	ListenerUnicast
	ListenerTCP
)

// ListenerConfig is one entry under server6.listen.
type ListenerConfig struct {
	Kind ListenerKind

	// Multicast/unicast UDP fields.
	Address       net.UDPAddr
	Interface     string
	ReplyFrom     net.IP
	ListenToSelf  bool

	// TCP-specific fields (bulk leasequery, spec.md §4.5).
	TCPAddress     net.TCPAddr
	MaxConnections int
	AllowFrom      []*net.IPNet

	Marks []string
}

// PluginConfig holds the configuration of one plugin or filter entry: a
// registered factory name plus its string arguments (spec.md §6).
type PluginConfig struct {
	Name string
	Args []string
}

// ServerConfig holds the DHCPv6 server's configuration.
type ServerConfig struct {
	Listen        []ListenerConfig
	Plugins       []PluginConfig
	ControlSocket string
	PIDFile       string
	QueueSize     int
	Workers       int
	DropUID       int
	DropGID       int
	RelayHopLimit uint8
	// Deadline is the per-bundle soft processing deadline (spec.md §5).
	Deadline time.Duration
}

// Config is the top-level parsed configuration.
type Config struct {
	v       *viper.Viper
	Server6 *ServerConfig
}

// New returns a new initialized Config.
func New() *Config {
	return &Config{v: viper.New()}
}

// Load reads a configuration file and returns a Config, or an error.
func Load(pathOverride string) (*Config, error) {
	log.Print("Loading configuration")
	c := New()
	c.v.SetConfigType("yml")
	if pathOverride != "" {
		c.v.SetConfigFile(pathOverride)
	} else {
		c.v.SetConfigName("config")
		c.v.AddConfigPath(".")
		c.v.AddConfigPath("$XDG_CONFIG_HOME/dhcpv6d/")
		c.v.AddConfigPath("$HOME/.dhcpv6d/")
		c.v.AddConfigPath("/etc/dhcpv6d/")
	}

	if err := c.v.ReadInConfig(); err != nil {
		return nil, err
	}
	sc, err := c.parseServer6()
	if err != nil {
		return nil, err
	}
	c.Server6 = sc
	return c, nil
}

func (c *Config) parseServer6() (*ServerConfig, error) {
	if exists := c.v.Get("server6"); exists == nil {
		return nil, ConfigErrorFromString("no server6 configuration found")
	}

	plugins, err := c.getPlugins()
	if err != nil {
		return nil, err
	}
	for _, p := range plugins {
		log.Printf("found plugin `%s` with %d args: %v", p.Name, len(p.Args), p.Args)
	}

	listeners, err := c.parseListen()
	if err != nil {
		return nil, err
	}

	sc := &ServerConfig{
		Listen:        listeners,
		Plugins:       plugins,
		ControlSocket: c.v.GetString("server6.control-socket"),
		PIDFile:       c.v.GetString("server6.pid-file"),
		QueueSize:     c.v.GetInt("server6.queue-size"),
		Workers:       c.v.GetInt("server6.workers"),
		DropUID:       c.v.GetInt("server6.drop-uid"),
		DropGID:       c.v.GetInt("server6.drop-gid"),
		RelayHopLimit: 32,
		Deadline:      c.v.GetDuration("server6.deadline"),
	}
	if sc.QueueSize == 0 {
		sc.QueueSize = 256
	}
	if sc.Workers == 0 {
		sc.Workers = 4
	}
	if sc.ControlSocket == "" {
		sc.ControlSocket = "/var/run/dhcpv6d.sock"
	}
	if sc.Deadline == 0 {
		sc.Deadline = 5 * time.Second
	}
	if hl := c.v.GetInt("server6.relay-hop-limit"); hl > 0 {
		sc.RelayHopLimit = uint8(hl)
	}
	return sc, nil
}

func parsePlugins(pluginList []interface{}) ([]PluginConfig, error) {
	plugins := make([]PluginConfig, 0, len(pluginList))
	for idx, val := range pluginList {
		conf := cast.ToStringMap(val)
		if conf == nil {
			return nil, ConfigErrorFromString("plugin #%d is not a string map", idx)
		}
		if len(conf) != 1 {
			return nil, ConfigErrorFromString("exactly one plugin per item can be specified")
		}
		var (
			name string
			args []string
		)
		for k, v := range conf {
			name = k
			args = strings.Fields(cast.ToString(v))
			break
		}
		plugins = append(plugins, PluginConfig{Name: name, Args: args})
	}
	return plugins, nil
}

func (c *Config) getPlugins() ([]PluginConfig, error) {
	pluginList := cast.ToSlice(c.v.Get("server6.plugins"))
	if pluginList == nil {
		return nil, ConfigErrorFromString("invalid plugins section, not a list or no plugin specified")
	}
	return parsePlugins(pluginList)
}

// splitHostPort splits an address of the form ip%zone:port into ip, zone
// and port, tolerating any of the three being absent (grounded on the
// teacher's config.splitHostPort).
func splitHostPort(hostport string) (ip string, zone string, port string, err error) {
	ip, port, err = net.SplitHostPort(hostport)
	if err != nil {
		var altErr error
		if ip, _, altErr = net.SplitHostPort(hostport + ":0"); altErr != nil {
			return
		}
		err = nil
	}
	if i := strings.LastIndexByte(ip, '%'); i >= 0 {
		ip, zone = ip[:i], ip[i+1:]
	}
	return
}

func (c *Config) getUDPListenAddress(addr string) (*net.UDPAddr, error) {
	ipStr, ifname, portStr, err := splitHostPort(addr)
	if err != nil {
		return nil, ConfigErrorFromString("%v", err)
	}

	ip := net.ParseIP(ipStr)
	if ipStr == "" {
		ip = net.IPv6unspecified
	}
	if ip == nil {
		return nil, ConfigErrorFromString("invalid IP address in `listen` directive: %s", ipStr)
	}
	if ip.To4() != nil {
		return nil, ConfigErrorFromString("not a valid IPv6 address in `listen` directive: %s", ipStr)
	}

	port := DefaultServerPort
	if portStr != "" {
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return nil, ConfigErrorFromString("invalid `listen` port '%s'", portStr)
		}
	}

	return &net.UDPAddr{IP: ip, Port: port, Zone: ifname}, nil
}

// expandLLMulticast turns a bare link-local/interface-local multicast
// address with no zone into one zoned copy of the address per
// multicast-capable interface (grounded on the teacher's
// config.expandLLMulticast).
func expandLLMulticast(addr *net.UDPAddr) ([]net.UDPAddr, error) {
	if !addr.IP.IsLinkLocalMulticast() && !addr.IP.IsInterfaceLocalMulticast() {
		return nil, errors.New("address is not multicast")
	}
	if addr.Zone != "" {
		return nil, errors.New("address is already zoned")
	}

	ifs, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("could not list network interfaces: %w", err)
	}
	ret := make([]net.UDPAddr, 0, len(ifs))
	for _, iface := range ifs {
		if iface.Flags&net.FlagMulticast != net.FlagMulticast {
			continue
		}
		caddr := *addr
		caddr.Zone = iface.Name
		ret = append(ret, caddr)
	}
	if len(ret) == 0 {
		return nil, errors.New("no suitable interface found for multicast listener")
	}
	return ret, nil
}

// allDHCPv6RelayAgentsAndServers is ff02::1:2 (RFC 8415 §7.1).
var allDHCPv6RelayAgentsAndServers = net.ParseIP("ff02::1:2")

func defaultListen() ([]ListenerConfig, error) {
	addrs, err := expandLLMulticast(&net.UDPAddr{IP: allDHCPv6RelayAgentsAndServers, Port: DefaultServerPort})
	if err != nil {
		return nil, err
	}
	out := make([]ListenerConfig, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, ListenerConfig{Kind: ListenerMulticast, Address: a, Interface: a.Zone})
	}
	return out, nil
}

func (c *Config) parseListen() ([]ListenerConfig, error) {
	raw := c.v.Get("server6.listen")
	if raw == nil {
		return defaultListen()
	}

	items := cast.ToSlice(raw)
	if items == nil {
		items = []interface{}{raw}
	}

	var out []ListenerConfig
	for _, item := range items {
		entry := cast.ToStringMap(item)
		if entry == nil {
			// A bare string entry means "multicast/unicast UDP at this address".
			lc, err := c.parseUDPListenerEntry(map[string]interface{}{"address": item})
			if err != nil {
				return nil, err
			}
			out = append(out, lc...)
			continue
		}
		kind := cast.ToString(entry["kind"])
		switch kind {
		case "tcp":
			lc, err := c.parseTCPListenerEntry(entry)
			if err != nil {
				return nil, err
			}
			out = append(out, *lc)
		default:
			lc, err := c.parseUDPListenerEntry(entry)
			if err != nil {
				return nil, err
			}
			out = append(out, lc...)
		}
	}
	return out, nil
}

func (c *Config) parseUDPListenerEntry(entry map[string]interface{}) ([]ListenerConfig, error) {
	addrStr := cast.ToString(entry["address"])
	l, err := c.getUDPListenAddress(addrStr)
	if err != nil {
		return nil, err
	}
	marks := cast.ToStringSlice(entry["marks"])
	listenToSelf := cast.ToBool(entry["listen-to-self"])
	var replyFrom net.IP
	if rf := cast.ToString(entry["reply-from"]); rf != "" {
		replyFrom = net.ParseIP(rf)
	}

	if l.Zone == "" && (l.IP.IsLinkLocalMulticast() || l.IP.IsInterfaceLocalMulticast()) {
		expanded, err := expandLLMulticast(l)
		if err != nil {
			return nil, err
		}
		out := make([]ListenerConfig, 0, len(expanded))
		for _, a := range expanded {
			out = append(out, ListenerConfig{
				Kind: ListenerMulticast, Address: a, Interface: a.Zone,
				ReplyFrom: replyFrom, ListenToSelf: listenToSelf, Marks: marks,
			})
		}
		return out, nil
	}

	kind := ListenerUnicast
	if l.IP.IsMulticast() {
		kind = ListenerMulticast
	}
	return []ListenerConfig{{
		Kind: kind, Address: *l, Interface: l.Zone,
		ReplyFrom: replyFrom, ListenToSelf: listenToSelf, Marks: marks,
	}}, nil
}

func (c *Config) parseTCPListenerEntry(entry map[string]interface{}) (*ListenerConfig, error) {
	addrStr := cast.ToString(entry["address"])
	ipStr, ifname, portStr, err := splitHostPort(addrStr)
	if err != nil {
		return nil, ConfigErrorFromString("%v", err)
	}
	ip := net.ParseIP(ipStr)
	if ipStr == "" {
		ip = net.IPv6unspecified
	}
	if ip == nil {
		return nil, ConfigErrorFromString("invalid TCP listen address: %s", ipStr)
	}
	port := DefaultServerPort
	if portStr != "" {
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return nil, ConfigErrorFromString("invalid TCP listen port: %s", portStr)
		}
	}

	maxConn := cast.ToInt(entry["max-connections"])
	if maxConn == 0 {
		maxConn = 64
	}

	var allowFrom []*net.IPNet
	for _, cidr := range cast.ToStringSlice(entry["allow-from"]) {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, ConfigErrorFromString("invalid allow-from CIDR %q: %v", cidr, err)
		}
		allowFrom = append(allowFrom, n)
	}

	return &ListenerConfig{
		Kind:           ListenerTCP,
		TCPAddress:     net.TCPAddr{IP: ip, Port: port, Zone: ifname},
		Interface:      ifname,
		MaxConnections: maxConn,
		AllowFrom:      allowFrom,
		Marks:          cast.ToStringSlice(entry["marks"]),
	}, nil
}
