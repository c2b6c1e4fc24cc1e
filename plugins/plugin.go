// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// Package plugins holds the factory registry that turns a parsed
// configuration's ordered plugin list into a pipeline.Pipeline
// (spec.md §4.3, §6), generalizing the teacher's Plugin/RegisteredPlugins
// pattern from a flat DHCPv4/DHCPv6 handler pair to the three-phase
// Handler/Filter contract.
package plugins

import (
	"fmt"

	"github.com/dhcpv6d/dhcpv6d/config"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
)

var log = logger.GetLogger("plugins")

// Factory builds a pipeline.Handler from a plugin's configured arguments.
// If the returned Handler also implements pipeline.Filter, the builder
// treats it as an interior node scoping every plugin that follows it in
// the configuration (spec.md §4.3's filter/subtree relationship, adapted
// to a flat configuration list: a filter's "subtree" is everything
// configured after it).
type Factory func(args []string) (pipeline.Handler, error)

// registry maps a plugin name to its Factory. Populated by each plugin
// package's init(), frozen in practice once Build runs (spec.md §4.1's
// registry idiom, reused here for plugins).
var registry = make(map[string]Factory)

// Register adds a Factory under name. Intended to be called from plugin
// package init() functions only.
func Register(name string, f Factory) {
	if _, exists := registry[name]; exists {
		log.Panicf("plugin %q is already registered", name)
	}
	registry[name] = f
}

// Build resolves an ordered list of PluginConfig entries into a
// pipeline.Pipeline. A Factory whose Handler implements pipeline.Filter
// consumes every entry after it as its Children.
func Build(plugins []config.PluginConfig) (pipeline.Pipeline, error) {
	nodes, _, err := build(plugins)
	return nodes, err
}

func build(plugins []config.PluginConfig) (pipeline.Pipeline, int, error) {
	var out pipeline.Pipeline
	i := 0
	for i < len(plugins) {
		pc := plugins[i]
		factory, ok := registry[pc.Name]
		if !ok {
			return nil, 0, fmt.Errorf("plugins: unknown plugin %q", pc.Name)
		}
		h, err := factory(pc.Args)
		if err != nil {
			return nil, 0, fmt.Errorf("plugins: %s: %w", pc.Name, err)
		}
		if f, ok := h.(pipeline.Filter); ok {
			children, consumed, err := build(plugins[i+1:])
			if err != nil {
				return nil, 0, err
			}
			out = append(out, pipeline.Branch(f, children...))
			i += 1 + consumed
			continue
		}
		out = append(out, pipeline.Leaf(h))
		i++
	}
	return out, i, nil
}
