// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

// This is the dhcpv6d server binary: load configuration, build the plugin
// pipeline, open listeners, drop privileges, and run the master/worker pool
// until a shutdown signal arrives (spec.md §6).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dhcpv6d/dhcpv6d/config"
	"github.com/dhcpv6d/dhcpv6d/control"
	"github.com/dhcpv6d/dhcpv6d/dhcpv6"
	"github.com/dhcpv6d/dhcpv6d/listener"
	"github.com/dhcpv6d/dhcpv6d/logger"
	"github.com/dhcpv6d/dhcpv6d/pipeline"
	"github.com/dhcpv6d/dhcpv6d/plugins"
	"github.com/dhcpv6d/dhcpv6d/plugins/serverid"
	"github.com/dhcpv6d/dhcpv6d/plugins/unansweredia"
	"github.com/dhcpv6d/dhcpv6d/stats"
	"github.com/dhcpv6d/dhcpv6d/worker"

	"github.com/sirupsen/logrus"

	// Built-in plugins register themselves via init(); blank-importing here
	// is what makes them available to the config's plugins: list, the same
	// role the generated cmds/coredhcp/main.go's desiredPlugins list plays
	// in the teacher.
	_ "github.com/dhcpv6d/dhcpv6d/plugins/elapsedtime"
	_ "github.com/dhcpv6d/dhcpv6d/plugins/ignore"
	_ "github.com/dhcpv6d/dhcpv6d/plugins/leasequery"
	_ "github.com/dhcpv6d/dhcpv6d/plugins/optioncopy"
	_ "github.com/dhcpv6d/dhcpv6d/plugins/preference"
	_ "github.com/dhcpv6d/dhcpv6d/plugins/rapidcommit"
	_ "github.com/dhcpv6d/dhcpv6d/plugins/ratelimit"
	_ "github.com/dhcpv6d/dhcpv6d/plugins/static"
	_ "github.com/dhcpv6d/dhcpv6d/plugins/subnetfilter"
	_ "github.com/dhcpv6d/dhcpv6d/plugins/timinglimits"
)

const (
	exitOK           = 0
	exitConfigError  = 1
	exitRuntimeError = 2
	exitPrivilege    = 3
)

var log = logger.GetLogger("main")

func main() {
	verbose := flagCount{}
	flag.Var(&verbose, "v", "increase verbosity (repeatable)")
	pidFile := flag.String("p", "", "PID file path (overrides configuration)")
	printConfig := flag.Bool("C", false, "print the parsed configuration and exit")
	flag.Parse()

	// Flags may also follow the config-file argument: keep the first
	// positional argument and parse what comes after it as flags.
	var cfgPath string
	if flag.NArg() > 0 {
		cfgPath = flag.Arg(0)
		_ = flag.CommandLine.Parse(flag.Args()[1:])
	}

	switch {
	case verbose.n >= 2:
		log.Logger.SetLevel(logrus.TraceLevel)
	case verbose.n == 1:
		log.Logger.SetLevel(logrus.DebugLevel)
	}

	if cfgPath == "" {
		fmt.Fprintln(os.Stderr, "usage: dhcpv6d config-file [-v...] [-p pidfile] [-C]")
		os.Exit(exitConfigError)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Errorf("failed to load configuration: %v", err)
		os.Exit(exitConfigError)
	}

	if *printConfig {
		fmt.Printf("%+v\n", cfg.Server6)
		os.Exit(exitOK)
	}

	pidPath := cfg.Server6.PIDFile
	if *pidFile != "" {
		pidPath = *pidFile
	}
	if err := writePIDFile(pidPath); err != nil {
		log.Errorf("failed to write PID file %s: %v", pidPath, err)
		os.Exit(exitRuntimeError)
	}
	defer os.Remove(pidPath)

	listeners, err := openListeners(cfg.Server6.Listen)
	if err != nil {
		log.Errorf("failed to open listeners: %v", err)
		os.Exit(exitRuntimeError)
	}

	plan, err := buildPlan(cfg)
	if err != nil {
		log.Errorf("failed to build pipeline: %v", err)
		closeListeners(listeners)
		os.Exit(exitConfigError)
	}

	if err := worker.DropPrivileges(cfg.Server6.DropUID, cfg.Server6.DropGID); err != nil {
		log.Errorf("failed to drop privileges: %v", err)
		closeListeners(listeners)
		os.Exit(exitPrivilege)
	}

	counters := stats.New()
	master := worker.New(listeners, plan, cfg.Server6.QueueSize, cfg.Server6.Workers, counters)
	master.Start()

	ctl, err := control.Listen(cfg.Server6.ControlSocket, control.Handlers{
		Reload: func() error {
			newCfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			newPlan, err := buildPlan(newCfg)
			if err != nil {
				return err
			}
			master.Reload(newPlan)
			return nil
		},
		Shutdown: func() error {
			master.Stop()
			return nil
		},
		Counters: counters,
	})
	if err != nil {
		log.Errorf("failed to open control socket: %v", err)
		os.Exit(exitRuntimeError)
	}
	go ctl.Serve()
	defer ctl.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for s := range sig {
		switch s {
		case syscall.SIGHUP:
			log.Infof("SIGHUP received, reloading configuration")
			newCfg, err := config.Load(cfgPath)
			if err != nil {
				log.Errorf("reload failed: %v", err)
				continue
			}
			newPlan, err := buildPlan(newCfg)
			if err != nil {
				log.Errorf("reload failed: %v", err)
				continue
			}
			master.Reload(newPlan)
		case syscall.SIGTERM, syscall.SIGINT:
			log.Infof("shutting down")
			master.Stop()
			return
		}
	}
}

func openListeners(cfgs []config.ListenerConfig) ([]listener.Listener, error) {
	var out []listener.Listener
	for _, lc := range cfgs {
		l, err := listener.New(lc)
		if err != nil {
			closeListeners(out)
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func closeListeners(ls []listener.Listener) {
	for _, l := range ls {
		l.Close()
	}
}

// buildPlan resolves cfg's plugin list into a pipeline.Plan, appending the
// built-in unanswered-IA fallback as the terminal handler (spec.md §4.3),
// and locates the configured serverid plugin to supply the response's
// server DUID.
func buildPlan(cfg *config.Config) (*worker.Plan, error) {
	pl, err := plugins.Build(cfg.Server6.Plugins)
	if err != nil {
		return nil, err
	}
	pl = append(pl, pipeline.Leaf(unansweredia.New(true)))

	duid := findServerDUID(pl)
	if duid == nil {
		return nil, fmt.Errorf("main: no serverid plugin configured")
	}

	return &worker.Plan{Pipeline: pl, ServerDUID: duid, Deadline: cfg.Server6.Deadline}, nil
}

func findServerDUID(pl pipeline.Pipeline) dhcpv6.DUID {
	for _, n := range pl {
		if n.Handler != nil {
			if sid, ok := n.Handler.(*serverid.Handler); ok {
				return sid.ServerDUID()
			}
		}
		if n.Filter != nil {
			if sid, ok := n.Filter.(*serverid.Handler); ok {
				return sid.ServerDUID()
			}
			if duid := findServerDUID(n.Children); duid != nil {
				return duid
			}
		}
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// flagCount implements flag.Value for a repeatable -v.
type flagCount struct{ n int }

func (f *flagCount) String() string { return strconv.Itoa(f.n) }
func (f *flagCount) Set(string) error {
	f.n++
	return nil
}
func (f *flagCount) IsBoolFlag() bool { return true }
