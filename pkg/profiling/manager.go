// Copyright 2022 Authors of spidernet-io
// SPDX-License-Identifier: Apache-2.0

// Package profiling exposes the proxy process to gops and pyroscope. Both
// runnables are optional and stop with the manager.
package profiling

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/gops/agent"
	"github.com/pyroscope-io/client/pyroscope"
)

const ApplicationName = "magnum-cluster-api-proxy"

// GoPS listens for gops clients on Port while the manager runs. Port 0
// leaves it off.
type GoPS struct {
	Port int
	Log  logr.Logger
}

func (g *GoPS) Start(ctx context.Context) error {
	if g.Port == 0 {
		return nil
	}
	addr := fmt.Sprintf(":%d", g.Port)
	if err := agent.Listen(agent.Options{Addr: addr}); err != nil {
		return fmt.Errorf("failed to start gops on %s: %w", addr, err)
	}
	g.Log.Info("gops listening", "addr", addr)
	defer agent.Close()

	<-ctx.Done()
	return nil
}

func (g *GoPS) NeedLeaderElection() bool {
	return false
}

// Pyroscope pushes profiles of this replica to Addr. Every replica tags its
// profiles with its host and management namespace so they can be told apart.
type Pyroscope struct {
	Addr      string
	HostName  string
	Namespace string
	Log       logr.Logger
}

func (p *Pyroscope) tags() map[string]string {
	tags := map[string]string{"node": p.HostName}
	if p.Namespace != "" {
		tags["namespace"] = p.Namespace
	}
	return tags
}

func (p *Pyroscope) Start(ctx context.Context) error {
	if p.Addr == "" {
		return nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: ApplicationName,
		ServerAddress:   p.Addr,
		Tags:            p.tags(),
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start pyroscope: %w", err)
	}
	p.Log.Info("pyroscope started", "server", p.Addr, "tags", p.tags())

	<-ctx.Done()
	return profiler.Stop()
}

func (p *Pyroscope) NeedLeaderElection() bool {
	return false
}
