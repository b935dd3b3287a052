// Copyright 2022 Authors of spidernet-io
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"go.uber.org/zap"
	"k8s.io/utils/exec"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent/haproxy"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent/hostnet"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent/metrics"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent/netns"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/config"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/logger"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/profiling"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/schema"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/types"
)

type Agent struct {
	client  client.Client
	manager manager.Manager
	proxy   *Proxy
}

func New(cfg *config.Config, log *zap.Logger) (types.Service, error) {
	mgrOpts := manager.Options{
		Scheme:                 schema.GetScheme(),
		Logger:                 logr.New(logger.NewLogSink(log, cfg.KLOGLevel)),
		HealthProbeBindAddress: cfg.HealthProbeBindAddress,
		Metrics:                metricsserver.Options{BindAddress: cfg.MetricsBindAddress},
		Cache: cache.Options{
			DefaultNamespaces: map[string]cache.Config{cfg.ManagementNamespace: {}},
		},
	}

	mgr, err := ctrl.NewManager(cfg.KubeConfig, mgrOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create manager: %w", err)
	}

	metrics.RegisterMetricCollectors()

	ip, err := hostnet.AdvertiseIP(cfg.PodIP, hostnet.DefaultNetLink())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve advertised address: %w", err)
	}
	port, err := hostnet.FindFreePort(cfg.ProxyPort)
	if err != nil {
		return nil, err
	}
	if cfg.ProxyPort != 0 && port != cfg.ProxyPort {
		log.Sugar().Infof("port %d is taken, using %d instead", cfg.ProxyPort, port)
	}

	supervisor := haproxy.NewHelperSupervisor(exec.New(), cfg.HAProxyHelper, cfg.HAProxyBinary, cfg.HAProxyPIDPath, log)
	proxy := NewProxy(mgr.GetClient(), Options{
		Namespace: cfg.ManagementNamespace,
		Host: Host{
			Name: cfg.NodeName,
			IP:   ip,
			Port: int32(port),
		},
		Always: cfg.ProxyAlways,
		HAProxy: haproxy.Params{
			PIDFile:        cfg.HAProxyPIDPath,
			AdminSocket:    cfg.HAProxyAdminSocket,
			Bind:           cfg.ProxyBind,
			Port:           port,
			MaxConn:        cfg.FileConfig.HAProxy.MaxConn,
			TimeoutConnect: cfg.FileConfig.HAProxy.TimeoutConnect,
			TimeoutClient:  cfg.FileConfig.HAProxy.TimeoutClient,
			TimeoutServer:  cfg.FileConfig.HAProxy.TimeoutServer,
		},
		Interval:     cfg.SyncInterval,
		Window:       cfg.LivenessWindow,
		Namespaces:   netns.NewProber(cfg.NetNSRunDir, netns.DefaultNetNS()),
		Configurator: haproxy.NewConfigurator(cfg.ConfigFile(), supervisor, log),
		Health:       haproxy.NewHealthChecker(cfg.HAProxyAdminSocket, log),
	}, log)

	if err := mgr.Add(proxy); err != nil {
		return nil, fmt.Errorf("failed to add proxy: %w", err)
	}

	err = mgr.AddHealthzCheck("healthz", healthz.Ping)
	if err != nil {
		return nil, fmt.Errorf("failed to AddHealthzCheck: %w", err)
	}
	err = mgr.AddReadyzCheck("readyz", proxy.ReadyzCheck)
	if err != nil {
		return nil, fmt.Errorf("failed to AddReadyzCheck: %w", err)
	}

	profilingLog := mgr.GetLogger().WithName("profiling")
	err = mgr.Add(&profiling.GoPS{Port: cfg.GopsPort, Log: profilingLog})
	if err != nil {
		return nil, fmt.Errorf("failed to add gops: %w", err)
	}
	err = mgr.Add(&profiling.Pyroscope{
		Addr:      cfg.PyroscopeServerAddr,
		HostName:  cfg.NodeName,
		Namespace: cfg.ManagementNamespace,
		Log:       profilingLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add pyroscope: %w", err)
	}

	return &Agent{
		client:  mgr.GetClient(),
		manager: mgr,
		proxy:   proxy,
	}, nil
}

// Start blocks until ctx is done. HAProxy is left running on exit so
// clients stay routable across restarts.
func (c *Agent) Start(ctx context.Context) error {
	errChan := make(chan error)
	go func() {
		errChan <- c.manager.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errChan:
		return err
	}
}
