// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent/haproxy"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent/metrics"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/lock"
)

type NamespaceLister interface {
	List() ([]string, error)
	Usable(name string) bool
}

type Configurator interface {
	Sync(ctx context.Context, data []byte) (bool, error)
}

type HealthChecker interface {
	Refresh(ctx context.Context) error
	Healthy(backend string) bool
}

type Options struct {
	Namespace string
	Host      Host
	Always    bool

	// HAProxy holds everything but the backends.
	HAProxy haproxy.Params

	Interval time.Duration
	Window   time.Duration

	Namespaces   NamespaceLister
	Configurator Configurator
	Health       HealthChecker

	Now func() time.Time
}

// Proxy runs the periodic reconcile of one replica. Replicas never
// coordinate directly, each one only writes slices keyed by its hostname.
type Proxy struct {
	client client.Client
	opts   Options
	log    *zap.Logger

	lastSync lock.Value[time.Time]
}

func NewProxy(c client.Client, opts Options, log *zap.Logger) *Proxy {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Proxy{
		client: c,
		opts:   opts,
		log:    log.Named("proxy").With(zap.String("host", opts.Host.Name)),
	}
}

// Start runs a sync immediately and then every interval until ctx is done.
func (p *Proxy) Start(ctx context.Context) error {
	p.log.Info("starting proxy sync loop",
		zap.Duration("interval", p.opts.Interval),
		zap.Duration("window", p.opts.Window),
		zap.String("ip", p.opts.Host.IP),
		zap.Int32("port", p.opts.Host.Port))

	wait.UntilWithContext(ctx, p.tick, p.opts.Interval)
	return nil
}

// NeedLeaderElection is false, every replica proxies independently.
func (p *Proxy) NeedLeaderElection() bool {
	return false
}

func (p *Proxy) tick(ctx context.Context) {
	start := p.opts.Now()
	defer func() {
		if r := recover(); r != nil {
			metrics.SyncTotal.WithLabelValues("panic").Inc()
			p.log.Error("recovered from panic in sync", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	err := p.Sync(ctx)
	metrics.SyncDuration.Observe(p.opts.Now().Sub(start).Seconds())
	if err != nil {
		metrics.SyncTotal.WithLabelValues("failure").Inc()
		p.log.Error("sync aborted, retrying on next tick", zap.Error(err))
		return
	}
	metrics.SyncTotal.WithLabelValues("success").Inc()

	p.lastSync.Store(p.opts.Now())
}

// Sync runs one reconcile. Steps are sequential and the first failing
// step ends the run.
func (p *Proxy) Sync(ctx context.Context) error {
	inv, err := listInventory(ctx, p.client, p.opts.Namespace)
	if err != nil {
		return err
	}

	namespaces, err := p.opts.Namespaces.List()
	if err != nil {
		return err
	}
	clusters := inv.Project(namespaces, p.opts.Namespaces.Usable, p.opts.Always, p.log)
	metrics.ProxiedClusters.Set(float64(len(clusters)))

	if err := p.syncHAProxy(ctx, clusters); err != nil {
		return err
	}
	p.markHealthy(ctx, clusters)

	if err := p.syncServices(ctx, clusters, inv.Names()); err != nil {
		return fmt.Errorf("failed to sync services: %w", err)
	}
	if err := p.syncEndpointSlices(ctx, clusters); err != nil {
		return fmt.Errorf("failed to sync endpoint slices: %w", err)
	}
	if err := p.syncKubeconfigs(ctx, clusters); err != nil {
		return fmt.Errorf("failed to sync kubeconfigs: %w", err)
	}
	live, err := p.collectStaleEndpointSlices(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect stale endpoint slices: %w", err)
	}
	p.reportUnserved(inv, live)
	return nil
}

func (p *Proxy) syncHAProxy(ctx context.Context, clusters []ProxiedCluster) error {
	params := p.opts.HAProxy
	params.Backends = make([]haproxy.Backend, 0, len(clusters))
	for _, c := range clusters {
		params.Backends = append(params.Backends, c.Backend(p.opts.Namespace))
	}

	data, err := haproxy.Render(params)
	if err != nil {
		return err
	}
	_, err = p.opts.Configurator.Sync(ctx, data)
	return err
}

// markHealthy must run after the HAProxy sync so nothing is published
// for a backend HAProxy does not serve yet.
func (p *Proxy) markHealthy(ctx context.Context, clusters []ProxiedCluster) {
	if err := p.opts.Health.Refresh(ctx); err != nil {
		p.log.Info("haproxy stats unavailable, treating all backends as down", zap.Error(err))
	}
	metrics.BackendUp.Reset()
	for i := range clusters {
		clusters[i].Healthy = p.opts.Health.Healthy(clusters[i].BackendName(p.opts.Namespace))
		up := 0.0
		if clusters[i].Healthy {
			up = 1
		}
		metrics.BackendUp.WithLabelValues(clusters[i].Name).Set(up)
	}
}

// ReadyzCheck fails when no sync succeeded within three intervals.
func (p *Proxy) ReadyzCheck(_ *http.Request) error {
	last := p.lastSync.Load()

	if last.IsZero() {
		return fmt.Errorf("no successful sync yet")
	}
	if age := p.opts.Now().Sub(last); age > 3*p.opts.Interval {
		return fmt.Errorf("last successful sync was %v ago", age.Truncate(time.Second))
	}
	return nil
}
