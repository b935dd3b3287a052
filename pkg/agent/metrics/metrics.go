// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const namespace = "magnum_proxy"

var (
	SyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_total",
		Help:      "Number of reconcile ticks by result.",
	}, []string{"result"})
	SyncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Time in seconds spent in one reconcile tick.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
	ProxiedClusters = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "proxied_clusters",
		Help:      "Number of clusters proxied by this host.",
	})
	UnservedClusters = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unserved_clusters",
		Help:      "Number of clusters that need a proxy but have no endpoint slice from any host.",
	})
	HAProxyReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "haproxy_reloads_total",
		Help:      "Number of HAProxy start and reload calls.",
	}, []string{"action", "result"})
	EndpointSlicesCollected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "endpoint_slices_collected_total",
		Help:      "Number of expired endpoint slices deleted by this host.",
	})
	BackendUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backend_up",
		Help:      "Whether the local HAProxy reports the cluster backend as UP.",
	}, []string{"cluster"})
)

func MetricCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		SyncTotal,
		SyncDuration,
		ProxiedClusters,
		UnservedClusters,
		HAProxyReloads,
		EndpointSlicesCollected,
		BackendUp,
	}
}

var registerOnce sync.Once

func RegisterMetricCollectors() {
	registerOnce.Do(func() {
		for _, collector := range MetricCollectors() {
			metrics.Registry.MustRegister(collector)
		}
	})
}
