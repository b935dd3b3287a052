// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"

	"go.uber.org/zap"
	discoveryv1 "k8s.io/api/discovery/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent/metrics"
)

// collectStaleEndpointSlices deletes proxied slices of any host whose
// heartbeat is older than the liveness window. It returns the names of the
// clusters that still have at least one live slice.
func (p *Proxy) collectStaleEndpointSlices(ctx context.Context) (sets.Set[string], error) {
	list := new(discoveryv1.EndpointSliceList)
	err := p.client.List(ctx, list,
		client.InNamespace(p.opts.Namespace),
		client.MatchingLabels{ServiceLabel: "true"})
	if err != nil {
		return nil, err
	}

	now := p.opts.Now()
	live := sets.New[string]()
	var errs []error
	for i := range list.Items {
		slice := &list.Items[i]
		log := p.log.With(zap.String("endpointslice", slice.Name))

		value, ok := slice.Annotations[TimestampAnnotation]
		if !ok {
			log.Error("endpoint slice has no timestamp, leaving it alone")
			live.Insert(slice.Labels[ClusterLabel])
			continue
		}
		ts, err := ParseTimestamp(value)
		if err != nil {
			log.Error("failed to parse endpoint slice timestamp, leaving it alone", zap.Error(err))
			live.Insert(slice.Labels[ClusterLabel])
			continue
		}

		age := now.Sub(ts)
		if age <= p.opts.Window {
			live.Insert(slice.Labels[ClusterLabel])
			continue
		}

		log.Info("deleting expired endpoint slice",
			zap.String("owner", slice.Labels[NodeLabel]),
			zap.Duration("age", age))
		// the cached copy may be behind a fresh heartbeat from its owner
		err = p.client.Delete(ctx, slice, client.Preconditions{ResourceVersion: &slice.ResourceVersion})
		switch {
		case apierrors.IsConflict(err):
			log.Info("endpoint slice was refreshed before it was collected, leaving it alone")
			live.Insert(slice.Labels[ClusterLabel])
			continue
		case apierrors.IsNotFound(err):
			continue
		case err != nil:
			errs = append(errs, err)
			continue
		}
		metrics.EndpointSlicesCollected.Inc()
	}
	return live, utilerrors.NewAggregate(errs)
}

// reportUnserved surfaces clusters that need a proxy but that no host
// currently publishes.
func (p *Proxy) reportUnserved(inv *Inventory, live sets.Set[string]) {
	unserved := inv.Eligible(p.opts.Always).Difference(live)
	metrics.UnservedClusters.Set(float64(unserved.Len()))
	for _, name := range sets.List(unserved) {
		p.log.Info("cluster is not served by any proxy host", zap.String("cluster", name))
	}
}
