// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	discoveryv1 "k8s.io/api/discovery/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// syncEndpointSlices publishes this host's reachability for every healthy
// cluster and withdraws it for the rest. Every surviving slice gets a new
// timestamp, which is the liveness heartbeat peers look at. Slices are
// selected by the node label alone so ones published without the
// proxied-service marker are still owned here and get it added.
func (p *Proxy) syncEndpointSlices(ctx context.Context, clusters []ProxiedCluster) error {
	hostname := p.opts.Host.Name

	list := new(discoveryv1.EndpointSliceList)
	err := p.client.List(ctx, list,
		client.InNamespace(p.opts.Namespace),
		client.MatchingLabels{NodeLabel: hostname})
	if err != nil {
		return err
	}

	wanted := make(map[string]ProxiedCluster, len(clusters))
	for _, c := range clusters {
		wanted[c.EndpointSliceName(hostname)] = c
	}

	var errs []error
	existing := make(map[string]*discoveryv1.EndpointSlice, len(list.Items))
	for i := range list.Items {
		slice := &list.Items[i]
		c, ok := wanted[slice.Name]
		switch {
		case !ok:
			p.log.Info("deleting endpoint slice since it is not proxied on this host", zap.String("endpointslice", slice.Name))
		case !c.Healthy:
			p.log.Info("deleting endpoint slice since the backend is unhealthy", zap.String("endpointslice", slice.Name))
		default:
			existing[slice.Name] = slice
			continue
		}
		if err := p.client.Delete(ctx, slice); err != nil && !apierrors.IsNotFound(err) {
			errs = append(errs, err)
		}
	}

	for _, c := range clusters {
		if !c.Healthy {
			continue
		}
		if err := p.ensureEndpointSlice(ctx, c, existing[c.EndpointSliceName(hostname)]); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

func (p *Proxy) ensureEndpointSlice(ctx context.Context, c ProxiedCluster, slice *discoveryv1.EndpointSlice) error {
	host := p.opts.Host
	name := c.EndpointSliceName(host.Name)
	log := p.log.With(zap.String("endpointslice", name))
	now := p.opts.Now()

	if slice == nil {
		found := new(discoveryv1.EndpointSlice)
		err := p.client.Get(ctx, client.ObjectKey{Namespace: p.opts.Namespace, Name: name}, found)
		switch {
		case err == nil:
			slice = found
		case !apierrors.IsNotFound(err):
			return err
		}
	}

	if slice == nil {
		log.Info("creating endpoint slice")
		slice = &discoveryv1.EndpointSlice{
			ObjectMeta: metav1.ObjectMeta{
				Name:        name,
				Namespace:   p.opts.Namespace,
				Labels:      c.EndpointSliceLabels(host.Name),
				Annotations: c.EndpointSliceAnnotations(now),
			},
			AddressType: discoveryv1.AddressTypeIPv4,
			Endpoints:   c.Endpoints(host),
			Ports:       c.EndpointSlicePorts(host.Port),
		}
		err := p.client.Create(ctx, slice)
		if apierrors.IsAlreadyExists(err) {
			log.Info("endpoint slice already exists, will reconcile on next sync")
			return nil
		}
		return err
	}

	updated := slice.DeepCopy()
	if updated.Annotations == nil {
		updated.Annotations = map[string]string{}
	}
	updated.Annotations[TimestampAnnotation] = FormatTimestamp(now)

	if diff := cmp.Diff(slice.Labels, c.EndpointSliceLabels(host.Name)); diff != "" {
		log.Info("endpoint slice labels drifted", zap.String("diff", diff))
		updated.Labels = c.EndpointSliceLabels(host.Name)
	}
	if diff := cmp.Diff(canonicalEndpoints(slice.Endpoints), c.Endpoints(host)); diff != "" {
		log.Info("endpoint slice endpoints drifted", zap.String("diff", diff))
		updated.Endpoints = c.Endpoints(host)
	}
	if diff := cmp.Diff(slice.Ports, c.EndpointSlicePorts(host.Port)); diff != "" {
		log.Info("endpoint slice ports drifted", zap.String("diff", diff))
		updated.Ports = c.EndpointSlicePorts(host.Port)
	}

	err := p.client.Update(ctx, updated)
	if apierrors.IsConflict(err) || apierrors.IsNotFound(err) {
		log.Info("endpoint slice changed underneath us, will reconcile on next sync", zap.Error(err))
		return nil
	}
	return err
}

// canonicalEndpoints keeps only the fields this host publishes.
func canonicalEndpoints(endpoints []discoveryv1.Endpoint) []discoveryv1.Endpoint {
	res := make([]discoveryv1.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		res = append(res, discoveryv1.Endpoint{
			Addresses:  ep.Addresses,
			Conditions: discoveryv1.EndpointConditions{Ready: ep.Conditions.Ready},
			NodeName:   ep.NodeName,
		})
	}
	return res
}
