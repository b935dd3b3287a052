// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/sets"
	clusterv1 "sigs.k8s.io/cluster-api/api/v1beta1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent/netns"
	infrav1 "github.com/vexxhost/magnum-cluster-api-sub000/pkg/k8s/apis/infrastructure/v1beta1"
)

var (
	ErrMalformedTimestamp  = errors.New("malformed timestamp")
	ErrMalformedKubeconfig = errors.New("malformed kubeconfig")
)

// Inventory is the set of infrastructure clusters in the management namespace.
type Inventory struct {
	Clusters []infrav1.OpenStackCluster
}

func listInventory(ctx context.Context, c client.Reader, namespace string) (*Inventory, error) {
	list := new(infrav1.OpenStackClusterList)
	if err := c.List(ctx, list, client.InNamespace(namespace)); err != nil {
		return nil, fmt.Errorf("failed to list OpenStackClusters: %w", err)
	}
	items := list.Items
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return &Inventory{Clusters: items}, nil
}

// ClusterName is the workload cluster name an infrastructure cluster belongs to.
func ClusterName(obj *infrav1.OpenStackCluster) (string, bool) {
	name, ok := obj.GetLabels()[clusterv1.ClusterNameLabel]
	return name, ok && name != ""
}

// Names returns every cluster name in the inventory, proxied here or not.
func (inv *Inventory) Names() sets.Set[string] {
	res := sets.New[string]()
	for i := range inv.Clusters {
		if name, ok := ClusterName(&inv.Clusters[i]); ok {
			res.Insert(name)
		}
	}
	return res
}

// Eligible returns the names of clusters that need a proxy, whether or
// not this host has a namespace for them.
func (inv *Inventory) Eligible(always bool) sets.Set[string] {
	res := sets.New[string]()
	for i := range inv.Clusters {
		obj := &inv.Clusters[i]
		name, ok := ClusterName(obj)
		if !ok || !wantsProxy(obj, always) {
			continue
		}
		if networkID(obj) == "" || internalIP(obj) == "" {
			continue
		}
		res.Insert(name)
	}
	return res
}

// Project maps the inventory to the clusters this host can proxy. namespaces
// must be sorted, and a namespace usable rejects is passed over.
func (inv *Inventory) Project(namespaces []string, usable func(string) bool, always bool, log *zap.Logger) []ProxiedCluster {
	res := make([]ProxiedCluster, 0, len(inv.Clusters))
	for i := range inv.Clusters {
		obj := &inv.Clusters[i]
		if c, ok := project(obj, namespaces, usable, always, log); ok {
			res = append(res, c)
		}
	}
	return res
}

func project(obj *infrav1.OpenStackCluster, namespaces []string, usable func(string) bool, always bool, log *zap.Logger) (ProxiedCluster, bool) {
	log = log.With(zap.String("openstackcluster", obj.Name))

	name, ok := ClusterName(obj)
	if !ok {
		log.Info("skipping OpenStackCluster without cluster name label", zap.String("label", clusterv1.ClusterNameLabel))
		return ProxiedCluster{}, false
	}
	if !wantsProxy(obj, always) {
		return ProxiedCluster{}, false
	}

	id := networkID(obj)
	if id == "" {
		log.Debug("no network ID found")
		return ProxiedCluster{}, false
	}
	ip := internalIP(obj)
	if ip == "" {
		log.Debug("no internal API server address found")
		return ProxiedCluster{}, false
	}

	ns, ok := netns.Match(namespaces, id, usable)
	if !ok {
		log.Debug("no usable namespace found for network", zap.String("network", id))
		return ProxiedCluster{}, false
	}

	return ProxiedCluster{
		Name:       name,
		Namespace:  ns,
		InternalIP: ip,
	}, true
}

func wantsProxy(obj *infrav1.OpenStackCluster, always bool) bool {
	if always {
		return true
	}
	return obj.Spec.DisableAPIServerFloatingIP != nil && *obj.Spec.DisableAPIServerFloatingIP
}

func networkID(obj *infrav1.OpenStackCluster) string {
	if obj.Status.Network == nil {
		return ""
	}
	return obj.Status.Network.ID
}

func internalIP(obj *infrav1.OpenStackCluster) string {
	if obj.Status.APIServerLoadBalancer == nil {
		return ""
	}
	return obj.Status.APIServerLoadBalancer.InternalIP
}
