// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/ptr"

	infrav1 "github.com/vexxhost/magnum-cluster-api-sub000/pkg/k8s/apis/infrastructure/v1beta1"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/logger"
)

func TestProject(t *testing.T) {
	namespaces := []string{"qdhcp-net-1111", "qrouter-net-1111", "qrouter-net-2222"}

	cases := map[string]struct {
		obj    *infrav1.OpenStackCluster
		always bool
		exp    []ProxiedCluster
	}{
		"floating ip disabled": {
			obj: openstackCluster("kube-c", "net-1111", "10.6.0.2", true),
			exp: []ProxiedCluster{{Name: "kube-c", Namespace: "qdhcp-net-1111", InternalIP: "10.6.0.2"}},
		},
		"floating ip enabled": {
			obj: openstackCluster("kube-c", "net-1111", "10.6.0.2", false),
			exp: []ProxiedCluster{},
		},
		"floating ip enabled and forced": {
			obj:    openstackCluster("kube-c", "net-2222", "10.6.0.2", false),
			always: true,
			exp:    []ProxiedCluster{{Name: "kube-c", Namespace: "qrouter-net-2222", InternalIP: "10.6.0.2"}},
		},
		"floating ip unset": {
			obj: func() *infrav1.OpenStackCluster {
				obj := openstackCluster("kube-c", "net-1111", "10.6.0.2", true)
				obj.Spec.DisableAPIServerFloatingIP = nil
				return obj
			}(),
			exp: []ProxiedCluster{},
		},
		"no network yet": {
			obj: func() *infrav1.OpenStackCluster {
				obj := openstackCluster("kube-c", "net-1111", "10.6.0.2", true)
				obj.Status.Network = nil
				return obj
			}(),
			exp: []ProxiedCluster{},
		},
		"no load balancer yet": {
			obj: func() *infrav1.OpenStackCluster {
				obj := openstackCluster("kube-c", "net-1111", "10.6.0.2", true)
				obj.Status.APIServerLoadBalancer = nil
				return obj
			}(),
			exp: []ProxiedCluster{},
		},
		"no internal ip": {
			obj: openstackCluster("kube-c", "net-1111", "", true),
			exp: []ProxiedCluster{},
		},
		"no local namespace": {
			obj:    openstackCluster("kube-c", "net-3333", "10.6.0.2", true),
			always: true,
			exp:    []ProxiedCluster{},
		},
		"no cluster name label": {
			obj: func() *infrav1.OpenStackCluster {
				obj := openstackCluster("kube-c", "net-1111", "10.6.0.2", true)
				obj.Labels = nil
				return obj
			}(),
			exp: []ProxiedCluster{},
		},
	}

	log := logger.NewStdoutLogger("debug")
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			inv := &Inventory{Clusters: []infrav1.OpenStackCluster{*c.obj}}
			assert.Equal(t, c.exp, inv.Project(namespaces, nil, c.always, log))
		})
	}
}

func TestInventoryNamesAndEligible(t *testing.T) {
	unlabelled := openstackCluster("kube-x", "net-9999", "10.9.0.2", true)
	unlabelled.Labels = nil
	pending := openstackCluster("kube-p", "net-5555", "10.5.0.2", true)
	pending.Status.Network = nil

	inv := &Inventory{Clusters: []infrav1.OpenStackCluster{
		*openstackCluster("kube-a", "net-1111", "10.6.0.2", true),
		*openstackCluster("kube-b", "net-2222", "10.7.0.2", false),
		*pending,
		*unlabelled,
	}}

	assert.Equal(t, sets.New("kube-a", "kube-b", "kube-p"), inv.Names())
	assert.Equal(t, sets.New("kube-a"), inv.Eligible(false))
	assert.Equal(t, sets.New("kube-a", "kube-b"), inv.Eligible(true))
}

func TestListInventory(t *testing.T) {
	other := openstackCluster("kube-o", "net-1111", "10.6.0.2", true)
	other.Namespace = "elsewhere"
	cli := newFakeClient(
		openstackCluster("kube-b", "net-2222", "10.7.0.2", true),
		openstackCluster("kube-a", "net-1111", "10.6.0.2", true),
		other,
	)

	inv, err := listInventory(context.Background(), cli, testNamespace)
	require.NoError(t, err)
	require.Len(t, inv.Clusters, 2)
	assert.Equal(t, "kube-a-7xkzq", inv.Clusters[0].Name)
	assert.Equal(t, "kube-b-7xkzq", inv.Clusters[1].Name)
	assert.Equal(t, ptr.To(true), inv.Clusters[0].Spec.DisableAPIServerFloatingIP)
}
