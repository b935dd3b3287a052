// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	discoveryv1 "k8s.io/api/discovery/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/cluster-api/util/secret"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent/haproxy"
)

const (
	NodeLabel           = "magnum-cluster-api.vexxhost.com/node"
	ClusterLabel        = "magnum-cluster-api.vexxhost.com/proxied-cluster"
	ServiceLabel        = "magnum-cluster-api.vexxhost.com/proxied-service"
	TimestampAnnotation = "magnum-cluster-api.vexxhost.com/timestamp"

	PortName = "https"
)

// Host is what this replica advertises for every cluster it proxies.
type Host struct {
	Name string
	IP   string
	Port int32
}

// ProxiedCluster is a workload cluster this host can reach. It is
// recomputed from observed state on every sync.
type ProxiedCluster struct {
	Name       string
	Namespace  string
	InternalIP string

	// Healthy is set once the local HAProxy reported the backend UP.
	Healthy bool
}

func (c ProxiedCluster) ServiceName() string {
	return c.Name
}

func (c ProxiedCluster) EndpointSliceName(hostname string) string {
	return c.Name + "-" + hostname
}

func (c ProxiedCluster) KubeconfigSecretName() string {
	return secret.Name(c.Name, secret.Kubeconfig)
}

// BackendName is also the service DNS name clients connect to.
func (c ProxiedCluster) BackendName(managementNamespace string) string {
	return c.Name + "." + managementNamespace
}

func (c ProxiedCluster) ServerURL(managementNamespace string) string {
	return fmt.Sprintf("https://%s:%d", c.BackendName(managementNamespace), haproxy.UpstreamPort)
}

func (c ProxiedCluster) Backend(managementNamespace string) haproxy.Backend {
	return haproxy.Backend{
		Name:      c.BackendName(managementNamespace),
		Server:    c.Name,
		Address:   c.InternalIP,
		Namespace: c.Namespace,
	}
}

func (c ProxiedCluster) ServiceLabels() map[string]string {
	return map[string]string{
		ServiceLabel: "true",
		ClusterLabel: c.Name,
	}
}

func (c ProxiedCluster) ServicePorts() []corev1.ServicePort {
	return []corev1.ServicePort{
		{
			Name:       PortName,
			Port:       haproxy.UpstreamPort,
			TargetPort: intstr.FromInt32(haproxy.UpstreamPort),
			Protocol:   corev1.ProtocolTCP,
		},
	}
}

func (c ProxiedCluster) EndpointSliceLabels(hostname string) map[string]string {
	return map[string]string{
		discoveryv1.LabelServiceName: c.ServiceName(),
		NodeLabel:                    hostname,
		ClusterLabel:                 c.Name,
		ServiceLabel:                 "true",
	}
}

func (c ProxiedCluster) EndpointSliceAnnotations(now time.Time) map[string]string {
	return map[string]string{
		TimestampAnnotation: FormatTimestamp(now),
	}
}

func (c ProxiedCluster) Endpoints(host Host) []discoveryv1.Endpoint {
	return []discoveryv1.Endpoint{
		{
			Addresses:  []string{host.IP},
			Conditions: discoveryv1.EndpointConditions{Ready: ptr.To(true)},
			NodeName:   ptr.To(host.Name),
		},
	}
}

func (c ProxiedCluster) EndpointSlicePorts(port int32) []discoveryv1.EndpointPort {
	return []discoveryv1.EndpointPort{
		{
			Name:     ptr.To(PortName),
			Port:     ptr.To(port),
			Protocol: ptr.To(corev1.ProtocolTCP),
		},
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, s, err)
	}
	return t, nil
}
