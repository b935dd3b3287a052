// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1beta1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// OpenStackClusterList contains a list of OpenStackCluster
// +kubebuilder:object:root=true
type OpenStackClusterList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`

	Items []OpenStackCluster `json:"items"`
}

// OpenStackCluster is the infrastructure cluster object created for every
// workload cluster. Unknown fields are dropped on decode, this type is read only.
// +kubebuilder:object:root=true
// +kubebuilder:resource:path=openstackclusters,scope=Namespaced
type OpenStackCluster struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   OpenStackClusterSpec   `json:"spec,omitempty"`
	Status OpenStackClusterStatus `json:"status,omitempty"`
}

type OpenStackClusterSpec struct {
	// +optional
	DisableAPIServerFloatingIP *bool `json:"disableAPIServerFloatingIP,omitempty"`
}

type OpenStackClusterStatus struct {
	// +optional
	Network *NetworkStatus `json:"network,omitempty"`
	// +optional
	APIServerLoadBalancer *LoadBalancer `json:"apiServerLoadBalancer,omitempty"`
}

type NetworkStatus struct {
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

type LoadBalancer struct {
	Name       string `json:"name,omitempty"`
	ID         string `json:"id,omitempty"`
	IP         string `json:"ip,omitempty"`
	InternalIP string `json:"internalIP,omitempty"`
}

func init() {
	SchemeBuilder.Register(&OpenStackCluster{}, &OpenStackClusterList{})
}
