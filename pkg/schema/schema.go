// Copyright 2022 Authors of spidernet-io
// SPDX-License-Identifier: Apache-2.0

// Package schema holds the scheme shared by the manager, the clean command
// and the fake clients in tests.
package schema

import (
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"

	infrav1 "github.com/vexxhost/magnum-cluster-api-sub000/pkg/k8s/apis/infrastructure/v1beta1"
)

var (
	scheme  = runtime.NewScheme()
	builder = runtime.SchemeBuilder{
		clientgoscheme.AddToScheme,
		infrav1.AddToScheme,
	}
)

func init() {
	utilruntime.Must(builder.AddToScheme(scheme))
}

// GetScheme knows the core types plus OpenStackCluster.
func GetScheme() *runtime.Scheme {
	return scheme
}
