// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"

	discoveryv1 "k8s.io/api/discovery/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Clean withdraws every endpoint slice published by hostname. It is used
// when a host is drained so peers do not wait for the liveness window.
func Clean(ctx context.Context, cli client.Client, namespace, hostname string) ([]string, error) {
	list := new(discoveryv1.EndpointSliceList)
	err := cli.List(ctx, list,
		client.InNamespace(namespace),
		client.MatchingLabels{NodeLabel: hostname})
	if err != nil {
		return nil, err
	}

	deleted := make([]string, 0, len(list.Items))
	for i := range list.Items {
		item := &list.Items[i]
		if err := cli.Delete(ctx, item); err != nil && !apierrors.IsNotFound(err) {
			return deleted, err
		}
		deleted = append(deleted, item.Name)
	}
	return deleted, nil
}
