// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/cluster-api/util/secret"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// syncKubeconfigs points the admin kubeconfig of every proxied cluster at
// its service DNS name.
func (p *Proxy) syncKubeconfigs(ctx context.Context, clusters []ProxiedCluster) error {
	var errs []error
	for _, c := range clusters {
		if err := p.rewriteKubeconfig(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

func (p *Proxy) rewriteKubeconfig(ctx context.Context, c ProxiedCluster) error {
	name := c.KubeconfigSecretName()
	log := p.log.With(zap.String("secret", name))

	s := new(corev1.Secret)
	err := p.client.Get(ctx, client.ObjectKey{Namespace: p.opts.Namespace, Name: name}, s)
	if apierrors.IsNotFound(err) {
		log.Debug("kubeconfig secret does not exist yet")
		return nil
	}
	if err != nil {
		return err
	}

	data, ok := s.Data[secret.KubeconfigDataName]
	if !ok {
		log.Debug("kubeconfig secret has no data yet", zap.String("key", secret.KubeconfigDataName))
		return nil
	}

	server := c.ServerURL(p.opts.Namespace)
	out, changed, err := RewriteServer(data, server)
	if err != nil {
		log.Error("failed to parse kubeconfig, leaving it alone", zap.Error(err))
		return nil
	}
	if !changed {
		return nil
	}

	log.Info("updating kubeconfig server", zap.String("server", server))
	updated := s.DeepCopy()
	updated.Data[secret.KubeconfigDataName] = out
	err = p.client.Update(ctx, updated)
	if apierrors.IsConflict(err) {
		log.Info("kubeconfig secret changed underneath us, will retry on next sync", zap.Error(err))
		return nil
	}
	return err
}

// RewriteServer sets the server of the first cluster entry in kubeconfig.
// Data is returned as is when the server already matches.
func RewriteServer(kubeconfig []byte, server string) ([]byte, bool, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(kubeconfig, &doc); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedKubeconfig, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, false, fmt.Errorf("%w: empty document", ErrMalformedKubeconfig)
	}

	clusters := mappingValue(doc.Content[0], "clusters")
	if clusters == nil || clusters.Kind != yaml.SequenceNode || len(clusters.Content) == 0 {
		return nil, false, fmt.Errorf("%w: no clusters", ErrMalformedKubeconfig)
	}
	cluster := mappingValue(clusters.Content[0], "cluster")
	if cluster == nil {
		return nil, false, fmt.Errorf("%w: first cluster entry has no cluster", ErrMalformedKubeconfig)
	}
	node := mappingValue(cluster, "server")
	if node == nil || node.Kind != yaml.ScalarNode {
		return nil, false, fmt.Errorf("%w: first cluster entry has no server", ErrMalformedKubeconfig)
	}

	if node.Value == server {
		return kubeconfig, false, nil
	}
	node.Value = server
	node.Tag = "!!str"
	node.Style = 0

	buf := new(bytes.Buffer)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, false, err
	}
	if err := enc.Close(); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
