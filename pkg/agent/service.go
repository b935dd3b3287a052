// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// syncServices keeps one selector-less Service per cluster. Deletion is
// driven by the whole inventory since another host may proxy a cluster
// this host cannot reach.
func (p *Proxy) syncServices(ctx context.Context, clusters []ProxiedCluster, names sets.Set[string]) error {
	list := new(corev1.ServiceList)
	err := p.client.List(ctx, list,
		client.InNamespace(p.opts.Namespace),
		client.MatchingLabels{ServiceLabel: "true"})
	if err != nil {
		return err
	}

	var errs []error
	existing := make(map[string]*corev1.Service, len(list.Items))
	for i := range list.Items {
		svc := &list.Items[i]
		if names.Has(svc.Name) {
			existing[svc.Name] = svc
			continue
		}
		p.log.Info("deleting service since the cluster does not exist", zap.String("service", svc.Name))
		if err := p.client.Delete(ctx, svc); err != nil && !apierrors.IsNotFound(err) {
			errs = append(errs, err)
		}
	}

	for _, c := range clusters {
		if err := p.ensureService(ctx, c, existing[c.ServiceName()]); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

func (p *Proxy) ensureService(ctx context.Context, c ProxiedCluster, svc *corev1.Service) error {
	log := p.log.With(zap.String("service", c.ServiceName()))

	if svc == nil {
		// it may exist without our label
		found := new(corev1.Service)
		err := p.client.Get(ctx, client.ObjectKey{Namespace: p.opts.Namespace, Name: c.ServiceName()}, found)
		switch {
		case err == nil:
			svc = found
		case !apierrors.IsNotFound(err):
			return err
		}
	}

	if svc == nil {
		log.Info("creating service")
		svc = &corev1.Service{
			ObjectMeta: metav1.ObjectMeta{
				Name:      c.ServiceName(),
				Namespace: p.opts.Namespace,
				Labels:    c.ServiceLabels(),
			},
			Spec: corev1.ServiceSpec{
				Type:  corev1.ServiceTypeClusterIP,
				Ports: c.ServicePorts(),
			},
		}
		err := p.client.Create(ctx, svc)
		if apierrors.IsAlreadyExists(err) {
			log.Info("service already exists, will reconcile on next sync")
			return nil
		}
		return err
	}

	updated := svc.DeepCopy()
	drift := false
	if diff := cmp.Diff(svc.Labels, c.ServiceLabels()); diff != "" {
		log.Info("service labels drifted", zap.String("diff", diff))
		updated.Labels = c.ServiceLabels()
		drift = true
	}
	if diff := cmp.Diff(canonicalServicePorts(svc.Spec.Ports), c.ServicePorts()); diff != "" {
		log.Info("service ports drifted", zap.String("diff", diff))
		updated.Spec.Ports = c.ServicePorts()
		drift = true
	}
	if len(svc.Spec.Selector) != 0 {
		log.Info("removing service selector", zap.Any("selector", svc.Spec.Selector))
		updated.Spec.Selector = nil
		drift = true
	}
	if !drift {
		return nil
	}

	log.Info("updating service")
	err := p.client.Update(ctx, updated)
	if apierrors.IsConflict(err) || apierrors.IsNotFound(err) {
		log.Info("service changed underneath us, will reconcile on next sync", zap.Error(err))
		return nil
	}
	return err
}

// canonicalServicePorts drops server populated fields.
func canonicalServicePorts(ports []corev1.ServicePort) []corev1.ServicePort {
	res := make([]corev1.ServicePort, 0, len(ports))
	for _, port := range ports {
		res = append(res, corev1.ServicePort{
			Name:       port.Name,
			Port:       port.Port,
			TargetPort: port.TargetPort,
			Protocol:   port.Protocol,
		})
	}
	return res
}
