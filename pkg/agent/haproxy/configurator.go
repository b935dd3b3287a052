// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package haproxy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent/metrics"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/lock"
)

// Configurator keeps the local HAProxy in line with the rendered
// configuration. The hash only moves forward once HAProxy accepted the file.
type Configurator struct {
	path       string
	supervisor Supervisor
	log        *zap.Logger

	mu   lock.Mutex
	hash string
	pid  int
}

func NewConfigurator(path string, supervisor Supervisor, log *zap.Logger) *Configurator {
	return &Configurator{
		path:       path,
		supervisor: supervisor,
		log:        log.Named("haproxy"),
	}
}

func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Sync writes data and starts or reloads HAProxy when it differs from
// what HAProxy last accepted. It reports whether HAProxy was touched.
func (c *Configurator) Sync(ctx context.Context, data []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := Hash(data)
	if hash == c.hash {
		return false, nil
	}

	c.log.Info("detected configuration change", zap.String("hash", hash), zap.String("path", c.path))

	if err := writeFileAtomic(c.path, data); err != nil {
		return false, err
	}

	if c.pid == 0 {
		pid, err := c.supervisor.Start(ctx, c.path)
		if err != nil {
			metrics.HAProxyReloads.WithLabelValues("start", "failure").Inc()
			c.log.Error("failed to start haproxy", zap.Error(err))
			return false, fmt.Errorf("failed to start haproxy: %w", err)
		}
		metrics.HAProxyReloads.WithLabelValues("start", "success").Inc()
		c.log.Info("haproxy started", zap.Int("pid", pid))
		c.pid = pid
	} else {
		if err := c.supervisor.Reload(ctx, c.pid); err != nil {
			metrics.HAProxyReloads.WithLabelValues("reload", "failure").Inc()
			c.log.Error("failed to reload haproxy, will start it on next sync",
				zap.Int("pid", c.pid), zap.Error(err))
			c.pid = 0
			return false, fmt.Errorf("failed to reload haproxy: %w", err)
		}
		metrics.HAProxyReloads.WithLabelValues("reload", "success").Inc()
		c.log.Info("haproxy reloaded", zap.Int("pid", c.pid))
	}

	c.hash = hash
	return true, nil
}

// Hash returns the hash of the configuration HAProxy last accepted.
func (c *Configurator) Hash() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hash
}

func (c *Configurator) PID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pid
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", tmp.Name(), path, err)
	}
	return nil
}
