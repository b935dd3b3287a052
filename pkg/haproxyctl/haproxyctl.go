// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package haproxyctl holds the privileged half of the proxy: starting the
// HAProxy master and signalling it to reload. It is only linked into the
// helper binary.
package haproxyctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const DefaultStartTimeout = 5 * time.Second

type StartOptions struct {
	HAProxy string
	Config  string
	PIDFile string
	// LogFile receives HAProxy output, it is discarded when empty.
	LogFile string
	// StartTimeout is how long HAProxy must survive to count as started.
	StartTimeout time.Duration
}

// Start launches HAProxy in master-worker mode in its own session so it
// outlives the caller. A master already recorded in the PID file is
// reloaded and adopted instead.
func Start(ctx context.Context, opts StartOptions, log *zap.Logger) (int, error) {
	if opts.HAProxy == "" {
		opts.HAProxy = "haproxy"
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = DefaultStartTimeout
	}

	if pid, err := ReadPIDFile(opts.PIDFile); err == nil && Alive(pid) {
		log.Info("adopting running haproxy", zap.Int("pid", pid))
		if err := signalReload(pid); err != nil {
			return 0, err
		}
		return pid, nil
	}

	out, err := openOutput(opts.LogFile)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	cmd := exec.Command(opts.HAProxy, "-W", "-f", opts.Config, "-p", opts.PIDFile)
	cmd.Stdin = nil
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.SysProcAttr = sysProcAttr(log)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", opts.HAProxy, err)
	}
	pid := cmd.Process.Pid
	log.Info("haproxy launched", zap.Int("pid", pid), zap.String("config", opts.Config))

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(opts.StartTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return 0, fmt.Errorf("haproxy failed to start: %w", err)
		}
		// a daemonized master hands over through the PID file
		if daemon, perr := ReadPIDFile(opts.PIDFile); perr == nil && Alive(daemon) {
			return daemon, nil
		}
		return 0, errors.New("haproxy exited right after start")
	case <-timer.C:
		log.Info("haproxy started successfully", zap.Int("pid", pid))
		return pid, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Reload sends SIGUSR2 to pid, or to the PID recorded in pidFile when pid
// is not positive.
func Reload(pid int, pidFile string) (int, error) {
	if pid <= 0 {
		var err error
		pid, err = ReadPIDFile(pidFile)
		if err != nil {
			return 0, err
		}
	}
	if err := signalReload(pid); err != nil {
		return 0, err
	}
	return pid, nil
}

func signalReload(pid int) error {
	if err := unix.Kill(pid, unix.SIGUSR2); err != nil {
		return fmt.Errorf("failed to signal haproxy %d: %w", pid, err)
	}
	return nil
}

func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read pid file: %w", err)
	}
	// HAProxy writes one line per master, the first one is ours
	first, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %s: %q", path, first)
	}
	return pid, nil
}

// Alive reports whether a process with pid exists.
func Alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func openOutput(path string) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open haproxy log %s: %w", path, err)
	}
	return f, nil
}
