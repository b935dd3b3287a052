// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package haproxy

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"k8s.io/utils/exec"
)

// Supervisor owns the privileged HAProxy process lifecycle.
type Supervisor interface {
	// Start launches HAProxy with configFile and returns its PID.
	Start(ctx context.Context, configFile string) (int, error)
	// Reload asks the HAProxy master at pid to reload its configuration.
	Reload(ctx context.Context, pid int) error
}

// HelperSupervisor delegates to the separately built helper binary, which
// is the only process holding CAP_NET_ADMIN.
type HelperSupervisor struct {
	exec    exec.Interface
	helper  string
	haproxy string
	pidFile string
	log     *zap.Logger
}

func NewHelperSupervisor(e exec.Interface, helper, haproxy, pidFile string, log *zap.Logger) *HelperSupervisor {
	return &HelperSupervisor{
		exec:    e,
		helper:  helper,
		haproxy: haproxy,
		pidFile: pidFile,
		log:     log.Named("supervisor"),
	}
}

func (s *HelperSupervisor) Start(ctx context.Context, configFile string) (int, error) {
	args := []string{
		"start",
		"--config", configFile,
		"--pid-file", s.pidFile,
		"--haproxy", s.haproxy,
	}
	s.log.Debug("running helper", zap.String("helper", s.helper), zap.Strings("args", args))

	out, err := s.exec.CommandContext(ctx, s.helper, args...).Output()
	if err != nil {
		return 0, helperError("start", err)
	}
	pid, err := parsePID(out)
	if err != nil {
		return 0, fmt.Errorf("helper start returned %q: %w", strings.TrimSpace(string(out)), err)
	}
	return pid, nil
}

func (s *HelperSupervisor) Reload(ctx context.Context, pid int) error {
	args := []string{
		"reload",
		"--pid", strconv.Itoa(pid),
		"--pid-file", s.pidFile,
	}
	s.log.Debug("running helper", zap.String("helper", s.helper), zap.Strings("args", args))

	if _, err := s.exec.CommandContext(ctx, s.helper, args...).Output(); err != nil {
		return helperError("reload", err)
	}
	return nil
}

func helperError(action string, err error) error {
	if ee, ok := err.(exec.ExitError); ok {
		return fmt.Errorf("helper %s exited with status %d: %w", action, ee.ExitStatus(), err)
	}
	return fmt.Errorf("helper %s failed: %w", action, err)
}

// parsePID reads the PID from the last non-empty line of the helper output.
func parsePID(out []byte) (int, error) {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	last := strings.TrimSpace(string(lines[len(lines)-1]))
	pid, err := strconv.Atoi(last)
	if err != nil {
		return 0, fmt.Errorf("invalid pid: %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid %d", pid)
	}
	return pid, nil
}
