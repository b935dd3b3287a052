// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package haproxyctl

import (
	"os"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// sysProcAttr detaches HAProxy into its own session and, when the helper
// runs unprivileged with file capabilities, passes CAP_NET_ADMIN on as an
// ambient capability.
func sysProcAttr(log *zap.Logger) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{Setsid: true}
	if os.Geteuid() == 0 {
		return attr
	}
	if HasCapability(unix.CAP_NET_ADMIN) {
		attr.AmbientCaps = []uintptr{unix.CAP_NET_ADMIN}
		return attr
	}
	log.Error("helper runs without CAP_NET_ADMIN, haproxy cannot open sockets in tenant namespaces")
	return attr
}

// HasCapability is true when c is both permitted and inheritable, which is
// what raising it as ambient requires.
func HasCapability(c uintptr) bool {
	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_3}
	var data [2]unix.CapUserData
	if err := unix.Capget(&hdr, &data[0]); err != nil {
		return false
	}
	idx, bit := c/32, uint32(1)<<(c%32)
	return data[idx].Permitted&bit != 0 && data[idx].Inheritable&bit != 0
}
