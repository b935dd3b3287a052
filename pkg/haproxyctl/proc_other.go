// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package haproxyctl

import (
	"syscall"

	"go.uber.org/zap"
)

func sysProcAttr(_ *zap.Logger) *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

func HasCapability(_ uintptr) bool {
	return false
}
