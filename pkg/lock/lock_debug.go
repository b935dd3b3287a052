// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

//go:build lockdebug

package lock

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

func init() {
	deadlock.Opts.DeadlockTimeout = 310 * time.Second
}

type internalRWMutex struct {
	deadlock.RWMutex
}

type internalMutex struct {
	deadlock.Mutex
}
