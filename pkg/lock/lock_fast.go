// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

//go:build !lockdebug

package lock

import "sync"

type internalRWMutex struct {
	sync.RWMutex
}

type internalMutex struct {
	sync.Mutex
}
