// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium
// Based on: https://github.com/cilium/cilium/commit/32d2ef8e0445a79b1979312f33e0b514ca7650a5

// Package lock wraps the sync primitives so that building with the
// "lockdebug" tag swaps in deadlock detection.
package lock

type RWMutex struct {
	internalRWMutex
}

type Mutex struct {
	internalMutex
}

// Value is a T guarded by a RWMutex. The zero value holds the zero T.
type Value[T any] struct {
	mu RWMutex
	v  T
}

func (v *Value[T]) Load() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.v
}

func (v *Value[T]) Store(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.v = val
}
