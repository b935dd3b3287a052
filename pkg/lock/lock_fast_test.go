// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of spidernet-io

//go:build !lockdebug

package lock_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/lock"
)

var _ = Describe("LockFast", Label("unitest"), func() {
	It("serializes writers", func() {
		l := &lock.Mutex{}
		counter := 0
		wg := sync.WaitGroup{}
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.Lock()
				counter++
				l.Unlock()
			}()
		}
		wg.Wait()
		Expect(counter).To(Equal(50))
	})

	It("allows concurrent readers", func() {
		l := &lock.RWMutex{}
		l.RLock()
		done := make(chan struct{})
		go func() {
			l.RLock()
			l.RUnlock()
			close(done)
		}()
		Eventually(done, time.Second).Should(BeClosed())
		l.RUnlock()

		l.Lock()
		l.Unlock()
	})
})

var _ = Describe("Value", Label("unitest"), func() {
	It("returns the last stored value", func() {
		v := &lock.Value[time.Duration]{}
		Expect(v.Load()).To(BeZero())
		v.Store(time.Second)
		Expect(v.Load()).To(Equal(time.Second))
	})
})
