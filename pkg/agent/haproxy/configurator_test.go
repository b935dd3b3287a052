// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package haproxy

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/logger"
)

type fakeSupervisor struct {
	startPID  int
	startErr  error
	reloadErr error

	starts  []string
	reloads []int
}

func (f *fakeSupervisor) Start(_ context.Context, configFile string) (int, error) {
	f.starts = append(f.starts, configFile)
	if f.startErr != nil {
		return 0, f.startErr
	}
	return f.startPID, nil
}

func (f *fakeSupervisor) Reload(_ context.Context, pid int) error {
	f.reloads = append(f.reloads, pid)
	return f.reloadErr
}

var _ = Describe("Configurator", func() {
	var (
		ctx  context.Context
		path string
		sup  *fakeSupervisor
		c    *Configurator
	)

	BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(GinkgoT().TempDir(), "nested", "haproxy.cfg")
		sup = &fakeSupervisor{startPID: 4242}
		c = NewConfigurator(path, sup, logger.NewStdoutLogger("debug"))
	})

	It("starts haproxy on first sync and writes the file", func() {
		changed, err := c.Sync(ctx, []byte("config-a"))
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(sup.starts).To(Equal([]string{path}))
		Expect(c.PID()).To(Equal(4242))
		Expect(c.Hash()).To(Equal(Hash([]byte("config-a"))))

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("config-a"))
	})

	It("does nothing when the configuration is unchanged", func() {
		_, err := c.Sync(ctx, []byte("config-a"))
		Expect(err).NotTo(HaveOccurred())

		changed, err := c.Sync(ctx, []byte("config-a"))
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeFalse())
		Expect(sup.starts).To(HaveLen(1))
		Expect(sup.reloads).To(BeEmpty())
	})

	It("reloads the cached pid on change", func() {
		_, err := c.Sync(ctx, []byte("config-a"))
		Expect(err).NotTo(HaveOccurred())

		changed, err := c.Sync(ctx, []byte("config-b"))
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(sup.reloads).To(Equal([]int{4242}))
		Expect(c.Hash()).To(Equal(Hash([]byte("config-b"))))
	})

	It("keeps the hash when start fails so the next sync retries", func() {
		sup.startErr = errors.New("operation not permitted")

		_, err := c.Sync(ctx, []byte("config-a"))
		Expect(err).To(HaveOccurred())
		Expect(c.Hash()).To(BeEmpty())
		Expect(c.PID()).To(BeZero())

		sup.startErr = nil
		changed, err := c.Sync(ctx, []byte("config-a"))
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(sup.starts).To(HaveLen(2))
	})

	It("clears the pid when reload fails and cold starts next time", func() {
		_, err := c.Sync(ctx, []byte("config-a"))
		Expect(err).NotTo(HaveOccurred())

		sup.reloadErr = errors.New("no such process")
		_, err = c.Sync(ctx, []byte("config-b"))
		Expect(err).To(HaveOccurred())
		Expect(c.PID()).To(BeZero())
		Expect(c.Hash()).To(Equal(Hash([]byte("config-a"))))

		// the new file is on disk even though haproxy did not accept it
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("config-b"))

		sup.reloadErr = nil
		sup.startPID = 5151
		changed, err := c.Sync(ctx, []byte("config-b"))
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(sup.starts).To(HaveLen(2))
		Expect(c.PID()).To(Equal(5151))
		Expect(c.Hash()).To(Equal(Hash([]byte("config-b"))))
	})

	It("fails without touching haproxy when the file cannot be written", func() {
		blocker := filepath.Join(GinkgoT().TempDir(), "file")
		Expect(os.WriteFile(blocker, nil, 0o600)).To(Succeed())
		c = NewConfigurator(filepath.Join(blocker, "haproxy.cfg"), sup, logger.NewStdoutLogger("info"))

		_, err := c.Sync(ctx, []byte("config-a"))
		Expect(err).To(HaveOccurred())
		Expect(sup.starts).To(BeEmpty())
		Expect(c.Hash()).To(BeEmpty())
	})
})
