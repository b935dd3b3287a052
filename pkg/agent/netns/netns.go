// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package netns

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vishvananda/netns"
)

const DefaultRunDir = "/var/run/netns"

type NetNS struct {
	ReadDir     func(name string) ([]os.DirEntry, error)
	GetFromPath func(path string) (netns.NsHandle, error)
}

func DefaultNetNS() NetNS {
	return NetNS{
		ReadDir:     os.ReadDir,
		GetFromPath: netns.GetFromPath,
	}
}

// Prober lists the named network namespaces on the host.
type Prober struct {
	RunDir string
	ns     NetNS
}

func NewProber(runDir string, ns NetNS) *Prober {
	if runDir == "" {
		runDir = DefaultRunDir
	}
	return &Prober{RunDir: runDir, ns: ns}
}

// List returns the sorted namespace names. A missing run directory
// means the host has no namespaces yet.
func (p *Prober) List() ([]string, error) {
	entries, err := p.ns.ReadDir(p.RunDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list network namespaces in %s: %w", p.RunDir, err)
	}

	res := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		res = append(res, entry.Name())
	}
	sort.Strings(res)
	return res, nil
}

// Usable reports whether the namespace can still be opened, it may be
// torn down between listing and use.
func (p *Prober) Usable(name string) bool {
	handle, err := p.ns.GetFromPath(filepath.Join(p.RunDir, name))
	if err != nil {
		return false
	}
	_ = handle.Close()
	return true
}

// Match returns the first namespace whose name ends with networkID and
// that usable accepts. A nil usable accepts every namespace. Namespaces are
// expected in sorted order so the choice is stable.
func Match(namespaces []string, networkID string, usable func(string) bool) (string, bool) {
	if networkID == "" {
		return "", false
	}
	for _, name := range namespaces {
		if !strings.HasSuffix(name, networkID) {
			continue
		}
		if usable != nil && !usable(name) {
			continue
		}
		return name, true
	}
	return "", false
}
