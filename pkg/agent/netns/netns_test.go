// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package netns

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netns"
)

func TestProberList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"qdhcp-b", "qdhcp-a", "qrouter-c"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o700))

	p := NewProber(dir, DefaultNetNS())
	names, err := p.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"qdhcp-a", "qdhcp-b", "qrouter-c"}, names)
}

func TestProberListMissingDir(t *testing.T) {
	p := NewProber(filepath.Join(t.TempDir(), "absent"), DefaultNetNS())
	names, err := p.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestProberListError(t *testing.T) {
	p := NewProber("/run/netns", NetNS{
		ReadDir: func(string) ([]os.DirEntry, error) {
			return nil, &fs.PathError{Op: "open", Path: "/run/netns", Err: fs.ErrPermission}
		},
	})
	_, err := p.List()
	assert.Error(t, err)
}

func TestProberUsable(t *testing.T) {
	p := NewProber("", NetNS{
		GetFromPath: func(path string) (netns.NsHandle, error) {
			if path == filepath.Join(DefaultRunDir, "gone") {
				return netns.None(), errors.New("no such file")
			}
			return netns.None(), nil
		},
	})
	assert.Equal(t, DefaultRunDir, p.RunDir)
	assert.False(t, p.Usable("gone"))
	assert.True(t, p.Usable("qdhcp-1"))
}

func TestMatch(t *testing.T) {
	cases := map[string]struct {
		namespaces []string
		networkID  string
		unusable   map[string]bool
		expName    string
		expOK      bool
	}{
		"match": {
			namespaces: []string{"qdhcp-1111", "qdhcp-2222"},
			networkID:  "2222",
			expName:    "qdhcp-2222",
			expOK:      true,
		},
		"first of several": {
			namespaces: []string{"ovnmeta-abcd", "qdhcp-abcd"},
			networkID:  "abcd",
			expName:    "ovnmeta-abcd",
			expOK:      true,
		},
		"unusable first match is skipped": {
			namespaces: []string{"ovnmeta-abcd", "qdhcp-abcd"},
			networkID:  "abcd",
			unusable:   map[string]bool{"ovnmeta-abcd": true},
			expName:    "qdhcp-abcd",
			expOK:      true,
		},
		"only match unusable": {
			namespaces: []string{"qdhcp-1111"},
			networkID:  "1111",
			unusable:   map[string]bool{"qdhcp-1111": true},
		},
		"no match": {
			namespaces: []string{"qdhcp-1111"},
			networkID:  "3333",
		},
		"prefix is not a match": {
			namespaces: []string{"1111-qdhcp"},
			networkID:  "1111",
		},
		"empty id": {
			namespaces: []string{"qdhcp-1111"},
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			usable := func(name string) bool { return !c.unusable[name] }
			got, ok := Match(c.namespaces, c.networkID, usable)
			assert.Equal(t, c.expOK, ok)
			assert.Equal(t, c.expName, got)
		})
	}
}
