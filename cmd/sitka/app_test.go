// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sitka/services/settings"
)

func newDeviceStore(t *testing.T) *settings.Store {
	t.Helper()
	store, err := settings.Open(filepath.Join(t.TempDir(), "device.json"), nil, nil)
	require.NoError(t, err)
	return store
}

func TestResolveDataDir_FlagWins(t *testing.T) {
	saved := dataDir
	dataDir = "/tmp/flagged"
	t.Cleanup(func() { dataDir = saved })

	store := newDeviceStore(t)
	require.NoError(t, store.Set("dataDir", "/tmp/configured"))

	got, err := resolveDataDir(store)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/flagged", got)
}

func TestResolveDataDir_SettingSecond(t *testing.T) {
	saved := dataDir
	dataDir = ""
	t.Cleanup(func() { dataDir = saved })

	store := newDeviceStore(t)
	require.NoError(t, store.Set("dataDir", "/tmp/configured"))

	got, err := resolveDataDir(store)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/configured", got)
}

func TestResolveDataDir_DefaultUnderDevice(t *testing.T) {
	saved := dataDir
	dataDir = ""
	t.Cleanup(func() { dataDir = saved })

	got, err := resolveDataDir(newDeviceStore(t))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, filepath.Join(".sitka", "data")), got)
}

func TestScopedStore(t *testing.T) {
	a := &app{device: newDeviceStore(t), global: newDeviceStore(t)}

	saved := globalScope
	t.Cleanup(func() { globalScope = saved })

	globalScope = false
	assert.Same(t, a.device, scopedStore(a))
	globalScope = true
	assert.Same(t, a.global, scopedStore(a))
}
