// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetPersistReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")

	store, err := Open(path, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Set("theme", "dark"))
	require.NoError(t, store.Set("hotkeyEnabled", true))
	require.NoError(t, store.Close())

	reloaded, err := Open(path, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "dark", reloaded.GetString("theme"))
	assert.True(t, reloaded.GetBool("hotkeyEnabled"))
}

func TestStore_CorruptDocumentIsNonFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	store, err := Open(path, nil, nil)
	require.NoError(t, err, "load failures must not be fatal")
	assert.Equal(t, "", store.GetString("theme"))

	// The store still persists new values.
	require.NoError(t, store.Set("theme", "light"))
	reloaded, err := Open(path, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "light", reloaded.GetString("theme"))
}

func TestStore_SecretRoundTrip(t *testing.T) {
	dir := t.TempDir()
	box := newTestBox(t)

	store, err := Open(filepath.Join(dir, "device.json"), box, nil)
	require.NoError(t, err)
	require.NoError(t, store.SetSecret(KeyAPIKey, "sk-live-1234"))

	// At rest the value is ciphertext, in memory it is decrypted.
	assert.NotEqual(t, "sk-live-1234", store.GetString(KeyAPIKey))
	assert.Equal(t, "sk-live-1234", store.Secret(KeyAPIKey))
}

func TestStore_Delete(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "device.json"), nil, nil)
	require.NoError(t, err)

	require.NoError(t, store.Set("hotkey", "cmd+shift+n"))
	require.NoError(t, store.Delete("hotkey"))
	_, ok := store.Get("hotkey")
	assert.False(t, ok)
}

func TestStore_DeviceAndGlobalAreIndependent(t *testing.T) {
	dir := t.TempDir()

	device, err := Open(filepath.Join(dir, "device.json"), nil, nil)
	require.NoError(t, err)
	global, err := Open(filepath.Join(dir, "settings.json"), nil, nil)
	require.NoError(t, err)

	require.NoError(t, device.Set("hotkey", "cmd+shift+n"))
	require.NoError(t, global.Set("theme", "dark"))

	assert.Equal(t, "", global.GetString("hotkey"))
	assert.Equal(t, "", device.GetString("theme"))
}
