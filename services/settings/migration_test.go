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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeLegacyDocument lays down a pre-encryption settings file.
func writeLegacyDocument(t *testing.T, path string) {
	t.Helper()
	legacy := map[string]any{
		"apiKey":    "sk-plain-primary",
		"syncToken": "tok-plain-aux",
		"providerKeys": map[string]any{
			"openai":    "sk-plain-openai",
			"anthropic": "sk-plain-anthropic",
		},
		"providerConfigs": []any{
			map[string]any{"kind": "openai", "credential": "sk-plain-cfg", "enabled": true, "priority": 1},
		},
		"theme": "dark",
	}
	data, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestMigrateSecrets_EncryptsAllFamilies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.json")
	writeLegacyDocument(t, path)
	box := newTestBox(t)

	store, err := Open(path, box, nil)
	require.NoError(t, err)
	require.NoError(t, store.MigrateSecrets())

	// Markers set.
	assert.True(t, store.GetBool(MarkerAPIKey))
	assert.True(t, store.GetBool(MarkerSyncToken))
	assert.True(t, store.GetBool(MarkerProviderKeys))
	assert.True(t, store.GetBool(MarkerProviderConfigs))

	// At rest nothing is plaintext anymore.
	assert.NotEqual(t, "sk-plain-primary", store.GetString(KeyAPIKey))
	assert.NotEqual(t, "tok-plain-aux", store.GetString(KeySyncToken))

	// Decryption recovers the originals.
	assert.Equal(t, "sk-plain-primary", store.Secret(KeyAPIKey))
	assert.Equal(t, "tok-plain-aux", store.Secret(KeySyncToken))

	keys, ok := store.Get(KeyProviderKeys)
	require.True(t, ok)
	m := keys.(map[string]any)
	assert.Equal(t, "sk-plain-openai", box.Decrypt(m["openai"].(string)))
	assert.Equal(t, "sk-plain-anthropic", box.Decrypt(m["anthropic"].(string)))

	providers, err := store.Providers()
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "sk-plain-cfg", providers[0].Credential)

	// Non-secret values survive untouched.
	assert.Equal(t, "dark", store.GetString("theme"))
}

func TestMigrateSecrets_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.json")
	writeLegacyDocument(t, path)
	box := newTestBox(t)

	store, err := Open(path, box, nil)
	require.NoError(t, err)

	require.NoError(t, store.MigrateSecrets())
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, store.MigrateSecrets())
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second, "second run must be byte-identical: no double encryption, no marker flapping")
}

func TestMigrateSecrets_IdempotentAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.json")
	writeLegacyDocument(t, path)

	keyPath := filepath.Join(dir, "device.key")
	box, err := OpenSecretBox(keyPath)
	require.NoError(t, err)

	store, err := Open(path, box, nil)
	require.NoError(t, err)
	require.NoError(t, store.MigrateSecrets())
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	box.Close()

	// A fresh process: reopen key and store, run the startup migration again.
	box2, err := OpenSecretBox(keyPath)
	require.NoError(t, err)
	defer box2.Close()
	store2, err := Open(path, box2, nil)
	require.NoError(t, err)
	require.NoError(t, store2.MigrateSecrets())

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMigrateSecrets_AppWrittenSecretSurvives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	box := newTestBox(t)

	store, err := Open(path, box, nil)
	require.NoError(t, err)

	// A secret entered through the app, not a legacy plaintext file.
	require.NoError(t, store.SetSecret(KeyAPIKey, "sk-user-entered"))
	assert.True(t, store.GetBool(MarkerAPIKey), "SetSecret must record the marker in the same persist")

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	// The next startup migration must not seal the value a second time.
	require.NoError(t, store.MigrateSecrets())
	assert.Equal(t, "sk-user-entered", store.Secret(KeyAPIKey))

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMigrateSecrets_SkipsAlreadySealedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	box := newTestBox(t)

	store, err := Open(path, box, nil)
	require.NoError(t, err)

	// Sealed values with no marker, as written by builds that predate it.
	sealedKey, err := box.Encrypt("sk-user-entered")
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyAPIKey, sealedKey))
	sealedMap, err := box.Encrypt("sk-map-entry")
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyProviderKeys, map[string]any{"openai": sealedMap}))

	require.NoError(t, store.MigrateSecrets())

	assert.True(t, store.GetBool(MarkerAPIKey))
	assert.True(t, store.GetBool(MarkerProviderKeys))
	assert.Equal(t, sealedKey, store.GetString(KeyAPIKey), "sealed value must not be re-encrypted")
	assert.Equal(t, "sk-user-entered", store.Secret(KeyAPIKey))

	keys, ok := store.Get(KeyProviderKeys)
	require.True(t, ok)
	m := keys.(map[string]any)
	assert.Equal(t, "sk-map-entry", box.Decrypt(m["openai"].(string)))
}

func TestMigrateSecrets_EmptyDocumentWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	box := newTestBox(t)

	store, err := Open(path, box, nil)
	require.NoError(t, err)
	require.NoError(t, store.MigrateSecrets())

	// No families to migrate: the document must not even be created.
	assert.NoFileExists(t, path)
}
