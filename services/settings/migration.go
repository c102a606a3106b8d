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
	"fmt"
	"log/slog"
)

// Device settings keys. Secret families carry a companion boolean marker
// recording whether the one-time encryption migration has run for them.
const (
	// KeyAPIKey is the primary credential used in single-backend mode.
	KeyAPIKey    = "apiKey"
	MarkerAPIKey = "_apiKeyEncrypted"

	// KeySyncToken is the auxiliary token for the optional sync service.
	KeySyncToken    = "syncToken"
	MarkerSyncToken = "_syncTokenEncrypted"

	// KeyProviderKeys is the per-backend credential map.
	KeyProviderKeys    = "providerKeys"
	MarkerProviderKeys = "_providerKeysEncrypted"

	// KeyProviderConfigs is the failover provider list.
	KeyProviderConfigs    = "providerConfigs"
	MarkerProviderConfigs = "_providerConfigsEncrypted"

	// KeySingleBackend names the backend used in single mode.
	KeySingleBackend = "singleBackend"

	// KeyMultiProvider enables the multi-backend failover pipeline.
	KeyMultiProvider = "multiProvider"
)

// secretMarkers maps each string-valued secret key to its migration marker.
var secretMarkers = map[string]string{
	KeyAPIKey:    MarkerAPIKey,
	KeySyncToken: MarkerSyncToken,
}

// MigrateSecrets encrypts legacy plaintext secrets in place.
//
// # Description
//
// Runs on every startup after the device store is opened. For each secret
// family, a plaintext value with no companion marker is encrypted in place
// and the marker set. Values that already open under the device key are
// left untouched, so a secret written through SetSecret is never sealed
// twice. The document is persisted once after all families are
// processed, and only if anything changed — a second run observes all
// markers set and performs no work, so the routine is idempotent.
//
// # Outputs
//
//   - error: Persistence failure. Individual family problems (e.g. a value
//     of an unexpected shape) are logged and skipped, never fatal.
func (s *Store) MigrateSecrets() error {
	if s.box == nil {
		return fmt.Errorf("store at %s has no secret box", s.path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	changed = s.migrateStringLocked(KeyAPIKey, MarkerAPIKey) || changed
	changed = s.migrateStringLocked(KeySyncToken, MarkerSyncToken) || changed
	changed = s.migrateKeyMapLocked() || changed
	changed = s.migrateProviderConfigsLocked() || changed

	if !changed {
		return nil
	}

	s.logger.Info("migrated plaintext secrets to encrypted form",
		slog.String("path", s.path))
	return s.persistLocked()
}

// migrateStringLocked encrypts one string-valued secret family.
func (s *Store) migrateStringLocked(key, marker string) bool {
	if done, _ := s.doc[marker].(bool); done {
		return false
	}
	raw, ok := s.doc[key].(string)
	if !ok || raw == "" {
		return false
	}
	if s.sealedLocked(raw) {
		// Written through SetSecret before the marker existed. Record the
		// marker without touching the value.
		s.doc[marker] = true
		return true
	}

	enc, err := s.box.Encrypt(raw)
	if err != nil {
		s.logger.Warn("secret migration skipped", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	s.doc[key] = enc
	s.doc[marker] = true
	return true
}

// migrateKeyMapLocked encrypts every value of the per-backend key map.
func (s *Store) migrateKeyMapLocked() bool {
	if done, _ := s.doc[MarkerProviderKeys].(bool); done {
		return false
	}
	m, ok := s.doc[KeyProviderKeys].(map[string]any)
	if !ok || len(m) == 0 {
		return false
	}

	for backend, v := range m {
		plain, ok := v.(string)
		if !ok || plain == "" || s.sealedLocked(plain) {
			continue
		}
		enc, err := s.box.Encrypt(plain)
		if err != nil {
			s.logger.Warn("secret migration skipped",
				slog.String("key", KeyProviderKeys),
				slog.String("backend", backend),
				slog.String("error", err.Error()))
			continue
		}
		m[backend] = enc
	}
	s.doc[MarkerProviderKeys] = true
	return true
}

// migrateProviderConfigsLocked encrypts the credential of each entry in
// the provider-config list.
func (s *Store) migrateProviderConfigsLocked() bool {
	if done, _ := s.doc[MarkerProviderConfigs].(bool); done {
		return false
	}
	list, ok := s.doc[KeyProviderConfigs].([]any)
	if !ok || len(list) == 0 {
		return false
	}

	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		plain, ok := entry["credential"].(string)
		if !ok || plain == "" || s.sealedLocked(plain) {
			continue
		}
		enc, err := s.box.Encrypt(plain)
		if err != nil {
			s.logger.Warn("secret migration skipped",
				slog.String("key", KeyProviderConfigs),
				slog.String("error", err.Error()))
			continue
		}
		entry["credential"] = enc
	}
	s.doc[MarkerProviderConfigs] = true
	return true
}

// sealedLocked reports whether value is already ciphertext produced by this
// store's box. Decrypt returns its input unchanged unless the value opens
// under the device key, so a differing result means the value is sealed.
func (s *Store) sealedLocked(value string) bool {
	return s.box.Decrypt(value) != value
}
