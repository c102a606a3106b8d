// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package settings owns the two key/value settings documents of the app:
// the device-local document (secrets, hotkey, UI prefs, migration markers;
// never synced) and the global document that lives beside the shared data
// document in the user's synced folder (theme, data path, cross-device
// preferences).
//
// Both documents are loaded once at open, held in memory, and written back
// in full through the vault's atomic write primitive on every mutation.
// They deliberately do not share a mutex with the shared document store:
// distinct files, distinct guards, same write discipline.
package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/AleutianAI/sitka/services/vault"
)

// Store is one settings document with load-at-open, mutate-on-demand,
// persist-after-every-mutation semantics.
//
// # Description
//
// A Store is an explicitly owned object with a defined lifecycle: Open it,
// pass it to the components that need it, Close it on shutdown. There is no
// ambient global state.
//
// Load failures are non-fatal: a missing or unreadable document starts the
// store from an empty map, and the failure is logged. Persistence failures
// on mutation are returned to the caller; the in-memory value is kept so a
// later Flush can retry.
//
// # Thread Safety
//
// Safe for concurrent use.
type Store struct {
	path   string
	box    *SecretBox
	logger *slog.Logger

	mu  sync.Mutex
	doc map[string]any
}

// Open loads the settings document at path.
//
// box may be nil for stores that hold no secrets (the global document).
// The returned error is only non-nil for programmer errors (empty path);
// unreadable documents degrade to an empty store.
func Open(path string, box *SecretBox, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("settings path must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		path:   path,
		box:    box,
		logger: logger,
		doc:    map[string]any{},
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run.
	case err != nil:
		logger.Warn("settings document unreadable, starting empty",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	default:
		if err := json.Unmarshal(data, &s.doc); err != nil {
			logger.Warn("settings document corrupt, starting empty",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			s.doc = map[string]any{}
		}
	}

	return s, nil
}

// Path returns the document's location on disk.
func (s *Store) Path() string { return s.path }

// Get returns the raw stored value for key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.doc[key]
	return v, ok
}

// GetString returns the value for key as a string, or "" when absent or
// not a string.
func (s *Store) GetString(key string) string {
	v, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// GetBool returns the value for key as a bool, defaulting to false.
func (s *Store) GetBool(key string) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Secret returns the decrypted value for a secret key.
//
// Values written before at-rest encryption was introduced are returned
// as-is (see SecretBox.Decrypt).
func (s *Store) Secret(key string) string {
	raw := s.GetString(key)
	if raw == "" || s.box == nil {
		return raw
	}
	return s.box.Decrypt(raw)
}

// Set stores value under key and persists the full document.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc[key] = value
	return s.persistLocked()
}

// SetSecret encrypts value and stores it under key.
//
// When key belongs to a secret family with a migration marker, the marker
// is set in the same persist so MigrateSecrets never re-encrypts a value
// this path already sealed.
func (s *Store) SetSecret(key, value string) error {
	if s.box == nil {
		return fmt.Errorf("store at %s has no secret box", s.path)
	}
	enc, err := s.box.Encrypt(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc[key] = enc
	if marker, ok := secretMarkers[key]; ok {
		s.doc[marker] = true
	}
	return s.persistLocked()
}

// Delete removes key and persists the full document.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc[key]; !ok {
		return nil
	}
	delete(s.doc, key)
	return s.persistLocked()
}

// Flush writes the current in-memory document to disk.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// Close flushes the document. The store stays usable; Close exists so
// owners have a defined shutdown point.
func (s *Store) Close() error {
	return s.Flush()
}

// persistLocked writes the full document atomically. Caller holds s.mu.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := vault.Write(s.path, data, true); err != nil {
		s.logger.Error("settings write failed",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
