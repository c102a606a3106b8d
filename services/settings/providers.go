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
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/sitka/services/datatypes"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Providers returns the failover candidates in trial order.
//
// # Description
//
// Reads the stored provider-config list, decrypts each credential, drops
// disabled entries and entries with an empty credential, and sorts the rest
// by ascending priority (lower = tried first; ties keep stored order).
//
// # Outputs
//
//   - []datatypes.ProviderConfig: Decrypted, filtered, ordered. May be empty.
//   - error: Non-nil when the stored list has an unexpected shape.
func (s *Store) Providers() ([]datatypes.ProviderConfig, error) {
	raw, ok := s.Get(KeyProviderConfigs)
	if !ok {
		return nil, nil
	}

	// Round-trip through JSON: the document holds []any from Unmarshal.
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("reading provider configs: %w", err)
	}
	var configs []datatypes.ProviderConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("provider configs have unexpected shape: %w", err)
	}

	candidates := make([]datatypes.ProviderConfig, 0, len(configs))
	for _, cfg := range configs {
		if s.box != nil {
			cfg.Credential = s.box.Decrypt(cfg.Credential)
		}
		if !cfg.Enabled || cfg.Credential == "" {
			continue
		}
		candidates = append(candidates, cfg)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})
	return candidates, nil
}

// AllProviders returns every stored provider config, decrypted but
// unfiltered and in stored order. Management surfaces use this; the
// failover engine uses Providers.
func (s *Store) AllProviders() ([]datatypes.ProviderConfig, error) {
	raw, ok := s.Get(KeyProviderConfigs)
	if !ok {
		return nil, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("reading provider configs: %w", err)
	}
	var configs []datatypes.ProviderConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("provider configs have unexpected shape: %w", err)
	}

	if s.box != nil {
		for i := range configs {
			configs[i].Credential = s.box.Decrypt(configs[i].Credential)
		}
	}
	return configs, nil
}

// SetProviders validates and stores the provider list, encrypting each
// credential, and persists the document once.
func (s *Store) SetProviders(configs []datatypes.ProviderConfig) error {
	if s.box == nil {
		return fmt.Errorf("store at %s has no secret box", s.path)
	}

	stored := make([]datatypes.ProviderConfig, len(configs))
	for i, cfg := range configs {
		if err := validate.Struct(cfg); err != nil {
			return fmt.Errorf("provider config %d invalid: %w", i, err)
		}
		enc := cfg
		if cfg.Credential != "" {
			var err error
			enc.Credential, err = s.box.Encrypt(cfg.Credential)
			if err != nil {
				return fmt.Errorf("encrypting credential for %s: %w", cfg.Kind, err)
			}
		}
		stored[i] = enc
	}

	// Store as the generic JSON shape the document uses everywhere else.
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshaling provider configs: %w", err)
	}
	var generic []any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("marshaling provider configs: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc[KeyProviderConfigs] = generic
	s.doc[MarkerProviderConfigs] = true
	return s.persistLocked()
}
