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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sitka/pkg/ux"
	"github.com/AleutianAI/sitka/services/datatypes"
)

func runProvidersList(cmd *cobra.Command, args []string) {
	runApp(cmd, func(ctx context.Context, a *app) error {
		configs, err := a.device.AllProviders()
		if err != nil {
			return err
		}
		if len(configs) == 0 {
			ux.Muted("no providers configured")
			return nil
		}

		ux.Title("Providers")
		for _, cfg := range configs {
			state := "enabled"
			if !cfg.Enabled {
				state = "disabled"
			}
			if cfg.Credential == "" {
				state += ", no credential"
			}
			ux.KeyValue(string(cfg.Kind), fmt.Sprintf("priority %d (%s)", cfg.Priority, state))
		}
		return nil
	})
}

func runProvidersAdd(cmd *cobra.Command, args []string) {
	runApp(cmd, func(ctx context.Context, a *app) error {
		kind, err := datatypes.ParseKind(args[0])
		if err != nil {
			return err
		}

		configs, err := a.device.AllProviders()
		if err != nil {
			return err
		}

		entry := datatypes.ProviderConfig{
			Kind:       kind,
			Credential: providerCredential,
			Enabled:    !providerDisabled,
			Priority:   providerPriority,
		}

		replaced := false
		for i, cfg := range configs {
			if cfg.Kind == kind {
				// Keep the stored credential unless a new one was given.
				if entry.Credential == "" {
					entry.Credential = cfg.Credential
				}
				configs[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			configs = append(configs, entry)
		}

		if err := a.device.SetProviders(configs); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("provider %s saved", kind))
		return nil
	})
}

func runProvidersRemove(cmd *cobra.Command, args []string) {
	runApp(cmd, func(ctx context.Context, a *app) error {
		kind, err := datatypes.ParseKind(args[0])
		if err != nil {
			return err
		}

		configs, err := a.device.AllProviders()
		if err != nil {
			return err
		}

		kept := configs[:0]
		for _, cfg := range configs {
			if cfg.Kind != kind {
				kept = append(kept, cfg)
			}
		}
		if len(kept) == len(configs) {
			ux.Warning(fmt.Sprintf("provider %s is not configured", kind))
			return nil
		}

		if err := a.device.SetProviders(kept); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("provider %s removed", kind))
		return nil
	})
}
