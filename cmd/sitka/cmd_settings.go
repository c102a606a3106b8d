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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sitka/pkg/ux"
	"github.com/AleutianAI/sitka/services/settings"
)

// scopedStore picks the device or global document per the --global flag.
func scopedStore(a *app) *settings.Store {
	if globalScope {
		return a.global
	}
	return a.device
}

func runSettingsGet(cmd *cobra.Command, args []string) {
	runApp(cmd, func(ctx context.Context, a *app) error {
		store := scopedStore(a)
		v, ok := store.Get(args[0])
		if !ok {
			ux.Muted(fmt.Sprintf("%s is not set", args[0]))
			return nil
		}
		// Secrets print decrypted; the file keeps the ciphertext.
		if s, isString := v.(string); isString {
			if dec := store.Secret(args[0]); dec != s {
				ux.KeyValue(args[0], dec)
				return nil
			}
		}
		ux.KeyValue(args[0], fmt.Sprintf("%v", v))
		return nil
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) {
	runApp(cmd, func(ctx context.Context, a *app) error {
		store := scopedStore(a)
		key, raw := args[0], args[1]

		if secretValue {
			if globalScope {
				return fmt.Errorf("secrets belong in the device document, not the synced one")
			}
			if err := store.SetSecret(key, raw); err != nil {
				return err
			}
			ux.Success(fmt.Sprintf("%s stored encrypted", key))
			return nil
		}

		// Store booleans and numbers typed so GetBool and friends work.
		var value any = raw
		if b, err := strconv.ParseBool(raw); err == nil {
			value = b
		} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
			value = f
		}

		if err := store.Set(key, value); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("%s set", key))
		return nil
	})
}

func runSettingsDelete(cmd *cobra.Command, args []string) {
	runApp(cmd, func(ctx context.Context, a *app) error {
		if err := scopedStore(a).Delete(args[0]); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("%s removed", args[0]))
		return nil
	})
}
