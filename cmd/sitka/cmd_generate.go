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
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sitka/services/datatypes"
	"github.com/AleutianAI/sitka/services/llm"
	"github.com/AleutianAI/sitka/services/settings"
)

func runGenerate(cmd *cobra.Command, args []string) {
	runApp(cmd, func(ctx context.Context, a *app) error {
		prompt := strings.Join(args, " ")

		var params llm.GenerationParams
		if cmd.Flags().Changed("temperature") {
			t := temperature
			params.Temperature = &t
		}
		if cmd.Flags().Changed("max-tokens") {
			m := maxTokens
			params.MaxTokens = &m
		}

		multi := a.device.GetBool(settings.KeyMultiProvider) && !singleMode

		var result string
		var err error
		if multi {
			result, err = a.engine.Generate(ctx, prompt, params)
		} else {
			result, err = generateSingle(ctx, a, prompt, params)
		}
		if err != nil {
			return err
		}

		fmt.Println(result)
		return nil
	})
}

// generateSingle runs the legacy one-backend path from the device
// settings: singleBackend names the kind, apiKey holds its credential.
func generateSingle(ctx context.Context, a *app, prompt string, params llm.GenerationParams) (string, error) {
	kindName := a.device.GetString(settings.KeySingleBackend)
	if kindName == "" {
		kindName = string(datatypes.KindOpenAI)
	}
	kind, err := datatypes.ParseKind(kindName)
	if err != nil {
		return "", err
	}

	credential := a.device.Secret(settings.KeyAPIKey)
	return a.engine.GenerateSingle(ctx, kind, credential, prompt, params)
}
