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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sitka/pkg/ux"
)

func runVaultShow(cmd *cobra.Command, args []string) {
	runApp(cmd, func(ctx context.Context, a *app) error {
		doc, err := a.document.Read(ctx)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	})
}

func runVaultGet(cmd *cobra.Command, args []string) {
	runApp(cmd, func(ctx context.Context, a *app) error {
		section, err := a.document.Section(ctx, args[0])
		if err != nil {
			return err
		}
		if section == nil {
			ux.Muted(fmt.Sprintf("section %q is empty", args[0]))
			return nil
		}
		fmt.Println(string(section))
		return nil
	})
}

func runVaultSet(cmd *cobra.Command, args []string) {
	runApp(cmd, func(ctx context.Context, a *app) error {
		name, content := args[0], []byte(args[1])
		if !json.Valid(content) {
			return fmt.Errorf("section content is not valid JSON")
		}
		if err := a.document.SetSection(ctx, name, content); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("section %q written", name))
		return nil
	})
}
