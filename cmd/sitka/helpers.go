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
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sitka/pkg/ux"
)

// runApp wires the application, runs fn, and tears everything down.
// Handler errors print through ux and exit non-zero.
func runApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
	defer a.close()

	if err := fn(ctx, a); err != nil {
		ux.Error(err.Error())
		a.close()
		os.Exit(1)
	}
}
