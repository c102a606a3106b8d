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
)

func runFallbacks(cmd *cobra.Command, args []string) {
	runApp(cmd, func(ctx context.Context, a *app) error {
		events := a.events.Recent()
		if len(events) == 0 {
			ux.Muted("no fallback events recorded")
			return nil
		}

		ux.Title("Recent fallbacks")
		for _, e := range events {
			ux.Info(fmt.Sprintf("%s  %s %s %s  %s",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.FromBackend, ux.IconArrow, e.ToBackend, e.Reason))
		}
		return nil
	})
}
