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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/sitka/pkg/ux"
)

// --- Global Command Variables ---
var (
	dataDir     string
	jsonLogs    bool
	verbose     bool
	plainOutput bool

	temperature float32
	maxTokens   int
	singleMode  bool

	providerCredential string
	providerPriority   int
	providerDisabled   bool

	secretValue bool
	globalScope bool

	rootCmd = &cobra.Command{
		Use:   "sitka",
		Short: "A cli to manage the Sitka personal data vault and its text generation pipeline",
		Long: `Sitka keeps your calendar, notes, and board data in a single shared
				JSON document with crash-safe writes, and runs text generation
				against your configured providers with automatic failover.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ux.SetPlain(plainOutput)
		},
	}

	// --- Vault ---
	vaultCmd = &cobra.Command{
		Use:   "vault",
		Short: "Inspect and edit the shared data document",
	}
	vaultShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the whole shared document",
		Run:   runVaultShow, // Defined in cmd_vault.go
	}
	vaultGetCmd = &cobra.Command{
		Use:   "get [section]",
		Short: "Print one section of the shared document",
		Args:  cobra.ExactArgs(1),
		Run:   runVaultGet, // Defined in cmd_vault.go
	}
	vaultSetCmd = &cobra.Command{
		Use:   "set [section] [json]",
		Short: "Replace one section of the shared document with the given JSON",
		Args:  cobra.ExactArgs(2),
		Run:   runVaultSet, // Defined in cmd_vault.go
	}

	// --- Generation ---
	generateCmd = &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate text using the configured providers with failover",
		Args:  cobra.MinimumNArgs(1),
		Run:   runGenerate, // Defined in cmd_generate.go
	}

	// --- Providers ---
	providersCmd = &cobra.Command{
		Use:   "providers",
		Short: "Manage the failover provider list",
	}
	providersListCmd = &cobra.Command{
		Use:   "list",
		Short: "List configured providers in failover order",
		Run:   runProvidersList, // Defined in cmd_providers.go
	}
	providersAddCmd = &cobra.Command{
		Use:   "add [kind]",
		Short: "Add or update a provider (openai, anthropic, gemini, deepseek)",
		Args:  cobra.ExactArgs(1),
		Run:   runProvidersAdd, // Defined in cmd_providers.go
	}
	providersRemoveCmd = &cobra.Command{
		Use:   "remove [kind]",
		Short: "Remove a provider from the failover list",
		Args:  cobra.ExactArgs(1),
		Run:   runProvidersRemove, // Defined in cmd_providers.go
	}

	// --- Fallback history ---
	fallbacksCmd = &cobra.Command{
		Use:   "fallbacks",
		Short: "Show recent provider fallback events",
		Run:   runFallbacks, // Defined in cmd_fallbacks.go
	}

	// --- Settings ---
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Read and write settings documents",
	}
	settingsGetCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Print a settings value",
		Args:  cobra.ExactArgs(1),
		Run:   runSettingsGet, // Defined in cmd_settings.go
	}
	settingsSetCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Store a settings value",
		Args:  cobra.ExactArgs(2),
		Run:   runSettingsSet, // Defined in cmd_settings.go
	}
	settingsDeleteCmd = &cobra.Command{
		Use:   "delete [key]",
		Short: "Remove a settings value",
		Args:  cobra.ExactArgs(1),
		Run:   runSettingsDelete, // Defined in cmd_settings.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"Override the shared data directory (default: the dataDir device setting)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false,
		"Unstyled, machine-friendly output")

	rootCmd.AddCommand(vaultCmd)
	vaultCmd.AddCommand(vaultShowCmd)
	vaultCmd.AddCommand(vaultGetCmd)
	vaultCmd.AddCommand(vaultSetCmd)

	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().Float32Var(&temperature, "temperature", -1, "Sampling temperature")
	generateCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum response tokens")
	generateCmd.Flags().BoolVar(&singleMode, "single", false,
		"Force single-backend mode regardless of the multiProvider setting")

	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersAddCmd)
	providersAddCmd.Flags().StringVar(&providerCredential, "credential", "", "API key for the provider")
	providersAddCmd.Flags().IntVar(&providerPriority, "priority", 0, "Failover priority (lower tries first)")
	providersAddCmd.Flags().BoolVar(&providerDisabled, "disabled", false, "Add the provider in disabled state")
	providersCmd.AddCommand(providersRemoveCmd)

	rootCmd.AddCommand(fallbacksCmd)

	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsSetCmd.Flags().BoolVar(&secretValue, "secret", false, "Encrypt the value at rest")
	settingsCmd.AddCommand(settingsDeleteCmd)
	settingsCmd.PersistentFlags().BoolVar(&globalScope, "global", false,
		"Operate on the synced global document instead of the device document")
}
