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
	"os"
	"path/filepath"

	"github.com/AleutianAI/sitka/pkg/logging"
	"github.com/AleutianAI/sitka/pkg/telemetry"
	"github.com/AleutianAI/sitka/services/llm"
	"github.com/AleutianAI/sitka/services/settings"
	"github.com/AleutianAI/sitka/services/vault"
)

// File names inside the device and data directories.
const (
	deviceSettingsFile = "device.json"
	deviceKeyFile      = "device.key"
	fallbackEventsFile = "fallback_events.json"
	globalSettingsFile = "settings.json"
	documentFile       = "sitka.json"
)

// app holds the wired-up stores and engine behind every command.
// Built once in PersistentPreRunE, torn down in PersistentPostRun.
type app struct {
	logger *logging.Logger

	box      *settings.SecretBox
	device   *settings.Store
	global   *settings.Store
	document *vault.DocumentStore
	events   *llm.FallbackLog
	engine   *llm.Engine

	telemetryShutdown func(context.Context) error
}

// deviceDir is the per-device directory, never synced.
func deviceDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".sitka"), nil
}

// resolveDataDir picks the shared data directory: the --data-dir flag,
// then the device setting, then a default under the device directory.
func resolveDataDir(device *settings.Store) (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	if configured := device.GetString("dataDir"); configured != "" {
		return configured, nil
	}
	dev, err := deviceDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dev, "data"), nil
}

// newApp wires the full stack. Every command goes through this, so
// the one-time secret migration runs before any handler.
func newApp(ctx context.Context) (*app, error) {
	dev, err := deviceDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dev, 0700); err != nil {
		return nil, fmt.Errorf("creating device directory: %w", err)
	}

	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  filepath.Join(dev, "logs"),
		Service: "sitka",
		JSON:    jsonLogs,
	})

	a := &app{logger: logger}

	a.telemetryShutdown, err = telemetry.Init(ctx, telemetry.DefaultConfig())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	a.box, err = settings.OpenSecretBox(filepath.Join(dev, deviceKeyFile))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("opening device key: %w", err)
	}

	a.device, err = settings.Open(filepath.Join(dev, deviceSettingsFile), a.box, logger.Slog())
	if err != nil {
		a.close()
		return nil, err
	}
	if err := a.device.MigrateSecrets(); err != nil {
		logger.Warn("secret migration failed", "error", err.Error())
	}

	data, err := resolveDataDir(a.device)
	if err != nil {
		a.close()
		return nil, err
	}
	if err := os.MkdirAll(data, 0750); err != nil {
		a.close()
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	a.global, err = settings.Open(filepath.Join(data, globalSettingsFile), nil, logger.Slog())
	if err != nil {
		a.close()
		return nil, err
	}

	a.document, err = vault.OpenDocumentStore(filepath.Join(data, documentFile), logger.Slog())
	if err != nil {
		a.close()
		return nil, err
	}

	a.events = llm.OpenFallbackLog(filepath.Join(dev, fallbackEventsFile), logger.Slog())
	a.engine = llm.NewEngine(llm.EngineConfig{
		Source: a.device,
		Events: a.events,
		Logger: logger.Slog(),
	})

	return a, nil
}

// close tears down in reverse wiring order. Safe on a half-built app.
func (a *app) close() {
	if a.global != nil {
		_ = a.global.Close()
	}
	if a.device != nil {
		_ = a.device.Close()
	}
	if a.box != nil {
		a.box.Close()
	}
	if a.telemetryShutdown != nil {
		_ = a.telemetryShutdown(context.Background())
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}
