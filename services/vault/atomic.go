// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vault

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Write durably replaces the file at path with content.
//
// # Description
//
// Implements the temp-write, verify, swap protocol:
//
//  1. A temp file is created in the same directory as path (same volume,
//     required for an atomic rename) with a timestamp-and-random name.
//  2. content is written in full and fsynced.
//  3. The temp file is read back and compared byte-for-byte; when
//     validateJSON is set it must also parse as JSON. Any mismatch aborts
//     before the swap.
//  4. The temp file is renamed over path. If the rename fails (filesystems
//     where the destination cannot be replaced), the content is copied onto
//     path and the temp file deleted only after the copy is synced.
//
// On any failure the temp file is removed and the target is left untouched.
// After a crash or power loss on the rename path — the normal case on every
// supported filesystem — path holds either the complete prior content or the
// complete new content. The copy fallback is weaker: a crash between the
// target truncate and the sync can leave path partially written, but the
// fully verified temp file is still on disk at that point, so no data is
// lost. At worst an orphaned temp file remains, which is harmless.
//
// # Inputs
//
//   - path: Destination file. Parent directory must exist.
//   - content: Full new content.
//   - validateJSON: Require the temp file to parse as JSON before the swap.
//
// # Outputs
//
//   - error: nil on success; wraps ErrTempWrite, ErrValidation, or ErrSwap
//     depending on the failing stage.
func Write(path string, content []byte, validateJSON bool) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	pattern := fmt.Sprintf(".%s-%d-*.tmp", base, time.Now().UnixNano())
	tempFile, err := os.CreateTemp(dir, pattern)
	if err != nil {
		recordWrite("error")
		return fmt.Errorf("%w: creating temp file in %s: %w", ErrTempWrite, dir, err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tempPath)
			recordWrite("error")
		}
	}()

	if _, err := tempFile.Write(content); err != nil {
		tempFile.Close()
		return fmt.Errorf("%w: writing %s: %w", ErrTempWrite, tempPath, err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("%w: syncing %s: %w", ErrTempWrite, tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrTempWrite, tempPath, err)
	}

	// Verify what actually hit the disk before committing.
	readBack, err := os.ReadFile(tempPath)
	if err != nil {
		return fmt.Errorf("%w: reading back %s: %w", ErrValidation, tempPath, err)
	}
	if !bytes.Equal(readBack, content) {
		return fmt.Errorf("%w: read-back mismatch for %s", ErrValidation, tempPath)
	}
	if validateJSON && !json.Valid(readBack) {
		return fmt.Errorf("%w: %s is not valid JSON", ErrValidation, tempPath)
	}

	if err := os.Rename(tempPath, path); err != nil {
		// Some filesystems refuse to rename over an existing file. Fall back
		// to copying the verified content onto the target. The temp file is
		// removed only after the copy has been synced, so the verified bytes
		// exist on disk at every point of the fallback.
		if copyErr := copyOver(path, readBack); copyErr != nil {
			return fmt.Errorf("%w: rename %s -> %s: %w", ErrSwap, tempPath, path, err)
		}
		os.Remove(tempPath)
	}

	success = true
	recordWrite("ok")
	return nil
}

// copyOver truncates dst and writes content, syncing before close.
func copyOver(dst string, content []byte) error {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, bytes.NewReader(content)); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
