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

import "errors"

// Sentinel errors for the vault package.
var (
	// ErrTempWrite is returned when the temp file cannot be created or
	// fully written. The target file is untouched.
	ErrTempWrite = errors.New("atomic write: temp write failed")

	// ErrValidation is returned when the read-back verification or the
	// JSON validation of the temp file fails. The target file is untouched.
	ErrValidation = errors.New("atomic write: validation failed")

	// ErrSwap is returned when the final commit (rename, or copy-then-delete
	// on filesystems where rename cannot replace) fails.
	ErrSwap = errors.New("atomic write: swap failed")

	// ErrCorruptDocument is returned when the on-disk document exists but
	// cannot be parsed as a JSON object.
	ErrCorruptDocument = errors.New("shared document is not a valid JSON object")
)
