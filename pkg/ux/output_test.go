// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout runs fn with stdout redirected to a pipe and returns
// what it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	saved := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = saved

	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	return string(buf[:n])
}

func TestPlainMode(t *testing.T) {
	SetPlain(true)
	t.Cleanup(func() { SetPlain(false) })

	out := captureStdout(t, func() {
		Success("written")
		Info("a detail")
		KeyValue("provider", "openai")
	})

	assert.Contains(t, out, "OK: written")
	assert.Contains(t, out, "a detail")
	assert.Contains(t, out, "provider\topenai")
	assert.NotContains(t, out, "\x1b[", "plain mode must not emit ANSI escapes")
}

func TestIconRender(t *testing.T) {
	// Styled output may or may not include escapes depending on the
	// terminal; the glyph itself must always survive.
	for _, icon := range []Icon{IconSuccess, IconWarning, IconError, IconArrow, IconBullet} {
		assert.True(t, strings.Contains(icon.Render(), string(icon)))
	}
}

func TestTitle_PlainPrintsBareText(t *testing.T) {
	SetPlain(true)
	t.Cleanup(func() { SetPlain(false) })

	out := captureStdout(t, func() { Title("Sitka") })
	assert.Equal(t, "Sitka\n", out)
}
