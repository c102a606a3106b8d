// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // deliberately passing nil to test the guard
	_, err := Init(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_UnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "jaeger"
	_, err := Init(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrUnknownExporter)
}

func TestInit_NoneIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_StdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		ServiceName:    "sitka-test",
		ServiceVersion: "0.0.1",
		TraceExporter:  "stdout",
		Writer:         &buf,
	}

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "TestSpan")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "TestSpan")
	assert.Contains(t, buf.String(), "sitka-test")
}

func TestLoggerWithTrace_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	got := LoggerWithTrace(context.Background(), logger)
	got.Info("no trace here")

	assert.NotContains(t, buf.String(), "trace_id")
}

func TestLoggerWithTrace_NilLogger(t *testing.T) {
	assert.NotNil(t, LoggerWithTrace(context.Background(), nil))
}

func TestLoggerWithTrace_WithSpan(t *testing.T) {
	var spans bytes.Buffer
	shutdown, err := Init(context.Background(), Config{
		ServiceName:   "sitka-test",
		TraceExporter: "stdout",
		Writer:        &spans,
	})
	require.NoError(t, err)
	defer shutdown(context.Background())

	ctx, span := otel.Tracer("telemetry-test").Start(context.Background(), "WithSpan")
	defer span.End()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	LoggerWithTrace(ctx, logger).Info("correlated line")

	out := buf.String()
	require.Contains(t, out, "trace_id")
	require.Contains(t, out, "span_id")
	assert.True(t, strings.Contains(out, span.SpanContext().TraceID().String()),
		"log line should carry the active trace id")
}
