// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TrailPass Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestSetup_AddsServiceIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("trailpass", "1.2.3", "json", &buf)

	logger.Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trailpass", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("trailpass", "dev", "text", &buf)

	logger.Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "service=trailpass")
}

func TestSetup_IncludesTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("trailpass", "dev", "json", &buf)

	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	spanID := trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	logger.InfoContext(ctx, "traced")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, traceID.String(), entry["trace_id"])
	assert.Equal(t, spanID.String(), entry["span_id"])
}

func TestSetup_OmitsTraceWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("trailpass", "dev", "json", &buf)

	logger.InfoContext(context.Background(), "untraced")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("trailpass", "dev", "json", &buf)

	logger.With(slog.String("component", "auth")).WithGroup("req").Info("grouped", "id", "42")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "auth", entry["component"])
	req, ok := entry["req"].(map[string]any)
	require.True(t, ok, "expected req group")
	assert.Equal(t, "42", req["id"])
}
