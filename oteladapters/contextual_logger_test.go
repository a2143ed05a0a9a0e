package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/AntonStoeckl/library-lending-go/oteladapters"
)

func Test_SlogBridgeLoggerWithHandler_WritesAllLevels(t *testing.T) {
	// setup
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "executed sql for: lock book", "duration_ms", 1.5)
	logger.InfoContext(ctx, "library operation: borrow", "book_id", 7)
	logger.WarnContext(ctx, "slow query")
	logger.ErrorContext(ctx, "library operation failed: return", "error_kind", "internal")

	// assert
	output := buf.String()
	assert.Contains(t, output, "level=DEBUG")
	assert.Contains(t, output, `msg="executed sql for: lock book" duration_ms=1.5`)
	assert.Contains(t, output, "level=INFO")
	assert.Contains(t, output, "book_id=7")
	assert.Contains(t, output, "level=WARN")
	assert.Contains(t, output, "error_kind=internal")
}

func Test_SlogBridgeLoggerWithHandler_RespectsHandlerLevel(t *testing.T) {
	// setup
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	// act
	logger.DebugContext(context.Background(), "executed sql for: list cards")

	// assert
	assert.Empty(t, buf.String())
}

func Test_NewSlogBridgeLogger_DoesNotPanicWithoutProvider(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("library-test")

	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "library operation: list cards", "card_count", 0)
	})
}

func Test_OTelLogger_EmitsSeverityBodyAndTypedAttributes(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.InfoContext(context.Background(), "library operation: borrow",
		"book_id", int64(42),
		"operation", "borrow",
		"duration_ms", 2.5,
		"rejected", false,
	)

	// assert
	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.Equal(t, log.SeverityInfo, record.Severity())
	assert.Equal(t, "library operation: borrow", record.Body().AsString())

	attrs := attributesOf(record)
	assert.Equal(t, int64(42), attrs["book_id"].AsInt64())
	assert.Equal(t, "borrow", attrs["operation"].AsString())
	assert.InDelta(t, 2.5, attrs["duration_ms"].AsFloat64(), 0.0001)
	assert.False(t, attrs["rejected"].AsBool())
}

func Test_OTelLogger_MapsLevelsToSeverities(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug")
	logger.InfoContext(ctx, "info")
	logger.WarnContext(ctx, "warn")
	logger.ErrorContext(ctx, "error")

	// assert
	require.Len(t, recorder.records, 4)
	assert.Equal(t, log.SeverityDebug, recorder.records[0].Severity())
	assert.Equal(t, log.SeverityInfo, recorder.records[1].Severity())
	assert.Equal(t, log.SeverityWarn, recorder.records[2].Severity())
	assert.Equal(t, log.SeverityError, recorder.records[3].Severity())
}

func Test_OTelLogger_SkipsMalformedArguments(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.ErrorContext(context.Background(), "library operation failed: borrow",
		42, "not a key",
		"error_kind", "internal",
		"dangling",
	)

	// assert
	require.Len(t, recorder.records, 1)
	attrs := attributesOf(recorder.records[0])
	assert.Len(t, attrs, 1)
	assert.Equal(t, "internal", attrs["error_kind"].AsString())
}

func Test_OTelLogger_WithNoopLogger(t *testing.T) {
	logger := oteladapters.NewOTelLogger(noop.NewLoggerProvider().Logger("library-test"))

	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "library operation: history", "item_count", 3)
	})
}

type recordingLogger struct {
	embedded.Logger

	records []log.Record
}

func (l *recordingLogger) Emit(_ context.Context, record log.Record) {
	l.records = append(l.records, record)
}

func (l *recordingLogger) Enabled(_ context.Context, _ log.EnabledParameters) bool {
	return true
}

func attributesOf(record log.Record) map[string]log.Value {
	attrs := make(map[string]log.Value)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	return attrs
}
