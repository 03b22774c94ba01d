package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func bufferLogger(buf *bytes.Buffer) *zap.Logger {
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		LevelKey:    "level",
		MessageKey:  "msg",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	})
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(buf), zapcore.DebugLevel))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out))
	return out
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, 100, cfg.MaxSizeMB)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"default", DefaultConfig()},
		{"json stderr", &Config{Level: "warn", Format: "json", Output: "stderr"}},
		{"debug console", &Config{Level: "debug", Format: "console", Output: "stdout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_FileOutputRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "petstore.log")

	l, err := New(&Config{Level: "info", Format: "console", Output: path, MaxSizeMB: 1})
	require.NoError(t, err)
	l.Info("receipt posted", zap.String("number", "RCP-2026-00001"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// file output is JSON even when console was requested
	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "receipt posted", line["msg"])
	assert.Equal(t, "RCP-2026-00001", line["number"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestCreateWriter(t *testing.T) {
	assert.Equal(t, os.Stdout, createWriter(&Config{Output: "stdout"}))
	assert.Equal(t, os.Stdout, createWriter(&Config{Output: ""}))
	assert.Equal(t, os.Stderr, createWriter(&Config{Output: "STDERR"}))

	w := createWriter(&Config{Output: "/var/log/petstore.log", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 7, Compress: true})
	lj, ok := w.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, "/var/log/petstore.log", lj.Filename)
	assert.Equal(t, 10, lj.MaxSize)
	assert.Equal(t, 3, lj.MaxBackups)
	assert.Equal(t, 7, lj.MaxAge)
	assert.True(t, lj.Compress)
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	l := Named(bufferLogger(&buf), "scheduler")
	assert.NotNil(t, l)
}

func TestContextLogger(t *testing.T) {
	t.Run("missing logger is a no-op", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		l.Info("discarded")
	})

	t.Run("round trip", func(t *testing.T) {
		var buf bytes.Buffer
		base := bufferLogger(&buf)
		ctx := WithContext(context.Background(), base)
		assert.Same(t, base, FromContext(ctx))
	})

	t.Run("request id", func(t *testing.T) {
		var buf bytes.Buffer
		ctx, l := WithRequestID(context.Background(), bufferLogger(&buf), "req-42")

		assert.Equal(t, "req-42", GetRequestID(ctx))
		assert.Equal(t, "", GetRequestID(context.Background()))

		l.Info("hello")
		assert.Equal(t, "req-42", decodeLine(t, &buf)["request_id"])
	})
}

func TestL_TraceFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), bufferLogger(&buf))

	L(ctx).Info("no span")
	line := decodeLine(t, &buf)
	assert.NotContains(t, line, "trace_id")

	buf.Reset()
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx = trace.ContextWithSpanContext(ctx, sc)

	L(ctx).Info("with span")
	line = decodeLine(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", line["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", line["span_id"])
}
