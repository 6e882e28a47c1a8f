package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuild_JSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l, done := Build(Options{Level: "warn", JSON: true, Out: zapcore.AddSync(&buf)})

	l.Info("dropped")
	l.Warn("kept", zap.String("k", "v"))
	done()

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "kept", line["msg"])
	require.Equal(t, "v", line["k"])
	require.Contains(t, line, "ts")
}

func TestToWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l, done := Build(Options{Level: "debug", JSON: true, Out: zapcore.AddSync(&buf)})
	defer done()

	w := ToWriter(l, zapcore.InfoLevel)
	n, err := w.Write([]byte("[GIN-debug] GET /health\n"))
	require.NoError(t, err)
	require.Equal(t, 24, n)
	require.Contains(t, buf.String(), `"msg":"[GIN-debug] GET /health"`)

	std, err := ToStdLogger(l, zapcore.WarnLevel)
	require.NoError(t, err)
	std.Printf("slow sql %dms", 250)
	require.Contains(t, buf.String(), "slow sql 250ms")
}

func TestBuild_BadLevelFallsBackToInfo(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l, done := Build(Options{Level: "loud", JSON: true, Out: zapcore.AddSync(&buf)})
	l.Debug("hidden")
	l.Info("shown")
	done()
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestBuild_ServiceFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l, done := Build(Options{Level: "info", JSON: true, Service: "obituary-api", Env: "test", Out: zapcore.AddSync(&buf)})
	l.Info("hello")
	done()

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "obituary-api", line["service"])
	require.Equal(t, "test", line["env"])
}
