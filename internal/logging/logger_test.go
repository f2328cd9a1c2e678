package logging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"Warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"FATAL":   zapcore.FatalLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anneal.log")
	logger, err := NewLogger(&Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", zap.Int("towns", 5))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, float64(5), entry["towns"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewLoggerFormats(t *testing.T) {
	_, err := NewLogger(nil)
	assert.NoError(t, err)
	_, err = NewLogger(&Config{Format: "console", Output: "stdout"})
	assert.NoError(t, err)
	_, err = NewLogger(&Config{Format: "xml"})
	assert.Error(t, err)
}

func TestContextLogger(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	ctx := WithContext(context.Background(), logger)
	FromContext(ctx).Info("hello")
	assert.Equal(t, 1, logs.Len())
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/runs/abc", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "inside handler", entries[1].Message)
	assert.Equal(t, "/api/v1/runs/abc", entries[1].ContextMap()["path"])

	done := entries[2].ContextMap()
	assert.Equal(t, "Request completed", entries[2].Message)
	assert.Equal(t, int64(http.StatusTeapot), done["status"])
	assert.Equal(t, http.StatusText(http.StatusTeapot), done["error"])
}
