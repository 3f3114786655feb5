package zaplogging

import (
	"testing"

	"github.com/core-tools/hsu-service-go/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input       string
		expected    zapcore.Level
		expectError bool
	}{
		{"", zapcore.InfoLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestZapSprintfLogger_ThroughLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	backend := NewZapSprintfLoggerFrom(zap.New(core))

	logger := logging.NewLogger("module: test , ", backend.LogFuncs())
	logger.Infof("started %s", "web")
	logger.Warnf("pid %d", 42)
	logger.LogLevelf(logging.ErrorLevel, "failed")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "module: test , started web", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "module: test , pid 42", entries[1].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestNewZapSprintfLogger_InvalidLevel(t *testing.T) {
	_, err := NewZapSprintfLogger("loud")
	assert.Error(t, err)
}
