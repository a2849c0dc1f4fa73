package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	slog, err := New("debug", true)
	require.NoError(t, err)
	assert.True(t, slog.Desugar().Core().Enabled(zapcore.DebugLevel))

	slog, err = New("", false)
	require.NoError(t, err)
	assert.False(t, slog.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, slog.Desugar().Core().Enabled(zapcore.InfoLevel))

	slog, err = New("WARN", false)
	require.NoError(t, err)
	assert.False(t, slog.Desugar().Core().Enabled(zapcore.InfoLevel))

	_, err = New("loud", false)
	assert.Error(t, err)
}
