package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zapcore.ErrorLevel, levelFromString("ERROR"))
	assert.Equal(t, zapcore.WarnLevel, levelFromString(" warning "))
	assert.Equal(t, zapcore.InfoLevel, levelFromString("info"))
	assert.Equal(t, zapcore.DebugLevel, levelFromString(""))
}

func TestNewHonoursLevel(t *testing.T) {
	t.Parallel()

	logger := New("warn")
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
