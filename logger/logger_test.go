package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level    string
		encoding string
		want     zapcore.Level
	}{
		{"debug", "console", zapcore.DebugLevel},
		{"warn", "json", zapcore.WarnLevel},
		{"", "json", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		l, err := New(tt.level, tt.encoding)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(tt.want))
		assert.False(t, l.Core().Enabled(tt.want-1))
	}

	_, err := New("loud", "json")
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	t.Parallel()

	l := OrNop(nil)
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
}
