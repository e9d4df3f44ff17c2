package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Defaults(t *testing.T) {
	l, err := NewLogger(Config{})
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestLogger_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core)

	l.Info("search dispatched",
		String("jurisdiction", "EP"),
		Int("providers", 2),
		Bool("cached", false),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "search dispatched", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "EP", fields["jurisdiction"])
	assert.Equal(t, int64(2), fields["providers"])
	assert.Equal(t, false, fields["cached"])
}

func TestLogger_WithAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core).Named("scheduler").With(String("pass", "p-1"))

	l.Warn("asset refresh failed", String("asset_id", "US123"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "scheduler", entries[0].LoggerName)
	assert.Equal(t, "p-1", entries[0].ContextMap()["pass"])
	assert.Equal(t, "US123", entries[0].ContextMap()["asset_id"])
}

func TestErrField_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestDefault_ReplaceAndFallback(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	SetDefault(nil) // ignored
	assert.NotNil(t, Default())

	nop := NewNopLogger()
	SetDefault(nop)
	assert.Equal(t, nop, Default())
}
