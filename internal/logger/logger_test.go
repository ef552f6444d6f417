package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_LevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	l := New("prod")
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	t.Setenv("LOG_LEVEL", "bogus")
	assert.True(t, New("dev").Core().Enabled(zapcore.DebugLevel))
}

func TestHelpersWriteToInstalledLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	Info("ticket booked", zap.Int("seat_number", 5))
	Debug("dropped")
	With(zap.String("ticket_id", "t-1")).Warn("cache purge failed")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "ticket booked", entries[0].Message)
		assert.Equal(t, int64(5), entries[0].ContextMap()["seat_number"])
		assert.Equal(t, "t-1", entries[1].ContextMap()["ticket_id"])
	}

	Set(nil)
	assert.NotPanics(t, func() { Error("after reset") })
}
