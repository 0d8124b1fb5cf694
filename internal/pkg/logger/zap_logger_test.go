package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Warn("INSIGHT", "analysis failed", map[string]interface{}{"error": errors.New("boom")})
	l.Info("JOURNAL", "bead finalized", nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, "INSIGHT", entries[0].ContextMap()["module"])
		assert.Equal(t, "bead finalized", entries[1].Message)
		assert.NotNil(t, entries[1].ContextMap()["details"])
	}
}

func TestErrorAddsReference(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Error("IMPORT", "parse failed", map[string]interface{}{"error": "bad json"})

	assert.Equal(t, "bad json", logs.All()[0].ContextMap()["error_ref"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Error("X", "ignored", nil)
	assert.NoError(t, l.Sync())
}
