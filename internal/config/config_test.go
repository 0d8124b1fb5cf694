package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ECHO_ROTATION_PERIOD", "")

	cfg := Load()
	assert.Equal(t, 7*time.Second, cfg.Echo.RotationPeriod)
	assert.Equal(t, 500*time.Millisecond, cfg.Echo.FadeDuration)
	assert.True(t, cfg.UsesMemoryStorage())
	assert.Equal(t, "gemini-2.5-flash", cfg.Keys.GeminiModel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ECHO_ROTATION_PERIOD", "3s")
	t.Setenv("ECHO_FADE_DURATION", "bogus")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("MAX_RECORDING_BYTES", "1024")
	t.Setenv("GO_ENV", "production")

	cfg := Load()
	assert.Equal(t, 3*time.Second, cfg.Echo.RotationPeriod)
	assert.Equal(t, 500*time.Millisecond, cfg.Echo.FadeDuration)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, int64(1024), cfg.App.MaxRecordingBytes)
	assert.True(t, cfg.IsProduction())
}
