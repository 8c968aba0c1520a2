package cachetest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gotestkit/testkit/pkg/settings"
)

func TestConfigFromSettings(t *testing.T) {
	s := settings.FromMap(map[string]any{
		"redis": map[string]any{
			"host":     "cache.example.com",
			"port":     6380,
			"password": "secret",
			"db":       3,
		},
	})

	cfg := ConfigFromSettings(s)

	assert.Equal(t, "cache.example.com", cfg.Host)
	assert.Equal(t, 6380, cfg.Port)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 3, cfg.DB)
	assert.Equal(t, 10, cfg.PoolSize)
}

func TestConfigFromSettings_DefaultsToDB1(t *testing.T) {
	s := settings.FromMap(map[string]any{
		"redis": map[string]any{"host": "localhost"},
	})

	cfg := ConfigFromSettings(s)
	assert.Equal(t, 1, cfg.DB)
}

func TestConfig_Configured(t *testing.T) {
	assert.False(t, Config{}.Configured())
	assert.True(t, Config{Host: "localhost"}.Configured())
}
