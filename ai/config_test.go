package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "none", cfg.Token)
	assert.Equal(t, 0.1, cfg.Temperature)
	assert.Equal(t, 8192, cfg.ContextWindow)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))
		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithExtractModel("gpt-4o-mini"),
			WithInsightModel("gpt-4o"),
		)
		assert.Equal(t, "gpt-4o-mini", cfg.ExtractModel)
		assert.Equal(t, "gpt-4o", cfg.InsightModel)
	})

	t.Run("with temperature and context window", func(t *testing.T) {
		cfg := NewConfig(WithTemperature(0.0), WithContextWindow(32768))
		assert.Equal(t, 0.0, cfg.Temperature)
		assert.Equal(t, 32768, cfg.ContextWindow)
	})
}

func TestConfigNormalize(t *testing.T) {
	t.Run("adds v1 suffix", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("strips trailing slash before adding suffix", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434/"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("leaves canonical host alone", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434/v1"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("defaults empty token", func(t *testing.T) {
		cfg := &Config{}
		cfg.Normalize()
		assert.Equal(t, "none", cfg.Token)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return NewConfig()
	}

	t.Run("default config is valid", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := valid()
		cfg.Host = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing extract model", func(t *testing.T) {
		cfg := valid()
		cfg.ExtractModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing insight model", func(t *testing.T) {
		cfg := valid()
		cfg.InsightModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("temperature out of range", func(t *testing.T) {
		cfg := valid()
		cfg.Temperature = 2.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("context window too small", func(t *testing.T) {
		cfg := valid()
		cfg.ContextWindow = 512
		assert.Error(t, cfg.Validate())
	})
}
