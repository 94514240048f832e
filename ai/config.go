// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Host is the base URL for the OpenAI-compatible chat API.
	// Example: "http://localhost:11434/v1" for a local server.
	Host string

	// Token is the API token. Use "none" for local services that don't
	// require authentication.
	Token string

	// ExtractModel is the model used for knowledge extraction.
	// Extraction runs in strict JSON mode at low temperature.
	ExtractModel string

	// InsightModel is the model used for streamed insight generation.
	InsightModel string

	// Temperature for extraction calls. Low values favor determinism.
	// Default: 0.1
	Temperature float64

	// ContextWindow is the extraction model's context size in tokens,
	// used to budget content truncation. Default: 8192.
	ContextWindow int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the chat API host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithExtractModel sets the knowledge extraction model.
func WithExtractModel(model string) ConfigOption {
	return func(c *Config) {
		c.ExtractModel = model
	}
}

// WithInsightModel sets the insight generation model.
func WithInsightModel(model string) ConfigOption {
	return func(c *Config) {
		c.InsightModel = model
	}
}

// WithTemperature sets the extraction temperature.
func WithTemperature(temp float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temp
	}
}

// WithContextWindow sets the extraction model context size in tokens.
func WithContextWindow(tokens int) ConfigOption {
	return func(c *Config) {
		c.ContextWindow = tokens
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig() *Config {
	return &Config{
		Host:          "http://localhost:11434/v1",
		Token:         "none",
		ExtractModel:  "qwen2.5:7b",
		InsightModel:  "qwen2.5:7b",
		Temperature:   0.1,
		ContextWindow: 8192,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434/v1"),
//	    ai.WithExtractModel("gpt-4o-mini"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to the host if missing, which is
// required by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.ExtractModel == "" {
		return errors.New("ai config: ExtractModel is required")
	}
	if c.InsightModel == "" {
		return errors.New("ai config: InsightModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.ContextWindow < 1024 {
		return errors.New("ai config: ContextWindow must be at least 1024")
	}
	return nil
}
