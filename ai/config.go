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
	// GenerationHost is the base URL for the text-generation service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	GenerationHost string

	// EmbeddingHost is the base URL for the remote embedding service API.
	// Unused when the local TF-IDF vectorizer is active.
	EmbeddingHost string

	// GenerationModel is the model identifier for answer generation.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	GenerationModel string

	// EmbeddingModel is the model identifier for remote embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// UseRemoteEmbedder switches query and index embedding from the local
	// TF-IDF vectorizer to the remote embedding service.
	UseRemoteEmbedder bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithGenerationHost sets the generation service host URL.
func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

// WithEmbeddingHost sets the remote embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithHost sets both generation and embedding hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
		c.EmbeddingHost = host
	}
}

// WithGenerationModel sets the generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithEmbeddingModel sets the remote embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithRemoteEmbedder enables the remote transformer embedder instead of the
// local TF-IDF vectorizer.
func WithRemoteEmbedder(enabled bool) ConfigOption {
	return func(c *Config) {
		c.UseRemoteEmbedder = enabled
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. The local TF-IDF vectorizer is the default
// embedder.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		GenerationHost:  defaultHost,
		EmbeddingHost:   defaultHost,
		GenerationModel: "qwen2.5:3b",
		EmbeddingModel:  "all-minilm",
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.GenerationHost != "" && !strings.HasSuffix(c.GenerationHost, "/v1") {
		c.GenerationHost = strings.TrimSuffix(c.GenerationHost, "/")
		c.GenerationHost = c.GenerationHost + "/v1"
	}
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.GenerationHost == "" {
		return errors.New("ai config: GenerationHost is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.UseRemoteEmbedder {
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required with remote embedder")
		}
		if c.EmbeddingModel == "" {
			return errors.New("ai config: EmbeddingModel is required with remote embedder")
		}
	}
	return nil
}
