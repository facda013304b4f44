package embeddings

import (
	"errors"
	"fmt"
)

// Supported embedding providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

var (
	// ErrUnsupportedProvider is returned when a provider is outside the allow-list.
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	// ErrInvalidDims is returned for a negative dimension count.
	ErrInvalidDims = errors.New("invalid embedding dimensions")
)

// EmbeddingModelConfig describes the model an embedder talks to.
// Dims is the expected vector length; zero disables the length check.
type EmbeddingModelConfig struct {
	Model string `json:"model" yaml:"model" toml:"model"`
	Dims  int    `json:"dims" yaml:"dims" toml:"dims"`
}

// DefaultModelConfig returns the default OpenAI embedding model configuration
func DefaultModelConfig() EmbeddingModelConfig {
	return EmbeddingModelConfig{
		Model: "text-embedding-3-small",
		Dims:  1536,
	}
}

// DefaultOllamaModelConfig returns the default local embedding model configuration
func DefaultOllamaModelConfig() EmbeddingModelConfig {
	return EmbeddingModelConfig{
		Model: "nomic-embed-text",
		Dims:  768,
	}
}

// EmbedderConfig selects an embedding provider and its model
type EmbedderConfig struct {
	Provider string               `json:"provider" yaml:"provider" toml:"provider"`
	Config   EmbeddingModelConfig `json:"config" yaml:"config" toml:"config"`
}

// DefaultEmbedderConfig returns the openai provider with its default model
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		Provider: ProviderOpenAI,
		Config:   DefaultModelConfig(),
	}
}

// SupportedProviders lists the accepted provider names
func SupportedProviders() []string {
	return []string{ProviderOpenAI, ProviderOllama}
}

// NewEmbedderConfig validates provider and returns the configuration.
// A nil cfg selects the provider's default model.
func NewEmbedderConfig(provider string, cfg *EmbeddingModelConfig) (EmbedderConfig, error) {
	c := EmbedderConfig{Provider: provider}
	switch {
	case cfg != nil:
		c.Config = *cfg
	case provider == ProviderOllama:
		c.Config = DefaultOllamaModelConfig()
	default:
		c.Config = DefaultModelConfig()
	}

	if err := c.Validate(); err != nil {
		return EmbedderConfig{}, err
	}
	return c, nil
}

// Validate checks the provider against the allow-list and the model settings
func (c EmbedderConfig) Validate() error {
	if !isSupported(c.Provider) {
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, c.Provider)
	}
	if c.Config.Dims < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDims, c.Config.Dims)
	}
	return nil
}

func isSupported(provider string) bool {
	for _, p := range SupportedProviders() {
		if p == provider {
			return true
		}
	}
	return false
}
