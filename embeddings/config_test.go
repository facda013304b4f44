package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedderConfig_SupportedProviders(t *testing.T) {
	for _, provider := range SupportedProviders() {
		t.Run(provider, func(t *testing.T) {
			cfg, err := NewEmbedderConfig(provider, nil)
			require.NoError(t, err)
			assert.Equal(t, provider, cfg.Provider)
			assert.NotEmpty(t, cfg.Config.Model)
		})
	}
}

func TestNewEmbedderConfig_RejectsUnknownProvider(t *testing.T) {
	for _, provider := range []string{"", "anthropic", "OpenAI", "gemini"} {
		t.Run(provider, func(t *testing.T) {
			_, err := NewEmbedderConfig(provider, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedProvider)
			assert.Contains(t, err.Error(), `"`+provider+`"`)
		})
	}
}

func TestNewEmbedderConfig_Defaults(t *testing.T) {
	cfg, err := NewEmbedderConfig(ProviderOpenAI, nil)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", cfg.Config.Model)
	assert.Equal(t, 1536, cfg.Config.Dims)

	cfg, err = NewEmbedderConfig(ProviderOllama, nil)
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", cfg.Config.Model)
	assert.Equal(t, 768, cfg.Config.Dims)
}

func TestNewEmbedderConfig_KeepsExplicitModel(t *testing.T) {
	model := EmbeddingModelConfig{Model: "text-embedding-3-large", Dims: 3072}

	cfg, err := NewEmbedderConfig(ProviderOpenAI, &model)
	require.NoError(t, err)
	assert.Equal(t, model, cfg.Config)
}

func TestEmbedderConfig_ValidateDims(t *testing.T) {
	cfg := EmbedderConfig{Provider: ProviderOpenAI, Config: EmbeddingModelConfig{Model: "m", Dims: -1}}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidDims)

	cfg.Config.Dims = 0
	assert.NoError(t, cfg.Validate())
}
