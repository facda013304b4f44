package embeddings

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder implements the Embedder interface using OpenAI's API
type OpenAIEmbedder struct {
	client *openai.Client
	config EmbeddingModelConfig
	opts   Options
}

// NewOpenAIEmbedder creates a new OpenAI embedder
func NewOpenAIEmbedder(config EmbeddingModelConfig, opts Options) *OpenAIEmbedder {
	opts = opts.withDefaults()

	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		clientConfig.HTTPClient = opts.HTTPClient
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		opts:   opts,
	}
}

// Embed converts text to a vector using OpenAI's embedding API
func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text, err := prepareText(text)
	if err != nil {
		return nil, err
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.SmallEmbedding3,
	}
	if o.config.Model != "" {
		req.Model = openai.EmbeddingModel(o.config.Model)
	}

	var embedding []float32
	err = observe(ctx, o.opts, ProviderOpenAI, string(req.Model), func(ctx context.Context) (int, error) {
		resp, err := o.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return 0, fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(resp.Data) == 0 {
			return 0, ErrNoEmbedding
		}

		embedding = resp.Data[0].Embedding
		return resp.Usage.PromptTokens, checkDims(embedding, o.config.Dims)
	})
	if err != nil {
		return nil, err
	}

	return embedding, nil
}

// Config returns the embedder's model configuration
func (o *OpenAIEmbedder) Config() EmbeddingModelConfig {
	return o.config
}
