package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaHost = "http://localhost:11434"

// ollamaEmbedRequest is the request body for the Ollama embeddings API
type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// ollamaEmbedResponse is the response body of the Ollama embeddings API
type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// OllamaEmbedder implements the Embedder interface against a local Ollama server
type OllamaEmbedder struct {
	client  *http.Client
	baseURL string
	config  EmbeddingModelConfig
	opts    Options
}

// NewOllamaEmbedder creates a new Ollama embedder
func NewOllamaEmbedder(config EmbeddingModelConfig, opts Options) *OllamaEmbedder {
	opts = opts.withDefaults()

	host := opts.OllamaHost
	if host == "" {
		host = defaultOllamaHost
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if config.Model == "" {
		config.Model = DefaultOllamaModelConfig().Model
	}

	return &OllamaEmbedder{
		client:  client,
		baseURL: strings.TrimRight(host, "/"),
		config:  config,
		opts:    opts,
	}
}

// Embed converts text to a vector using the Ollama embeddings API
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text, err := prepareText(text)
	if err != nil {
		return nil, err
	}

	var embedding []float32
	err = observe(ctx, e.opts, ProviderOllama, e.config.Model, func(ctx context.Context) (int, error) {
		vector, err := e.do(ctx, text)
		if err != nil {
			return 0, err
		}
		embedding = vector
		// Ollama reports no usage, so input tokens are estimated.
		return e.opts.Tokens.Count(e.config.Model, text), checkDims(vector, e.config.Dims)
	})
	if err != nil {
		return nil, err
	}

	return embedding, nil
}

func (e *OllamaEmbedder) do(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(ollamaEmbedRequest{
		Model:  e.config.Model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama embed request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama embed API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama embed API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var ollamaResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama embed response: %w", err)
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, ErrNoEmbedding
	}

	return ollamaResp.Embedding, nil
}

// Config returns the embedder's model configuration
func (e *OllamaEmbedder) Config() EmbeddingModelConfig {
	return e.config
}
