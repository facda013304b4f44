package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snow-ghost/memllm/pkg/metrics"
)

// capturedEmbedRequest records what the fake OpenAI server received
type capturedEmbedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// mockOpenAIEmbeddingServer answers /embeddings with vector and records requests
func mockOpenAIEmbeddingServer(t *testing.T, vector []float32, captured *[]capturedEmbedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}

		var req capturedEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if captured != nil {
			*captured = append(*captured, req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"model":  req.Model,
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 0, "embedding": vector},
			},
			"usage": map[string]interface{}{"prompt_tokens": 4, "total_tokens": 4},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIEmbedder_ReplacesNewlines(t *testing.T) {
	var captured []capturedEmbedRequest
	server := mockOpenAIEmbeddingServer(t, []float32{0.1, 0.2, 0.3}, &captured)

	embedder := NewOpenAIEmbedder(EmbeddingModelConfig{Model: "text-embedding-3-small", Dims: 3}, Options{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	vector, err := embedder.Embed(context.Background(), "first line\nsecond line\n")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)

	require.Len(t, captured, 1)
	assert.Equal(t, []string{"first line second line "}, captured[0].Input)
	assert.Equal(t, "text-embedding-3-small", captured[0].Model)
}

func TestOpenAIEmbedder_EmptyTextNeverCallsProvider(t *testing.T) {
	var captured []capturedEmbedRequest
	server := mockOpenAIEmbeddingServer(t, []float32{1}, &captured)

	embedder := NewOpenAIEmbedder(DefaultModelConfig(), Options{BaseURL: server.URL})

	_, err := embedder.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Empty(t, captured)
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	server := mockOpenAIEmbeddingServer(t, []float32{0.1, 0.2}, nil)

	embedder := NewOpenAIEmbedder(EmbeddingModelConfig{Model: "m", Dims: 1536}, Options{BaseURL: server.URL})

	vector, err := embedder.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Nil(t, vector)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "expected 1536, got 2")
}

func TestOpenAIEmbedder_ZeroDimsSkipsCheck(t *testing.T) {
	server := mockOpenAIEmbeddingServer(t, []float32{0.5, 0.5}, nil)

	embedder := NewOpenAIEmbedder(EmbeddingModelConfig{Model: "m"}, Options{BaseURL: server.URL})

	vector, err := embedder.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vector, 2)
}

func TestOpenAIEmbedder_ProviderErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	embedder := NewOpenAIEmbedder(DefaultModelConfig(), Options{APIKey: "bad", BaseURL: server.URL})

	_, err := embedder.Embed(context.Background(), "hello")
	require.Error(t, err)

	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr), "provider error should stay inspectable: %v", err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatusCode)
}

func TestOpenAIEmbedder_RecordsMetrics(t *testing.T) {
	server := mockOpenAIEmbeddingServer(t, []float32{1, 2, 3}, nil)
	m := metrics.NewMetrics(prometheus.NewRegistry())

	embedder := NewOpenAIEmbedder(EmbeddingModelConfig{Model: "text-embedding-3-small", Dims: 3}, Options{
		BaseURL: server.URL,
		Metrics: m,
	})

	_, err := embedder.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(ProviderOpenAI, "text-embedding-3-small", "embed", metrics.StatusSuccess)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.TokensInputTotal.WithLabelValues(ProviderOpenAI, "text-embedding-3-small")))
}

func TestNew_UnsupportedProviderNeverReachesNetwork(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	embedder, err := New(EmbedderConfig{Provider: "cohere", Config: DefaultModelConfig()}, Options{
		BaseURL:    server.URL,
		OllamaHost: server.URL,
	})
	require.Error(t, err)
	assert.Nil(t, embedder)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Contains(t, err.Error(), "cohere")
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestNew_SelectsProvider(t *testing.T) {
	embedder, err := New(DefaultEmbedderConfig(), Options{})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, embedder)

	cfg, err := NewEmbedderConfig(ProviderOllama, nil)
	require.NoError(t, err)
	embedder, err = New(cfg, Options{})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, embedder)
}
